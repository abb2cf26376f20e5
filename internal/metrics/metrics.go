// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Turns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parlami_turns_total",
			Help: "Handled learner turns by the state they ended in",
		},
		[]string{"state"},
	)

	QuizAnswers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parlami_quiz_answers_total",
			Help: "Graded quiz answers",
		},
		[]string{"correct"},
	)

	LevelUps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parlami_level_ups_total",
			Help: "Level promotions by target level",
		},
		[]string{"level"},
	)

	CollaboratorFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parlami_collaborator_failures_total",
			Help: "Failed calls to transcription, synthesis, completion and transports",
		},
		[]string{"collaborator"},
	)

	TurnDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "parlami_turn_duration_seconds",
			Help:    "Wall-clock time to handle one inbound event",
			Buckets: prometheus.DefBuckets,
		},
	)

	QueuedEvents = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "parlami_queued_events",
			Help: "Inbound events waiting in per-user queues",
		},
	)

	ActiveUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "parlami_active_users",
			Help: "Users with a running drain goroutine",
		},
	)
)

// Collaborator label values.
const (
	Transcription = "transcription"
	Synthesis     = "synthesis"
	Completion    = "completion"
	Transport     = "transport"
	Store         = "store"
)
