package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/abhisek/parlami/internal/bot"
)

const maxBodyBytes = 25 << 20

type eventRequest struct {
	UserID      string `json:"user_id" validate:"required,max=128"`
	DisplayName string `json:"display_name" validate:"max=128"`
	Kind        string `json:"kind" validate:"required,oneof=text command voice"`
	Payload     string `json:"payload" validate:"required_unless=Kind voice"`
	// Audio is base64 in JSON.
	Audio    []byte `json:"audio" validate:"required_if=Kind voice"`
	MIMEType string `json:"mime_type"`
}

type eventResponse struct {
	TurnID     string   `json:"turn_id"`
	Messages   []string `json:"messages"`
	Transcript string   `json:"transcript,omitempty"`
	Voice      []byte   `json:"voice,omitempty"`
	Silent     bool     `json:"silent"`
	Error      string   `json:"error,omitempty"`
}

var kinds = map[string]bot.Kind{
	"text":    bot.KindText,
	"command": bot.KindCommand,
	"voice":   bot.KindVoice,
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	ev := bot.Event{
		UserID:      strings.TrimSpace(req.UserID),
		DisplayName: req.DisplayName,
		Kind:        kinds[req.Kind],
		Payload:     req.Payload,
		Audio:       req.Audio,
		MIMEType:    req.MIMEType,
		ReceivedAt:  time.Now().UTC(),
	}

	out, err := s.processor.Process(r.Context(), ev)
	resp := eventResponse{
		TurnID:     out.TurnID,
		Messages:   out.Messages,
		Transcript: out.Transcript,
		Voice:      out.Voice,
		Silent:     out.Silent,
	}
	if resp.Messages == nil {
		resp.Messages = []string{}
	}
	if err != nil {
		s.log.Warn("event processed with error", "turn_id", out.TurnID, "user_id", ev.UserID, "error", err)
		if len(out.Messages) == 0 {
			writeError(w, http.StatusServiceUnavailable, "turn failed")
			return
		}
		resp.Error = "turn completed with a degraded reply"
	}
	writeJSON(w, http.StatusOK, resp)
}

type sessionResponse struct {
	UserID          string     `json:"user_id"`
	Level           string     `json:"level"`
	Score           int        `json:"score"`
	State           string     `json:"state"`
	LastInteraction *time.Time `json:"last_interaction,omitempty"`
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		writeError(w, http.StatusNotFound, "sessions are not exposed")
		return
	}
	userID := chi.URLParam(r, "userID")
	sess, err := s.sessions.Session(r.Context(), userID)
	if err != nil {
		s.log.Error("load session failed", "user_id", userID, "error", err)
		writeError(w, http.StatusServiceUnavailable, "session store unavailable")
		return
	}
	resp := sessionResponse{
		UserID: sess.UserID,
		Level:  string(sess.Level),
		Score:  sess.Score,
		State:  string(sess.State),
	}
	if !sess.LastInteraction.IsZero() {
		t := sess.LastInteraction
		resp.LastInteraction = &t
	}
	writeJSON(w, http.StatusOK, resp)
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Checks: map[string]string{}}
	status := http.StatusOK
	for name, check := range s.checks {
		if err := check(r.Context()); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	writeJSON(w, status, resp)
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, strings.ToLower(fe.Field())+": failed "+fe.Tag())
	}
	return strings.Join(msgs, "; ")
}
