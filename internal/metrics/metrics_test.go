package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollaboratorFailuresCounter(t *testing.T) {
	before := testutil.ToFloat64(CollaboratorFailures.WithLabelValues(Synthesis))
	CollaboratorFailures.WithLabelValues(Synthesis).Inc()
	if got := testutil.ToFloat64(CollaboratorFailures.WithLabelValues(Synthesis)); got != before+1 {
		t.Errorf("synthesis failures = %v, want %v", got, before+1)
	}
}
