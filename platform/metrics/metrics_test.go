package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounters(t *testing.T) {
	r := New()
	r.Transition("internal", "START", true)
	r.Transition("internal", "START", true)
	r.Transition("external", "PLAN", false)
	r.Sweep(3, 1)
	r.Materialized(2, 4)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.transitions.WithLabelValues("internal", "START", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.transitions.WithLabelValues("external", "PLAN", "failure")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.sweepPromotions))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.sweepFailures))
	assert.Equal(t, 4.0, testutil.ToFloat64(r.materialized.WithLabelValues("created")))
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	r.Transition("internal", "START", true)
	r.Sweep(1, 0)
	r.HoldOperation("create", true)
	r.Reschedule(false)
}

func TestHandlerServesMetrics(t *testing.T) {
	r := New()
	r.HoldOperation("release", true)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "maintenance_calendar_hold_operations_total")
}
