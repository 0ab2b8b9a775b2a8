package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveRequest("GET", "school", "ok", 10*time.Millisecond)
	m.ObserveRequest("GET", "school", "ok", 20*time.Millisecond)
	m.ObserveRequest("GET", "subject", "5xx", time.Millisecond)
	m.BranchFailed("assignments")
	m.ObserveAggregation("student", "ok", time.Second)
	m.ObserveGrading("partial")
	m.ObserveEvent("submission.graded", "ok")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.upstreamRequests.WithLabelValues("GET", "school", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.upstreamRequests.WithLabelValues("GET", "subject", "5xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.branchFailures.WithLabelValues("assignments")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.aggregations.WithLabelValues("student", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.gradings.WithLabelValues("partial")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues("submission.graded", "ok")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveRequest("GET", "school", "ok", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "edusmart_portal_upstream_requests_total")
}
