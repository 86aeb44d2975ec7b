package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestActionMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ActionStarted("deposit")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.actionsInFlight.WithLabelValues("deposit")))

	m.ActionFinished("deposit", "ok", 1.5)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.actionsInFlight.WithLabelValues("deposit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.actionsTotal.WithLabelValues("deposit", "ok")))
}

func TestSubscriptionMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.SubscriptionOpened()
	m.SubscriptionOpened()
	m.SubscriptionClosed()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.subscriptions))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ActionStarted("balance")
		m.ActionFinished("balance", "query_failed", 0.1)
		m.RecordNotification("error")
		m.RecordEventPublished("ok")
		m.SubscriptionOpened()
		m.SubscriptionClosed()
		m.RecordHTTPRequest("/view", http.MethodGet, http.StatusOK, 0.01)
	})
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	handler := HTTPMetricsMiddleware(m, "/api/v1/deposit")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/deposit", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("/api/v1/deposit", http.MethodPost, "4xx")))
}
