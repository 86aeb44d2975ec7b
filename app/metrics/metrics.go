package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the prometheus collectors of the gateway. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	// Gateway action metrics
	actionsTotal    *prometheus.CounterVec
	actionDuration  *prometheus.HistogramVec
	actionsInFlight *prometheus.GaugeVec

	// Presentation metrics
	notificationsTotal *prometheus.CounterVec
	eventsPublished    *prometheus.CounterVec
	subscriptions      prometheus.Gauge

	// HTTP metrics
	httpRequestDuration *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		actionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vaultgate_actions_total",
				Help: "Total number of gateway actions by action and result",
			},
			[]string{"action", "result"},
		),
		actionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "vaultgate_action_duration_seconds",
				Help: "Duration of gateway actions, confirmation wait included",
				// writes wait for blocks, hence the long tail
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
			},
			[]string{"action"},
		),
		actionsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "vaultgate_actions_in_flight",
				Help: "Number of gateway actions currently waiting on the wallet or the network",
			},
			[]string{"action"},
		),
		notificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vaultgate_notifications_total",
				Help: "Total number of notifications sent by level",
			},
			[]string{"level"},
		),
		eventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vaultgate_events_published_total",
				Help: "Total number of outcome events published by status",
			},
			[]string{"status"},
		),
		subscriptions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "vaultgate_ws_subscriptions",
				Help: "Number of open notification websockets",
			},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vaultgate_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"handler", "method"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vaultgate_http_requests_total",
				Help: "Total number of HTTP requests by handler, method and status",
			},
			[]string{"handler", "method", "status"},
		),
	}
}

// ActionStarted marks an action as in flight.
func (m *Metrics) ActionStarted(action string) {
	if m == nil {
		return
	}
	m.actionsInFlight.WithLabelValues(action).Inc()
}

// ActionFinished records the result of an action started with ActionStarted.
func (m *Metrics) ActionFinished(action, result string, duration float64) {
	if m == nil {
		return
	}
	m.actionsInFlight.WithLabelValues(action).Dec()
	m.actionsTotal.WithLabelValues(action, result).Inc()
	m.actionDuration.WithLabelValues(action).Observe(duration)
}

func (m *Metrics) RecordNotification(level string) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(level).Inc()
}

func (m *Metrics) RecordEventPublished(status string) {
	if m == nil {
		return
	}
	m.eventsPublished.WithLabelValues(status).Inc()
}

func (m *Metrics) SubscriptionOpened() {
	if m == nil {
		return
	}
	m.subscriptions.Inc()
}

func (m *Metrics) SubscriptionClosed() {
	if m == nil {
		return
	}
	m.subscriptions.Dec()
}

func (m *Metrics) RecordHTTPRequest(handler, method string, status int, duration float64) {
	if m == nil {
		return
	}
	m.httpRequestDuration.WithLabelValues(handler, method).Observe(duration)
	m.httpRequestsTotal.WithLabelValues(handler, method, statusClass(status)).Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
