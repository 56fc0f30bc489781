package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request outcomes, one per logical call.
const (
	OutcomeOK          = "ok"
	OutcomeClientError = "client_error"
	OutcomeServerError = "server_error"
	OutcomeNetwork     = "network_error"
	OutcomeAuthExpired = "auth_expired"
)

// Refresh results.
const (
	RefreshSuccess   = "success"
	RefreshFailure   = "failure"
	RefreshDiscarded = "discarded"
)

// Metrics is optional; a nil *Metrics records nothing.
type Metrics struct {
	Requests        *prometheus.CounterVec
	Retries         prometheus.Counter
	Refreshes       *prometheus.CounterVec
	RequestDuration prometheus.Histogram
}

// NewMetrics registers the client collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_client_requests_total",
			Help: "Logical API calls by outcome",
		}, []string{"outcome"}),
		Retries: f.NewCounter(prometheus.CounterOpts{
			Name: "chat_client_retries_total",
			Help: "Requests replayed after a token refresh",
		}),
		Refreshes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_client_token_refreshes_total",
			Help: "Calls to the refresh endpoint by result",
		}, []string{"result"}),
		RequestDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "chat_client_request_duration_seconds",
			Help:    "Duration of logical API calls, replay included",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}

func (m *Metrics) observeRequest(outcome string, start time.Time) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(outcome).Inc()
	m.RequestDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) incRetry() {
	if m == nil {
		return
	}
	m.Retries.Inc()
}

func (m *Metrics) incRefresh(result string) {
	if m == nil {
		return
	}
	m.Refreshes.WithLabelValues(result).Inc()
}
