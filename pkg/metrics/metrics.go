package metrics

import (
	"lifelog/backend/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Password reset event labels.
const (
	ResetRequested    = "requested"
	ResetUnknownEmail = "unknown_email"
	ResetVerified     = "verified"
	ResetRejected     = "rejected"
	ResetCompleted    = "completed"
	ResetCleaned      = "cleaned"
)

var (
	// HTTPRequestCounter counts processed HTTP requests.
	HTTPRequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifelog_http_requests_total",
			Help: "Total number of HTTP requests processed.",
		},
		[]string{"method", "path", "status_code"},
	)

	// HTTPRequestDuration observes HTTP request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lifelog_http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// PasswordResetEvents counts password reset lifecycle events by outcome.
	PasswordResetEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifelog_password_reset_events_total",
			Help: "Password reset lifecycle events.",
		},
		[]string{"event"},
	)

	// RateLimitedRequests counts requests rejected by the rate limiter.
	RateLimitedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifelog_rate_limited_requests_total",
			Help: "Requests rejected by the rate limiter.",
		},
		[]string{"scope"},
	)

	// AppInfo exposes the running version.
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lifelog_app_info",
			Help: "Information about the LifeLog backend.",
		},
		[]string{"version"},
	)
)

// RecordPasswordReset increments the password reset counter for event; counts may be > 1 for cleanup.
func RecordPasswordReset(event string, count int) {
	if count <= 0 {
		return
	}
	PasswordResetEvents.WithLabelValues(event).Add(float64(count))
}

func init() {
	AppInfo.With(prometheus.Labels{"version": config.Cfg.AppVersion}).Set(1)
}
