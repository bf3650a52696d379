package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	authChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "otelshin",
			Name:      "auth_checks_total",
			Help:      "Session verification requests by result.",
		},
		[]string{"result"},
	)

	webhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "otelshin",
			Name:      "webhook_events_total",
			Help:      "Inbound bot events by kind.",
		},
		[]string{"kind"},
	)

	sessionsAuthorized = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "otelshin",
			Name:      "sessions_authorized_total",
			Help:      "Sessions flipped to authorized.",
		},
	)

	sheetsSync = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "otelshin",
			Name:      "sheets_sync_total",
			Help:      "Sheet mirror tasks by status.",
		},
		[]string{"status"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(authChecks, webhookEvents, sessionsAuthorized, sheetsSync)
	})
}

// IncAuthCheck increments the verification counter with a result label
// (authorized, unauthorized, bad_request, rate_limited, error).
func IncAuthCheck(result string) {
	authChecks.WithLabelValues(result).Inc()
}

// IncWebhookEvent increments the inbound event counter for an event kind.
func IncWebhookEvent(kind string) {
	webhookEvents.WithLabelValues(kind).Inc()
}

// IncSessionAuthorized counts a session authorization.
func IncSessionAuthorized() {
	sessionsAuthorized.Inc()
}

// IncSheetsSync counts a mirror task outcome (completed, retry, failed).
func IncSheetsSync(status string) {
	sheetsSync.WithLabelValues(status).Inc()
}
