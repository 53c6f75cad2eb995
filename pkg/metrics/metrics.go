// Package metrics holds the Prometheus collectors for account and authentication
// activity. Collectors are created at init and must be registered once at startup
// with RegisterMetrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for authentication attempts.
const (
	AuthAccepted      = "accepted"
	AuthMissingKey    = "missing_key"
	AuthUnknownKey    = "unknown_key"
	AuthUnknownOrigin = "unknown_origin"
	AuthError         = "error"
)

// Result labels for account operations.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// AuthAttempts counts credential resolutions by outcome.
var AuthAttempts = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "keyauth_auth_attempts_total",
		Help: "Total number of API key resolution attempts",
	},
	[]string{"outcome"},
)

// AccountOperations counts account service operations by result.
var AccountOperations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "keyauth_account_operations_total",
		Help: "Total number of account operations",
	},
	[]string{"operation", "result"},
)

// HashDuration tracks password hashing and verification latency.
var HashDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "keyauth_password_hash_duration_seconds",
		Help:    "Password hash and verify duration in seconds",
		Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	},
	[]string{"operation"},
)

// KeyCollisions counts api key minting collisions that triggered a retry.
var KeyCollisions = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "keyauth_api_key_collisions_total",
		Help: "Total number of api key collisions during account creation",
	},
)

// RegisterMetrics registers the collectors with reg.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(AuthAttempts)
	reg.MustRegister(AccountOperations)
	reg.MustRegister(HashDuration)
	reg.MustRegister(KeyCollisions)
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func RecordAuthAttempt(outcome string) {
	AuthAttempts.WithLabelValues(outcome).Inc()
}

// RecordAccountOperation increments the operation counter, deriving the result from err.
func RecordAccountOperation(operation string, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	AccountOperations.WithLabelValues(operation, result).Inc()
}

func RecordHashDuration(operation string, d time.Duration) {
	HashDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func RecordKeyCollision() {
	KeyCollisions.Inc()
}
