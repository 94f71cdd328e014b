// Package circuitbreaker wraps sony/gobreaker with the trip policy used
// for every external service this client talks to (derivation service,
// gateway, faucet).
package circuitbreaker

import (
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

var (
	// MinRequestsBeforeTrip is the minimum number of observed requests
	// before the breaker considers tripping.
	MinRequestsBeforeTrip = 10

	// FailingRatio is the failure ratio at which the breaker opens.
	FailingRatio = 0.6

	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout = 30 * time.Second
)

// New returns a named circuit breaker that opens once at least
// MinRequestsBeforeTrip requests have been seen and FailingRatio of them
// failed. State changes are logged so an unreachable service is visible
// without tracing individual calls.
func New(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return int(counts.Requests) >= MinRequestsBeforeTrip && ratio >= FailingRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(log.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
	})
}
