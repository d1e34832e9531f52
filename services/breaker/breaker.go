// Package breaker builds the circuit breakers guarding calls to external services.
package breaker

import (
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/Junosprite007/mod-equipmentcheckout/core"
)

// Names of the guarded services
const (
	RabbitMQ = "RabbitMQ-Publisher"
	Sendgrid = "Sendgrid"
)

// MaxConsecutiveFailures opens the circuit.
const MaxConsecutiveFailures = 3

// New returns a circuit breaker that opens after MaxConsecutiveFailures consecutive failures
// and logs its state changes to `logger` (when not nil).
func New(name string, logger core.Logger) *gobreaker.CircuitBreaker {
	timeout := 30 * time.Second
	if name == Sendgrid {
		timeout = time.Minute
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= MaxConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if logger != nil {
				logger.Warn(fmt.Sprintf("circuit breaker %s: %s -> %s", name, from, to))
			}
		},
	})
}
