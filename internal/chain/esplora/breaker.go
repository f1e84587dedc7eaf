package esplora

import (
	"github.com/sony/gobreaker"
)

// Breaker trip thresholds. The breaker opens once more than
// MaxFailingRequests requests were seen in the current interval and at least
// FailingRatio of them failed.
//
//nolint:gochecknoglobals // Tunable in tests
var (
	MaxFailingRequests = 10
	FailingRatio       = 0.6
)

func newCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: name,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return int(counts.Requests) > MaxFailingRequests && ratio >= FailingRatio
		},
	})
}
