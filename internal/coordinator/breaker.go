package coordinator

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// breakerSet holds one circuit breaker per source. A source that keeps
// failing gets skipped entirely for a cooldown instead of burning request
// budget on a provider that is down.
type breakerSet struct {
	breakers map[string]*gobreaker.CircuitBreaker
}

func newBreakerSet(sourceIDs []string, log *logrus.Logger) *breakerSet {
	set := &breakerSet{breakers: make(map[string]*gobreaker.CircuitBreaker, len(sourceIDs))}
	for _, id := range sourceIDs {
		sourceID := id
		set.breakers[sourceID] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        sourceID,
			MaxRequests: 1,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.WithFields(logrus.Fields{
					"source": name,
					"from":   from.String(),
					"to":     to.String(),
				}).Warn("⚠️  source circuit breaker state change")
			},
		})
	}
	return set
}

func (s *breakerSet) open(sourceID string) bool {
	cb, ok := s.breakers[sourceID]
	return ok && cb.State() == gobreaker.StateOpen
}

// execute runs fn through the source's breaker so consecutive failures are
// counted. Sources without a registered breaker run unguarded.
func (s *breakerSet) execute(sourceID string, fn func() (interface{}, error)) (interface{}, error) {
	cb, ok := s.breakers[sourceID]
	if !ok {
		return fn()
	}
	return cb.Execute(fn)
}
