package resilience

import (
	"context"
	"time"

	"github.com/sriinnu/chitragupta/internal/agent"
)

// StreamPolicy bundles the admission controls one provider endpoint is
// protected by.
type StreamPolicy struct {
	Limiter *Limiter
	Breaker *CircuitBreaker
	Retry   RetryConfig
}

// ResilientStream composes rate-limit admission, a circuit gate, and a
// retrying provider call: it blocks on Acquire, refuses immediately if the
// circuit is open, and retries transport-level stream-open failures; each
// failed open counts toward the breaker's consecutive-failure threshold,
// which opens the circuit once reached. The returned channel is the live
// provider stream for the caller to consume directly; Acquire/circuit/retry
// only gate the *opening* of the stream, matching the provider contract
// that per-event delivery is the caller's responsibility.
func ResilientStream(ctx context.Context, policy StreamPolicy, tokens float64, priority int, open func(context.Context) (<-chan agent.StreamEvent, error)) (<-chan agent.StreamEvent, error) {
	if policy.Limiter != nil {
		if err := policy.Limiter.Acquire(ctx, tokens, priority); err != nil {
			return nil, err
		}
	}

	var ch <-chan agent.StreamEvent
	attemptOpen := func(ctx context.Context) (time.Duration, error) {
		var err error
		opErr := func() error {
			if policy.Breaker != nil {
				return policy.Breaker.Execute(ctx, func(ctx context.Context) error {
					var innerErr error
					ch, innerErr = open(ctx)
					return innerErr
				})
			}
			ch, err = open(ctx)
			return err
		}()
		return 0, opErr
	}

	if err := Do(ctx, policy.Retry, attemptOpen); err != nil {
		return nil, err
	}
	return ch, nil
}
