package providers

import (
	"context"

	"github.com/sriinnu/chitragupta/internal/agent"
	"github.com/sriinnu/chitragupta/internal/resilience"
	"github.com/sriinnu/chitragupta/pkg/models"
)

// Resilient wraps a raw agent.Provider so every Stream call's opening
// attempt goes through rate-limit admission, a circuit breaker, and
// classification-aware retry, using the same resilience.StreamPolicy the
// rest of the runtime shares. Per-event delivery on the returned channel is
// untouched; only the open is gated and retried.
type Resilient struct {
	Provider agent.Provider
	Policy   resilience.StreamPolicy

	// Tokens is the rate-limiter cost of one Stream call. Defaults to 1.
	Tokens float64
	// Priority is passed to the limiter's wait queue; higher values go first.
	Priority int
}

func (r *Resilient) Name() string          { return r.Provider.Name() }
func (r *Resilient) Models() []models.Model { return r.Provider.Models() }

func (r *Resilient) Stream(ctx context.Context, req agent.CompletionRequest) (<-chan agent.StreamEvent, error) {
	tokens := r.Tokens
	if tokens <= 0 {
		tokens = 1
	}
	return resilience.ResilientStream(ctx, r.Policy, tokens, r.Priority, func(ctx context.Context) (<-chan agent.StreamEvent, error) {
		return r.Provider.Stream(ctx, req)
	})
}
