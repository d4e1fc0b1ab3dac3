package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/sriinnu/chitragupta/internal/agent"
	"github.com/sriinnu/chitragupta/internal/providers/mock"
	"github.com/sriinnu/chitragupta/internal/resilience"
	"github.com/sriinnu/chitragupta/pkg/models"
)

func TestResilient_PassesThroughOnSuccess(t *testing.T) {
	inner := mock.New("test-model", mock.Turn{Text: "ok"})
	r := &Resilient{Provider: inner}

	ch, err := r.Stream(context.Background(), agent.CompletionRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	collected, err := agent.CollectStream(context.Background(), ch)
	if err != nil {
		t.Fatalf("unexpected stream error: %v", err)
	}
	if collected.Text != "ok" {
		t.Errorf("expected ok, got %q", collected.Text)
	}
	if r.Name() != "mock" {
		t.Errorf("expected name to delegate to wrapped provider, got %s", r.Name())
	}
	if len(r.Models()) != 1 {
		t.Errorf("expected Models to delegate to wrapped provider, got %d", len(r.Models()))
	}
}

// providerFunc adapts a plain function to agent.Provider for testing the
// open callback resilience.ResilientStream retries around.
type providerFunc func(ctx context.Context, req agent.CompletionRequest) (<-chan agent.StreamEvent, error)

func (f providerFunc) Name() string                 { return "func" }
func (f providerFunc) Models() []models.Model       { return nil }
func (f providerFunc) Stream(ctx context.Context, req agent.CompletionRequest) (<-chan agent.StreamEvent, error) {
	return f(ctx, req)
}

func TestResilient_RetriesStreamOpen(t *testing.T) {
	attempts := 0
	opener := providerFunc(func(ctx context.Context, req agent.CompletionRequest) (<-chan agent.StreamEvent, error) {
		attempts++
		if attempts < 2 {
			return nil, errors.New("429 rate limited")
		}
		ch := make(chan agent.StreamEvent, 1)
		ch <- agent.StreamEvent{Type: agent.EventDone, StopReason: models.StopEndTurn}
		close(ch)
		return ch, nil
	})

	r := &Resilient{
		Provider: opener,
		Policy: resilience.StreamPolicy{
			Retry: resilience.RetryConfig{MaxRetries: 3, BaseDelay: 1, MaxDelay: 1},
		},
	}

	ch, err := r.Stream(context.Background(), agent.CompletionRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := agent.CollectStream(context.Background(), ch); err != nil {
		t.Fatalf("unexpected stream error: %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts (one failed open, one retried open), got %d", attempts)
	}
}

func TestResilient_GivesUpOnPermanentError(t *testing.T) {
	attempts := 0
	opener := providerFunc(func(ctx context.Context, req agent.CompletionRequest) (<-chan agent.StreamEvent, error) {
		attempts++
		return nil, errors.New("invalid request")
	})

	r := &Resilient{Provider: opener}

	if _, err := r.Stream(context.Background(), agent.CompletionRequest{}); err == nil {
		t.Fatal("expected error for non-retryable open failure")
	}
	if attempts != 1 {
		t.Errorf("expected exactly 1 attempt for a non-retryable error, got %d", attempts)
	}
}

func TestResilient_DefaultsZeroTokensToOne(t *testing.T) {
	inner := mock.New("test-model", mock.Turn{Text: "ok"})
	r := &Resilient{Provider: inner, Tokens: 0}

	if _, err := r.Stream(context.Background(), agent.CompletionRequest{}); err != nil {
		t.Fatalf("unexpected error with zero tokens: %v", err)
	}
}
