package providers

import (
	"errors"
	"net/http"
	"testing"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailoverReason
	}{
		{"rate limit", errors.New("429 too many requests"), FailoverRateLimit},
		{"auth", errors.New("401 unauthorized"), FailoverAuth},
		{"billing", errors.New("insufficient quota"), FailoverBilling},
		{"timeout", errors.New("context deadline exceeded"), FailoverTimeout},
		{"server error", errors.New("503 service unavailable"), FailoverServerError},
		{"content filter", errors.New("blocked by content policy"), FailoverContentFilter},
		{"model unavailable", errors.New("model not found"), FailoverModelUnavailable},
		{"unknown", errors.New("something else"), FailoverUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError(%q) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

func TestFailoverReason_IsRetryable(t *testing.T) {
	if !FailoverRateLimit.IsRetryable() {
		t.Error("expected rate limit to be retryable")
	}
	if FailoverAuth.IsRetryable() {
		t.Error("expected auth to not be retryable")
	}
}

func TestFailoverReason_ShouldFailover(t *testing.T) {
	if !FailoverBilling.ShouldFailover() {
		t.Error("expected billing to trigger failover")
	}
	if FailoverRateLimit.ShouldFailover() {
		t.Error("expected rate limit to not trigger failover")
	}
}

func TestProviderError_WithStatus(t *testing.T) {
	err := NewProviderError("openai", "gpt-4o", errors.New("boom"))
	err = err.WithStatus(http.StatusTooManyRequests)
	if err.Reason != FailoverRateLimit {
		t.Errorf("expected rate_limit reason, got %s", err.Reason)
	}
	if !IsRetryable(err) {
		t.Error("expected retryable")
	}
}

func TestGetProviderError(t *testing.T) {
	wrapped := errors.New("wrapped: " + NewProviderError("anthropic", "claude", errors.New("x")).Error())
	if _, ok := GetProviderError(wrapped); ok {
		t.Error("expected plain error chain to not unwrap to ProviderError")
	}

	pe := NewProviderError("anthropic", "claude", errors.New("x"))
	if _, ok := GetProviderError(pe); !ok {
		t.Error("expected ProviderError to be extracted")
	}
}
