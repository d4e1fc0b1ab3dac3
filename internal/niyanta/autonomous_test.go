package niyanta

import (
	"testing"

	"github.com/sriinnu/chitragupta/internal/clock"
)

func TestCompositeRewardCombinesTerms(t *testing.T) {
	r := CompositeReward(true, 5000, 10000, 10, 20)
	want := 0.5*1 + 0.3*0.5 + 0.2*0.5
	if r != want {
		t.Fatalf("expected %f, got %f", want, r)
	}
}

func TestCompositeRewardClampsOverruns(t *testing.T) {
	r := CompositeReward(false, 30000, 10000, 100, 10)
	if r != 0 {
		t.Fatalf("expected 0 for a failed, over-time, over-budget task, got %f", r)
	}
}

func TestEstimateComplexityDetectsKeywords(t *testing.T) {
	low := EstimateComplexity("say hi", 0, 0)
	high := EstimateComplexity("migrate the billing schema across regions", 3, 5)
	if high <= low {
		t.Fatalf("expected keyword-and-dependency-heavy task to score higher, got %f vs %f", high, low)
	}
}

func TestStrategyBannedAfterFailureRateExceedsThreshold(t *testing.T) {
	mock := clock.NewMock(0)
	b := New([]string{"round-robin", "swarm"})
	a := NewAutonomousOrchestrator(b, mock)

	for i := 0; i < banMinTasks; i++ {
		_ = a.RecordOutcome("swarm", false, 10000, 10000, 0, 0, nil)
	}

	strategy, err := a.SelectStrategy(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strategy == "swarm" {
		t.Fatalf("expected swarm to be banned after repeated failures")
	}
}

func TestBanExpiresAfterDuration(t *testing.T) {
	mock := clock.NewMock(0)
	b := New([]string{"round-robin"})
	a := NewAutonomousOrchestrator(b, mock)

	for i := 0; i < banMinTasks; i++ {
		_ = a.RecordOutcome("round-robin", false, 1, 1, 0, 0, nil)
	}
	if !a.isBanned("round-robin") {
		t.Fatalf("expected strategy banned")
	}

	mock.Advance(banDurationMs + 1)
	a.mu.Lock()
	a.pruneExpiredBans()
	a.mu.Unlock()
	if a.isBanned("round-robin") {
		t.Fatalf("expected ban to have expired")
	}
}

func TestAutoSaveFiresEveryNOutcomes(t *testing.T) {
	b := New([]string{"round-robin"})
	a := NewAutonomousOrchestrator(b, clock.NewMock(0))

	saved := 0
	a.SetAutoSave(2, func(data []byte) error {
		saved++
		return nil
	})

	_ = a.RecordOutcome("round-robin", true, 1, 1, 1, 1, nil)
	if saved != 0 {
		t.Fatalf("expected no save yet, got %d", saved)
	}
	_ = a.RecordOutcome("round-robin", true, 1, 1, 1, 1, nil)
	if saved != 1 {
		t.Fatalf("expected one save after 2 outcomes, got %d", saved)
	}
}
