package turiya

import (
	"math"
	"testing"
)

func TestUnplayedArmsHavePositiveExplorationScore(t *testing.T) {
	b := New(ContextDim, DefaultAlpha, []string{"haiku", "sonnet", "opus"})
	ctx := Context{Complexity: 0.5, Urgency: 0.5}.Vector()

	best, ranked, err := b.Select(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranked) != 3 {
		t.Fatalf("expected 3 ranked arms, got %d", len(ranked))
	}
	if best.Score <= 0 {
		t.Fatalf("expected positive exploration score for unplayed arm, got %v", best.Score)
	}
}

func TestUpdateBiasesSelectionTowardRewardedArm(t *testing.T) {
	b := New(ContextDim, 0.1, []string{"haiku", "opus"})
	ctx := Context{Complexity: 0.9, Urgency: 0.9, Creativity: 0.9}.Vector()

	for i := 0; i < 50; i++ {
		if err := b.Update("opus", ctx, 1.0); err != nil {
			t.Fatalf("update opus: %v", err)
		}
		if err := b.Update("haiku", ctx, 0.0); err != nil {
			t.Fatalf("update haiku: %v", err)
		}
	}

	best, _, err := b.Select(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if best.Arm != "opus" {
		t.Fatalf("expected opus to win after consistent reward, got %s", best.Arm)
	}
}

func TestUpdateUnknownArmErrors(t *testing.T) {
	b := New(ContextDim, DefaultAlpha, []string{"haiku"})
	if err := b.Update("nonexistent", make([]float64, ContextDim), 1); err == nil {
		t.Fatalf("expected error updating unknown arm")
	}
}

func TestSerializeRoundTrips(t *testing.T) {
	b := New(ContextDim, 2.0, []string{"haiku", "opus"})
	ctx := Context{Complexity: 0.4, Precision: 0.8}.Vector()
	_ = b.Update("haiku", ctx, 0.7)

	data, err := b.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	restored := New(ContextDim, DefaultAlpha, nil)
	if err := restored.Deserialize(data); err != nil {
		t.Fatalf("deserialize: %v", err)
	}

	want, _, err := b.Select(ctx)
	if err != nil {
		t.Fatalf("select on original: %v", err)
	}
	got, _, err := restored.Select(ctx)
	if err != nil {
		t.Fatalf("select on restored: %v", err)
	}
	if got.Arm != want.Arm || math.Abs(got.Score-want.Score) > 1e-9 {
		t.Fatalf("restored bandit diverged: got %+v, want %+v", got, want)
	}
}

func TestContextVectorClampsToUnitRange(t *testing.T) {
	c := Context{Complexity: 2, Urgency: -1}
	v := c.Vector()
	if v[0] != 1 {
		t.Fatalf("expected complexity clamped to 1, got %v", v[0])
	}
	if v[1] != 0 {
		t.Fatalf("expected urgency clamped to 0, got %v", v[1])
	}
}
