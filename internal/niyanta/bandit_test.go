package niyanta

import "testing"

func TestUCB1PrefersUnplayedArms(t *testing.T) {
	b := New([]string{"a", "b", "c"})
	_ = b.RecordReward("a", 1, nil)
	_ = b.RecordReward("a", 1, nil)

	chosen, err := b.SelectStrategy(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chosen != "b" && chosen != "c" {
		t.Fatalf("expected an unplayed arm to be chosen, got %s", chosen)
	}
}

func TestThompsonModeBiasesTowardRewardedArm(t *testing.T) {
	b := New([]string{"a", "b"})
	b.SetMode(ModeThompson)
	for i := 0; i < 50; i++ {
		_ = b.RecordReward("a", 1, nil)
		_ = b.RecordReward("b", 0, nil)
	}

	counts := map[string]int{}
	for i := 0; i < 50; i++ {
		chosen, _ := b.SelectStrategy(nil)
		counts[chosen]++
	}
	if counts["a"] <= counts["b"] {
		t.Fatalf("expected arm a to dominate after strong reward signal, got %+v", counts)
	}
}

func TestLinUCBModeUsesContext(t *testing.T) {
	b := New([]string{"a", "b"})
	b.SetMode(ModeLinUCB)
	ctx := make([]float64, ContextDim)
	ctx[0] = 1

	if _, err := b.SelectStrategy(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := b.RecordReward("a", 1, ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRecordRewardUnknownArmErrors(t *testing.T) {
	b := New([]string{"a"})
	if err := b.RecordReward("missing", 1, nil); err != ErrUnknownArm {
		t.Fatalf("expected ErrUnknownArm, got %v", err)
	}
}

func TestSerializeRoundTrips(t *testing.T) {
	b := New([]string{"a", "b"})
	_ = b.RecordReward("a", 1, nil)
	b.SetMode(ModeThompson)
	_ = b.RecordReward("b", 0.5, nil)

	data, err := b.Serialize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	restored := New([]string{"a", "b"})
	if err := restored.Deserialize(data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if restored.mode != ModeThompson {
		t.Fatalf("expected restored mode thompson, got %s", restored.mode)
	}
	if restored.thompson["b"].alpha != b.thompson["b"].alpha {
		t.Fatalf("expected thompson state to round-trip")
	}
}
