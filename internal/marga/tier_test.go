package marga

import "testing"

func TestTierOrderLess(t *testing.T) {
	if !TierNoLLM.Less(TierHaiku) {
		t.Fatalf("expected no-llm < haiku")
	}
	if TierOpus.Less(TierOpus) {
		t.Fatalf("tier should not be less than itself")
	}
	if TierOpus.Less(TierSonnet) {
		t.Fatalf("opus should not be less than sonnet")
	}
}

func TestDefaultTierTableResolvesKnownBinding(t *testing.T) {
	table := DefaultTierTable()
	if got := table.Resolve(TaskCodeGen, ComplexityExpert); got != TierOpus {
		t.Fatalf("expected opus for expert code-gen, got %s", got)
	}
	if got := table.Resolve(TaskEmbedding, ComplexityTrivial); got != TierNoLLM {
		t.Fatalf("expected no-llm for trivial embedding, got %s", got)
	}
}

func TestDefaultTierTableFallsBack(t *testing.T) {
	table := DefaultTierTable()
	got := table.Resolve(TaskCompaction, ComplexityExpert)
	if got != table.Fallback {
		t.Fatalf("expected fallback tier for unbound pair, got %s", got)
	}
}

func TestApplyPreferenceCloudFirstFloorsAtSonnet(t *testing.T) {
	if got := ApplyPreference(TierHaiku, PreferCloudFirst); got != TierSonnet {
		t.Fatalf("expected cloud-first to floor at sonnet, got %s", got)
	}
}

func TestApplyPreferenceLocalFirstPrefersHaiku(t *testing.T) {
	if got := ApplyPreference(TierSonnet, PreferLocalFirst); got != TierHaiku {
		t.Fatalf("expected local-first to downgrade sonnet to haiku, got %s", got)
	}
}
