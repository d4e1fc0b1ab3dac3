package marga

// Tier is a coarse cost/capability bucket. Order is significant: tiers
// compare cheaper-to-dearer in declaration order.
type Tier string

const (
	TierNoLLM  Tier = "no-llm"
	TierHaiku  Tier = "haiku"
	TierSonnet Tier = "sonnet"
	TierOpus   Tier = "opus"
)

var tierOrder = map[Tier]int{
	TierNoLLM:  0,
	TierHaiku:  1,
	TierSonnet: 2,
	TierOpus:   3,
}

// Less reports whether a is a cheaper tier than b.
func (a Tier) Less(b Tier) bool {
	return tierOrder[a] < tierOrder[b]
}

// Binding maps a (task type, complexity) pair to the tier that adequately
// serves it.
type Binding struct {
	Task       TaskType
	Complexity Complexity
	Tier       Tier
}

// TierTable holds the binding rules and a fallback tier for unmatched
// pairs.
type TierTable struct {
	Bindings []Binding
	Fallback Tier
}

// DefaultTierTable is a conservative binding table: cheap tasks route to
// no-llm or haiku, reasoning and code-gen escalate with complexity.
func DefaultTierTable() TierTable {
	return TierTable{
		Fallback: TierSonnet,
		Bindings: []Binding{
			{TaskEmbedding, ComplexityTrivial, TierNoLLM},
			{TaskHeartbeat, ComplexityTrivial, TierNoLLM},
			{TaskCompaction, ComplexityTrivial, TierNoLLM},

			{TaskSmalltalk, ComplexityTrivial, TierHaiku},
			{TaskChat, ComplexityTrivial, TierHaiku},
			{TaskChat, ComplexitySimple, TierHaiku},
			{TaskSummarize, ComplexityTrivial, TierHaiku},
			{TaskSummarize, ComplexitySimple, TierHaiku},
			{TaskTranslate, ComplexityTrivial, TierHaiku},
			{TaskTranslate, ComplexitySimple, TierHaiku},
			{TaskSearch, ComplexityTrivial, TierHaiku},
			{TaskMemory, ComplexityTrivial, TierHaiku},
			{TaskFileOp, ComplexityTrivial, TierHaiku},
			{TaskAPICall, ComplexityTrivial, TierHaiku},

			{TaskChat, ComplexityModerate, TierSonnet},
			{TaskCodeGen, ComplexityTrivial, TierSonnet},
			{TaskCodeGen, ComplexitySimple, TierSonnet},
			{TaskCodeGen, ComplexityModerate, TierSonnet},
			{TaskSearch, ComplexityModerate, TierSonnet},
			{TaskToolExec, ComplexityTrivial, TierSonnet},
			{TaskToolExec, ComplexitySimple, TierSonnet},
			{TaskVision, ComplexitySimple, TierSonnet},

			{TaskReasoning, ComplexityTrivial, TierSonnet},
			{TaskReasoning, ComplexitySimple, TierSonnet},

			{TaskCodeGen, ComplexityComplex, TierOpus},
			{TaskCodeGen, ComplexityExpert, TierOpus},
			{TaskReasoning, ComplexityModerate, TierOpus},
			{TaskReasoning, ComplexityComplex, TierOpus},
			{TaskReasoning, ComplexityExpert, TierOpus},
			{TaskVision, ComplexityModerate, TierOpus},
			{TaskVision, ComplexityComplex, TierOpus},
			{TaskVision, ComplexityExpert, TierOpus},
			{TaskToolExec, ComplexityComplex, TierOpus},
			{TaskToolExec, ComplexityExpert, TierOpus},
		},
	}
}

// Resolve returns the bound tier for (task, complexity), or the fallback
// tier if no binding matches.
func (t TierTable) Resolve(task TaskType, complexity Complexity) Tier {
	for _, b := range t.Bindings {
		if b.Task == task && b.Complexity == complexity {
			return b.Tier
		}
	}
	return t.Fallback
}

// LocalPreference biases tier selection toward or away from no-llm/haiku
// local-capable tiers when the task otherwise has a cloud-tier binding.
type LocalPreference string

const (
	PreferNone       LocalPreference = ""
	PreferLocalFirst LocalPreference = "local-first"
	PreferCloudFirst LocalPreference = "cloud-first"
)

// ApplyPreference adjusts the resolved tier per pref. local-first never
// downgrades below haiku when the resolved tier was no-llm-adjacent;
// cloud-first floors the result at sonnet.
func ApplyPreference(tier Tier, pref LocalPreference) Tier {
	switch pref {
	case PreferCloudFirst:
		if tier.Less(TierSonnet) {
			return TierSonnet
		}
	case PreferLocalFirst:
		if tier == TierSonnet {
			return TierHaiku
		}
	}
	return tier
}
