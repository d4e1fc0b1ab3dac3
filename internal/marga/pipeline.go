package marga

import (
	"fmt"

	"github.com/sriinnu/chitragupta/internal/turiya"
	"github.com/sriinnu/chitragupta/pkg/models"
)

// Decision is Marga's pipeline output for one request.
type Decision struct {
	SkipLLM     bool
	ModelID     string
	Tier        Tier
	ArmIndex    int
	CostEstimate float64
	Rationale   string

	Classification  Classification
	ComplexityScore ComplexityScore
	context         turiya.Context
}

// Request bundles what Marga needs to classify and route one turn.
type Request struct {
	History            []models.Turn
	HasTools           bool
	HasImageAttachment bool
	Urgency            float64
	Creativity         float64
	Precision          float64
	ConversationDepth  float64
	MemoryLoad         float64
	Preference         LocalPreference
}

// Pipeline wires Pravritti classification, complexity scoring, the tier
// table, and the Turiya bandit into a single routing decision.
type Pipeline struct {
	Table  TierTable
	Bandit *turiya.LinUCB
	// ModelsByTier picks a concrete model id for a chosen tier. The model
	// with the lowest input price wins; ties go to the earlier entry.
	ModelsByTier map[Tier][]models.Model
}

// NewPipeline builds a pipeline with the default tier table and a fresh
// Turiya bandit over the three LLM-calling tiers. no-llm is decided by
// Pravritti's resolution, not the bandit, since it means skipping the LLM
// call entirely rather than picking a cheaper one.
func NewPipeline(modelsByTier map[Tier][]models.Model) *Pipeline {
	arms := []string{string(TierHaiku), string(TierSonnet), string(TierOpus)}
	return &Pipeline{
		Table:        DefaultTierTable(),
		Bandit:       turiya.New(turiya.ContextDim, turiya.DefaultAlpha, arms),
		ModelsByTier: modelsByTier,
	}
}

// Route classifies req and returns a routing decision. The context vector
// used for the bandit selection and the later reward update is retained
// on the decision so Report can reuse it without recomputation.
func (p *Pipeline) Route(req Request) (Decision, error) {
	classification := Classify(req.History, req.HasTools, req.HasImageAttachment)
	complexity := ScoreComplexity(req.History)

	boundTier := ApplyPreference(p.Table.Resolve(classification.Type, complexity.Complexity), req.Preference)

	if classification.Resolution == ResolutionSkipLLM {
		return Decision{
			SkipLLM:         true,
			Tier:            TierNoLLM,
			Classification:  classification,
			ComplexityScore: complexity,
			Rationale:       fmt.Sprintf("%s resolves without an LLM call", classification.Type),
		}, nil
	}

	ctx := turiya.Context{
		Complexity:        complexityFraction(complexity.Complexity),
		Urgency:           req.Urgency,
		Creativity:        req.Creativity,
		Precision:         req.Precision,
		CodeRatio:         codeRatio(req.History),
		ConversationDepth: req.ConversationDepth,
		MemoryLoad:        req.MemoryLoad,
	}
	vector := ctx.Vector()

	best, ranked, err := p.Bandit.Select(vector)
	if err != nil {
		return Decision{}, err
	}

	chosenTier := Tier(best.Arm)
	// Never let the bandit choose a tier cheaper than the binding table's
	// floor; it may only escalate above it.
	if chosenTier.Less(boundTier) {
		chosenTier = boundTier
	}

	model, err := p.cheapestModel(chosenTier)
	if err != nil {
		return Decision{}, err
	}

	armIndex := indexOfArm(ranked, best.Arm)
	return Decision{
		ModelID:         model.ID,
		Tier:            chosenTier,
		ArmIndex:        armIndex,
		CostEstimate:    estimateTurnCost(req.History, model),
		Classification:  classification,
		ComplexityScore: complexity,
		context:         ctx,
		Rationale: fmt.Sprintf(
			"task=%s complexity=%s bound_tier=%s bandit_tier=%s score=%.3f",
			classification.Type, complexity.Complexity, boundTier, chosenTier, best.Score,
		),
	}, nil
}

// Report feeds back the observed reward for a prior decision, training
// the bandit arm that produced it.
func (p *Pipeline) Report(decision Decision, reward float64) error {
	if decision.SkipLLM {
		return nil
	}
	return p.Bandit.Update(string(decision.Tier), decision.context.Vector(), reward)
}

func (p *Pipeline) cheapestModel(tier Tier) (models.Model, error) {
	candidates := p.ModelsByTier[tier]
	if len(candidates) == 0 {
		return models.Model{}, fmt.Errorf("marga: no model configured for tier %s", tier)
	}
	cheapest := candidates[0]
	for _, m := range candidates[1:] {
		if m.Pricing.InputPerMillion < cheapest.Pricing.InputPerMillion {
			cheapest = m
		}
	}
	return cheapest, nil
}

func complexityFraction(c Complexity) float64 {
	return float64(complexityOrder[c]) / float64(len(complexityOrder)-1)
}

func codeRatio(history []models.Turn) float64 {
	text := lastUserText(history)
	if text == "" {
		return 0
	}
	if markdownFence.MatchString(text) || codePattern.MatchString(text) {
		return 1
	}
	return 0
}

func estimateTurnCost(history []models.Turn, model models.Model) float64 {
	tokens := 0
	for _, t := range history {
		tokens += len(t.Text()) / 4
	}
	return float64(tokens) / 1_000_000 * model.Pricing.InputPerMillion
}

func indexOfArm(ranked []turiya.Selection, arm string) int {
	for i, s := range ranked {
		if s.Arm == arm {
			return i
		}
	}
	return -1
}
