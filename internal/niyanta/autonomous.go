package niyanta

import (
	"strings"
	"sync"

	"github.com/sriinnu/chitragupta/internal/clock"
	"github.com/sriinnu/chitragupta/internal/ringbuf"
)

const (
	rewardWeightSuccess = 0.5
	rewardWeightTime    = 0.3
	rewardWeightCost    = 0.2

	banMinTasks         = 10
	banFailureThreshold = 0.5
	banDurationMs       = 5 * 60 * 1000
	outcomeWindow       = 20

	fallbackStrategy = "round-robin"
)

// complexityKeywords blend into EstimateComplexity; unmatched descriptions
// contribute nothing from this term.
var complexityKeywords = map[string]float64{
	"refactor": 0.8,
	"rewrite":  0.9,
	"migrate":  0.85,
	"test":     0.5,
}

// CompositeReward combines success, time, and cost into a single [0, 1]
// reward: r = wS*success + wT*max(0, 1-actualTime/expectedTime) +
// wC*max(0, 1-actualCost/budgetCost).
func CompositeReward(success bool, actualTimeMs, expectedTimeMs, actualCost, budgetCost float64) float64 {
	successTerm := 0.0
	if success {
		successTerm = 1.0
	}
	timeTerm := clamp01(1 - safeDiv(actualTimeMs, expectedTimeMs))
	costTerm := clamp01(1 - safeDiv(actualCost, budgetCost))
	return rewardWeightSuccess*successTerm + rewardWeightTime*timeTerm + rewardWeightCost*costTerm
}

func safeDiv(a, b float64) float64 {
	if b <= 0 {
		return 0
	}
	return a / b
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// EstimateComplexity blends description length, dependency count, priority
// weight, and keyword heuristics into a [0, 1]-ish complexity score.
func EstimateComplexity(description string, dependencyCount, priority int) float64 {
	lengthTerm := clamp01(float64(len(description)) / 500.0)
	depTerm := clamp01(float64(dependencyCount) / 10.0)
	priorityTerm := clamp01(float64(priority) / 10.0)

	keywordTerm := 0.0
	lower := strings.ToLower(description)
	for kw, weight := range complexityKeywords {
		if strings.Contains(lower, kw) && weight > keywordTerm {
			keywordTerm = weight
		}
	}

	return clamp01(0.25*lengthTerm + 0.25*depTerm + 0.2*priorityTerm + 0.3*keywordTerm)
}

// SaveFunc persists a bandit's serialized state to wherever the caller
// chooses (file, object store, database row).
type SaveFunc func(data []byte) error

// AutonomousOrchestrator wraps a Bandit with composite-reward learning,
// transient strategy banning, and periodic auto-save.
type AutonomousOrchestrator struct {
	mu sync.Mutex

	bandit *Bandit
	clock  clock.Clock

	outcomes map[string]*ringbuf.Ring[bool]
	bannedUntilMs map[string]int64

	autoSaveEvery int
	autoSave      SaveFunc
	tasksSinceSave int
}

// NewAutonomousOrchestrator wraps bandit, using clk as the ban-expiry time
// source.
func NewAutonomousOrchestrator(bandit *Bandit, clk clock.Clock) *AutonomousOrchestrator {
	if clk == nil {
		clk = clock.Default
	}
	return &AutonomousOrchestrator{
		bandit:        bandit,
		clock:         clk,
		outcomes:      make(map[string]*ringbuf.Ring[bool]),
		bannedUntilMs: make(map[string]int64),
	}
}

// SetAutoSave configures periodic persistence: every n recorded outcomes,
// save is called with the bandit's serialized state. n <= 0 disables it.
func (a *AutonomousOrchestrator) SetAutoSave(n int, save SaveFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.autoSaveEvery = n
	a.autoSave = save
}

func (a *AutonomousOrchestrator) pruneExpiredBans() {
	now := a.clock.NowMillis()
	for strategy, until := range a.bannedUntilMs {
		if now >= until {
			delete(a.bannedUntilMs, strategy)
		}
	}
}

func (a *AutonomousOrchestrator) isBanned(strategy string) bool {
	until, ok := a.bannedUntilMs[strategy]
	if !ok {
		return false
	}
	return a.clock.NowMillis() < until
}

// SelectStrategy chooses a strategy via the wrapped bandit, skipping any
// currently banned; falls back to round-robin if every strategy is banned,
// or if the bandit picks a banned strategy on each of len(arms)+1 tries.
func (a *AutonomousOrchestrator) SelectStrategy(context []float64) (string, error) {
	a.mu.Lock()
	a.pruneExpiredBans()
	allBanned := len(a.bannedUntilMs) >= len(a.bandit.arms) && len(a.bandit.arms) > 0
	a.mu.Unlock()

	if allBanned {
		return fallbackStrategy, nil
	}

	for attempt := 0; attempt < len(a.bandit.arms)+1; attempt++ {
		strategy, err := a.bandit.SelectStrategy(context)
		if err != nil {
			return "", err
		}
		a.mu.Lock()
		banned := a.isBanned(strategy)
		a.mu.Unlock()
		if !banned {
			return strategy, nil
		}
	}
	return fallbackStrategy, nil
}

// RecordOutcome scores the task via CompositeReward, feeds it to the
// bandit, tracks the strategy's rolling failure rate for banning, and
// triggers auto-save if configured.
func (a *AutonomousOrchestrator) RecordOutcome(strategy string, success bool, actualTimeMs, expectedTimeMs, actualCost, budgetCost float64, context []float64) error {
	reward := CompositeReward(success, actualTimeMs, expectedTimeMs, actualCost, budgetCost)
	if err := a.bandit.RecordReward(strategy, reward, context); err != nil {
		return err
	}

	a.mu.Lock()
	ring, ok := a.outcomes[strategy]
	if !ok {
		ring = ringbuf.New[bool](outcomeWindow)
		a.outcomes[strategy] = ring
	}
	ring.Push(success)

	if ring.Size() >= banMinTasks {
		failures := 0
		for _, ok := range ring.ToArray(0) {
			if !ok {
				failures++
			}
		}
		failureRate := float64(failures) / float64(ring.Size())
		if failureRate > banFailureThreshold {
			a.bannedUntilMs[strategy] = a.clock.NowMillis() + banDurationMs
		}
	}

	a.tasksSinceSave++
	shouldSave := a.autoSaveEvery > 0 && a.tasksSinceSave >= a.autoSaveEvery
	save := a.autoSave
	if shouldSave {
		a.tasksSinceSave = 0
	}
	a.mu.Unlock()

	if shouldSave && save != nil {
		data, err := a.bandit.Serialize()
		if err != nil {
			return err
		}
		return save(data)
	}
	return nil
}
