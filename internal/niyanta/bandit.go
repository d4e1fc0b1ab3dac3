// Package niyanta is the strategy bandit that picks which Niyanta
// orchestration strategy to use next, learning from the reward each choice
// produces, plus the autonomous orchestrator that wraps it with a composite
// reward signal and strategy banning.
package niyanta

import (
	"encoding/json"
	"errors"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sriinnu/chitragupta/internal/turiya"
)

// Mode selects which bandit algorithm backs strategy selection.
type Mode string

const (
	ModeUCB1    Mode = "ucb1"
	ModeThompson Mode = "thompson"
	ModeLinUCB  Mode = "linucb"
)

// ContextDim is the strategy bandit's LinUCB feature count:
// [bias, taskComplexity, agentCount, memoryPressure, avgLatency, errorRate].
const ContextDim = 6

const ucb1ExplorationConstant = math.Sqrt2

var ErrUnknownArm = errors.New("niyanta: unknown strategy arm")

type ucb1Arm struct {
	count       int
	totalReward float64
}

type thompsonArm struct {
	alpha float64
	beta  float64
}

// Bandit selects a strategy name under whichever mode is active, and
// updates its learned state from observed rewards.
type Bandit struct {
	mu       sync.Mutex
	mode     Mode
	arms     []string
	ucb1     map[string]*ucb1Arm
	thompson map[string]*thompsonArm
	linucb   *turiya.LinUCB
}

// New creates a Bandit over arms, defaulting to UCB1.
func New(arms []string) *Bandit {
	ucb1 := make(map[string]*ucb1Arm, len(arms))
	thompson := make(map[string]*thompsonArm, len(arms))
	for _, a := range arms {
		ucb1[a] = &ucb1Arm{}
		thompson[a] = &thompsonArm{alpha: 1, beta: 1}
	}
	return &Bandit{
		mode:     ModeUCB1,
		arms:     append([]string(nil), arms...),
		ucb1:     ucb1,
		thompson: thompson,
		linucb:   turiya.New(ContextDim, turiya.DefaultAlpha, arms),
	}
}

// SetMode switches the active algorithm at runtime.
func (b *Bandit) SetMode(mode Mode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mode = mode
}

// SelectStrategy returns the chosen strategy name. context is required (and
// only used) in LinUCB mode.
func (b *Bandit) SelectStrategy(context []float64) (string, error) {
	b.mu.Lock()
	mode := b.mode
	b.mu.Unlock()

	switch mode {
	case ModeThompson:
		return b.selectThompson()
	case ModeLinUCB:
		return b.selectLinUCB(context)
	default:
		return b.selectUCB1()
	}
}

func (b *Bandit) selectUCB1() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.arms) == 0 {
		return "", errors.New("niyanta: bandit has no arms")
	}

	totalPlays := 0
	for _, arm := range b.ucb1 {
		totalPlays += arm.count
	}

	best := b.arms[0]
	bestScore := math.Inf(-1)
	for _, name := range b.arms {
		arm := b.ucb1[name]
		var score float64
		if arm.count == 0 {
			score = math.Inf(1)
		} else {
			mean := arm.totalReward / float64(arm.count)
			score = mean + ucb1ExplorationConstant*math.Sqrt(math.Log(float64(totalPlays))/float64(arm.count))
		}
		if score > bestScore {
			bestScore = score
			best = name
		}
	}
	return best, nil
}

func (b *Bandit) selectThompson() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.arms) == 0 {
		return "", errors.New("niyanta: bandit has no arms")
	}
	best := b.arms[0]
	bestSample := -1.0
	for _, name := range b.arms {
		arm := b.thompson[name]
		sample := distuv.Beta{Alpha: arm.alpha, Beta: arm.beta}.Rand()
		if sample > bestSample {
			bestSample = sample
			best = name
		}
	}
	return best, nil
}

func (b *Bandit) selectLinUCB(context []float64) (string, error) {
	sel, _, err := b.linucb.Select(context)
	if err != nil {
		return "", err
	}
	return sel.Arm, nil
}

// RecordReward updates whichever algorithm's state corresponds to the
// bandit's current mode for the given strategy and observed reward in
// [0, 1]. context is required only in LinUCB mode.
func (b *Bandit) RecordReward(strategy string, reward float64, context []float64) error {
	b.mu.Lock()
	mode := b.mode
	b.mu.Unlock()

	switch mode {
	case ModeThompson:
		b.mu.Lock()
		defer b.mu.Unlock()
		arm, ok := b.thompson[strategy]
		if !ok {
			return ErrUnknownArm
		}
		arm.alpha += reward
		arm.beta += 1 - reward
		return nil
	case ModeLinUCB:
		return b.linucb.Update(strategy, context, reward)
	default:
		b.mu.Lock()
		defer b.mu.Unlock()
		arm, ok := b.ucb1[strategy]
		if !ok {
			return ErrUnknownArm
		}
		arm.count++
		arm.totalReward += reward
		return nil
	}
}

// snapshot is the JSON wire shape for a Bandit.
type snapshot struct {
	Mode     Mode                    `json:"mode"`
	Arms     []string                `json:"arms"`
	UCB1     map[string]ucb1Arm      `json:"ucb1"`
	Thompson map[string]thompsonArm  `json:"thompson"`
	LinUCB   json.RawMessage         `json:"linucb"`
}

// Serialize persists all learned state, including the LinUCB matrices.
func (b *Bandit) Serialize() ([]byte, error) {
	b.mu.Lock()
	ucb1 := make(map[string]ucb1Arm, len(b.ucb1))
	for k, v := range b.ucb1 {
		ucb1[k] = *v
	}
	thompson := make(map[string]thompsonArm, len(b.thompson))
	for k, v := range b.thompson {
		thompson[k] = *v
	}
	mode := b.mode
	arms := append([]string(nil), b.arms...)
	b.mu.Unlock()

	linucbData, err := b.linucb.Serialize()
	if err != nil {
		return nil, err
	}

	return json.Marshal(snapshot{
		Mode:     mode,
		Arms:     arms,
		UCB1:     ucb1,
		Thompson: thompson,
		LinUCB:   linucbData,
	})
}

// Deserialize restores state previously produced by Serialize.
func (b *Bandit) Deserialize(data []byte) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	if err := b.linucb.Deserialize(snap.LinUCB); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.mode = snap.Mode
	b.arms = snap.Arms
	b.ucb1 = make(map[string]*ucb1Arm, len(snap.UCB1))
	for k, v := range snap.UCB1 {
		cp := v
		b.ucb1[k] = &cp
	}
	b.thompson = make(map[string]*thompsonArm, len(snap.Thompson))
	for k, v := range snap.Thompson {
		cp := v
		b.thompson[k] = &cp
	}
	return nil
}
