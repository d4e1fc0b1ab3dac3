package kartavya

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sriinnu/chitragupta/internal/clock"
	"github.com/sriinnu/chitragupta/internal/ids"
)

const (
	minConfidenceForProposal    = 0.7
	minConfidenceForAutoApprove = 0.95
	minCooldownMs               = 10_000
	maxExecutionsPerHour        = 60
	maxActiveFires              = 100
	hourWindowMs                = 60 * 60 * 1000
)

var (
	ErrConfidenceTooLow = errors.New("kartavya: confidence below minimum for proposal")
	ErrNotFound         = errors.New("kartavya: unknown id")
	ErrInvalidTransition = errors.New("kartavya: invalid status transition")
)

// Store persists kartavyas. An in-memory implementation is provided in this
// package; a *sql.DB-backed one belongs alongside whichever host wires a
// concrete database.
type Store interface {
	Save(k *Kartavya) error
	Load(id string) (*Kartavya, bool, error)
	List() ([]*Kartavya, error)
	Delete(id string) error
}

// Engine manages kartavya lifecycle and evaluates triggers.
type Engine struct {
	mu          sync.Mutex
	store       Store
	clock       clock.Clock
	activeFires int
}

// NewEngine creates an engine backed by store, using clk as its time source.
func NewEngine(store Store, clk clock.Clock) *Engine {
	if clk == nil {
		clk = clock.Default
	}
	return &Engine{store: store, clock: clk}
}

// ProposeNiyama creates a proposed kartavya from an observed pattern.
// Confidence below minConfidenceForProposal is rejected. Confidence at or
// above minConfidenceForAutoApprove auto-activates it.
func (e *Engine) ProposeNiyama(vasanaID, name, description string, trigger Trigger, action Action, evidence []EvidenceItem, confidence float64) (*Kartavya, error) {
	if confidence < minConfidenceForProposal {
		return nil, ErrConfidenceTooLow
	}
	if trigger.CooldownMs < minCooldownMs {
		trigger.CooldownMs = minCooldownMs
	}

	now := e.clock.NowMillis()
	k := &Kartavya{
		ID:             ids.New("krt", vasanaID, name, description),
		Name:           name,
		Description:    description,
		Status:         StatusProposed,
		Trigger:        trigger,
		Action:         action,
		OriginVasanaID: vasanaID,
		Evidence:       evidence,
		Confidence:     confidence,
		CreatedAtMs:    now,
	}
	if confidence >= minConfidenceForAutoApprove {
		k.Status = StatusActive
	}
	if err := e.store.Save(k); err != nil {
		return nil, fmt.Errorf("kartavya: save proposal: %w", err)
	}
	return k, nil
}

// ApproveNiyama activates a proposed kartavya.
func (e *Engine) ApproveNiyama(id string) error {
	k, ok, err := e.store.Load(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	if k.Status != StatusProposed {
		return ErrInvalidTransition
	}
	k.Status = StatusActive
	return e.store.Save(k)
}

// Pause suspends an active kartavya without discarding it.
func (e *Engine) Pause(id string) error {
	return e.transition(id, StatusActive, StatusPaused)
}

// Retire permanently deactivates a kartavya from any non-retired state.
func (e *Engine) Retire(id string) error {
	k, ok, err := e.store.Load(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	if k.Status == StatusRetired {
		return ErrInvalidTransition
	}
	k.Status = StatusRetired
	return e.store.Save(k)
}

// Resume reactivates a paused kartavya.
func (e *Engine) Resume(id string) error {
	return e.transition(id, StatusPaused, StatusActive)
}

func (e *Engine) transition(id string, from, to Status) error {
	k, ok, err := e.store.Load(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	if k.Status != from {
		return ErrInvalidTransition
	}
	k.Status = to
	return e.store.Save(k)
}

// EvaluateTriggers checks every active kartavya against ctx, gates fires by
// cooldown, hourly rate cap, and the global concurrent-fire cap, and
// returns the kartavyas that fired.
func (e *Engine) EvaluateTriggers(ctx TriggerContext) ([]*Kartavya, error) {
	all, err := e.store.List()
	if err != nil {
		return nil, err
	}

	nowMs := ctx.Now.UnixMilli()
	var fired []*Kartavya
	for _, k := range all {
		if k.Status != StatusActive {
			continue
		}
		if !matches(k.Trigger, ctx) {
			continue
		}
		if !e.gate(k, nowMs) {
			continue
		}
		fired = append(fired, k)
		if err := e.store.Save(k); err != nil {
			return fired, err
		}
	}
	return fired, nil
}

// gate enforces cooldown, hourly rate cap, and the global concurrent-fire
// cap, updating k's bookkeeping on success.
func (e *Engine) gate(k *Kartavya, nowMs int64) bool {
	cooldown := k.Trigger.CooldownMs
	if cooldown < minCooldownMs {
		cooldown = minCooldownMs
	}
	if k.LastFireMs != 0 && nowMs-k.LastFireMs < cooldown {
		return false
	}

	if nowMs-k.hourWindowStartMs >= hourWindowMs {
		k.hourWindowStartMs = nowMs
		k.executionsInHour = 0
	}
	if k.executionsInHour >= maxExecutionsPerHour {
		return false
	}

	e.mu.Lock()
	if e.activeFires >= maxActiveFires {
		e.mu.Unlock()
		return false
	}
	e.mu.Unlock()

	k.LastFireMs = nowMs
	k.executionsInHour++
	return true
}

// BeginFire reserves a concurrent-fire slot; call EndFire when the
// dispatched action completes.
func (e *Engine) BeginFire() {
	e.mu.Lock()
	e.activeFires++
	e.mu.Unlock()
}

// EndFire releases a concurrent-fire slot reserved by BeginFire.
func (e *Engine) EndFire() {
	e.mu.Lock()
	if e.activeFires > 0 {
		e.activeFires--
	}
	e.mu.Unlock()
}
