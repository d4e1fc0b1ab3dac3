// Package kaalabrahma tracks agent liveness: a registry of health
// records transitioning alive -> stale -> dead as heartbeats lapse, with
// listeners notified on every status change.
package kaalabrahma

import (
	"sync"

	"github.com/sriinnu/chitragupta/internal/clock"
)

// Status is one agent's liveness state.
type Status string

const (
	StatusAlive Status = "alive"
	StatusStale Status = "stale"
	StatusDead  Status = "dead"
)

// HealthRecord is the registry's view of one agent.
type HealthRecord struct {
	AgentID       string
	Status        Status
	Depth         int
	ParentID      string
	Purpose       string
	LastHeartbeat int64
	FirstSeen     int64
}

// Listener is notified whenever a tracked agent's status changes.
type Listener func(record HealthRecord, previous Status)

// Config bounds the liveness transitions.
type Config struct {
	StaleMs int64
	DeadMs  int64
}

// DefaultConfig marks an agent stale after 2 minutes of silence, dead
// after 10.
func DefaultConfig() Config {
	return Config{StaleMs: 2 * 60 * 1000, DeadMs: 10 * 60 * 1000}
}

func sanitizeConfig(cfg Config) Config {
	def := DefaultConfig()
	if cfg.StaleMs <= 0 {
		cfg.StaleMs = def.StaleMs
	}
	if cfg.DeadMs <= cfg.StaleMs {
		cfg.DeadMs = cfg.StaleMs * 5
	}
	return cfg
}

// Registry tracks health records for every registered agent.
type Registry struct {
	mu        sync.Mutex
	clock     clock.Clock
	config    Config
	records   map[string]*HealthRecord
	listeners []Listener
}

// NewRegistry creates a registry using clk as its time source.
func NewRegistry(clk clock.Clock, cfg Config) *Registry {
	if clk == nil {
		clk = clock.Default
	}
	return &Registry{
		clock:   clk,
		config:  sanitizeConfig(cfg),
		records: make(map[string]*HealthRecord),
	}
}

// OnStatusChange registers a listener invoked after any transition.
func (r *Registry) OnStatusChange(l Listener) {
	r.mu.Lock()
	r.listeners = append(r.listeners, l)
	r.mu.Unlock()
}

// Register adds an agent to the registry as alive, or refreshes its
// heartbeat if already present.
func (r *Registry) Register(agentID string, depth int, parentID, purpose string) HealthRecord {
	now := r.clock.NowMillis()
	r.mu.Lock()
	record, exists := r.records[agentID]
	if !exists {
		record = &HealthRecord{
			AgentID:   agentID,
			Status:    StatusAlive,
			Depth:     depth,
			ParentID:  parentID,
			Purpose:   purpose,
			FirstSeen: now,
		}
		r.records[agentID] = record
	}
	record.LastHeartbeat = now
	previous := record.Status
	record.Status = StatusAlive
	snapshot := *record
	r.mu.Unlock()

	if previous != StatusAlive {
		r.notify(snapshot, previous)
	}
	return snapshot
}

// Heartbeat refreshes lastHeartbeat for agentID and resets it to alive if
// it had gone stale. No-op for unknown agents.
func (r *Registry) Heartbeat(agentID string) {
	now := r.clock.NowMillis()
	r.mu.Lock()
	record, ok := r.records[agentID]
	if !ok {
		r.mu.Unlock()
		return
	}
	record.LastHeartbeat = now
	previous := record.Status
	record.Status = StatusAlive
	snapshot := *record
	r.mu.Unlock()

	if previous != StatusAlive {
		r.notify(snapshot, previous)
	}
}

// Sweep evaluates every tracked agent's staleness against the current
// clock and fires listeners for any transition. Call periodically.
func (r *Registry) Sweep() {
	now := r.clock.NowMillis()
	var changes []struct {
		record   HealthRecord
		previous Status
	}

	r.mu.Lock()
	for _, record := range r.records {
		elapsed := now - record.LastHeartbeat
		next := record.Status
		switch {
		case elapsed > r.config.DeadMs:
			next = StatusDead
		case elapsed > r.config.StaleMs:
			next = StatusStale
		}
		if next != record.Status {
			previous := record.Status
			record.Status = next
			changes = append(changes, struct {
				record   HealthRecord
				previous Status
			}{*record, previous})
		}
	}
	r.mu.Unlock()

	for _, c := range changes {
		r.notify(c.record, c.previous)
	}
}

// Heal forces an agent back to alive with a fresh heartbeat, regardless
// of elapsed time. No-op for unknown agents.
func (r *Registry) Heal(agentID string) bool {
	r.mu.Lock()
	record, ok := r.records[agentID]
	if !ok {
		r.mu.Unlock()
		return false
	}
	previous := record.Status
	record.Status = StatusAlive
	record.LastHeartbeat = r.clock.NowMillis()
	snapshot := *record
	r.mu.Unlock()

	if previous != StatusAlive {
		r.notify(snapshot, previous)
	}
	return true
}

// KillResult reports the outcome of KillAgent.
type KillResult struct {
	Freed bool
}

// KillAgent marks an agent dead immediately and removes it from the
// registry, freeing its slot.
func (r *Registry) KillAgent(agentID string) KillResult {
	r.mu.Lock()
	record, ok := r.records[agentID]
	if !ok {
		r.mu.Unlock()
		return KillResult{Freed: false}
	}
	previous := record.Status
	record.Status = StatusDead
	snapshot := *record
	delete(r.records, agentID)
	r.mu.Unlock()

	if previous != StatusDead {
		r.notify(snapshot, previous)
	}
	return KillResult{Freed: true}
}

// Get returns the current record for agentID.
func (r *Registry) Get(agentID string) (HealthRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[agentID]
	if !ok {
		return HealthRecord{}, false
	}
	return *record, true
}

// TreeHealth is a point-in-time summary of the whole registry.
type TreeHealth struct {
	Total int
	Alive int
	Stale int
	Dead  int
}

// Snapshot summarizes the registry's current liveness distribution.
func (r *Registry) Snapshot() TreeHealth {
	r.mu.Lock()
	defer r.mu.Unlock()
	var h TreeHealth
	for _, record := range r.records {
		h.Total++
		switch record.Status {
		case StatusAlive:
			h.Alive++
		case StatusStale:
			h.Stale++
		case StatusDead:
			h.Dead++
		}
	}
	return h
}

func (r *Registry) notify(record HealthRecord, previous Status) {
	r.mu.Lock()
	listeners := make([]Listener, len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.Unlock()

	for _, l := range listeners {
		invokeListener(l, record, previous)
	}
}

func invokeListener(l Listener, record HealthRecord, previous Status) {
	defer func() { _ = recover() }()
	l(record, previous)
}
