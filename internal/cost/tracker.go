// Package cost tracks USD spend per model and across a run, and estimates
// whether a conversation still fits a model's context window.
package cost

import (
	"sync"
	"time"

	"github.com/sriinnu/chitragupta/pkg/models"
)

// Entry is one priced completion.
type Entry struct {
	Timestamp time.Time
	ModelID   string
	Usage     models.Usage
	Cost      float64
	Latency   time.Duration
}

// ModelTotals aggregates spend and token usage for one model.
type ModelTotals struct {
	ModelID         string
	InvocationCount int
	TotalCost       float64
	TotalUsage      models.Usage
}

// Tracker accumulates cost entries and answers per-model and total
// aggregates.
type Tracker struct {
	mu      sync.Mutex
	entries []Entry
}

// NewTracker creates an empty cost tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// CalculateCost computes the USD cost of usage under model's pricing.
func CalculateCost(usage models.Usage, model models.Model) float64 {
	return model.Pricing.Cost(usage)
}

// Record prices usage under model and appends it to the ledger.
func (t *Tracker) Record(model models.Model, usage models.Usage, latency time.Duration) Entry {
	entry := Entry{
		Timestamp: time.Now(),
		ModelID:   model.ID,
		Usage:     usage,
		Cost:      CalculateCost(usage, model),
		Latency:   latency,
	}
	t.mu.Lock()
	t.entries = append(t.entries, entry)
	t.mu.Unlock()
	return entry
}

// RecordAndExport prices usage, appends it to the ledger, and mirrors the
// entry into m. m may be nil, in which case only the ledger is updated.
func (t *Tracker) RecordAndExport(m *Metrics, model models.Model, usage models.Usage, latency time.Duration) Entry {
	entry := t.Record(model, usage, latency)
	m.Observe(entry)
	return entry
}

// Total returns the total USD cost across every recorded entry.
func (t *Tracker) Total() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	var total float64
	for _, e := range t.entries {
		total += e.Cost
	}
	return total
}

// PerModel aggregates cost and usage grouped by model id.
func (t *Tracker) PerModel() map[string]ModelTotals {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]ModelTotals)
	for _, e := range t.entries {
		mt := out[e.ModelID]
		mt.ModelID = e.ModelID
		mt.InvocationCount++
		mt.TotalCost += e.Cost
		mt.TotalUsage.InputTokens += e.Usage.InputTokens
		mt.TotalUsage.OutputTokens += e.Usage.OutputTokens
		mt.TotalUsage.CacheReadTokens += e.Usage.CacheReadTokens
		mt.TotalUsage.CacheWriteTokens += e.Usage.CacheWriteTokens
		out[e.ModelID] = mt
	}
	return out
}

// Entries returns a copy of every recorded entry.
func (t *Tracker) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}
