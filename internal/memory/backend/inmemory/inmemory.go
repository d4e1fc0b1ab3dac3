// Package inmemory provides a zero-dependency backend.Backend for tests and
// single-process hosts that don't need durability.
package inmemory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/sriinnu/chitragupta/internal/memory/backend"
	"github.com/sriinnu/chitragupta/pkg/models"
)

// Backend is an in-memory backend.Backend doing brute-force cosine search.
type Backend struct {
	mu      sync.Mutex
	records map[string]*models.MemoryEntry // id -> entry
}

// New creates an empty in-memory backend.
func New() *Backend {
	return &Backend{records: make(map[string]*models.MemoryEntry)}
}

// Index stores entries keyed by scope+timestamp.
func (b *Backend) Index(ctx context.Context, entries []*models.MemoryEntry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range entries {
		b.records[recordID(e)] = e
	}
	return nil
}

// Search ranks stored entries by cosine similarity to embedding, filtered by
// scope when opts.ScopeID or opts.Scope is set.
func (b *Backend) Search(ctx context.Context, embedding []float32, opts *backend.SearchOptions) ([]*models.SearchResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	limit := 10
	if opts != nil && opts.Limit > 0 {
		limit = opts.Limit
	}

	var results []*models.SearchResult
	for _, e := range b.records {
		if opts != nil && opts.Scope.Kind != "" && e.Scope.Kind != opts.Scope.Kind {
			continue
		}
		if opts != nil && opts.ScopeID != "" && e.Scope.ID != opts.ScopeID {
			continue
		}
		if len(e.Embedding) == 0 {
			continue
		}
		score := float32(0)
		if len(embedding) > 0 {
			score = cosineSimilarity(e.Embedding, embedding)
		}
		if opts != nil && opts.Threshold > 0 && score < opts.Threshold {
			continue
		}
		results = append(results, &models.SearchResult{Entry: *e, Score: score})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Delete removes entries by id.
func (b *Backend) Delete(ctx context.Context, ids []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range ids {
		delete(b.records, id)
	}
	return nil
}

// Count returns the number of entries in scope (scope "" counts everything).
func (b *Backend) Count(ctx context.Context, scope models.MemoryScope, scopeID string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var n int64
	for _, r := range b.records {
		if scope.Kind != "" && r.Scope.Kind != scope.Kind {
			continue
		}
		if scopeID != "" && r.Scope.ID != scopeID {
			continue
		}
		n++
	}
	return n, nil
}

// Compact is a no-op for the in-memory backend.
func (b *Backend) Compact(ctx context.Context) error { return nil }

// Close is a no-op for the in-memory backend.
func (b *Backend) Close() error { return nil }

func recordID(e *models.MemoryEntry) string {
	return e.Scope.Key() + "@" + e.Timestamp.Format("20060102T150405.000000000")
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
