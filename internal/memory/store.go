// Package memory implements the scoped memory store: a lookup key is a
// scope (global, project, agent, or session), and each scope holds an
// ordered log of timestamped entries that Update replaces and Delete removes.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sriinnu/chitragupta/internal/clock"
	"github.com/sriinnu/chitragupta/internal/memory/backend"
	"github.com/sriinnu/chitragupta/internal/memory/embeddings"
	"github.com/sriinnu/chitragupta/pkg/models"
)

// Store is the scoped memory contract: get, update (overwrite), append
// (timestamped), delete, listScopes, search(query, limit).
type Store interface {
	Get(ctx context.Context, scope models.MemoryScope) (string, error)
	Update(ctx context.Context, scope models.MemoryScope, content string) error
	Append(ctx context.Context, scope models.MemoryScope, content string) error
	Delete(ctx context.Context, scope models.MemoryScope) error
	ListScopes(ctx context.Context) ([]models.MemoryScope, error)
	Search(ctx context.Context, query string, limit int) ([]*models.SearchResult, error)
}

// store keeps the canonical per-scope entry log in memory and mirrors every
// mutation into a backend.Backend for vector search. The backend is the
// system of record for search; this map is the system of record for
// get/update/append/delete/listScopes, since those operations address a
// scope directly rather than ranking by similarity.
type store struct {
	mu       sync.Mutex
	entries  map[string][]*models.MemoryEntry // scope.Key() -> ordered log
	scopes   map[string]models.MemoryScope
	backend  backend.Backend
	embedder embeddings.Provider
	clock    clock.Clock
}

// New builds a Store backed by b. embedder is optional: without one,
// Search still runs but entries are indexed without vectors and Search
// falls back to whatever the backend returns for a zero embedding. A nil
// clk defaults to clock.Default.
func New(b backend.Backend, embedder embeddings.Provider, clk clock.Clock) Store {
	if clk == nil {
		clk = clock.Default
	}
	return &store{
		entries:  make(map[string][]*models.MemoryEntry),
		scopes:   make(map[string]models.MemoryScope),
		backend:  b,
		embedder: embedder,
		clock:    clk,
	}
}

// Get returns the scope's content: every entry's text joined by newlines,
// oldest first.
func (s *store) Get(ctx context.Context, scope models.MemoryScope) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.entries[scope.Key()]
	if len(entries) == 0 {
		return "", nil
	}
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = e.Content
	}
	return strings.Join(parts, "\n"), nil
}

// Update overwrites scope's entire log with a single entry holding content.
func (s *store) Update(ctx context.Context, scope models.MemoryScope, content string) error {
	entry, err := s.buildEntry(ctx, scope, content)
	if err != nil {
		return err
	}

	s.mu.Lock()
	old := s.entries[scope.Key()]
	s.entries[scope.Key()] = []*models.MemoryEntry{entry}
	s.scopes[scope.Key()] = scope
	s.mu.Unlock()

	if err := s.deleteFromBackend(ctx, old); err != nil {
		return err
	}
	return s.backend.Index(ctx, []*models.MemoryEntry{entry})
}

// Append adds content as a new timestamped entry to scope's log.
func (s *store) Append(ctx context.Context, scope models.MemoryScope, content string) error {
	entry, err := s.buildEntry(ctx, scope, content)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.entries[scope.Key()] = append(s.entries[scope.Key()], entry)
	s.scopes[scope.Key()] = scope
	s.mu.Unlock()

	return s.backend.Index(ctx, []*models.MemoryEntry{entry})
}

// Delete removes scope's entire log.
func (s *store) Delete(ctx context.Context, scope models.MemoryScope) error {
	s.mu.Lock()
	old := s.entries[scope.Key()]
	delete(s.entries, scope.Key())
	delete(s.scopes, scope.Key())
	s.mu.Unlock()

	return s.deleteFromBackend(ctx, old)
}

// ListScopes returns every scope that currently holds at least one entry.
func (s *store) ListScopes(ctx context.Context) ([]models.MemoryScope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.MemoryScope, 0, len(s.scopes))
	for _, sc := range s.scopes {
		out = append(out, sc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out, nil
}

// Search embeds query (when an embedding provider is configured) and ranks
// stored entries by similarity via the backend.
func (s *store) Search(ctx context.Context, query string, limit int) ([]*models.SearchResult, error) {
	var vector []float32
	if s.embedder != nil {
		v, err := s.embedder.Embed(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("memory: embed query: %w", err)
		}
		vector = v
	}
	return s.backend.Search(ctx, vector, &backend.SearchOptions{Limit: limit, Query: query})
}

func (s *store) buildEntry(ctx context.Context, scope models.MemoryScope, content string) (*models.MemoryEntry, error) {
	entry := &models.MemoryEntry{Scope: scope, Content: content, Timestamp: time.UnixMilli(s.clock.NowMillis())}
	if s.embedder != nil {
		vec, err := s.embedder.Embed(ctx, content)
		if err != nil {
			return nil, fmt.Errorf("memory: embed entry: %w", err)
		}
		entry.Embedding = vec
	}
	return entry, nil
}

func (s *store) deleteFromBackend(ctx context.Context, entries []*models.MemoryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.Scope.Key() + "@" + e.Timestamp.Format("20060102T150405.000000000")
	}
	return s.backend.Delete(ctx, ids)
}
