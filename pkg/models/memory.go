package models

import "time"

// MemoryScopeKind identifies which axis a memory scope is keyed on.
type MemoryScopeKind string

const (
	ScopeGlobal  MemoryScopeKind = "global"
	ScopeProject MemoryScopeKind = "project"
	ScopeAgent   MemoryScopeKind = "agent"
	ScopeSession MemoryScopeKind = "session"
)

// MemoryScope identifies one addressable memory bucket: global memory has no
// ID, the others are keyed by project path, agent id, or session id.
type MemoryScope struct {
	Kind MemoryScopeKind `json:"kind"`
	ID   string          `json:"id,omitempty"`
}

// Key renders the scope as a single lookup string, e.g. "project:/repo".
func (s MemoryScope) Key() string {
	if s.ID == "" {
		return string(s.Kind)
	}
	return string(s.Kind) + ":" + s.ID
}

// MemoryEntry is one timestamped append to a scope's memory log. Embedding
// is populated by the memory store when an embedder is configured; entries with no
// embedding are stored but excluded from vector search.
type MemoryEntry struct {
	Scope     MemoryScope `json:"scope"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
	Embedding []float32   `json:"embedding,omitempty"`
}

// SearchResult is one hit returned by the memory store's search operation.
type SearchResult struct {
	Entry MemoryEntry `json:"entry"`
	Score float32     `json:"score"`
}
