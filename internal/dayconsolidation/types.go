// Package dayconsolidation rolls up a day's sessions into one durable
// record per day: per-session event chains, per-project grouping, and
// de-duplicated personal facts, suitable for later hierarchical retrieval.
package dayconsolidation

import "github.com/sriinnu/chitragupta/pkg/models"

// SessionRecord is the minimal shape a consolidation pass needs from a
// session store.
type SessionRecord struct {
	ID      string
	Project string
	Agent   string
	Turns   []models.Turn
}

// SessionStore enumerates sessions for a given date. Implementations live
// alongside whichever host wires a concrete session backend.
type SessionStore interface {
	ListSessionsByDate(date string) ([]SessionRecord, error)
}

// EmbeddingProvider supplies the vector used for similarity-based fact
// de-duplication.
type EmbeddingProvider interface {
	Embed(text string) ([]float64, error)
}

// ConsolidatedRecord is the single durable artifact produced for one date.
type ConsolidatedRecord struct {
	Date              string         `json:"date"`
	Projects          []ProjectChain `json:"projects"`
	ExtractedFacts    []string       `json:"extracted_facts"`
	SessionsProcessed int            `json:"sessions_processed"`
	TotalTurns        int            `json:"total_turns"`
}

// ProjectChain groups event chains from every session belonging to one
// project.
type ProjectChain struct {
	Project string       `json:"project"`
	Chains  []EventChain `json:"chains"`
}

// EventChain is the rule-based extraction result for one session.
type EventChain struct {
	SessionID       string   `json:"session_id"`
	ToolInvocations []string `json:"tool_invocations"`
	Decisions       []string `json:"decisions"`
	Errors          []string `json:"errors"`
	Commits         []string `json:"commits"`
	Facts           []string `json:"facts"`
	Preferences     []string `json:"preferences"`
}

// ConsolidatedStore persists one ConsolidatedRecord per date, keyed by
// date, and reports whether a date has already been consolidated.
type ConsolidatedStore interface {
	Has(date string) (bool, error)
	Save(date string, record ConsolidatedRecord) (file string, err error)
}

// Result is returned from a consolidation run.
type Result struct {
	Date              string   `json:"date"`
	File              string   `json:"file"`
	SessionsProcessed int      `json:"sessionsProcessed"`
	ProjectCount      int      `json:"projectCount"`
	TotalTurns        int      `json:"totalTurns"`
	ExtractedFacts    []string `json:"extractedFacts"`
	DurationMs        int64    `json:"durationMs"`
}
