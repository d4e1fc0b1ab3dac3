package dayconsolidation

import (
	"fmt"

	"github.com/sriinnu/chitragupta/internal/clock"
)

// Consolidator rolls up one day's sessions at a time against injected
// collaborators.
type Consolidator struct {
	Sessions  SessionStore
	Embedder  EmbeddingProvider // optional; nil disables similarity-based dedup
	Store     ConsolidatedStore
	clock     clock.Clock
}

// NewConsolidator builds a consolidator. clk may be nil to use the real
// clock.
func NewConsolidator(sessions SessionStore, embedder EmbeddingProvider, store ConsolidatedStore, clk clock.Clock) *Consolidator {
	if clk == nil {
		clk = clock.Default
	}
	return &Consolidator{Sessions: sessions, Embedder: embedder, Store: store, clock: clk}
}

// Consolidate builds the consolidated record for date. If a record already
// exists for date and force is false, it returns early with
// SessionsProcessed=0 rather than re-deriving it.
func (c *Consolidator) Consolidate(date string, force bool) (*Result, error) {
	start := c.clock.NowMillis()

	if !force {
		exists, err := c.Store.Has(date)
		if err != nil {
			return nil, fmt.Errorf("dayconsolidation: check existing record: %w", err)
		}
		if exists {
			return &Result{Date: date, DurationMs: c.clock.NowMillis() - start}, nil
		}
	}

	sessions, err := c.Sessions.ListSessionsByDate(date)
	if err != nil {
		return nil, fmt.Errorf("dayconsolidation: list sessions: %w", err)
	}

	byProject := make(map[string][]EventChain)
	var projectOrder []string
	totalTurns := 0
	var allChains []EventChain

	for _, s := range sessions {
		chain := extractEventChain(s.ID, s.Turns)
		totalTurns += len(s.Turns)
		allChains = append(allChains, chain)
		if _, ok := byProject[s.Project]; !ok {
			projectOrder = append(projectOrder, s.Project)
		}
		byProject[s.Project] = append(byProject[s.Project], chain)
	}

	facts := extractPersonalFacts(allChains, c.Embedder)

	projects := make([]ProjectChain, 0, len(projectOrder))
	for _, p := range projectOrder {
		projects = append(projects, ProjectChain{Project: p, Chains: byProject[p]})
	}

	record := ConsolidatedRecord{
		Date:              date,
		Projects:          projects,
		ExtractedFacts:    facts,
		SessionsProcessed: len(sessions),
		TotalTurns:        totalTurns,
	}

	file, err := c.Store.Save(date, record)
	if err != nil {
		return nil, fmt.Errorf("dayconsolidation: save record: %w", err)
	}

	return &Result{
		Date:              date,
		File:              file,
		SessionsProcessed: len(sessions),
		ProjectCount:      len(projects),
		TotalTurns:        totalTurns,
		ExtractedFacts:    facts,
		DurationMs:        c.clock.NowMillis() - start,
	}, nil
}
