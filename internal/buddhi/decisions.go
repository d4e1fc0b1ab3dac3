package buddhi

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sriinnu/chitragupta/internal/clock"
	"github.com/sriinnu/chitragupta/internal/ids"
)

const defaultListLimit = 100

var (
	ErrInvalidCategory    = errors.New("buddhi: invalid category")
	ErrConfidenceOutOfRange = errors.New("buddhi: confidence must be in [0,1]")
	ErrReasoningIncomplete  = errors.New("buddhi: exactly five non-empty reasoning strings are required")
	ErrDecisionNotFound     = errors.New("buddhi: unknown decision id")
)

// Engine records and queries structured decisions against a Store.
type Engine struct {
	store Store
	clock clock.Clock
}

// NewEngine builds an engine backed by store, using clk as its time source.
func NewEngine(store Store, clk clock.Clock) *Engine {
	if clk == nil {
		clk = clock.Default
	}
	return &Engine{store: store, clock: clk}
}

// RecordDecision validates p, assigns an id and timestamp, and persists it
// with a null outcome.
func (e *Engine) RecordDecision(p RecordParams) (*Decision, error) {
	if !validCategories[p.Category] {
		return nil, ErrInvalidCategory
	}
	if p.Confidence < 0 || p.Confidence > 1 {
		return nil, ErrConfidenceOutOfRange
	}
	nonEmpty := 0
	for _, r := range p.Reasoning {
		if strings.TrimSpace(r) != "" {
			nonEmpty++
		}
	}
	if nonEmpty != 5 {
		return nil, ErrReasoningIncomplete
	}

	now := e.clock.NowMillis()
	d := &Decision{
		ID:           ids.New("bud", p.Description, strconv.FormatInt(now, 10)),
		Project:      p.Project,
		Category:     p.Category,
		Description:  p.Description,
		Confidence:   p.Confidence,
		Reasoning:    append([]string(nil), p.Reasoning...),
		Alternatives: append([]Alternative(nil), p.Alternatives...),
		Metadata:     p.Metadata,
		Timestamp:    now,
	}
	if err := e.store.Insert(d); err != nil {
		return nil, fmt.Errorf("buddhi: insert decision: %w", err)
	}
	return d, nil
}

// RecordOutcome attaches outcome to the decision with the given id.
func (e *Engine) RecordOutcome(id string, outcome Outcome) error {
	d, ok, err := e.store.Get(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrDecisionNotFound
	}
	d.Outcome = &outcome
	return e.store.Update(d)
}

// GetDecision returns the decision with the given id, or nil if unknown.
func (e *Engine) GetDecision(id string) (*Decision, error) {
	d, ok, err := e.store.Get(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return d, nil
}

// ListDecisions returns decisions matching f, newest first, default limit
//100 when f.Limit is unset.
func (e *Engine) ListDecisions(f ListFilters) ([]*Decision, error) {
	return e.store.List(f)
}

// ExplainDecision renders a fixed-format human-readable syllogism block for
// the decision with the given id.
func (e *Engine) ExplainDecision(w io.Writer, id string) error {
	d, err := e.GetDecision(id)
	if err != nil {
		return err
	}
	if d == nil {
		return ErrDecisionNotFound
	}

	fmt.Fprintf(w, "Decision %s (%s)\n", d.ID, d.Category)
	fmt.Fprintf(w, "  Chose: %s\n", d.Description)
	fmt.Fprintf(w, "  Confidence: %.2f\n", d.Confidence)
	fmt.Fprintln(w, "  Because:")
	for _, r := range d.Reasoning {
		fmt.Fprintf(w, "    - %s\n", r)
	}
	if len(d.Alternatives) > 0 {
		fmt.Fprintln(w, "  Rejected:")
		for _, a := range d.Alternatives {
			fmt.Fprintf(w, "    - %s (%s)\n", a.Description, a.ReasonRejected)
		}
	}
	if d.Outcome != nil {
		status := "failed"
		if d.Outcome.Success {
			status = "succeeded"
		}
		fmt.Fprintf(w, "  Outcome: %s — %s\n", status, d.Outcome.Feedback)
	} else {
		fmt.Fprintln(w, "  Outcome: pending")
	}
	return nil
}
