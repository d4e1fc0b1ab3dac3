package buddhi

import (
	"strings"
	"testing"

	"github.com/sriinnu/chitragupta/internal/clock"
)

func newTestEngine(startMillis int64) (*Engine, *clock.Mock) {
	clk := clock.NewMock(startMillis)
	return NewEngine(NewMemoryStore(), clk), clk
}

func validParams() RecordParams {
	return RecordParams{
		Project:     "chitragupta",
		Category:    CategoryToolSelection,
		Description: "Use grep for code search",
		Confidence:  0.85,
		Reasoning: []string{
			"grep is already installed everywhere",
			"the codebase is small enough for a linear scan",
			"no index needs to be built or kept fresh",
			"output format is easy to parse",
			"it is fast enough for this repo size",
		},
		Alternatives: []Alternative{{Description: "Use find", ReasonRejected: "Too slow"}},
	}
}

func TestRecordDecision_WithOutcome(t *testing.T) {
	e, clk := newTestEngine(1000)
	d, err := e.RecordDecision(validParams())
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !strings.HasPrefix(d.ID, "bud-") {
		t.Fatalf("want bud- prefixed id, got %s", d.ID)
	}
	if d.Timestamp != 1000 {
		t.Fatalf("want timestamp 1000, got %d", d.Timestamp)
	}
	if d.Outcome != nil {
		t.Fatalf("want nil outcome, got %+v", d.Outcome)
	}

	clk.Set(2000)
	if err := e.RecordOutcome(d.ID, Outcome{Success: true, Feedback: "Grep found it.", Timestamp: clk.NowMillis()}); err != nil {
		t.Fatalf("record outcome: %v", err)
	}

	got, err := e.GetDecision(d.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Outcome == nil || !got.Outcome.Success {
		t.Fatalf("want outcome.success true, got %+v", got.Outcome)
	}
}

func TestRecordDecision_RejectsInvalidCategory(t *testing.T) {
	e, _ := newTestEngine(0)
	p := validParams()
	p.Category = "not-a-real-category"
	if _, err := e.RecordDecision(p); err != ErrInvalidCategory {
		t.Fatalf("want ErrInvalidCategory, got %v", err)
	}
}

func TestRecordDecision_RejectsConfidenceOutOfRange(t *testing.T) {
	e, _ := newTestEngine(0)
	p := validParams()
	p.Confidence = 1.5
	if _, err := e.RecordDecision(p); err != ErrConfidenceOutOfRange {
		t.Fatalf("want ErrConfidenceOutOfRange, got %v", err)
	}
	p.Confidence = -0.1
	if _, err := e.RecordDecision(p); err != ErrConfidenceOutOfRange {
		t.Fatalf("want ErrConfidenceOutOfRange, got %v", err)
	}
}

func TestRecordDecision_RejectsIncompleteReasoning(t *testing.T) {
	e, _ := newTestEngine(0)
	p := validParams()
	p.Reasoning = []string{"one", "two", "  ", "four", "five"}
	if _, err := e.RecordDecision(p); err != ErrReasoningIncomplete {
		t.Fatalf("want ErrReasoningIncomplete, got %v", err)
	}
	p.Reasoning = []string{"one", "two", "three", "four"}
	if _, err := e.RecordDecision(p); err != ErrReasoningIncomplete {
		t.Fatalf("want ErrReasoningIncomplete for too few, got %v", err)
	}
}

func TestRecordOutcome_UnknownID(t *testing.T) {
	e, _ := newTestEngine(0)
	if err := e.RecordOutcome("nope", Outcome{Success: true}); err != ErrDecisionNotFound {
		t.Fatalf("want ErrDecisionNotFound, got %v", err)
	}
}

func TestGetDecision_Unknown(t *testing.T) {
	e, _ := newTestEngine(0)
	got, err := e.GetDecision("nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Fatalf("want nil for unknown id, got %+v", got)
	}
}

func TestListDecisions_FiltersByCategoryNewestFirst(t *testing.T) {
	e, clk := newTestEngine(0)
	for i := 0; i < 5; i++ {
		clk.Set(int64(i) * 1000)
		p := validParams()
		if i%2 == 0 {
			p.Category = CategoryArchitecture
		}
		if _, err := e.RecordDecision(p); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}
	got, err := e.ListDecisions(ListFilters{Category: CategoryArchitecture})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("want 3 architecture decisions, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Timestamp > got[i-1].Timestamp {
			t.Fatalf("want newest-first ordering")
		}
	}
}

func TestExplainDecision(t *testing.T) {
	e, _ := newTestEngine(5000)
	d, _ := e.RecordDecision(validParams())
	var buf strings.Builder
	if err := e.ExplainDecision(&buf, d.ID); err != nil {
		t.Fatalf("explain: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, d.ID) || !strings.Contains(out, "Use grep for code search") || !strings.Contains(out, "Rejected") {
		t.Fatalf("unexpected explanation output: %s", out)
	}
}

func TestExplainDecision_Unknown(t *testing.T) {
	e, _ := newTestEngine(0)
	var buf strings.Builder
	if err := e.ExplainDecision(&buf, "nope"); err != ErrDecisionNotFound {
		t.Fatalf("want ErrDecisionNotFound, got %v", err)
	}
}
