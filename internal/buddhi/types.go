// Package buddhi is the persisted structured-reasoning decision log: every
// consequential choice the runtime makes is recorded with its reasoning,
// rejected alternatives, and confidence, and can later be reconciled against
// its real-world outcome.
package buddhi

// Category is a fixed enum of decision kinds. recordDecision rejects any
// value outside this set.
type Category string

const (
	CategoryToolSelection  Category = "tool-selection"
	CategoryArchitecture   Category = "architecture"
	CategoryStrategy       Category = "strategy"
	CategoryRiskAssessment Category = "risk-assessment"
	CategoryOptimization   Category = "optimization"
)

var validCategories = map[Category]bool{
	CategoryToolSelection:  true,
	CategoryArchitecture:   true,
	CategoryStrategy:       true,
	CategoryRiskAssessment: true,
	CategoryOptimization:   true,
}

// Alternative is one option considered and rejected in favor of the
// recorded decision.
type Alternative struct {
	Description    string `json:"description"`
	ReasonRejected string `json:"reason_rejected"`
}

// Outcome is the real-world result of a decision, recorded after the fact.
type Outcome struct {
	Success   bool   `json:"success"`
	Feedback  string `json:"feedback"`
	Timestamp int64  `json:"timestamp"`
}

// Decision is one recorded structured-reasoning entry.
type Decision struct {
	ID           string         `json:"id"`
	Project      string         `json:"project"`
	Category     Category       `json:"category"`
	Description  string         `json:"description"`
	Confidence   float64        `json:"confidence"`
	Reasoning    []string       `json:"reasoning"`
	Alternatives []Alternative  `json:"alternatives"`
	Metadata     map[string]any `json:"metadata"`
	Timestamp    int64          `json:"timestamp"`
	Outcome      *Outcome       `json:"outcome"`
}

// RecordParams is the caller-supplied shape for a new decision.
type RecordParams struct {
	Project      string
	Category     Category
	Description  string
	Confidence   float64
	Reasoning    []string
	Alternatives []Alternative
	Metadata     map[string]any
}

// ListFilters narrows listDecisions. Zero values mean "no filter" except
// Limit: 0 means the default of 100, negative means unbounded.
type ListFilters struct {
	Project  string
	Category Category
	FromDate int64 // unix millis, inclusive; 0 means no lower bound
	ToDate   int64 // unix millis, inclusive; 0 means no upper bound
	Limit    int
}

// CategoryPattern summarizes one category's recorded decisions.
type CategoryPattern struct {
	Category              Category `json:"category"`
	Count                 int      `json:"count"`
	AverageConfidence     float64  `json:"average_confidence"`
	SuccessRate           float64  `json:"success_rate"`
	RepresentativeExample string   `json:"representative_example"`
}
