// Package kartavya promotes observed patterns (vasana) into proposed
// automations (niyama) and, once approved, into active kartavyas: rules
// that watch for a trigger condition and dispatch a gated action.
package kartavya

import "time"

// Status is a kartavya's lifecycle state.
type Status string

const (
	StatusProposed Status = "proposed"
	StatusActive   Status = "active"
	StatusPaused   Status = "paused"
	StatusRetired  Status = "retired"
)

// TriggerKind selects how a Trigger is evaluated against a TriggerContext.
type TriggerKind string

const (
	TriggerCron      TriggerKind = "cron"
	TriggerEvent     TriggerKind = "event"
	TriggerThreshold TriggerKind = "threshold"
	TriggerPattern   TriggerKind = "pattern"
)

// ThresholdOp is a comparison operator for a threshold trigger.
type ThresholdOp string

const (
	OpLess           ThresholdOp = "<"
	OpLessOrEqual    ThresholdOp = "<="
	OpGreater        ThresholdOp = ">"
	OpGreaterOrEqual ThresholdOp = ">="
	OpEqual          ThresholdOp = "=="
)

// Trigger describes the condition that fires a kartavya.
type Trigger struct {
	Kind TriggerKind

	CronSpec string // TriggerCron: 5-field standard cron expression

	EventName string // TriggerEvent

	MetricName     string      // TriggerThreshold
	Op             ThresholdOp // TriggerThreshold
	ThresholdValue float64     // TriggerThreshold

	PatternRegex string // TriggerPattern

	CooldownMs int64 // clamped to >= minCooldownMs at evaluation time
}

// ActionKind selects which dispatcher handler runs for an Action.
type ActionKind string

const (
	ActionNotification ActionKind = "notification"
	ActionCommand      ActionKind = "command"
	ActionToolSequence ActionKind = "tool_sequence"
	ActionVidhi        ActionKind = "vidhi"
)

// ToolStep is one call in a tool_sequence action.
type ToolStep struct {
	ToolName  string
	Arguments map[string]any
}

// Action describes what happens when a kartavya fires.
type Action struct {
	Kind ActionKind

	NotificationChannel string // ActionNotification
	NotificationMessage string // ActionNotification

	Command string // ActionCommand

	ToolSequence []ToolStep // ActionToolSequence

	VidhiName string // ActionVidhi
}

// EvidenceItem is one observation supporting a proposed kartavya.
type EvidenceItem struct {
	Description string
	Timestamp   int64
}

// Kartavya is one lifecycle-managed automation rule.
type Kartavya struct {
	ID             string
	Name           string
	Description    string
	Status         Status
	Trigger        Trigger
	Action         Action
	OriginVasanaID string
	Evidence       []EvidenceItem
	Confidence     float64

	CreatedAtMs int64
	LastFireMs  int64

	hourWindowStartMs int64
	executionsInHour  int
}

// TriggerContext is the input to trigger evaluation for one evaluation pass.
type TriggerContext struct {
	Now      time.Time
	Events   map[string]struct{}
	Metrics  map[string]float64
	Patterns []string
}

// ExecutionResult is one dispatcher outcome, retained in the result ring.
type ExecutionResult struct {
	KartavyaID string
	Action     ActionKind
	Success    bool
	Result     string
	Err        string
	Timestamp  int64
}
