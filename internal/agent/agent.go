// Package agent implements the agent tree: stateful LLM-backed agents that
// can prompt, spawn bounded-depth children, and delegate work across the
// tree, with a typed event stream for observers.
package agent

import (
	"context"
	"sync"
	"time"

	"github.com/sriinnu/chitragupta/pkg/models"
)

// Status is the lifecycle state of one agent.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusAborted   Status = "aborted"
	StatusError     Status = "error"
)

// PolicyDecision is the tool executor's verdict for one proposed call.
type PolicyDecision string

const (
	PolicyAllow PolicyDecision = "allow"
	PolicyDeny  PolicyDecision = "deny"
	PolicyAsk   PolicyDecision = "ask"
)

// PolicyEngine gates tool invocations. Implementations live in internal/toolexec.
type PolicyEngine interface {
	Check(ctx context.Context, toolName string, args []byte, tc ToolContext) (PolicyDecision, string)
}

// ToolContext is passed to the tool executor for one invocation.
type ToolContext struct {
	SessionID string
	WorkDir   string
	Agent     *Agent
	Policy    PolicyEngine
}

// ToolExecutor resolves and invokes a named tool, enforcing policy and
// recording outcomes to the learning loop.
type ToolExecutor interface {
	Execute(ctx context.Context, tc ToolContext, call models.ToolCall) models.ToolResult
}

// Agent is one node in the agent tree. The zero value is not usable;
// construct with New or Tree.Spawn.
type Agent struct {
	mu sync.RWMutex

	id      string
	purpose string
	status  Status
	depth   int

	provider Provider
	executor ToolExecutor
	config   Config
	emitter  *Emitter

	parent   *Agent
	children []*Agent

	history []models.Turn
	tree    *Tree

	createdAt time.Time
}

// New constructs a root agent. Use Tree.Spawn to create children with
// depth and fan-out enforcement.
func New(id, purpose string, provider Provider, executor ToolExecutor, cfg Config) *Agent {
	return &Agent{
		id:        id,
		purpose:   purpose,
		status:    StatusIdle,
		depth:     0,
		provider:  provider,
		executor:  executor,
		config:    sanitizeConfig(cfg),
		emitter:   NewEmitter(),
		createdAt: time.Now(),
	}
}

// ID returns the agent's identifier.
func (a *Agent) ID() string { return a.id }

// Purpose returns the agent's declared purpose.
func (a *Agent) Purpose() string { return a.purpose }

// Depth returns the agent's distance from the tree root.
func (a *Agent) Depth() int { return a.depth }

// Status returns the agent's current lifecycle state.
func (a *Agent) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status
}

func (a *Agent) setStatus(s Status) {
	a.mu.Lock()
	a.status = s
	a.mu.Unlock()
}

// History returns a copy of the agent's turn history.
func (a *Agent) History() []models.Turn {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]models.Turn, len(a.history))
	copy(out, a.history)
	return out
}

// On registers an event listener, returning an unsubscribe function.
func (a *Agent) On(l Listener) func() {
	return a.emitter.On(l)
}

func (a *Agent) emit(evType EventType, payload any) {
	a.emitter.Emit(Event{Type: evType, AgentID: a.id, Payload: payload})
}

// Abort marks this agent aborted and cascades depth-first to every
// descendant. Already-terminal descendants (completed, error, aborted) are
// left untouched.
func (a *Agent) Abort() {
	a.abortSubtree()
}

func (a *Agent) abortSubtree() {
	a.mu.Lock()
	if a.status == StatusIdle || a.status == StatusRunning {
		a.status = StatusAborted
	}
	children := make([]*Agent, len(a.children))
	copy(children, a.children)
	a.mu.Unlock()

	for _, c := range children {
		c.abortSubtree()
	}
}

// isAborted reports whether the agent has been aborted, for loop exit checks.
func (a *Agent) isAborted() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status == StatusAborted
}
