package toolexec

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/sriinnu/chitragupta/internal/agent"
	"github.com/sriinnu/chitragupta/pkg/models"
)

// Approver resolves an "ask" policy verdict to a final allow/deny
// decision, e.g. by prompting an operator or calling a remote approval
// service. Returning false denies the call.
type Approver interface {
	Approve(ctx context.Context, call models.ToolCall, reason string) bool
}

// ApproverFunc adapts a function to an Approver.
type ApproverFunc func(ctx context.Context, call models.ToolCall, reason string) bool

// Approve calls the wrapped function.
func (f ApproverFunc) Approve(ctx context.Context, call models.ToolCall, reason string) bool {
	return f(ctx, call, reason)
}

// Recorder observes tool outcomes for the learning loop (internal/learning
// satisfies this without toolexec importing it, avoiding a cycle).
type Recorder interface {
	Record(toolName string, success bool, latency time.Duration)
}

// Executor resolves, policy-checks, and invokes tool handlers, recovering
// panics as error results. It implements agent.ToolExecutor.
type Executor struct {
	Registry *Registry
	Approver Approver
	Recorder Recorder
}

// NewExecutor builds an executor around registry with no approver or
// recorder configured.
func NewExecutor(registry *Registry) *Executor {
	return &Executor{Registry: registry}
}

// Execute implements agent.ToolExecutor.
func (e *Executor) Execute(ctx context.Context, tc agent.ToolContext, call models.ToolCall) models.ToolResult {
	start := time.Now()
	result := e.execute(ctx, tc, call)
	if e.Recorder != nil {
		e.Recorder.Record(call.Name, !result.IsError, time.Since(start))
	}
	return result
}

func (e *Executor) execute(ctx context.Context, tc agent.ToolContext, call models.ToolCall) models.ToolResult {
	handler, ok := e.Registry.Get(call.Name)
	if !ok {
		return errorResult("tool not found: " + call.Name)
	}

	if tc.Policy != nil {
		decision, reason := tc.Policy.Check(ctx, call.Name, call.Arguments, tc)
		switch decision {
		case agent.PolicyDeny:
			return errorResult(denyMessage(call.Name, reason))
		case agent.PolicyAsk:
			if e.Approver == nil || !e.Approver.Approve(ctx, call, reason) {
				return errorResult(denyMessage(call.Name, reason))
			}
		}
	}

	return e.invoke(ctx, handler, call)
}

func (e *Executor) invoke(ctx context.Context, handler Handler, call models.ToolCall) (result models.ToolResult) {
	defer func() {
		if r := recover(); r != nil {
			result = errorResult(fmt.Sprintf("tool %s panicked: %v\n%s", call.Name, r, debug.Stack()))
		}
	}()

	res, err := handler.Execute(ctx, call.Arguments)
	if err != nil {
		return errorResult(fmt.Sprintf("tool %s failed: %v", call.Name, err))
	}
	return res
}

func errorResult(msg string) models.ToolResult {
	return models.ToolResult{Content: msg, IsError: true}
}

func denyMessage(toolName, reason string) string {
	if reason == "" {
		return "tool " + toolName + " was denied"
	}
	return reason
}
