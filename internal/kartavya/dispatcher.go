package kartavya

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sriinnu/chitragupta/internal/agent"
	"github.com/sriinnu/chitragupta/internal/clock"
	"github.com/sriinnu/chitragupta/internal/ringbuf"
	"github.com/sriinnu/chitragupta/internal/samiti"
	"github.com/sriinnu/chitragupta/pkg/models"
)

const (
	commandTimeout  = 30 * time.Second
	resultRingSize  = 100
)

var ErrCommandActionsDisabled = errors.New("kartavya: command actions disabled")

// RtaChecker gates commands and tool calls dispatched by a firing kartavya.
// Implementations live wherever the host defines its safety policy; there is
// no bundled default.
type RtaChecker interface {
	CheckCommand(ctx context.Context, command string) (allow bool, reason string)
	CheckTool(ctx context.Context, toolName string, arguments map[string]any) (allow bool, reason string)
}

// CommandRunner executes a shell command. Implementations should honor
// ctx's deadline.
type CommandRunner interface {
	Run(ctx context.Context, command string) (stdout, stderr string, exitCode int, err error)
}

// Dispatcher executes kartavya actions under a concurrency bound, gated by
// the owning Engine's fire-slot accounting.
type Dispatcher struct {
	Engine  *Engine
	Hub     *samiti.Hub
	Rta     RtaChecker
	Commands CommandRunner
	Tools   agent.ToolExecutor
	Vidhis  *VidhiLibrary

	EnableCommandActions bool
	MaxConcurrent        int

	clock   clock.Clock
	results *ringbuf.Ring[ExecutionResult]
	sem     chan struct{}
}

// NewDispatcher builds a dispatcher bounded to maxConcurrent simultaneous
// action executions, backed by engine's fire-slot accounting.
func NewDispatcher(engine *Engine, clk clock.Clock, maxConcurrent int) *Dispatcher {
	if clk == nil {
		clk = clock.Default
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Dispatcher{
		Engine:        engine,
		MaxConcurrent: maxConcurrent,
		clock:         clk,
		results:       ringbuf.New[ExecutionResult](resultRingSize),
		sem:           make(chan struct{}, maxConcurrent),
	}
}

// Dispatch executes k's action, recording the outcome in the result ring.
// It blocks until a concurrency slot is free or ctx is canceled.
func (d *Dispatcher) Dispatch(ctx context.Context, k *Kartavya) ExecutionResult {
	select {
	case d.sem <- struct{}{}:
	case <-ctx.Done():
		return ExecutionResult{KartavyaID: k.ID, Action: k.Action.Kind, Success: false, Err: ctx.Err().Error(), Timestamp: d.clock.NowMillis()}
	}
	defer func() { <-d.sem }()

	d.Engine.BeginFire()
	defer d.Engine.EndFire()

	var res ExecutionResult
	switch k.Action.Kind {
	case ActionNotification:
		res = d.dispatchNotification(ctx, k)
	case ActionCommand:
		res = d.dispatchCommand(ctx, k)
	case ActionToolSequence:
		res = d.dispatchToolSequence(ctx, k, k.Action.ToolSequence)
	case ActionVidhi:
		res = d.dispatchVidhi(ctx, k)
	default:
		res = ExecutionResult{Success: false, Err: fmt.Sprintf("kartavya: unknown action kind %q", k.Action.Kind)}
	}
	res.KartavyaID = k.ID
	res.Action = k.Action.Kind
	res.Timestamp = d.clock.NowMillis()
	d.results.Push(res)
	return res
}

// GetResults returns up to limit recent results, newest-first. limit<=0
// means unbounded.
func (d *Dispatcher) GetResults(limit int) []ExecutionResult {
	return d.results.ToArray(limit)
}

func (d *Dispatcher) dispatchNotification(ctx context.Context, k *Kartavya) ExecutionResult {
	if d.Hub == nil {
		return ExecutionResult{Success: true, Result: "recorded (no hub attached): " + k.Action.NotificationMessage}
	}
	msg, err := d.Hub.Broadcast(k.Action.NotificationChannel, samiti.Draft{
		Sender:   "kartavya:" + k.ID,
		Content:  k.Action.NotificationMessage,
		Severity: samiti.SeverityInfo,
	})
	if err != nil {
		return ExecutionResult{Success: false, Err: err.Error()}
	}
	return ExecutionResult{Success: true, Result: msg.ID}
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, k *Kartavya) ExecutionResult {
	if !d.EnableCommandActions {
		return ExecutionResult{Success: false, Err: ErrCommandActionsDisabled.Error()}
	}
	if d.Commands == nil {
		return ExecutionResult{Success: false, Err: "kartavya: no command runner configured"}
	}
	if d.Rta != nil {
		if allow, reason := d.Rta.CheckCommand(ctx, k.Action.Command); !allow {
			return ExecutionResult{Success: false, Err: "denied by safety check: " + reason}
		}
	}

	cctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	stdout, stderr, exitCode, err := d.Commands.Run(cctx, k.Action.Command)
	if err != nil {
		return ExecutionResult{Success: false, Err: err.Error(), Result: stdout + stderr}
	}
	if exitCode != 0 {
		return ExecutionResult{Success: false, Err: fmt.Sprintf("exit code %d", exitCode), Result: stdout + stderr}
	}
	return ExecutionResult{Success: true, Result: stdout}
}

func (d *Dispatcher) dispatchToolSequence(ctx context.Context, k *Kartavya, steps []ToolStep) ExecutionResult {
	if d.Tools == nil {
		return ExecutionResult{Success: false, Err: "kartavya: no tool executor configured"}
	}
	for i, step := range steps {
		if d.Rta != nil {
			if allow, reason := d.Rta.CheckTool(ctx, step.ToolName, step.Arguments); !allow {
				return ExecutionResult{Success: false, Err: fmt.Sprintf("step %d (%s) denied by safety check: %s", i, step.ToolName, reason)}
			}
		}
		result, err := d.runTool(ctx, step)
		if err != nil {
			return ExecutionResult{Success: false, Err: fmt.Sprintf("step %d (%s): %s", i, step.ToolName, err.Error())}
		}
		if result.IsError {
			return ExecutionResult{Success: false, Err: fmt.Sprintf("step %d (%s): %s", i, step.ToolName, result.Content)}
		}
	}
	return ExecutionResult{Success: true, Result: fmt.Sprintf("%d steps completed", len(steps))}
}

func (d *Dispatcher) dispatchVidhi(ctx context.Context, k *Kartavya) ExecutionResult {
	if d.Vidhis == nil {
		return ExecutionResult{Success: false, Err: "kartavya: no vidhi library configured"}
	}
	v, ok := d.Vidhis.Resolve(k.Action.VidhiName)
	if !ok {
		return ExecutionResult{Success: false, Err: "kartavya: unknown vidhi " + k.Action.VidhiName}
	}
	steps := make([]ToolStep, len(v.Steps))
	for i, s := range v.Steps {
		steps[i] = ToolStep{ToolName: s.ToolName, Arguments: s.Arguments}
	}
	return d.dispatchToolSequence(ctx, k, steps)
}

func (d *Dispatcher) runTool(ctx context.Context, step ToolStep) (models.ToolResult, error) {
	args, err := json.Marshal(step.Arguments)
	if err != nil {
		return models.ToolResult{}, err
	}
	call := models.ToolCall{Name: step.ToolName, Arguments: args}
	tc := agent.ToolContext{}
	result := d.Tools.Execute(ctx, tc, call)
	return result, nil
}
