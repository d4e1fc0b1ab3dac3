package kartavya

import (
	"context"
	"testing"

	"github.com/sriinnu/chitragupta/internal/agent"
	"github.com/sriinnu/chitragupta/internal/clock"
	"github.com/sriinnu/chitragupta/internal/samiti"
	"github.com/sriinnu/chitragupta/pkg/models"
)

type allowAllRta struct{ denyTool string }

func (r allowAllRta) CheckCommand(ctx context.Context, command string) (bool, string) {
	return true, ""
}

func (r allowAllRta) CheckTool(ctx context.Context, toolName string, arguments map[string]any) (bool, string) {
	if toolName == r.denyTool {
		return false, "blocked in test"
	}
	return true, ""
}

type fakeCommandRunner struct {
	stdout   string
	exitCode int
	err      error
}

func (f fakeCommandRunner) Run(ctx context.Context, command string) (string, string, int, error) {
	return f.stdout, "", f.exitCode, f.err
}

type fakeToolExecutor struct {
	failOn string
	calls  []string
}

func (f *fakeToolExecutor) Execute(ctx context.Context, tc agent.ToolContext, call models.ToolCall) models.ToolResult {
	f.calls = append(f.calls, call.Name)
	if call.Name == f.failOn {
		return models.ToolResult{IsError: true, Content: "boom"}
	}
	return models.ToolResult{Content: "ok"}
}

func newTestDispatcher(maxConcurrent int) (*Dispatcher, *Engine) {
	e, clk := newTestEngine()
	_ = clk
	return NewDispatcher(e, clock.NewMock(0), maxConcurrent), e
}

func TestDispatch_NotificationWithoutHub(t *testing.T) {
	d, _ := newTestDispatcher(1)
	k := &Kartavya{ID: "k1", Action: Action{Kind: ActionNotification, NotificationChannel: "alerts", NotificationMessage: "hi"}}
	res := d.Dispatch(context.Background(), k)
	if !res.Success {
		t.Fatalf("want success, got %+v", res)
	}
}

func TestDispatch_NotificationWithHub(t *testing.T) {
	d, _ := newTestDispatcher(1)
	d.Hub = samiti.New(clock.NewMock(0))
	k := &Kartavya{ID: "k1", Action: Action{Kind: ActionNotification, NotificationChannel: "alerts", NotificationMessage: "hi"}}
	res := d.Dispatch(context.Background(), k)
	if !res.Success || res.Result == "" {
		t.Fatalf("want success with a message id, got %+v", res)
	}
	history, err := d.Hub.GetHistory("alerts", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].Content != "hi" {
		t.Fatalf("want message recorded in channel history, got %v", history)
	}
}

func TestDispatch_CommandDisabledByDefault(t *testing.T) {
	d, _ := newTestDispatcher(1)
	k := &Kartavya{ID: "k1", Action: Action{Kind: ActionCommand, Command: "echo hi"}}
	res := d.Dispatch(context.Background(), k)
	if res.Success || res.Err != ErrCommandActionsDisabled.Error() {
		t.Fatalf("want command actions disabled, got %+v", res)
	}
}

func TestDispatch_CommandDeniedByRta(t *testing.T) {
	d, _ := newTestDispatcher(1)
	d.EnableCommandActions = true
	d.Rta = deniedRta{}
	d.Commands = fakeCommandRunner{stdout: "should not run"}
	k := &Kartavya{ID: "k1", Action: Action{Kind: ActionCommand, Command: "rm -rf /"}}
	res := d.Dispatch(context.Background(), k)
	if res.Success {
		t.Fatalf("want denial, got %+v", res)
	}
}

type deniedRta struct{}

func (deniedRta) CheckCommand(ctx context.Context, command string) (bool, string) { return false, "no" }
func (deniedRta) CheckTool(ctx context.Context, toolName string, arguments map[string]any) (bool, string) {
	return false, "no"
}

func TestDispatch_CommandSuccess(t *testing.T) {
	d, _ := newTestDispatcher(1)
	d.EnableCommandActions = true
	d.Rta = allowAllRta{}
	d.Commands = fakeCommandRunner{stdout: "done", exitCode: 0}
	k := &Kartavya{ID: "k1", Action: Action{Kind: ActionCommand, Command: "echo done"}}
	res := d.Dispatch(context.Background(), k)
	if !res.Success || res.Result != "done" {
		t.Fatalf("want success with stdout, got %+v", res)
	}
}

func TestDispatch_CommandNonZeroExit(t *testing.T) {
	d, _ := newTestDispatcher(1)
	d.EnableCommandActions = true
	d.Rta = allowAllRta{}
	d.Commands = fakeCommandRunner{exitCode: 1}
	k := &Kartavya{ID: "k1", Action: Action{Kind: ActionCommand, Command: "false"}}
	res := d.Dispatch(context.Background(), k)
	if res.Success {
		t.Fatal("want failure on non-zero exit")
	}
}

func TestDispatch_ToolSequenceAbortsOnFirstFailure(t *testing.T) {
	d, _ := newTestDispatcher(1)
	tools := &fakeToolExecutor{failOn: "step2"}
	d.Tools = tools
	k := &Kartavya{ID: "k1", Action: Action{Kind: ActionToolSequence, ToolSequence: []ToolStep{
		{ToolName: "step1"},
		{ToolName: "step2"},
		{ToolName: "step3"},
	}}}
	res := d.Dispatch(context.Background(), k)
	if res.Success {
		t.Fatal("want failure")
	}
	if len(tools.calls) != 2 {
		t.Fatalf("want execution to stop after the failing step, got calls=%v", tools.calls)
	}
}

func TestDispatch_ToolSequenceDeniedByRta(t *testing.T) {
	d, _ := newTestDispatcher(1)
	tools := &fakeToolExecutor{}
	d.Tools = tools
	d.Rta = allowAllRta{denyTool: "blocked"}
	k := &Kartavya{ID: "k1", Action: Action{Kind: ActionToolSequence, ToolSequence: []ToolStep{{ToolName: "blocked"}}}}
	res := d.Dispatch(context.Background(), k)
	if res.Success {
		t.Fatal("want denial")
	}
	if len(tools.calls) != 0 {
		t.Fatal("a denied step must never reach the tool executor")
	}
}

func TestDispatch_ToolSequenceSuccess(t *testing.T) {
	d, _ := newTestDispatcher(1)
	tools := &fakeToolExecutor{}
	d.Tools = tools
	k := &Kartavya{ID: "k1", Action: Action{Kind: ActionToolSequence, ToolSequence: []ToolStep{{ToolName: "a"}, {ToolName: "b"}}}}
	res := d.Dispatch(context.Background(), k)
	if !res.Success {
		t.Fatalf("want success, got %+v", res)
	}
	if len(tools.calls) != 2 {
		t.Fatalf("want both steps to run, got %v", tools.calls)
	}
}

func TestDispatch_VidhiUnknown(t *testing.T) {
	d, _ := newTestDispatcher(1)
	d.Vidhis = NewVidhiLibrary()
	k := &Kartavya{ID: "k1", Action: Action{Kind: ActionVidhi, VidhiName: "missing"}}
	res := d.Dispatch(context.Background(), k)
	if res.Success {
		t.Fatal("want failure resolving an unknown vidhi")
	}
}

func TestDispatch_VidhiResolvesAndRuns(t *testing.T) {
	d, _ := newTestDispatcher(1)
	tools := &fakeToolExecutor{}
	d.Tools = tools
	lib := NewVidhiLibrary()
	lib.Register(Vidhi{Name: "restart", Steps: []VidhiStep{{ToolName: "stop"}, {ToolName: "start"}}})
	d.Vidhis = lib
	k := &Kartavya{ID: "k1", Action: Action{Kind: ActionVidhi, VidhiName: "restart"}}
	res := d.Dispatch(context.Background(), k)
	if !res.Success {
		t.Fatalf("want success, got %+v", res)
	}
	if len(tools.calls) != 2 || tools.calls[0] != "stop" || tools.calls[1] != "start" {
		t.Fatalf("want stop then start, got %v", tools.calls)
	}
}

func TestDispatch_ResultsRingRecordsEachDispatch(t *testing.T) {
	d, _ := newTestDispatcher(4)
	for i := 0; i < 3; i++ {
		k := &Kartavya{ID: "k1", Action: Action{Kind: ActionNotification, NotificationChannel: "alerts", NotificationMessage: "m"}}
		d.Dispatch(context.Background(), k)
	}
	results := d.GetResults(0)
	if len(results) != 3 {
		t.Fatalf("want 3 results, got %d", len(results))
	}
}

func TestDispatch_UnknownActionKind(t *testing.T) {
	d, _ := newTestDispatcher(1)
	k := &Kartavya{ID: "k1", Action: Action{Kind: ActionKind("bogus")}}
	res := d.Dispatch(context.Background(), k)
	if res.Success {
		t.Fatal("want failure for unrecognized action kind")
	}
}
