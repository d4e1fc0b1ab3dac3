package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sriinnu/chitragupta/pkg/models"
)

// OnEvent receives every raw stream and turn event verbatim as the loop
// runs. Pass nil to run silently.
type OnEvent func(Event)

// Prompt appends text as a user turn and drives the stream/tool-execute
// cycle until the model reaches end_turn, the agent hits config.MaxTurns
// (a fatal error), or ctx is cancelled.
func (a *Agent) Prompt(ctx context.Context, text string, onEvent OnEvent) (models.Turn, error) {
	if a.provider == nil {
		return models.Turn{}, ErrNoProvider
	}

	emit := func(t EventType, payload any) {
		a.emit(t, payload)
		if onEvent != nil {
			onEvent(Event{Type: t, AgentID: a.id, Payload: payload})
		}
	}

	a.setStatus(StatusRunning)
	defer func() {
		if a.Status() == StatusRunning {
			a.setStatus(StatusCompleted)
		}
	}()

	userTurn := models.Turn{
		Role:      models.RoleUser,
		Content:   []models.ContentPart{models.TextPart(text)},
		Agent:     a.id,
		Timestamp: time.Now(),
	}
	a.appendTurn(userTurn)
	emit(EventTurnStart, userTurn)

	for turn := 0; turn < a.config.MaxTurns; turn++ {
		if ctx.Err() != nil {
			a.setStatus(StatusAborted)
			return models.Turn{}, ctx.Err()
		}
		if a.isAborted() {
			return models.Turn{}, ErrAborted
		}

		assistantTurn, stopReason, usage, err := a.streamOnce(ctx, emit)
		if err != nil {
			a.setStatus(StatusError)
			return models.Turn{}, err
		}
		a.appendTurn(assistantTurn)

		toolCalls := assistantTurn.ToolCalls()
		if stopReason != models.StopToolUse || len(toolCalls) == 0 {
			emit(EventTurnDone, assistantTurn)
			return assistantTurn, nil
		}

		resultTurn := a.executeTools(ctx, toolCalls, emit)
		a.appendTurn(resultTurn)
		_ = usage
	}

	a.setStatus(StatusError)
	return models.Turn{}, ErrMaxTurns
}

func (a *Agent) appendTurn(t models.Turn) {
	a.mu.Lock()
	a.history = append(a.history, t)
	a.mu.Unlock()
}

func (a *Agent) streamOnce(ctx context.Context, emit func(EventType, any)) (models.Turn, models.StopReason, models.Usage, error) {
	req := CompletionRequest{
		ModelID:   "",
		System:    a.config.System,
		Messages:  a.History(),
		MaxTokens: a.config.MaxTokens,
	}

	ch, err := a.provider.Stream(ctx, req)
	if err != nil {
		return models.Turn{}, "", models.Usage{}, err
	}

	emit(EventStreamStart, nil)

	var parts []models.ContentPart
	var textBuf, thinkBuf string
	var stopReason models.StopReason
	var usage models.Usage

	flushText := func() {
		if textBuf != "" {
			parts = append(parts, models.TextPart(textBuf))
			textBuf = ""
		}
	}

	for ev := range ch {
		switch ev.Type {
		case EventText:
			textBuf += ev.TextChunk
			emit(EventStreamText, ev.TextChunk)
		case EventThinking:
			thinkBuf += ev.ThinkingChunk
			emit(EventStreamThink, ev.ThinkingChunk)
		case EventToolCall:
			flushText()
			parts = append(parts, models.ToolCallPart(ev.ToolCallID, ev.ToolCallName, ev.ToolCallArgs))
			emit(EventStreamTool, ev)
		case EventDone:
			flushText()
			stopReason = ev.StopReason
			usage = ev.Usage
			emit(EventStreamDone, ev)
		case EventError:
			return models.Turn{}, "", models.Usage{}, ev.Err
		}
	}
	if ctx.Err() != nil {
		return models.Turn{}, "", models.Usage{}, ctx.Err()
	}

	_ = thinkBuf // thinking is only emitted as stream:thinking events; it is not kept on the turn.

	return models.Turn{
		Role:      models.RoleAssistant,
		Content:   parts,
		Agent:     a.id,
		Model:     req.ModelID,
		Timestamp: time.Now(),
	}, stopReason, usage, nil
}

func (a *Agent) executeTools(ctx context.Context, calls []models.ContentPart, emit func(EventType, any)) models.Turn {
	tc := ToolContext{
		SessionID: a.config.SessionID,
		WorkDir:   a.config.WorkDir,
		Agent:     a,
		Policy:    a.config.Policy,
	}

	parts := make([]models.ContentPart, 0, len(calls))
	for _, c := range calls {
		var result models.ToolResult
		if a.executor == nil {
			result = models.ToolResult{Content: "no tool executor configured", IsError: true}
		} else {
			result = a.executor.Execute(ctx, tc, models.ToolCall{
				ID:        c.ToolCallID,
				Name:      c.ToolCallName,
				Arguments: c.ToolCallArgs,
			})
		}
		parts = append(parts, models.ToolResultPart(c.ToolCallID, result.Content, result.IsError))
		emit(EventToolDone, result)
	}

	return models.Turn{
		Role:      models.RoleTool,
		Content:   parts,
		Agent:     a.id,
		Timestamp: time.Now(),
	}
}

// Delegate spawns a child per cfg, prompts it with text, and returns the
// child's final assistant turn.
func (a *Agent) Delegate(ctx context.Context, cfg SpawnConfig, text string) (models.Turn, error) {
	if a.tree == nil {
		return models.Turn{}, fmt.Errorf("agent %s is not attached to a tree", a.id)
	}
	child, err := a.tree.Spawn(a, cfg)
	if err != nil {
		return models.Turn{}, err
	}
	return child.Prompt(ctx, text, nil)
}

// DelegateTask pairs a SpawnConfig with the prompt text for DelegateParallel.
type DelegateTask struct {
	Config SpawnConfig
	Text   string
}

// DelegateResult is one DelegateParallel outcome, preserving task order.
type DelegateResult struct {
	Turn models.Turn
	Err  error
}

// DelegateParallel spawns and prompts every task concurrently, returning
// results in task order.
func (a *Agent) DelegateParallel(ctx context.Context, tasks []DelegateTask) []DelegateResult {
	results := make([]DelegateResult, len(tasks))
	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task DelegateTask) {
			defer wg.Done()
			turn, err := a.Delegate(ctx, task.Config, task.Text)
			results[i] = DelegateResult{Turn: turn, Err: err}
		}(i, task)
	}
	wg.Wait()
	return results
}
