// Package mock implements a scriptable agent.Provider for tests that need a
// deterministic LLM backend without a network call.
package mock

import (
	"context"

	"github.com/sriinnu/chitragupta/internal/agent"
	"github.com/sriinnu/chitragupta/pkg/models"
)

// Turn is one scripted response: either plain text or a tool call, never
// both, matching how a real provider never splits a logical delta.
type Turn struct {
	Text         string
	ToolCallID   string
	ToolCallName string
	ToolCallArgs []byte
	Err          error
}

// Provider replays a fixed script of turns, one per Stream call, then
// repeats the last turn for any call beyond the script's length. Useful for
// exercising the agent loop, Niyanta strategy selection, and Kartavya
// dispatch without live API credentials.
type Provider struct {
	ModelName string
	ModelList []models.Model
	Script    []Turn

	calls int
}

func New(modelName string, script ...Turn) *Provider {
	return &Provider{ModelName: modelName, Script: script}
}

func (p *Provider) Name() string { return "mock" }

func (p *Provider) Models() []models.Model {
	if p.ModelList != nil {
		return p.ModelList
	}
	return []models.Model{{ID: p.ModelName, ProviderID: "mock", ContextWindow: 200000}}
}

// Calls returns the number of Stream invocations served so far.
func (p *Provider) Calls() int { return p.calls }

func (p *Provider) Stream(ctx context.Context, req agent.CompletionRequest) (<-chan agent.StreamEvent, error) {
	turn := p.nextTurn()
	p.calls++

	ch := make(chan agent.StreamEvent, 4)
	go func() {
		defer close(ch)
		select {
		case ch <- agent.StreamEvent{Type: agent.EventStart, MessageID: "mock"}:
		case <-ctx.Done():
			return
		}

		if turn.Err != nil {
			select {
			case ch <- agent.StreamEvent{Type: agent.EventError, Err: turn.Err}:
			case <-ctx.Done():
			}
			return
		}

		stop := models.StopEndTurn
		if turn.Text != "" {
			select {
			case ch <- agent.StreamEvent{Type: agent.EventText, TextChunk: turn.Text}:
			case <-ctx.Done():
				return
			}
		}
		if turn.ToolCallName != "" {
			stop = models.StopToolUse
			select {
			case ch <- agent.StreamEvent{
				Type:         agent.EventToolCall,
				ToolCallID:   turn.ToolCallID,
				ToolCallName: turn.ToolCallName,
				ToolCallArgs: turn.ToolCallArgs,
			}:
			case <-ctx.Done():
				return
			}
		}

		select {
		case ch <- agent.StreamEvent{Type: agent.EventDone, StopReason: stop}:
		case <-ctx.Done():
		}
	}()
	return ch, nil
}

func (p *Provider) nextTurn() Turn {
	if len(p.Script) == 0 {
		return Turn{Text: "ok"}
	}
	if p.calls < len(p.Script) {
		return p.Script[p.calls]
	}
	return p.Script[len(p.Script)-1]
}
