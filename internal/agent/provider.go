package agent

import (
	"context"

	"github.com/sriinnu/chitragupta/pkg/models"
)

// Provider defines the interface for LLM backends. Implementations handle
// the specifics of communicating with a given API (Anthropic, OpenAI,
// Bedrock, ...) while presenting a unified streaming contract to the loop.
//
// Stream is lazy and single-shot: nothing is sent upstream until the
// returned channel is drained, and the channel must not be reused across
// calls. Exactly one terminal event (EventDone or EventError) closes the
// channel. Cancelling ctx stops the underlying request and closes the
// channel without a terminal event.
//
// Implementations must be safe for concurrent use across different
// requests, but a single Stream call's channel is single-consumer.
type Provider interface {
	Stream(ctx context.Context, req CompletionRequest) (<-chan StreamEvent, error)
	Name() string
	Models() []models.Model
}

// CompletionRequest carries a full request to a provider.
type CompletionRequest struct {
	ModelID   string
	System    string
	Messages  []models.Turn
	Tools     []ToolSpec
	MaxTokens int
}

// ToolSpec describes one tool available to the model during this request.
type ToolSpec struct {
	Name        string
	Description string
	Schema      []byte // JSON Schema
}

// StreamEventType discriminates the StreamEvent variant. Exactly one of the
// corresponding payload fields on StreamEvent is meaningful per type.
type StreamEventType string

const (
	EventStart    StreamEventType = "start"
	EventText     StreamEventType = "text"
	EventThinking StreamEventType = "thinking"
	EventToolCall StreamEventType = "tool_call"
	EventDone     StreamEventType = "done"
	EventError    StreamEventType = "error"
)

// StreamEvent is one item in a provider's response sequence. Events are
// ordered and a single logical delta (e.g. one tool call's arguments) is
// never split across events.
type StreamEvent struct {
	Type StreamEventType

	MessageID string // EventStart

	TextChunk     string // EventText
	ThinkingChunk string // EventThinking

	ToolCallID   string // EventToolCall
	ToolCallName string
	ToolCallArgs []byte

	StopReason models.StopReason // EventDone
	Usage      models.Usage      // EventDone

	Err error // EventError
}

// CollectedStream is the accumulated result of draining a provider stream
// to completion.
type CollectedStream struct {
	Text         string
	ThinkingText string
	ToolCalls    []models.ToolCall
	StopReason   models.StopReason
	Usage        models.Usage
}

// CollectStream drains events off ch, accumulating text, thinking, and tool
// calls until a done or error event. An error event returns the error; a
// closed channel with no terminal event (cancellation) returns ctx.Err().
func CollectStream(ctx context.Context, ch <-chan StreamEvent) (CollectedStream, error) {
	var out CollectedStream
	pendingArgs := map[string]struct {
		name string
		args []byte
	}{}
	order := make([]string, 0, 4)

	for ev := range ch {
		switch ev.Type {
		case EventStart:
			// message id is surfaced to callers via onEvent, not accumulated here.
		case EventText:
			out.Text += ev.TextChunk
		case EventThinking:
			out.ThinkingText += ev.ThinkingChunk
		case EventToolCall:
			if _, seen := pendingArgs[ev.ToolCallID]; !seen {
				order = append(order, ev.ToolCallID)
			}
			pendingArgs[ev.ToolCallID] = struct {
				name string
				args []byte
			}{ev.ToolCallName, ev.ToolCallArgs}
		case EventDone:
			out.StopReason = ev.StopReason
			out.Usage = ev.Usage
			for _, id := range order {
				p := pendingArgs[id]
				out.ToolCalls = append(out.ToolCalls, models.ToolCall{
					ID:        id,
					Name:      p.name,
					Arguments: p.args,
				})
			}
			return out, nil
		case EventError:
			return out, ev.Err
		}
	}
	if err := ctx.Err(); err != nil {
		return out, err
	}
	return out, nil
}
