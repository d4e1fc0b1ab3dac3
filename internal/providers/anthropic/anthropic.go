// Package anthropic implements agent.Provider over Anthropic's Messages
// streaming API.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"github.com/sriinnu/chitragupta/internal/agent"
	"github.com/sriinnu/chitragupta/internal/providers"
	"github.com/sriinnu/chitragupta/pkg/models"
)

// Provider wraps an Anthropic Messages client behind agent.Provider.
type Provider struct {
	client       anthropicsdk.Client
	defaultModel string
}

// Config configures a Provider.
type Config struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
}

// New creates a Provider. Returns an error only if APIKey is empty.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic: API key is required")
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "claude-sonnet-4-20250514"
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Provider{client: anthropicsdk.NewClient(opts...), defaultModel: cfg.DefaultModel}, nil
}

func (p *Provider) Name() string { return "anthropic" }

func (p *Provider) Models() []models.Model {
	return []models.Model{
		{ID: "claude-sonnet-4-20250514", ProviderID: "anthropic", ContextWindow: 200000},
		{ID: "claude-opus-4-20250514", ProviderID: "anthropic", ContextWindow: 200000},
		{ID: "claude-3-5-sonnet-20241022", ProviderID: "anthropic", ContextWindow: 200000},
		{ID: "claude-3-haiku-20240307", ProviderID: "anthropic", ContextWindow: 200000},
	}
}

func (p *Provider) Stream(ctx context.Context, req agent.CompletionRequest) (<-chan agent.StreamEvent, error) {
	params, err := p.buildParams(req)
	if err != nil {
		return nil, err
	}

	stream := p.client.Messages.NewStreaming(ctx, params)

	out := make(chan agent.StreamEvent)
	go processStream(stream, out, p.modelOf(req.ModelID))
	return out, nil
}

func (p *Provider) modelOf(modelID string) string {
	if modelID == "" {
		return p.defaultModel
	}
	return modelID
}

func (p *Provider) buildParams(req agent.CompletionRequest) (anthropicsdk.MessageNewParams, error) {
	messages, err := convertMessages(req.Messages)
	if err != nil {
		return anthropicsdk.MessageNewParams{}, fmt.Errorf("anthropic: failed to convert messages: %w", err)
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	params := anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(p.modelOf(req.ModelID)),
		Messages:  messages,
		MaxTokens: int64(maxTokens),
	}

	if req.System != "" {
		params.System = []anthropicsdk.TextBlockParam{{Type: "text", Text: req.System}}
	}

	if len(req.Tools) > 0 {
		tools, err := convertTools(req.Tools)
		if err != nil {
			return anthropicsdk.MessageNewParams{}, fmt.Errorf("anthropic: failed to convert tools: %w", err)
		}
		params.Tools = tools
	}

	return params, nil
}

// maxEmptyStreamEvents bounds how many consecutive uninformative SSE events
// are tolerated before the stream is treated as malformed.
const maxEmptyStreamEvents = 300

func processStream(stream *ssestream.Stream[anthropicsdk.MessageStreamEventUnion], out chan<- agent.StreamEvent, model string) {
	defer close(out)

	var currentToolID, currentToolName string
	var toolInput strings.Builder
	inTool := false
	emptyEvents := 0

	var inputTokens, outputTokens int
	started := false

	for stream.Next() {
		event := stream.Current()
		processed := false

		switch event.Type {
		case "message_start":
			ms := event.AsMessageStart()
			if ms.Message.Usage.InputTokens > 0 {
				inputTokens = int(ms.Message.Usage.InputTokens)
			}
			if !started {
				started = true
				out <- agent.StreamEvent{Type: agent.EventStart, MessageID: ms.Message.ID}
			}
			processed = true

		case "content_block_start":
			block := event.AsContentBlockStart().ContentBlock
			if block.Type == "tool_use" {
				toolUse := block.AsToolUse()
				currentToolID = toolUse.ID
				currentToolName = toolUse.Name
				toolInput.Reset()
				inTool = true
				processed = true
			}

		case "content_block_delta":
			delta := event.AsContentBlockDelta().Delta
			switch delta.Type {
			case "text_delta":
				if delta.Text != "" {
					out <- agent.StreamEvent{Type: agent.EventText, TextChunk: delta.Text}
					processed = true
				}
			case "thinking_delta":
				if delta.Thinking != "" {
					out <- agent.StreamEvent{Type: agent.EventThinking, ThinkingChunk: delta.Thinking}
					processed = true
				}
			case "input_json_delta":
				if delta.PartialJSON != "" {
					toolInput.WriteString(delta.PartialJSON)
					processed = true
				}
			}

		case "content_block_stop":
			if inTool {
				out <- agent.StreamEvent{
					Type:         agent.EventToolCall,
					ToolCallID:   currentToolID,
					ToolCallName: currentToolName,
					ToolCallArgs: []byte(toolInput.String()),
				}
				inTool = false
				processed = true
			}

		case "message_delta":
			md := event.AsMessageDelta()
			if md.Usage.OutputTokens > 0 {
				outputTokens = int(md.Usage.OutputTokens)
			}
			processed = true

		case "message_stop":
			out <- agent.StreamEvent{
				Type:       agent.EventDone,
				StopReason: models.StopEndTurn,
				Usage:      models.Usage{InputTokens: inputTokens, OutputTokens: outputTokens},
			}
			return

		case "error":
			out <- agent.StreamEvent{Type: agent.EventError, Err: wrapError(errors.New("anthropic stream error"), model)}
			return
		}

		if processed {
			emptyEvents = 0
		} else {
			emptyEvents++
			if emptyEvents >= maxEmptyStreamEvents {
				out <- agent.StreamEvent{Type: agent.EventError, Err: wrapError(fmt.Errorf("stream appears malformed: %d consecutive empty events", emptyEvents), model)}
				return
			}
		}
	}

	if err := stream.Err(); err != nil {
		out <- agent.StreamEvent{Type: agent.EventError, Err: wrapError(err, model)}
	}
}

func convertMessages(turns []models.Turn) ([]anthropicsdk.MessageParam, error) {
	var result []anthropicsdk.MessageParam

	for _, turn := range turns {
		if turn.Role == models.RoleSystem {
			continue
		}

		var content []anthropicsdk.ContentBlockParamUnion
		for _, part := range turn.Content {
			switch part.Type {
			case models.PartText:
				if part.Text != "" {
					content = append(content, anthropicsdk.NewTextBlock(part.Text))
				}
			case models.PartToolResult:
				content = append(content, anthropicsdk.NewToolResultBlock(part.ToolResultID, part.ToolResultContent, part.ToolResultIsError))
			case models.PartToolCall:
				var input map[string]any
				if len(part.ToolCallArgs) > 0 {
					if err := json.Unmarshal(part.ToolCallArgs, &input); err != nil {
						return nil, fmt.Errorf("invalid tool call input: %w", err)
					}
				}
				content = append(content, anthropicsdk.NewToolUseBlock(part.ToolCallID, input, part.ToolCallName))
			}
		}

		var message anthropicsdk.MessageParam
		if turn.Role == models.RoleAssistant {
			message = anthropicsdk.NewAssistantMessage(content...)
		} else {
			message = anthropicsdk.NewUserMessage(content...)
		}
		result = append(result, message)
	}

	return result, nil
}

func convertTools(tools []agent.ToolSpec) ([]anthropicsdk.ToolUnionParam, error) {
	var result []anthropicsdk.ToolUnionParam
	for _, tool := range tools {
		var schema anthropicsdk.ToolInputSchemaParam
		if err := json.Unmarshal(tool.Schema, &schema); err != nil {
			return nil, fmt.Errorf("invalid tool schema for %s: %w", tool.Name, err)
		}
		param := anthropicsdk.ToolUnionParamOfTool(schema, tool.Name)
		if param.OfTool == nil {
			return nil, fmt.Errorf("invalid tool schema for %s: missing tool definition", tool.Name)
		}
		param.OfTool.Description = anthropicsdk.String(tool.Description)
		result = append(result, param)
	}
	return result, nil
}

type errorPayload struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
	RequestID string `json:"request_id"`
}

func wrapError(err error, model string) error {
	if err == nil {
		return nil
	}
	if providers.IsProviderError(err) {
		return err
	}

	var apiErr *anthropicsdk.Error
	if errors.As(err, &apiErr) {
		pe := &providers.ProviderError{Provider: "anthropic", Model: model, Cause: err, Reason: providers.FailoverUnknown}
		pe = pe.WithStatus(apiErr.StatusCode)

		message, code, requestID := "", "", apiErr.RequestID
		if raw := apiErr.RawJSON(); raw != "" {
			var payload errorPayload
			if json.Unmarshal([]byte(raw), &payload) == nil {
				message = payload.Error.Message
				code = payload.Error.Type
				if payload.RequestID != "" {
					requestID = payload.RequestID
				}
			}
		}
		if message != "" {
			pe = pe.WithMessage(message)
		} else if pe.Message == "" {
			pe.Message = "anthropic request failed"
		}
		if code != "" {
			pe = pe.WithCode(code)
		}
		if requestID != "" {
			pe = pe.WithRequestID(requestID)
		}
		return pe
	}

	return providers.NewProviderError("anthropic", model, err)
}
