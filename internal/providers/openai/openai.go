// Package openai implements agent.Provider over OpenAI's chat completion
// streaming API.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	openaisdk "github.com/sashabaranov/go-openai"

	"github.com/sriinnu/chitragupta/internal/agent"
	"github.com/sriinnu/chitragupta/internal/providers"
	"github.com/sriinnu/chitragupta/pkg/models"
)

// Provider wraps an OpenAI chat completion client behind agent.Provider.
type Provider struct {
	client       *openaisdk.Client
	defaultModel string
}

// Config configures a Provider.
type Config struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
}

// New creates a Provider. An empty APIKey is valid (the provider is then
// unusable, which Stream reports as an error rather than panicking).
func New(cfg Config) *Provider {
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "gpt-4o"
	}
	if cfg.APIKey == "" {
		return &Provider{defaultModel: cfg.DefaultModel}
	}
	sdkCfg := openaisdk.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		sdkCfg.BaseURL = cfg.BaseURL
	}
	return &Provider{
		client:       openaisdk.NewClientWithConfig(sdkCfg),
		defaultModel: cfg.DefaultModel,
	}
}

func (p *Provider) Name() string { return "openai" }

func (p *Provider) Models() []models.Model {
	return []models.Model{
		{ID: "gpt-4o", ProviderID: "openai", ContextWindow: 128000},
		{ID: "gpt-4-turbo", ProviderID: "openai", ContextWindow: 128000},
		{ID: "gpt-4", ProviderID: "openai", ContextWindow: 8192},
		{ID: "gpt-3.5-turbo", ProviderID: "openai", ContextWindow: 16385},
	}
}

func (p *Provider) Stream(ctx context.Context, req agent.CompletionRequest) (<-chan agent.StreamEvent, error) {
	if p.client == nil {
		return nil, providers.NewProviderError("openai", req.ModelID, errors.New("openai: API key not configured"))
	}

	messages, err := convertMessages(req.Messages, req.System)
	if err != nil {
		return nil, fmt.Errorf("openai: failed to convert messages: %w", err)
	}

	model := req.ModelID
	if model == "" {
		model = p.defaultModel
	}

	chatReq := openaisdk.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
		Stream:   true,
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = req.MaxTokens
	}
	if len(req.Tools) > 0 {
		chatReq.Tools = convertTools(req.Tools)
	}

	stream, err := p.client.CreateChatCompletionStream(ctx, chatReq)
	if err != nil {
		return nil, wrapError(err, model)
	}

	out := make(chan agent.StreamEvent)
	go processStream(ctx, stream, out, model)
	return out, nil
}

func processStream(ctx context.Context, stream *openaisdk.ChatCompletionStream, out chan<- agent.StreamEvent, model string) {
	defer close(out)
	defer stream.Close()

	toolCalls := make(map[int]*agent.StreamEvent)
	toolOrder := make([]int, 0, 2)
	started := false

	emit := func(ev agent.StreamEvent) bool {
		select {
		case out <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			for _, idx := range toolOrder {
				tc := toolCalls[idx]
				if !emit(*tc) {
					return
				}
			}
			emit(agent.StreamEvent{Type: agent.EventDone, StopReason: models.StopEndTurn})
			return
		}
		if err != nil {
			emit(agent.StreamEvent{Type: agent.EventError, Err: wrapError(err, model)})
			return
		}

		if !started {
			started = true
			if !emit(agent.StreamEvent{Type: agent.EventStart, MessageID: resp.ID}) {
				return
			}
		}

		if len(resp.Choices) == 0 {
			continue
		}
		choice := resp.Choices[0]
		delta := choice.Delta

		if delta.Content != "" {
			if !emit(agent.StreamEvent{Type: agent.EventText, TextChunk: delta.Content}) {
				return
			}
		}

		for _, tc := range delta.ToolCalls {
			idx := 0
			if tc.Index != nil {
				idx = *tc.Index
			}
			existing, seen := toolCalls[idx]
			if !seen {
				existing = &agent.StreamEvent{Type: agent.EventToolCall, ToolCallID: tc.ID, ToolCallName: tc.Function.Name}
				toolCalls[idx] = existing
				toolOrder = append(toolOrder, idx)
			}
			if tc.ID != "" {
				existing.ToolCallID = tc.ID
			}
			if tc.Function.Name != "" {
				existing.ToolCallName = tc.Function.Name
			}
			existing.ToolCallArgs = append(existing.ToolCallArgs, []byte(tc.Function.Arguments)...)
		}

		if choice.FinishReason != "" {
			for _, idx := range toolOrder {
				tc := toolCalls[idx]
				if !emit(*tc) {
					return
				}
			}
			toolOrder = toolOrder[:0]
			stop := finishReasonToStop(choice.FinishReason)
			if !emit(agent.StreamEvent{Type: agent.EventDone, StopReason: stop}) {
				return
			}
			return
		}
	}
}

func finishReasonToStop(reason openaisdk.FinishReason) models.StopReason {
	switch reason {
	case openaisdk.FinishReasonToolCalls, openaisdk.FinishReasonFunctionCall:
		return models.StopToolUse
	case openaisdk.FinishReasonLength:
		return models.StopMaxTokens
	default:
		return models.StopEndTurn
	}
}

func convertMessages(turns []models.Turn, system string) ([]openaisdk.ChatCompletionMessage, error) {
	var result []openaisdk.ChatCompletionMessage
	if system != "" {
		result = append(result, openaisdk.ChatCompletionMessage{Role: openaisdk.ChatMessageRoleSystem, Content: system})
	}

	for _, turn := range turns {
		role := roleToOpenAI(turn.Role)
		msg := openaisdk.ChatCompletionMessage{Role: role}

		for _, part := range turn.Content {
			switch part.Type {
			case models.PartText:
				msg.Content += part.Text
			case models.PartToolCall:
				var args map[string]any
				if len(part.ToolCallArgs) > 0 {
					if err := json.Unmarshal(part.ToolCallArgs, &args); err != nil {
						return nil, fmt.Errorf("invalid tool call arguments for %s: %w", part.ToolCallName, err)
					}
				}
				msg.ToolCalls = append(msg.ToolCalls, openaisdk.ToolCall{
					ID:   part.ToolCallID,
					Type: openaisdk.ToolTypeFunction,
					Function: openaisdk.FunctionCall{
						Name:      part.ToolCallName,
						Arguments: string(part.ToolCallArgs),
					},
				})
			case models.PartToolResult:
				result = append(result, openaisdk.ChatCompletionMessage{
					Role:       openaisdk.ChatMessageRoleTool,
					Content:    part.ToolResultContent,
					ToolCallID: part.ToolResultID,
				})
			}
		}

		if msg.Content != "" || len(msg.ToolCalls) > 0 {
			result = append(result, msg)
		}
	}

	return result, nil
}

func roleToOpenAI(role models.Role) string {
	switch role {
	case models.RoleAssistant:
		return openaisdk.ChatMessageRoleAssistant
	case models.RoleSystem:
		return openaisdk.ChatMessageRoleSystem
	case models.RoleTool:
		return openaisdk.ChatMessageRoleTool
	default:
		return openaisdk.ChatMessageRoleUser
	}
}

func convertTools(tools []agent.ToolSpec) []openaisdk.Tool {
	result := make([]openaisdk.Tool, 0, len(tools))
	for _, t := range tools {
		var params any
		if len(t.Schema) > 0 {
			_ = json.Unmarshal(t.Schema, &params)
		}
		result = append(result, openaisdk.Tool{
			Type: openaisdk.ToolTypeFunction,
			Function: &openaisdk.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  params,
			},
		})
	}
	return result
}

func wrapError(err error, model string) error {
	if err == nil {
		return nil
	}
	if providers.IsProviderError(err) {
		return err
	}
	var apiErr *openaisdk.APIError
	if errors.As(err, &apiErr) {
		pe := &providers.ProviderError{Provider: "openai", Model: model, Cause: err}
		pe = pe.WithStatus(apiErr.HTTPStatusCode)
		if apiErr.Message != "" {
			pe = pe.WithMessage(apiErr.Message)
		}
		if apiErr.Code != nil {
			if code, ok := apiErr.Code.(string); ok {
				pe = pe.WithCode(code)
			}
		}
		return pe
	}
	return providers.NewProviderError("openai", model, err)
}
