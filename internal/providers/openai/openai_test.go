package openai

import (
	"context"
	"encoding/json"
	"testing"

	openaisdk "github.com/sashabaranov/go-openai"

	"github.com/sriinnu/chitragupta/internal/agent"
	"github.com/sriinnu/chitragupta/pkg/models"
)

func TestConvertMessages_BasicText(t *testing.T) {
	turns := []models.Turn{
		{Role: models.RoleUser, Content: []models.ContentPart{models.TextPart("hello")}},
		{Role: models.RoleAssistant, Content: []models.ContentPart{models.TextPart("hi there")}},
	}

	result, err := convertMessages(turns, "be helpful")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("expected system + 2 messages, got %d", len(result))
	}
	if result[0].Role != openaisdk.ChatMessageRoleSystem {
		t.Errorf("expected first message to be system, got %s", result[0].Role)
	}
}

func TestConvertMessages_ToolCallAndResult(t *testing.T) {
	turns := []models.Turn{
		{Role: models.RoleAssistant, Content: []models.ContentPart{
			models.ToolCallPart("call_1", "get_weather", json.RawMessage(`{"location":"NYC"}`)),
		}},
		{Role: models.RoleTool, Content: []models.ContentPart{
			models.ToolResultPart("call_1", "Sunny, 72F", false),
		}},
	}

	result, err := convertMessages(turns, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(result))
	}
	if len(result[0].ToolCalls) != 1 || result[0].ToolCalls[0].Function.Name != "get_weather" {
		t.Fatalf("expected one get_weather tool call, got %v", result[0].ToolCalls)
	}
	if result[1].Role != openaisdk.ChatMessageRoleTool || result[1].ToolCallID != "call_1" {
		t.Errorf("expected tool result message linked to call_1, got %+v", result[1])
	}
}

func TestConvertMessages_InvalidToolArgs(t *testing.T) {
	turns := []models.Turn{
		{Role: models.RoleAssistant, Content: []models.ContentPart{
			models.ToolCallPart("call_1", "bad", json.RawMessage(`not json`)),
		}},
	}
	if _, err := convertMessages(turns, ""); err == nil {
		t.Error("expected error for invalid tool call arguments")
	}
}

func TestConvertTools(t *testing.T) {
	tools := []agent.ToolSpec{
		{Name: "calculator", Description: "does math", Schema: []byte(`{"type":"object"}`)},
	}
	result := convertTools(tools)
	if len(result) != 1 || result[0].Function.Name != "calculator" {
		t.Fatalf("unexpected tools: %v", result)
	}
}

func TestFinishReasonToStop(t *testing.T) {
	cases := map[openaisdk.FinishReason]models.StopReason{
		openaisdk.FinishReasonToolCalls: models.StopToolUse,
		openaisdk.FinishReasonLength:    models.StopMaxTokens,
		openaisdk.FinishReasonStop:      models.StopEndTurn,
	}
	for reason, want := range cases {
		if got := finishReasonToStop(reason); got != want {
			t.Errorf("finishReasonToStop(%s) = %s, want %s", reason, got, want)
		}
	}
}

func TestNew_NoAPIKeyReportsError(t *testing.T) {
	p := New(Config{})
	if _, err := p.Stream(context.Background(), agent.CompletionRequest{}); err == nil {
		t.Error("expected error for unconfigured provider")
	}
}
