package mock

import (
	"context"
	"testing"

	"github.com/sriinnu/chitragupta/internal/agent"
	"github.com/sriinnu/chitragupta/pkg/models"
)

func TestProvider_PlainText(t *testing.T) {
	p := New("test-model", Turn{Text: "hello there"})

	ch, err := p.Stream(context.Background(), agent.CompletionRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	collected, err := agent.CollectStream(context.Background(), ch)
	if err != nil {
		t.Fatalf("unexpected stream error: %v", err)
	}
	if collected.Text != "hello there" {
		t.Errorf("expected text %q, got %q", "hello there", collected.Text)
	}
	if collected.StopReason != models.StopEndTurn {
		t.Errorf("expected end_turn, got %s", collected.StopReason)
	}
}

func TestProvider_ToolCall(t *testing.T) {
	p := New("test-model", Turn{ToolCallID: "tc_1", ToolCallName: "read_file", ToolCallArgs: []byte(`{"path":"a.go"}`)})

	ch, _ := p.Stream(context.Background(), agent.CompletionRequest{})
	collected, err := agent.CollectStream(context.Background(), ch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if collected.StopReason != models.StopToolUse {
		t.Errorf("expected tool_use, got %s", collected.StopReason)
	}
	if len(collected.ToolCalls) != 1 || collected.ToolCalls[0].Name != "read_file" {
		t.Fatalf("expected one read_file tool call, got %v", collected.ToolCalls)
	}
}

func TestProvider_ScriptAdvancesPerCall(t *testing.T) {
	p := New("test-model", Turn{Text: "first"}, Turn{Text: "second"})

	ch1, _ := p.Stream(context.Background(), agent.CompletionRequest{})
	first, _ := agent.CollectStream(context.Background(), ch1)

	ch2, _ := p.Stream(context.Background(), agent.CompletionRequest{})
	second, _ := agent.CollectStream(context.Background(), ch2)

	ch3, _ := p.Stream(context.Background(), agent.CompletionRequest{})
	third, _ := agent.CollectStream(context.Background(), ch3)

	if first.Text != "first" || second.Text != "second" || third.Text != "second" {
		t.Errorf("expected first, second, second (repeat last), got %q %q %q", first.Text, second.Text, third.Text)
	}
	if p.Calls() != 3 {
		t.Errorf("expected 3 calls recorded, got %d", p.Calls())
	}
}

func TestProvider_Error(t *testing.T) {
	p := New("test-model", Turn{Err: context.DeadlineExceeded})

	ch, _ := p.Stream(context.Background(), agent.CompletionRequest{})
	_, err := agent.CollectStream(context.Background(), ch)
	if err != context.DeadlineExceeded {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestProvider_Models(t *testing.T) {
	p := New("test-model")
	models := p.Models()
	if len(models) != 1 || models[0].ID != "test-model" {
		t.Errorf("unexpected models: %v", models)
	}
	if p.Name() != "mock" {
		t.Errorf("expected name mock, got %s", p.Name())
	}
}
