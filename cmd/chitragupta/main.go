// Package main provides the CLI entry point for the Chitragupta agent
// runtime.
//
// Chitragupta runs a tree of LLM-backed agents behind a unified provider
// contract, routes each request to a model tier, dispatches scheduled
// procedures, and records the reasoning behind consequential decisions.
//
// # Basic usage
//
// Run a single prompt through a demo agent:
//
//	chitragupta run --provider mock "summarize the last incident"
//
// Show build information:
//
//	chitragupta version
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sriinnu/chitragupta/internal/agent"
	"github.com/sriinnu/chitragupta/internal/buddhi"
	"github.com/sriinnu/chitragupta/internal/clock"
	"github.com/sriinnu/chitragupta/internal/cost"
	"github.com/sriinnu/chitragupta/internal/kartavya"
	"github.com/sriinnu/chitragupta/internal/providers"
	"github.com/sriinnu/chitragupta/internal/providers/anthropic"
	"github.com/sriinnu/chitragupta/internal/providers/bedrock"
	"github.com/sriinnu/chitragupta/internal/providers/mock"
	"github.com/sriinnu/chitragupta/internal/providers/openai"
	"github.com/sriinnu/chitragupta/internal/resilience"
	"github.com/sriinnu/chitragupta/internal/toolexec"
	"github.com/sriinnu/chitragupta/pkg/models"
)

// Build information, populated by ldflags during release builds.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := buildRootCmd().Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "chitragupta",
		Short:        "Chitragupta - multi-agent LLM runtime",
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}
	root.AddCommand(buildRunCmd(), buildVersionCmd())
	return root
}

func buildVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "chitragupta %s (commit: %s, built: %s)\n", version, commit, date)
			return nil
		},
	}
}

func buildRunCmd() *cobra.Command {
	var (
		providerName string
		modelID      string
		system       string
	)
	cmd := &cobra.Command{
		Use:   "run [prompt]",
		Short: "Run one prompt through a single agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := buildProvider(cmd.Context(), providerName)
			if err != nil {
				return fmt.Errorf("build provider: %w", err)
			}

			clk := clock.Real{}
			registry := toolexec.NewRegistry()
			registerDemoTools(registry)
			executor := toolexec.NewExecutor(registry)

			cfg := agent.DefaultConfig()
			cfg.System = system
			root := agent.New("root", "answer the operator's request", p, executor, cfg)

			decisions := buddhi.NewEngine(buddhi.NewMemoryStore(), clk)
			tracker := cost.NewTracker()

			start := time.Now()
			var usage models.Usage
			turn, err := root.Prompt(cmd.Context(), args[0], func(ev agent.Event) {
				if se, ok := ev.Payload.(agent.StreamEvent); ok && ev.Type == agent.EventStreamDone {
					usage.InputTokens += se.Usage.InputTokens
					usage.OutputTokens += se.Usage.OutputTokens
					usage.CacheReadTokens += se.Usage.CacheReadTokens
					usage.CacheWriteTokens += se.Usage.CacheWriteTokens
				}
			})
			if err != nil {
				return fmt.Errorf("prompt: %w", err)
			}

			usedModel := models.Model{ID: modelID}
			if usedModel.ID == "" && len(p.Models()) > 0 {
				usedModel = p.Models()[0]
			}
			tracker.Record(usedModel, usage, time.Since(start))

			if _, err := decisions.RecordDecision(buddhi.RecordParams{
				Project:     "cli",
				Category:    buddhi.CategoryStrategy,
				Description: "answered operator prompt: " + args[0],
				Confidence:  1,
				Reasoning: []string{
					"the operator asked for a single prompt to be answered",
					"the " + providerName + " provider was selected by flag",
					"one root agent was built with the demo tools",
					"the agent loop ran until the model ended its turn",
					"the reply was printed to standard output",
				},
			}); err != nil {
				slog.Warn("failed to record decision", "error", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, turn.Text())
			return nil
		},
	}
	cmd.Flags().StringVar(&providerName, "provider", "mock", "LLM provider: mock, anthropic, openai, bedrock")
	cmd.Flags().StringVar(&modelID, "model", "", "Model id override (defaults to the provider's first model)")
	cmd.Flags().StringVar(&system, "system", "You are a careful, concise assistant.", "System prompt")
	return cmd
}

// buildProvider wires a raw backend behind the shared resilience decorator,
// picking credentials up from the environment the way a deployed process
// would rather than accepting secrets as flags.
func buildProvider(ctx context.Context, name string) (agent.Provider, error) {
	policy := resilience.StreamPolicy{
		Limiter: resilience.NewLimiter(resilience.DefaultRateLimiterConfig()),
		Breaker: resilience.NewCircuitBreaker(resilience.CircuitConfig{FailureThreshold: 5, OpenTimeout: 30 * time.Second}),
		Retry:   resilience.DefaultRetryConfig(),
	}

	var raw agent.Provider
	switch name {
	case "mock":
		raw = mock.New("mock-model", mock.Turn{Text: "This is a scripted response from the mock provider."})
	case "anthropic":
		p, err := anthropic.New(anthropic.Config{APIKey: os.Getenv("ANTHROPIC_API_KEY")})
		if err != nil {
			return nil, err
		}
		raw = p
	case "openai":
		raw = openai.New(openai.Config{APIKey: os.Getenv("OPENAI_API_KEY")})
	case "bedrock":
		p, err := bedrock.New(ctx, bedrock.Config{Region: os.Getenv("AWS_REGION")})
		if err != nil {
			return nil, err
		}
		raw = p
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}

	return &providers.Resilient{Provider: raw, Policy: policy}, nil
}

// registerDemoTools wires the handful of tools the demo agent can call so
// "chitragupta run" exercises the tool-execution path, not just streaming
// text.
func registerDemoTools(registry *toolexec.Registry) {
	registry.Register(toolexec.HandlerFunc{
		NameValue: "current_time",
		Fn: func(ctx context.Context, args json.RawMessage) (models.ToolResult, error) {
			return models.ToolResult{Content: time.Now().UTC().Format(time.RFC3339)}, nil
		},
	})
	store := kartavya.NewMemoryStore()
	registry.Register(toolexec.HandlerFunc{
		NameValue: "kartavya_status",
		Fn: func(ctx context.Context, args json.RawMessage) (models.ToolResult, error) {
			list, err := store.List()
			if err != nil {
				return models.ToolResult{Content: err.Error(), IsError: true}, nil
			}
			payload, err := json.Marshal(list)
			if err != nil {
				return models.ToolResult{Content: err.Error(), IsError: true}, nil
			}
			return models.ToolResult{Content: string(payload)}, nil
		},
	})
}
