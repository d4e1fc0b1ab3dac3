package toolexec

import (
	"context"
	"testing"

	"github.com/sriinnu/chitragupta/internal/agent"
)

func TestPatternPolicyDenylistWinsOverAllowlist(t *testing.T) {
	p := &PatternPolicy{Allowlist: []string{"shell.*"}, Denylist: []string{"shell.rm"}}
	decision, _ := p.Check(context.Background(), "shell.rm", nil, agent.ToolContext{})
	if decision != agent.PolicyDeny {
		t.Fatalf("expected deny, got %s", decision)
	}
}

func TestPatternPolicyWildcardPrefix(t *testing.T) {
	p := &PatternPolicy{RequireApproval: []string{"shell.*"}}
	decision, _ := p.Check(context.Background(), "shell.exec", nil, agent.ToolContext{})
	if decision != agent.PolicyAsk {
		t.Fatalf("expected ask for shell.exec, got %s", decision)
	}
}

func TestPatternPolicyMCPWildcard(t *testing.T) {
	p := &PatternPolicy{Denylist: []string{"mcp:*"}}
	decision, _ := p.Check(context.Background(), "mcp:anything", nil, agent.ToolContext{})
	if decision != agent.PolicyDeny {
		t.Fatalf("expected mcp:* wildcard to match, got %s", decision)
	}
}

func TestPatternPolicyDefaultsToAllow(t *testing.T) {
	p := DefaultPatternPolicy()
	decision, _ := p.Check(context.Background(), "anything", nil, agent.ToolContext{})
	if decision != agent.PolicyAllow {
		t.Fatalf("expected default allow, got %s", decision)
	}
}
