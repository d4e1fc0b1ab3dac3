package toolexec

import (
	"context"
	"strings"

	"github.com/sriinnu/chitragupta/internal/agent"
)

// PatternPolicy is a pattern-based PolicyEngine: an allowlist, a denylist,
// and a require-approval list of tool name patterns, matched in the order
// denylist, require-approval, allowlist (deny wins over both). Patterns support an exact name, a
// "prefix.*" wildcard, or the literal "mcp:*" wildcard.
type PatternPolicy struct {
	Allowlist       []string
	Denylist        []string
	RequireApproval []string
	// DefaultDecision is returned when no list matches. Defaults to allow.
	DefaultDecision agent.PolicyDecision
}

// DefaultPatternPolicy allows everything except nothing; callers add
// denylist/require-approval entries for sensitive tools.
func DefaultPatternPolicy() *PatternPolicy {
	return &PatternPolicy{DefaultDecision: agent.PolicyAllow}
}

// Check implements agent.PolicyEngine.
func (p *PatternPolicy) Check(ctx context.Context, toolName string, args []byte, tc agent.ToolContext) (agent.PolicyDecision, string) {
	if matchesAny(p.Denylist, toolName) {
		return agent.PolicyDeny, "tool " + toolName + " is denylisted"
	}
	if matchesAny(p.RequireApproval, toolName) {
		return agent.PolicyAsk, "tool " + toolName + " requires approval"
	}
	if matchesAny(p.Allowlist, toolName) {
		return agent.PolicyAllow, ""
	}
	decision := p.DefaultDecision
	if decision == "" {
		decision = agent.PolicyAllow
	}
	return decision, ""
}

func matchesAny(patterns []string, toolName string) bool {
	for _, pattern := range patterns {
		if matchPattern(pattern, toolName) {
			return true
		}
	}
	return false
}

func matchPattern(pattern, toolName string) bool {
	if pattern == "" || toolName == "" {
		return false
	}
	if pattern == "mcp:*" {
		return strings.HasPrefix(toolName, "mcp:")
	}
	if strings.HasSuffix(pattern, ".*") {
		prefix := strings.TrimSuffix(pattern, "*")
		return strings.HasPrefix(toolName, prefix)
	}
	return pattern == toolName
}
