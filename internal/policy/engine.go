package policy

import (
	"context"

	"github.com/sriinnu/chitragupta/internal/agent"
)

// Engine adapts a Policy, resolved through a Resolver, into an
// agent.PolicyEngine: deny wins over require-approval, which wins over
// allow. A tool that requires approval signals agent.PolicyAsk, leaving
// the actual yes/no call to whatever toolexec.Executor.Approver is
// configured (e.g. an HTTPApprover backed by a remote approval service).
type Engine struct {
	Resolver *Resolver
	Policy   *Policy
}

// NewEngine builds an Engine with a fresh resolver for policy.
func NewEngine(policy *Policy) *Engine {
	return &Engine{Resolver: NewResolver(), Policy: policy}
}

// Check implements agent.PolicyEngine.
func (e *Engine) Check(ctx context.Context, toolName string, args []byte, tc agent.ToolContext) (agent.PolicyDecision, string) {
	decision := e.Resolver.Decide(e.Policy, toolName)
	if !decision.Allowed {
		return agent.PolicyDeny, decision.Reason
	}
	if e.Resolver.RequiresApproval(e.Policy, toolName) {
		return agent.PolicyAsk, "tool " + decision.Tool + " requires approval"
	}
	return agent.PolicyAllow, decision.Reason
}
