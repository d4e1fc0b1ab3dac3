package agent

import "errors"

var (
	// ErrMaxTurns indicates the agent loop exceeded its configured turn limit
	// without reaching end_turn.
	ErrMaxTurns = errors.New("max turns exceeded")

	// ErrNoProvider indicates no LLM provider is configured on the agent.
	ErrNoProvider = errors.New("no provider configured")

	// ErrMaxSubAgents indicates spawn was refused because the parent already
	// holds MAX_SUB_AGENTS children.
	ErrMaxSubAgents = errors.New("max sub-agents reached")

	// ErrMaxDepth indicates spawn was refused because the child would exceed
	// MAX_AGENT_DEPTH.
	ErrMaxDepth = errors.New("max agent depth reached")

	// ErrAgentNotFound indicates a tree lookup by id found nothing.
	ErrAgentNotFound = errors.New("agent not found")

	// ErrAborted indicates the agent was aborted before completing its
	// current operation.
	ErrAborted = errors.New("agent aborted")
)
