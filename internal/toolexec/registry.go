// Package toolexec implements tool resolution, policy-gated dispatch, and
// panic-safe invocation for the agent tree's tool calls.
package toolexec

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/sriinnu/chitragupta/pkg/models"
)

// Handler is one invocable tool. Execute returns an infra error only for
// faults in the handler itself (panics are recovered upstream); business
// failures belong in the returned ToolResult's IsError field.
type Handler interface {
	Name() string
	Execute(ctx context.Context, args json.RawMessage) (models.ToolResult, error)
}

// Registry is a thread-safe name-keyed table of tool handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds or replaces the handler for its own name.
func (r *Registry) Register(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[h.Name()] = h
}

// Unregister removes a handler by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, name)
}

// Get looks up a handler by name.
func (r *Registry) Get(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// Names returns every registered tool name.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	return names
}

// HandlerFunc adapts a plain function into a Handler.
type HandlerFunc struct {
	NameValue string
	Fn        func(ctx context.Context, args json.RawMessage) (models.ToolResult, error)
}

// Name returns the handler's registered name.
func (f HandlerFunc) Name() string { return f.NameValue }

// Execute invokes the wrapped function.
func (f HandlerFunc) Execute(ctx context.Context, args json.RawMessage) (models.ToolResult, error) {
	return f.Fn(ctx, args)
}
