package agent

import (
	"fmt"
	"strings"
	"sync"
)

// Tree owns the full set of agents rooted at one top-level agent and
// enforces MAX_SUB_AGENTS / MAX_AGENT_DEPTH on spawn.
type Tree struct {
	mu    sync.RWMutex
	root  *Agent
	byID  map[string]*Agent
	idSeq int
}

// NewTree wraps root as the tree's root node.
func NewTree(root *Agent) *Tree {
	root.tree = nil // set below once t exists
	t := &Tree{
		root: root,
		byID: map[string]*Agent{root.id: root},
	}
	root.tree = t
	return t
}

// Spawn creates a child of parent. Fails with ErrMaxSubAgents when parent
// already has config.MaxSubAgents children, or ErrMaxDepth when the child
// would exceed config.MaxDepth.
func (t *Tree) Spawn(parent *Agent, cfg SpawnConfig) (*Agent, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	parent.mu.RLock()
	childCount := len(parent.children)
	parentDepth := parent.depth
	maxSub := parent.config.MaxSubAgents
	maxDepth := parent.config.MaxDepth
	provider := parent.provider
	executor := parent.executor
	config := parent.config
	parent.mu.RUnlock()

	if childCount >= maxSub {
		return nil, ErrMaxSubAgents
	}
	if parentDepth+1 > maxDepth {
		return nil, ErrMaxDepth
	}

	if cfg.Provider != nil {
		provider = cfg.Provider
	}
	if cfg.Config != nil {
		config = sanitizeConfig(*cfg.Config)
	}

	t.idSeq++
	child := New(fmt.Sprintf("%s.%d", parent.id, t.idSeq), cfg.Purpose, provider, executor, config)
	child.depth = parentDepth + 1
	child.parent = parent
	child.tree = t
	if cfg.System != "" {
		child.config.System = cfg.System
	}

	parent.mu.Lock()
	parent.children = append(parent.children, child)
	parent.mu.Unlock()

	t.byID[child.id] = child

	parent.emit(EventSubagentSpawn, child.id)
	return child, nil
}

// FindAgent looks up an agent anywhere in the tree by id.
func (t *Tree) FindAgent(id string) (*Agent, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	a, ok := t.byID[id]
	return a, ok
}

// GetParent returns a's parent, or nil for the root.
func (t *Tree) GetParent(a *Agent) *Agent {
	return a.parent
}

// GetRoot returns the tree's root agent.
func (t *Tree) GetRoot() *Agent {
	return t.root
}

// GetAncestors returns a's ancestors, nearest first, excluding a itself.
func (t *Tree) GetAncestors(a *Agent) []*Agent {
	var out []*Agent
	for cur := a.parent; cur != nil; cur = cur.parent {
		out = append(out, cur)
	}
	return out
}

// GetLineage returns a's ancestors root-first followed by a itself.
func (t *Tree) GetLineage(a *Agent) []*Agent {
	ancestors := t.GetAncestors(a)
	lineage := make([]*Agent, 0, len(ancestors)+1)
	for i := len(ancestors) - 1; i >= 0; i-- {
		lineage = append(lineage, ancestors[i])
	}
	return append(lineage, a)
}

// GetChildren returns a's direct children.
func (t *Tree) GetChildren(a *Agent) []*Agent {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]*Agent, len(a.children))
	copy(out, a.children)
	return out
}

// GetDescendants returns every descendant of a, breadth-first.
func (t *Tree) GetDescendants(a *Agent) []*Agent {
	var out []*Agent
	queue := t.GetChildren(a)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		out = append(out, cur)
		queue = append(queue, t.GetChildren(cur)...)
	}
	return out
}

// GetSiblings returns the other children of a's parent, excluding a.
func (t *Tree) GetSiblings(a *Agent) []*Agent {
	if a.parent == nil {
		return nil
	}
	var out []*Agent
	for _, c := range t.GetChildren(a.parent) {
		if c.id != a.id {
			out = append(out, c)
		}
	}
	return out
}

// IsDescendantOf reports whether a is somewhere below ancestor in the tree.
func (t *Tree) IsDescendantOf(a, ancestor *Agent) bool {
	for cur := a.parent; cur != nil; cur = cur.parent {
		if cur.id == ancestor.id {
			return true
		}
	}
	return false
}

// IsAncestorOf reports whether a is somewhere above descendant in the tree.
func (t *Tree) IsAncestorOf(a, descendant *Agent) bool {
	return t.IsDescendantOf(descendant, a)
}

// Snapshot is a recursive, serializable view of part of the tree.
type Snapshot struct {
	ID       string      `json:"id"`
	Purpose  string      `json:"purpose"`
	Status   Status      `json:"status"`
	Children []*Snapshot `json:"children,omitempty"`
}

// TreeSnapshot is the full-tree summary returned by GetTree.
type TreeSnapshot struct {
	TotalAgents int       `json:"total_agents"`
	MaxDepth    int       `json:"max_depth"`
	Root        *Snapshot `json:"root"`
}

// GetTree returns a full snapshot of the tree rooted at t.root.
func (t *Tree) GetTree() TreeSnapshot {
	t.mu.RLock()
	total := len(t.byID)
	t.mu.RUnlock()

	maxDepth := 0
	for _, a := range t.GetDescendants(t.root) {
		if a.depth > maxDepth {
			maxDepth = a.depth
		}
	}

	return TreeSnapshot{
		TotalAgents: total,
		MaxDepth:    maxDepth,
		Root:        t.snapshot(t.root),
	}
}

func (t *Tree) snapshot(a *Agent) *Snapshot {
	children := t.GetChildren(a)
	s := &Snapshot{
		ID:      a.id,
		Purpose: a.purpose,
		Status:  a.Status(),
	}
	for _, c := range children {
		s.Children = append(s.Children, t.snapshot(c))
	}
	return s
}

// RenderTree renders the tree as a deterministic ASCII diagram using
// "├── " / "└── " connectors.
func (t *Tree) RenderTree() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s [%s]\n", t.root.purpose, t.root.Status()))
	renderChildren(&b, t, t.root, "")
	return b.String()
}

func renderChildren(b *strings.Builder, t *Tree, a *Agent, prefix string) {
	children := t.GetChildren(a)
	for i, c := range children {
		last := i == len(children)-1
		connector := "├── "
		nextPrefix := prefix + "│   "
		if last {
			connector = "└── "
			nextPrefix = prefix + "    "
		}
		fmt.Fprintf(b, "%s%s%s [%s]\n", prefix, connector, c.purpose, c.Status())
		renderChildren(b, t, c, nextPrefix)
	}
}
