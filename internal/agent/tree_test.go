package agent

import (
	"strings"
	"testing"
)

func newTestTree() (*Tree, *Agent) {
	p := endTurnProvider("ok")
	cfg := DefaultConfig()
	cfg.MaxSubAgents = 2
	cfg.MaxDepth = 2
	root := New("root", "root", p, nil, cfg)
	return NewTree(root), root
}

func TestSpawnEnforcesMaxSubAgents(t *testing.T) {
	tree, root := newTestTree()
	if _, err := tree.Spawn(root, SpawnConfig{Purpose: "a"}); err != nil {
		t.Fatalf("spawn 1 failed: %v", err)
	}
	if _, err := tree.Spawn(root, SpawnConfig{Purpose: "b"}); err != nil {
		t.Fatalf("spawn 2 failed: %v", err)
	}
	if _, err := tree.Spawn(root, SpawnConfig{Purpose: "c"}); err != ErrMaxSubAgents {
		t.Fatalf("expected ErrMaxSubAgents, got %v", err)
	}
}

func TestSpawnEnforcesMaxDepth(t *testing.T) {
	tree, root := newTestTree()
	child, err := tree.Spawn(root, SpawnConfig{Purpose: "child"})
	if err != nil {
		t.Fatalf("spawn child failed: %v", err)
	}
	grandchild, err := tree.Spawn(child, SpawnConfig{Purpose: "grandchild"})
	if err != nil {
		t.Fatalf("spawn grandchild failed: %v", err)
	}
	if _, err := tree.Spawn(grandchild, SpawnConfig{Purpose: "too deep"}); err != ErrMaxDepth {
		t.Fatalf("expected ErrMaxDepth, got %v", err)
	}
}

func TestTraversalHelpers(t *testing.T) {
	tree, root := newTestTree()
	child, _ := tree.Spawn(root, SpawnConfig{Purpose: "child"})
	sibling, _ := tree.Spawn(root, SpawnConfig{Purpose: "sibling"})
	grandchild, _ := tree.Spawn(child, SpawnConfig{Purpose: "grandchild"})

	if tree.GetParent(child).ID() != root.ID() {
		t.Fatalf("expected root as parent of child")
	}
	if tree.GetRoot() != root {
		t.Fatalf("expected root to be returned")
	}
	ancestors := tree.GetAncestors(grandchild)
	if len(ancestors) != 2 || ancestors[0].ID() != child.ID() || ancestors[1].ID() != root.ID() {
		t.Fatalf("unexpected ancestors: %v", ancestors)
	}
	lineage := tree.GetLineage(grandchild)
	if len(lineage) != 3 || lineage[0].ID() != root.ID() || lineage[2].ID() != grandchild.ID() {
		t.Fatalf("unexpected lineage: %v", lineage)
	}
	children := tree.GetChildren(root)
	if len(children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(children))
	}
	descendants := tree.GetDescendants(root)
	if len(descendants) != 3 {
		t.Fatalf("expected 3 descendants, got %d", len(descendants))
	}
	siblings := tree.GetSiblings(child)
	if len(siblings) != 1 || siblings[0].ID() != sibling.ID() {
		t.Fatalf("unexpected siblings: %v", siblings)
	}
	if !tree.IsDescendantOf(grandchild, root) {
		t.Fatalf("expected grandchild to be descendant of root")
	}
	if !tree.IsAncestorOf(root, grandchild) {
		t.Fatalf("expected root to be ancestor of grandchild")
	}
	if found, ok := tree.FindAgent(grandchild.ID()); !ok || found.ID() != grandchild.ID() {
		t.Fatalf("expected to find grandchild by id")
	}
}

func TestGetTreeSnapshot(t *testing.T) {
	tree, root := newTestTree()
	tree.Spawn(root, SpawnConfig{Purpose: "child"})

	snap := tree.GetTree()
	if snap.TotalAgents != 2 {
		t.Fatalf("expected 2 total agents, got %d", snap.TotalAgents)
	}
	if snap.MaxDepth != 1 {
		t.Fatalf("expected max depth 1, got %d", snap.MaxDepth)
	}
	if snap.Root.ID != root.ID() || len(snap.Root.Children) != 1 {
		t.Fatalf("unexpected root snapshot: %+v", snap.Root)
	}
}

func TestRenderTreeDeterministic(t *testing.T) {
	tree, root := newTestTree()
	child, _ := tree.Spawn(root, SpawnConfig{Purpose: "worker-a"})
	tree.Spawn(root, SpawnConfig{Purpose: "worker-b"})
	tree.Spawn(child, SpawnConfig{Purpose: "deep"})

	out := tree.RenderTree()
	if !strings.Contains(out, "├── worker-a") || !strings.Contains(out, "└── worker-b") {
		t.Fatalf("expected ASCII connectors, got:\n%s", out)
	}
	if !strings.Contains(out, "└── deep") {
		t.Fatalf("expected nested deep node, got:\n%s", out)
	}
}
