package graph

import "testing"

func TestRemoveContextNodesBridges(t *testing.T) {
	// a -> ctx -> b becomes a -> b.
	g := build(node("a", "ctx"), ctxNode("ctx", "b"), node("b"))
	out := RemoveContextNodes(g)

	if _, ok := out.Node("ctx"); ok {
		t.Fatal("context node survived")
	}
	a, _ := out.Node("a")
	if len(a.OutgoingEdges) != 1 || a.OutgoingEdges[0].TargetID != "b" {
		t.Errorf("a edges = %+v", a.OutgoingEdges)
	}
}

func TestRemoveContextNodesChain(t *testing.T) {
	// A chain of context nodes bridges all the way through.
	g := build(node("a", "c1"), ctxNode("c1", "c2"), ctxNode("c2", "b"), node("b"))
	out := RemoveContextNodes(g)

	a, _ := out.Node("a")
	if len(a.OutgoingEdges) != 1 || a.OutgoingEdges[0].TargetID != "b" {
		t.Errorf("a edges = %+v", a.OutgoingEdges)
	}
}

func TestRemoveContextNodesFanOut(t *testing.T) {
	g := build(node("a", "ctx"), ctxNode("ctx", "b", "c"), node("b"), node("c"))
	out := RemoveContextNodes(g)

	a, _ := out.Node("a")
	if len(a.OutgoingEdges) != 2 {
		t.Fatalf("a edges = %+v", a.OutgoingEdges)
	}
	if !a.HasEdgeTo("b") || !a.HasEdgeTo("c") {
		t.Errorf("a edges = %+v", a.OutgoingEdges)
	}
}

func TestRemoveContextNodesKeepsLabel(t *testing.T) {
	g := New()
	g = g.WithNode(Node{ID: "a", OutgoingEdges: []Edge{{TargetID: "ctx", Label: "uses"}}})
	g = g.WithNode(ctxNode("ctx", "b"))
	g = g.WithNode(node("b"))

	a, _ := RemoveContextNodes(g).Node("a")
	if len(a.OutgoingEdges) != 1 || a.OutgoingEdges[0].Label != "uses" {
		t.Errorf("a edges = %+v", a.OutgoingEdges)
	}
}

func TestRemoveContextNodesDeadEnd(t *testing.T) {
	// Context node with no non-context descendants: the edge disappears.
	g := build(node("a", "ctx"), ctxNode("ctx", "unresolved-target"))
	out := RemoveContextNodes(g)

	a, _ := out.Node("a")
	if len(a.OutgoingEdges) != 0 {
		t.Errorf("a edges = %+v", a.OutgoingEdges)
	}
}

func TestRemoveContextNodesContextCycle(t *testing.T) {
	g := build(node("a", "c1"), ctxNode("c1", "c2"), ctxNode("c2", "c1", "b"), node("b"))
	out := RemoveContextNodes(g)

	a, _ := out.Node("a")
	if len(a.OutgoingEdges) != 1 || a.OutgoingEdges[0].TargetID != "b" {
		t.Errorf("a edges = %+v", a.OutgoingEdges)
	}
}

func TestRemoveContextNodesUnresolvedEdgeKept(t *testing.T) {
	// Direct edges to unresolved targets pass through untouched.
	g := build(node("a", "nowhere"))
	a, _ := RemoveContextNodes(g).Node("a")
	if len(a.OutgoingEdges) != 1 || a.OutgoingEdges[0].TargetID != "nowhere" {
		t.Errorf("a edges = %+v", a.OutgoingEdges)
	}
}

func TestRemoveContextNodesIdempotent(t *testing.T) {
	g := build(node("a", "ctx", "b"), ctxNode("ctx", "b", "c"), node("b", "ctx"), node("c"))
	once := RemoveContextNodes(g)
	twice := RemoveContextNodes(once)

	if len(once.Nodes) != len(twice.Nodes) {
		t.Fatalf("node count changed: %d vs %d", len(once.Nodes), len(twice.Nodes))
	}
	for id, n := range once.Nodes {
		m, ok := twice.Node(id)
		if !ok {
			t.Fatalf("node %q lost", id)
		}
		if len(n.OutgoingEdges) != len(m.OutgoingEdges) {
			t.Errorf("edges of %q changed: %+v vs %+v", id, n.OutgoingEdges, m.OutgoingEdges)
		}
	}
}

func TestRemoveContextNodesDoesNotMutate(t *testing.T) {
	g := build(node("a", "ctx"), ctxNode("ctx", "b"), node("b"))
	_ = RemoveContextNodes(g)

	a, _ := g.Node("a")
	if a.OutgoingEdges[0].TargetID != "ctx" {
		t.Errorf("source graph mutated: %+v", a.OutgoingEdges)
	}
	if _, ok := g.Node("ctx"); !ok {
		t.Error("source graph lost context node")
	}
}
