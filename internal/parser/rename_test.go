package parser

import (
	"testing"

	"github.com/starford/vefr/internal/delta"
	"github.com/starford/vefr/internal/graph"
)

func renameGraph() graph.Graph {
	g := graph.New()
	g = g.WithNode(graph.Node{ID: "old", Content: "target body\n"})
	g = g.WithNode(graph.Node{
		ID:            "ref",
		Content:       "see [old]*\n",
		OutgoingEdges: []graph.Edge{{TargetID: "old"}},
	})
	g = g.WithNode(graph.Node{
		ID:            "ctx",
		Content:       "see [old]*\n",
		OutgoingEdges: []graph.Edge{{TargetID: "old"}},
		UI:            graph.UIMetadata{IsContextNode: true},
	})
	g = g.WithNode(graph.Node{ID: "other", Content: "unrelated\n"})
	return g
}

func TestComputeRenameDelta(t *testing.T) {
	d := ComputeRenameDelta("old", "dir/renamed", renameGraph())
	if len(d) != 2 {
		t.Fatalf("delta length = %d, want 2", len(d))
	}

	first := d[0]
	if first.Type != delta.TypeUpsert || first.NodeID != "dir/renamed" {
		t.Fatalf("first entry = %+v", first)
	}
	if first.Previous == nil || first.Previous.ID != "old" {
		t.Errorf("previous = %+v", first.Previous)
	}

	second := d[1]
	if second.NodeID != "ref" {
		t.Fatalf("second entry = %+v", second)
	}
	if second.Node.OutgoingEdges[0].TargetID != "dir/renamed" {
		t.Errorf("edge not retargeted: %+v", second.Node.OutgoingEdges)
	}
	if second.Node.Content != "see [renamed]*\n" {
		t.Errorf("content = %q", second.Node.Content)
	}
}

func TestComputeRenameDeltaSkipsContextReferrers(t *testing.T) {
	d := ComputeRenameDelta("old", "renamed", renameGraph())
	for _, e := range d {
		if e.NodeID == "ctx" {
			t.Error("context referrer should not be rewritten")
		}
	}
}

func TestComputeRenameDeltaMissingNode(t *testing.T) {
	if d := ComputeRenameDelta("absent", "x", renameGraph()); d != nil {
		t.Errorf("delta = %+v, want nil", d)
	}
}

func TestComputeRenameDeltaDoesNotMutateGraph(t *testing.T) {
	g := renameGraph()
	_ = ComputeRenameDelta("old", "renamed", g)

	ref, _ := g.Node("ref")
	if ref.OutgoingEdges[0].TargetID != "old" {
		t.Errorf("source graph mutated: %+v", ref.OutgoingEdges)
	}
	if ref.Content != "see [old]*\n" {
		t.Errorf("source content mutated: %q", ref.Content)
	}
}
