package journal

import (
	"os"
	"reflect"
	"testing"

	"github.com/starford/vefr/internal/graph"
)

func tempDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "vefr-journal-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestUpsertAndEdges(t *testing.T) {
	db := tempDB(t)
	n := graph.Node{
		ID: "a",
		OutgoingEdges: []graph.Edge{
			{TargetID: "b", Label: "uses"},
			{TargetID: "c"},
		},
		UI: graph.UIMetadata{Title: "A"},
	}
	if err := db.UpsertNode(n); err != nil {
		t.Fatalf("UpsertNode: %v", err)
	}

	edges, err := db.Edges("a")
	if err != nil {
		t.Fatalf("Edges: %v", err)
	}
	if !reflect.DeepEqual(edges, n.OutgoingEdges) {
		t.Errorf("edges = %+v, want %+v", edges, n.OutgoingEdges)
	}
}

func TestUpsertReplacesLinks(t *testing.T) {
	db := tempDB(t)
	n := graph.Node{ID: "a", OutgoingEdges: []graph.Edge{{TargetID: "b"}}}
	if err := db.UpsertNode(n); err != nil {
		t.Fatal(err)
	}

	n.OutgoingEdges = []graph.Edge{{TargetID: "c"}}
	if err := db.UpsertNode(n); err != nil {
		t.Fatal(err)
	}

	edges, _ := db.Edges("a")
	if len(edges) != 1 || edges[0].TargetID != "c" {
		t.Errorf("edges = %+v", edges)
	}
}

func TestBacklinks(t *testing.T) {
	db := tempDB(t)
	_ = db.UpsertNode(graph.Node{ID: "b", OutgoingEdges: []graph.Edge{{TargetID: "x"}}})
	_ = db.UpsertNode(graph.Node{ID: "a", OutgoingEdges: []graph.Edge{{TargetID: "x"}}})
	_ = db.UpsertNode(graph.Node{ID: "c"})

	bl, err := db.Backlinks("x")
	if err != nil {
		t.Fatalf("Backlinks: %v", err)
	}
	if !reflect.DeepEqual(bl, []string{"a", "b"}) {
		t.Errorf("backlinks = %v", bl)
	}
}

func TestDeleteNode(t *testing.T) {
	db := tempDB(t)
	_ = db.UpsertNode(graph.Node{ID: "a", OutgoingEdges: []graph.Edge{{TargetID: "b"}}})

	if err := db.DeleteNode("a"); err != nil {
		t.Fatalf("DeleteNode: %v", err)
	}
	ids, _ := db.AllIDs()
	if _, ok := ids["a"]; ok {
		t.Error("node still present")
	}
	edges, _ := db.Edges("a")
	if len(edges) != 0 {
		t.Errorf("edges = %+v", edges)
	}
}

func TestAllIDs(t *testing.T) {
	db := tempDB(t)
	_ = db.UpsertNode(graph.Node{ID: "a"})
	_ = db.UpsertNode(graph.Node{ID: "b"})

	ids, err := db.AllIDs()
	if err != nil {
		t.Fatalf("AllIDs: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("ids = %v", ids)
	}
}

func TestMarkDelta(t *testing.T) {
	db := tempDB(t)

	seen, err := db.MarkDelta("abc123")
	if err != nil {
		t.Fatalf("MarkDelta: %v", err)
	}
	if seen {
		t.Error("fresh hash reported as seen")
	}

	seen, err = db.MarkDelta("abc123")
	if err != nil {
		t.Fatalf("MarkDelta: %v", err)
	}
	if !seen {
		t.Error("repeated hash not reported as seen")
	}

	seen, _ = db.MarkDelta("different")
	if seen {
		t.Error("different hash reported as seen")
	}
}
