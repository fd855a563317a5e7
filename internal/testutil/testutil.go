// Package testutil provides shared test helpers for setting up vaults,
// journals, and graphs.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/vefr/internal/graph"
	"github.com/starford/vefr/internal/journal"
	"github.com/starford/vefr/internal/vault"
)

// TestDB creates a temporary SQLite journal that is automatically cleaned up.
func TestDB(t *testing.T) *journal.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "vefr-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := journal.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestRoots creates a temporary write root plus n temporary link roots.
func TestRoots(t *testing.T, linkRoots int) *vault.Roots {
	t.Helper()
	linkPaths := make([]string, linkRoots)
	for i := range linkPaths {
		linkPaths[i] = t.TempDir()
	}
	roots, err := vault.NewRoots(t.TempDir(), linkPaths)
	if err != nil {
		t.Fatal(err)
	}
	return roots
}

// WriteFile writes a markdown file under the given root directory,
// creating parent directories as needed.
func WriteFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// Node builds a graph node with plain edges for graph-level tests.
func Node(id string, targets ...string) graph.Node {
	edges := make([]graph.Edge, 0, len(targets))
	for _, tgt := range targets {
		edges = append(edges, graph.Edge{TargetID: tgt})
	}
	return graph.Node{ID: id, OutgoingEdges: edges, UI: graph.UIMetadata{Title: id}}
}

// ContextNode builds a context node with plain edges.
func ContextNode(id string, targets ...string) graph.Node {
	n := Node(id, targets...)
	n.UI.IsContextNode = true
	return n
}

// Graph builds an immutable graph from the given nodes.
func Graph(nodes ...graph.Node) graph.Graph {
	g := graph.New()
	for _, n := range nodes {
		g = g.WithNode(n)
	}
	return g
}
