package journal

import "github.com/starford/vefr/internal/graph"

// Store defines the interface for journal operations. Consumers should
// depend on this interface rather than the concrete *DB type to facilitate
// testing with mocks.
type Store interface {
	UpsertNode(n graph.Node) error
	DeleteNode(id string) error
	Edges(id string) ([]graph.Edge, error)
	Backlinks(target string) ([]string, error)
	AllIDs() (map[string]struct{}, error)
	MarkDelta(hash string) (bool, error)
	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)
