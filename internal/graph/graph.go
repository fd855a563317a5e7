package graph

import "sort"

// Graph is the authoritative in-memory graph: a map of node id to Node.
// It is a pure value type: every update returns a new Graph and never
// mutates an existing one, so snapshots can be shared across readers
// without locking.
type Graph struct {
	Nodes map[string]Node `json:"nodes"`
}

// New returns an empty graph.
func New() Graph {
	return Graph{Nodes: map[string]Node{}}
}

// Node looks up a node by id.
func (g Graph) Node(id string) (Node, bool) {
	n, ok := g.Nodes[id]
	return n, ok
}

// IDs returns all node ids in sorted order.
func (g Graph) IDs() []string {
	out := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// WithNode returns a copy of the graph with n inserted or replaced.
func (g Graph) WithNode(n Node) Graph {
	nodes := make(map[string]Node, len(g.Nodes)+1)
	for id, cur := range g.Nodes {
		nodes[id] = cur
	}
	nodes[n.ID] = n
	return Graph{Nodes: nodes}
}

// WithoutNode returns a copy of the graph with id removed.
func (g Graph) WithoutNode(id string) Graph {
	nodes := make(map[string]Node, len(g.Nodes))
	for cur, n := range g.Nodes {
		if cur != id {
			nodes[cur] = n
		}
	}
	return Graph{Nodes: nodes}
}

// SetOutgoingEdges returns a copy of n with its edge list replaced.
func SetOutgoingEdges(n Node, edges []Edge) Node {
	out := n.Clone()
	out.OutgoingEdges = edges
	return out
}

// IncomingNodes computes, on demand, every node with an edge targeting id,
// in sorted id order.
func (g Graph) IncomingNodes(id string) []Node {
	var out []Node
	for _, src := range g.IDs() {
		if g.Nodes[src].HasEdgeTo(id) {
			out = append(out, g.Nodes[src])
		}
	}
	return out
}

// IncomingIndex is a secondary index from target id to source ids. It is
// derived from one Graph value and must be rebuilt after any graph update.
type IncomingIndex map[string][]string

// BuildIncomingIndex builds the reverse-edge index for g. Source lists are
// sorted for deterministic traversal order.
func BuildIncomingIndex(g Graph) IncomingIndex {
	idx := make(IncomingIndex)
	for id, n := range g.Nodes {
		for _, e := range n.OutgoingEdges {
			idx[e.TargetID] = append(idx[e.TargetID], id)
		}
	}
	for target := range idx {
		sort.Strings(idx[target])
	}
	return idx
}
