// Package graph defines the domain types for Vefr: nodes, edges, and the
// immutable in-memory graph, plus the context-node eliminator and the
// weighted subgraph extractor.
package graph

// Position is a 2D canvas coordinate carried in node frontmatter.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// UIMetadata holds presentation fields parsed from frontmatter. Position is
// nil when absent or malformed. AdditionalYAML preserves frontmatter keys
// that are not otherwise modeled (non-string values JSON-encoded) so that
// serializing a node never loses user data.
type UIMetadata struct {
	Title          string            `json:"title,omitempty"`
	Color          string            `json:"color,omitempty"`
	Position       *Position         `json:"position,omitempty"`
	IsContextNode  bool              `json:"is_context_node,omitempty"`
	AdditionalYAML map[string]string `json:"additional_yaml,omitempty"`
}

// Edge is a directed link to another node. TargetID is a resolved node id
// when the link matched a known node, otherwise the raw link text is kept
// verbatim as a forward-reference placeholder. Label is display text
// derived from the line containing the link.
type Edge struct {
	TargetID string `json:"target"`
	Label    string `json:"label,omitempty"`
}

// Node is a markdown file in the graph. Content is the body with wikilinks
// rewritten to the in-memory placeholder form [text]*, so downstream
// consumers never see bracket syntax.
type Node struct {
	ID            string     `json:"id"`
	Content       string     `json:"content"`
	OutgoingEdges []Edge     `json:"edges"`
	UI            UIMetadata `json:"ui"`
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	out := n
	if n.OutgoingEdges != nil {
		out.OutgoingEdges = make([]Edge, len(n.OutgoingEdges))
		copy(out.OutgoingEdges, n.OutgoingEdges)
	}
	if n.UI.Position != nil {
		p := *n.UI.Position
		out.UI.Position = &p
	}
	if n.UI.AdditionalYAML != nil {
		m := make(map[string]string, len(n.UI.AdditionalYAML))
		for k, v := range n.UI.AdditionalYAML {
			m[k] = v
		}
		out.UI.AdditionalYAML = m
	}
	return out
}

// HasEdgeTo reports whether the node has an outgoing edge with the given target.
func (n Node) HasEdgeTo(targetID string) bool {
	for _, e := range n.OutgoingEdges {
		if e.TargetID == targetID {
			return true
		}
	}
	return false
}
