package graph

// RemoveContextNodes returns a graph containing every non-context node and
// none of the context nodes, with edges rewritten so that reachability is
// preserved: for every path A → Ctx… → B whose intermediate nodes are all
// context nodes, the result contains a direct edge A → B. Edges that dead-end
// inside context nodes with no non-context descendant are dropped.
//
// The operation is idempotent: applying it to its own output is a no-op.
func RemoveContextNodes(g Graph) Graph {
	out := New()
	for id, n := range g.Nodes {
		if n.UI.IsContextNode {
			continue
		}
		kept := n.Clone()
		kept.OutgoingEdges = bridgeEdges(g, n)
		out.Nodes[id] = kept
	}
	return out
}

// bridgeEdges rewrites one node's edge list against the context-free target
// set. Edges to non-context (or unresolved) targets pass through unchanged;
// edges into a context node are replaced by direct edges to that node's
// nearest non-context descendants, deduplicated by target.
func bridgeEdges(g Graph, n Node) []Edge {
	var out []Edge
	seen := make(map[string]struct{}, len(n.OutgoingEdges))
	add := func(e Edge) {
		if _, dup := seen[e.TargetID]; dup {
			return
		}
		seen[e.TargetID] = struct{}{}
		out = append(out, e)
	}

	for _, e := range n.OutgoingEdges {
		target, ok := g.Nodes[e.TargetID]
		if !ok || !target.UI.IsContextNode {
			add(e)
			continue
		}
		for _, descendant := range nonContextDescendants(g, e.TargetID) {
			add(Edge{TargetID: descendant, Label: e.Label})
		}
	}
	return out
}

// nonContextDescendants walks outgoing edges from a context node, passing
// through further context nodes, and collects the first non-context node on
// each path. Iterative worklist; cycles among context nodes terminate via
// the visited set.
func nonContextDescendants(g Graph, ctxID string) []string {
	var found []string
	foundSet := make(map[string]struct{})
	visited := map[string]struct{}{ctxID: {}}
	stack := []string{ctxID}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, e := range g.Nodes[cur].OutgoingEdges {
			target, ok := g.Nodes[e.TargetID]
			if !ok {
				// Unresolved placeholder behind a context node: nothing to bridge to.
				continue
			}
			if !target.UI.IsContextNode {
				if _, dup := foundSet[e.TargetID]; !dup {
					foundSet[e.TargetID] = struct{}{}
					found = append(found, e.TargetID)
				}
				continue
			}
			if _, seen := visited[e.TargetID]; !seen {
				visited[e.TargetID] = struct{}{}
				stack = append(stack, e.TargetID)
			}
		}
	}
	return found
}
