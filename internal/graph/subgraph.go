package graph

// Traversal costs for the weighted neighborhood extraction. Walking an
// outgoing edge away from the start costs more than walking an incoming
// edge toward it, so ancestors stay visible slightly longer than
// descendants at the same hop count.
const (
	outgoingCost = 1.5
	incomingCost = 1.0
)

// SubgraphByDistance extracts the display neighborhood of startID: every
// node whose accumulated traversal distance from the start is strictly less
// than maxDistance, over both edge directions. Context nodes are eliminated
// first and traversal runs entirely on the context-free graph; if startID
// itself is a context node, the result is the union of extractions from
// each of its non-context descendants.
func SubgraphByDistance(g Graph, startID string, maxDistance float64) Graph {
	return UnionSubgraphByDistance(g, []string{startID}, maxDistance)
}

// UnionSubgraphByDistance merges the per-start neighborhoods of several
// start nodes. A node keeps its edges from whichever merged subgraph first
// supplied it; the merged edge set is filtered again so both endpoints are
// present in the union.
func UnionSubgraphByDistance(g Graph, startIDs []string, maxDistance float64) Graph {
	cf := RemoveContextNodes(g)
	idx := BuildIncomingIndex(cf)

	var starts []string
	for _, id := range startIDs {
		if n, ok := g.Nodes[id]; ok && n.UI.IsContextNode {
			starts = append(starts, nonContextDescendants(g, id)...)
			continue
		}
		starts = append(starts, id)
	}

	merged := New()
	for _, start := range starts {
		sub := extractFrom(cf, idx, start, maxDistance)
		for id, n := range sub.Nodes {
			if _, have := merged.Nodes[id]; !have {
				merged.Nodes[id] = n
			}
		}
	}
	return filterEdges(merged)
}

// extractFrom runs the distance-bounded DFS from one start node over the
// context-free graph. An explicit stack is used instead of recursion since
// cycles and long chains are expected inputs. Each node is visited at most
// once: the first push wins, and revisits are never re-costed.
func extractFrom(cf Graph, idx IncomingIndex, startID string, maxDistance float64) Graph {
	out := New()
	start, ok := cf.Nodes[startID]
	if !ok {
		return out
	}

	type frame struct {
		id   string
		dist float64
	}
	visited := map[string]struct{}{startID: {}}
	stack := []frame{{id: startID, dist: 0}}
	out.Nodes[startID] = start

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := cf.Nodes[cur.id]

		push := func(id string, dist float64) {
			if dist >= maxDistance {
				return
			}
			if _, seen := visited[id]; seen {
				return
			}
			n, exists := cf.Nodes[id]
			if !exists {
				return
			}
			visited[id] = struct{}{}
			out.Nodes[id] = n
			stack = append(stack, frame{id: id, dist: dist})
		}

		for _, e := range node.OutgoingEdges {
			push(e.TargetID, cur.dist+outgoingCost)
		}
		for _, parent := range idx[cur.id] {
			push(parent, cur.dist+incomingCost)
		}
	}
	return filterEdges(out)
}

// filterEdges drops every edge whose target is not itself present in the
// subgraph, so extracted views are self-contained.
func filterEdges(sub Graph) Graph {
	for id, n := range sub.Nodes {
		var kept []Edge
		for _, e := range n.OutgoingEdges {
			if _, ok := sub.Nodes[e.TargetID]; ok {
				kept = append(kept, e)
			}
		}
		trimmed := n.Clone()
		trimmed.OutgoingEdges = kept
		sub.Nodes[id] = trimmed
	}
	return sub
}
