// Package resolver computes which files in read-only link roots must be
// materialized: exactly the transitive closure of nodes reachable via
// links from the currently visible graph, and nothing else.
package resolver

import (
	"context"
	"log/slog"

	"github.com/starford/vefr/internal/graph"
	"github.com/starford/vefr/internal/match"
	"github.com/starford/vefr/internal/parser"
)

// Candidate is one not-yet-loaded markdown file in a link root.
type Candidate struct {
	ID   string // node id (root-relative path, no .md)
	Root string // absolute path of the link root it belongs to
	Path string // root-relative file path
}

// Source enumerates and reads candidate files across all configured link
// roots. Enumeration and reads are the only I/O this package performs.
type Source interface {
	Candidates() ([]Candidate, error)
	Read(c Candidate) ([]byte, error)
}

// ResolveReachable runs the fixed-point frontier expansion: seed with every
// unresolved outgoing-edge target of the visible graph, locate matching
// candidate files via suffix matching across all link roots, parse and
// reveal them, and repeat with the revealed nodes' own unresolved targets
// until the frontier is empty. Already-visible nodes are never re-added, so
// link cycles terminate.
//
// The input graph is never mutated. On success the returned graph is a new
// snapshot with all revealed nodes inserted and previously unresolved edges
// retargeted where a revealed node now matches. If ctx is cancelled
// mid-pass the original graph is returned unchanged; a resolution pass
// commits entirely or not at all.
func ResolveReachable(ctx context.Context, g graph.Graph, src Source, logger *slog.Logger) (graph.Graph, []graph.Node, error) {
	candidates, err := src.Candidates()
	if err != nil {
		return g, nil, err
	}

	work := graph.Graph{Nodes: make(map[string]graph.Node, len(g.Nodes))}
	for id, n := range g.Nodes {
		work.Nodes[id] = n
	}

	frontier := unresolvedTargets(work)
	tried := make(map[string]struct{}, len(frontier))
	loaded := make(map[string]struct{}, len(candidates))
	var revealed []graph.Node

	for len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return g, nil, err
		}

		target := frontier[0]
		frontier = frontier[1:]
		if _, done := tried[target]; done {
			continue
		}
		tried[target] = struct{}{}

		cand, ok := findCandidate(target, candidates, loaded, work)
		if !ok {
			continue
		}

		data, readErr := src.Read(cand)
		if readErr != nil {
			// Treated as not found; resolution continues for the rest of
			// the frontier.
			logger.Warn("resolver: candidate read failed",
				slog.String("id", cand.ID),
				slog.String("error", readErr.Error()))
			loaded[cand.ID] = struct{}{}
			continue
		}

		node := parser.BuildNode(cand.ID, data, work.IDs())
		work.Nodes[node.ID] = node
		loaded[cand.ID] = struct{}{}
		revealed = append(revealed, node)

		for _, e := range node.OutgoingEdges {
			if !resolvesToVisible(e.TargetID, work) {
				frontier = append(frontier, e.TargetID)
			}
		}
	}

	relinkForwardReferences(work)
	return work, revealed, nil
}

// unresolvedTargets collects, in stable node order, every outgoing-edge
// target of the visible graph that does not resolve to a visible node.
func unresolvedTargets(g graph.Graph) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, id := range g.IDs() {
		for _, e := range g.Nodes[id].OutgoingEdges {
			if resolvesToVisible(e.TargetID, g) {
				continue
			}
			if _, dup := seen[e.TargetID]; dup {
				continue
			}
			seen[e.TargetID] = struct{}{}
			out = append(out, e.TargetID)
		}
	}
	return out
}

// resolvesToVisible reports whether a link target already names or
// suffix-matches a visible node.
func resolvesToVisible(target string, g graph.Graph) bool {
	if _, ok := g.Nodes[target]; ok {
		return true
	}
	_, ok := match.Match(target, g.IDs())
	return ok
}

// findCandidate locates the best unloaded candidate file for an unresolved
// target, scanning filenames across all link roots with the same suffix
// rule used for in-graph link resolution.
func findCandidate(target string, candidates []Candidate, loaded map[string]struct{}, g graph.Graph) (Candidate, bool) {
	var ids []string
	byID := make(map[string]Candidate)
	for _, c := range candidates {
		if _, done := loaded[c.ID]; done {
			continue
		}
		if _, visible := g.Nodes[c.ID]; visible {
			continue
		}
		ids = append(ids, c.ID)
		byID[c.ID] = c
	}
	id, ok := match.Match(target, ids)
	if !ok {
		return Candidate{}, false
	}
	return byID[id], true
}

// dedupEdges keeps the first edge per target, preserving order. Retargeting
// can make two previously distinct edges collide on one node id.
func dedupEdges(edges []graph.Edge) []graph.Edge {
	seen := make(map[string]struct{}, len(edges))
	out := edges[:0]
	for _, e := range edges {
		if _, dup := seen[e.TargetID]; dup {
			continue
		}
		seen[e.TargetID] = struct{}{}
		out = append(out, e)
	}
	return out
}

// relinkForwardReferences retargets unresolved placeholder edges that now
// match a visible node, keeping the graph invariant that a resolvable edge
// points at the exact node id.
func relinkForwardReferences(g graph.Graph) {
	ids := g.IDs()
	for _, id := range ids {
		n := g.Nodes[id]
		changed := false
		edges := make([]graph.Edge, len(n.OutgoingEdges))
		copy(edges, n.OutgoingEdges)
		for i, e := range edges {
			if _, ok := g.Nodes[e.TargetID]; ok {
				continue
			}
			if resolved, ok := match.Match(e.TargetID, ids); ok {
				edges[i].TargetID = resolved
				changed = true
			}
		}
		if changed {
			g.Nodes[id] = graph.SetOutgoingEdges(n, dedupEdges(edges))
		}
	}
}
