package parser

import (
	"path"
	"sort"

	"github.com/starford/vefr/internal/delta"
	"github.com/starford/vefr/internal/graph"
	"github.com/starford/vefr/internal/match"
)

// ComputeRenameDelta produces the mutation batch for renaming oldID to
// newID: one upsert for the renamed node itself (old node attached as the
// previous snapshot), plus one upsert for every other node whose outgoing
// edges referenced oldID. Referrer edges are retargeted and any body
// placeholder matching the old node is rewritten to the new node's
// basename. Context nodes are not treated as real referrers and are left
// untouched. Returns nil when oldID does not exist.
func ComputeRenameDelta(oldID, newID string, g graph.Graph) delta.Delta {
	old, ok := g.Node(oldID)
	if !ok {
		return nil
	}

	renamed := old.Clone()
	renamed.ID = newID
	d := delta.Delta{delta.Upsert(renamed, &old)}

	var referrers []string
	for id, n := range g.Nodes {
		if id == oldID || n.UI.IsContextNode {
			continue
		}
		if n.HasEdgeTo(oldID) {
			referrers = append(referrers, id)
		}
	}
	sort.Strings(referrers)

	newBase := path.Base(newID)
	for _, id := range referrers {
		src := g.Nodes[id]
		updated := src.Clone()
		for i, e := range updated.OutgoingEdges {
			if e.TargetID == oldID {
				updated.OutgoingEdges[i].TargetID = newID
			}
		}
		updated.Content = rewritePlaceholdersFor(updated.Content, oldID, newBase)
		d = append(d, delta.Upsert(updated, &src))
	}
	return d
}

// rewritePlaceholdersFor replaces every [text]* placeholder whose text
// suffix-matches oldID with a placeholder for the renamed node's basename.
func rewritePlaceholdersFor(content, oldID, newBase string) string {
	return placeholderRe.ReplaceAllStringFunc(content, func(span string) string {
		text := placeholderRe.FindStringSubmatch(span)[1]
		if match.LinkMatchScore(linkTarget(text), oldID) > 0 {
			return "[" + newBase + "]*"
		}
		return span
	})
}
