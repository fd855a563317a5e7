// Package delta defines graph mutation batches and their canonical hashed
// form used for idempotent change-detection.
package delta

import (
	"regexp"
	"strings"

	"github.com/starford/vefr/internal/graph"
)

// Entry types.
const (
	TypeUpsert = "upsertNode"
	TypeDelete = "deleteNode"
)

// Entry is one node-level mutation. Upserts carry the new node value plus
// an optional pre-mutation snapshot for undo/audit; deletes carry the id
// and optionally the removed node. Previous and Deleted snapshots are
// excluded from hashing.
type Entry struct {
	Type     string      `json:"type"`
	NodeID   string      `json:"nodeId"`
	Node     *graph.Node `json:"node,omitempty"`
	Previous *graph.Node `json:"previousNode,omitempty"`
	Deleted  *graph.Node `json:"deletedNode,omitempty"`
}

// Delta is an ordered batch of mutations. Order is part of the semantic
// key: two deltas with the same entries in a different order hash
// differently.
type Delta []Entry

// Upsert builds an upsert entry for n with an optional previous snapshot.
func Upsert(n graph.Node, previous *graph.Node) Entry {
	return Entry{Type: TypeUpsert, NodeID: n.ID, Node: &n, Previous: previous}
}

// Delete builds a delete entry for id with an optional removed-node snapshot.
func Delete(id string, deleted *graph.Node) Entry {
	return Entry{Type: TypeDelete, NodeID: id, Deleted: deleted}
}

var (
	placeholderSpanRe = regexp.MustCompile(`\[[^\[\]]*\]\*`)
	whitespaceRe      = regexp.MustCompile(`\s+`)
)

// Normalize strips the volatile fields from every entry so that cosmetic
// churn (canvas position, whitespace, placeholder text, snapshots) does not
// change the hash. The result is intentionally lossy and only valid for
// change-detection, never for display.
func Normalize(d Delta) Delta {
	out := make(Delta, 0, len(d))
	for _, e := range d {
		out = append(out, normalizeEntry(e))
	}
	return out
}

func normalizeEntry(e Entry) Entry {
	switch e.Type {
	case TypeDelete:
		return Entry{Type: TypeDelete, NodeID: e.NodeID}
	case TypeUpsert:
		norm := Entry{Type: TypeUpsert, NodeID: e.NodeID}
		if e.Node != nil {
			n := e.Node.Clone()
			n.UI.Position = nil
			n.Content = normalizeContent(n.Content)
			norm.Node = &n
			norm.NodeID = n.ID
		}
		return norm
	default:
		return Entry{Type: e.Type, NodeID: e.NodeID}
	}
}

// normalizeContent removes all [text]* placeholder spans and all
// whitespace. Bracket content and incidental whitespace are non-semantic
// for dedup purposes.
func normalizeContent(content string) string {
	stripped := placeholderSpanRe.ReplaceAllString(content, "")
	return whitespaceRe.ReplaceAllString(stripped, "")
}

// joined helper for diff paths.
func joinPath(parts ...string) string {
	return strings.Join(parts, "")
}
