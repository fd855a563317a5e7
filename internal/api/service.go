package api

import (
	"context"
	"fmt"
	"sort"

	"github.com/starford/vefr/internal/apperr"
	"github.com/starford/vefr/internal/checksum"
	"github.com/starford/vefr/internal/engine"
	"github.com/starford/vefr/internal/graph"
	"github.com/starford/vefr/internal/journal"
	"github.com/starford/vefr/internal/vault"
)

// Service coordinates engine and journal operations for the API layer.
type Service struct {
	eng   *engine.Engine
	store journal.Store
}

// NewService creates a new API service.
func NewService(eng *engine.Engine, store journal.Store) *Service {
	return &Service{eng: eng, store: store}
}

// NodeDetail is the response payload for a single node.
type NodeDetail struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Content   string           `json:"content"`
	Checksum  string           `json:"checksum,omitempty"`
	Edges     []graph.Edge     `json:"edges"`
	Backlinks []string         `json:"backlinks"`
	UI        graph.UIMetadata `json:"ui"`
	ReadOnly  bool             `json:"readOnly"`
}

// NodeListItem is a lightweight item in a list response.
type NodeListItem struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	IsContextNode bool   `json:"isContextNode,omitempty"`
}

// GetNode returns a node from the current graph snapshot, its raw file
// content, and journal-backed backlinks. Nodes loaded from link roots are
// reported readOnly with the checksum omitted, since If-Match concurrency
// only applies to the write root.
func (s *Service) GetNode(_ context.Context, id string) (*NodeDetail, error) {
	g := s.eng.Snapshot()
	n, ok := g.Node(id)
	if !ok {
		return nil, fmt.Errorf("api: get node %q: %w", id, apperr.ErrNotFound)
	}

	roots := s.eng.Roots()
	raw, err := roots.Write.Read(vault.FilePath(id))
	readOnly := false
	if err != nil {
		readOnly = true
		for _, lr := range roots.ReadOnLink {
			if data, rerr := lr.Read(vault.FilePath(id)); rerr == nil {
				raw = data
				break
			}
		}
	}

	bl, err := s.store.Backlinks(id)
	if err != nil || bl == nil {
		bl = nil
		for _, src := range g.IncomingNodes(id) {
			bl = append(bl, src.ID)
		}
	}
	if bl == nil {
		bl = []string{}
	}

	detail := &NodeDetail{
		ID:        id,
		Title:     n.UI.Title,
		Content:   string(raw),
		Edges:     append([]graph.Edge(nil), n.OutgoingEdges...),
		Backlinks: bl,
		UI:        n.UI,
		ReadOnly:  readOnly,
	}
	if !readOnly {
		detail.Checksum = checksum.Sum(raw)
	}
	if detail.Edges == nil {
		detail.Edges = []graph.Edge{}
	}
	return detail, nil
}

// ListNodes returns all visible nodes sorted by id.
func (s *Service) ListNodes(_ context.Context) []NodeListItem {
	g := s.eng.Snapshot()
	items := make([]NodeListItem, 0, len(g.Nodes))
	for _, id := range g.IDs() {
		n := g.Nodes[id]
		items = append(items, NodeListItem{
			ID:            id,
			Title:         n.UI.Title,
			IsContextNode: n.UI.IsContextNode,
		})
	}
	return items
}

// CreateNode writes a new node file to the write root and ingests it.
func (s *Service) CreateNode(ctx context.Context, id string, content []byte) (*NodeDetail, error) {
	if err := s.eng.CreateNode(ctx, id, content); err != nil {
		return nil, err
	}
	return s.GetNode(ctx, id)
}

// UpdateNode rewrites a node with optimistic concurrency (checksum match).
func (s *Service) UpdateNode(ctx context.Context, id string, content []byte, ifMatch string) (*NodeDetail, error) {
	if err := s.eng.UpdateNode(ctx, id, content, ifMatch); err != nil {
		return nil, err
	}
	return s.GetNode(ctx, id)
}

// DeleteNode removes a node from the write root and the graph.
func (s *Service) DeleteNode(ctx context.Context, id string) error {
	return s.eng.DeleteNode(ctx, id)
}

// Rename moves a node to a new id and rewrites all referring links.
func (s *Service) Rename(ctx context.Context, oldID, newID string) error {
	return s.eng.Rename(ctx, oldID, newID)
}

// Graph returns the full visible graph as node and link lists.
func (s *Service) Graph(_ context.Context) ([]GraphNode, []GraphLink) {
	return graphPayload(s.eng.Snapshot())
}

// Neighborhood returns the weighted bounded subgraph around id.
func (s *Service) Neighborhood(_ context.Context, id string, maxDistance float64) ([]GraphNode, []GraphLink, error) {
	g := s.eng.Snapshot()
	if _, ok := g.Node(id); !ok {
		return nil, nil, fmt.Errorf("api: neighborhood of %q: %w", id, apperr.ErrNotFound)
	}
	nodes, links := graphPayload(s.eng.Neighborhood(id, maxDistance))
	return nodes, links, nil
}

func graphPayload(g graph.Graph) ([]GraphNode, []GraphLink) {
	nodes := make([]GraphNode, 0, len(g.Nodes))
	links := make([]GraphLink, 0, len(g.Nodes))
	for _, id := range g.IDs() {
		n := g.Nodes[id]
		nodes = append(nodes, GraphNode{
			ID:            id,
			Title:         n.UI.Title,
			Color:         n.UI.Color,
			Position:      n.UI.Position,
			IsContextNode: n.UI.IsContextNode,
		})
		for _, e := range n.OutgoingEdges {
			if _, ok := g.Nodes[e.TargetID]; !ok {
				continue
			}
			links = append(links, GraphLink{Source: id, Target: e.TargetID, Label: e.Label})
		}
	}
	sort.Slice(links, func(i, j int) bool {
		if links[i].Source != links[j].Source {
			return links[i].Source < links[j].Source
		}
		return links[i].Target < links[j].Target
	})
	return nodes, links
}
