package api

import "github.com/starford/vefr/internal/graph"

// CreateNodeRequest is the request body for creating a node.
type CreateNodeRequest struct {
	ID      string `json:"id" example:"topics/go.md"`
	Content string `json:"content" example:"# Go\nSee [[concurrency]]."`
}

// UpdateNodeRequest is the request body for updating a node.
type UpdateNodeRequest struct {
	Content string `json:"content" example:"# Go\nUpdated."`
}

// RenameRequest is the request body for renaming a node.
type RenameRequest struct {
	OldID string `json:"oldId" example:"topics/go"`
	NewID string `json:"newId" example:"langs/go"`
}

// GraphNode is a node in the graph response.
type GraphNode struct {
	ID            string          `json:"id"`
	Title         string          `json:"title,omitempty"`
	Color         string          `json:"color,omitempty"`
	Position      *graph.Position `json:"position,omitempty"`
	IsContextNode bool            `json:"isContextNode,omitempty"`
}

// GraphLink is an edge in the graph response.
type GraphLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
}

// GraphResponse wraps a graph payload.
type GraphResponse struct {
	Nodes []GraphNode `json:"nodes"`
	Links []GraphLink `json:"links"`
}

// NodeListResponse wraps node listings.
type NodeListResponse struct {
	Nodes []NodeListItem `json:"nodes"`
	Total int            `json:"total"`
}
