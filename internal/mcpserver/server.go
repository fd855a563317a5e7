// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes graph tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/vefr/internal/engine"
	"github.com/starford/vefr/internal/journal"
	"github.com/starford/vefr/internal/vault"
)

// Server wraps the MCP server with graph tools.
type Server struct {
	mcp   *server.MCPServer
	eng   *engine.Engine
	store journal.Store
}

// New creates a new MCP server with all graph tools registered.
func New(eng *engine.Engine, store journal.Store) *Server {
	s := &Server{eng: eng, store: store}

	s.mcp = server.NewMCPServer(
		"Vefr",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("read_node",
		mcp.WithDescription("Read the full Markdown content of a graph node."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Node id (root-relative path without .md, e.g. topics/go)")),
	), s.readNode)

	s.mcp.AddTool(mcp.NewTool("list_nodes",
		mcp.WithDescription("List all visible node ids, optionally restricted to a folder prefix."),
		mcp.WithString("folder", mcp.Description("Optional folder prefix to filter by (empty for all)")),
	), s.listNodes)

	s.mcp.AddTool(mcp.NewTool("get_neighborhood",
		mcp.WithDescription("Get the weighted subgraph reachable from a node within a distance bound. "+
			"Outgoing hops cost 1.5, incoming hops cost 1.0; the bound is exclusive."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Start node id")),
		mcp.WithNumber("distance", mcp.Required(), mcp.Description("Exclusive distance bound (e.g. 3.5)")),
	), s.getNeighborhood)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all nodes that link to the specified node."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Id of the node to find backlinks for")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("create_node",
		mcp.WithDescription("Create a new node in the write root. "+
			"Content MUST follow the canonical node format (optional YAML frontmatter, "+
			"Markdown body with [[wikilinks]]). Read the contract first via "+
			"the get_node_contract tool or the vefr://node-format resource."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Id for the new node (no .md extension)")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown content following the node format contract")),
	), s.createNode)

	s.mcp.AddTool(mcp.NewTool("rename_node",
		mcp.WithDescription("Rename a node and rewrite every link that refers to it."),
		mcp.WithString("old_id", mcp.Required(), mcp.Description("Current node id")),
		mcp.WithString("new_id", mcp.Required(), mcp.Description("New node id")),
	), s.renameNode)

	s.mcp.AddTool(mcp.NewTool("get_node_contract",
		mcp.WithDescription("Returns the canonical node format contract. "+
			"Call this before creating or updating nodes to ensure correct structure."),
	), s.getNodeContract)

	// Resource: node format contract.
	s.mcp.AddResource(
		mcp.NewResource("vefr://node-format", "Node Format Contract",
			mcp.WithResourceDescription("Canonical Markdown node format that all nodes must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNodeFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) readNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id = vault.NodeID(id)

	roots := s.eng.Roots()
	if data, rerr := roots.Write.Read(vault.FilePath(id)); rerr == nil {
		return mcp.NewToolResultText(string(data)), nil
	}
	for _, lr := range roots.ReadOnLink {
		if data, rerr := lr.Read(vault.FilePath(id)); rerr == nil {
			return mcp.NewToolResultText(string(data)), nil
		}
	}
	return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
}

func (s *Server) listNodes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := ""
	if f, err := req.RequireString("folder"); err == nil {
		folder = strings.Trim(f, "/")
	}

	var ids []string
	for _, id := range s.eng.Snapshot().IDs() {
		if folder != "" && id != folder && !strings.HasPrefix(id, folder+"/") {
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return mcp.NewToolResultText("no nodes found"), nil
	}
	return mcp.NewToolResultText(strings.Join(ids, "\n")), nil
}

func (s *Server) getNeighborhood(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id = vault.NodeID(id)
	distance, err := req.RequireFloat("distance")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if distance <= 0 {
		return mcp.NewToolResultError("distance must be positive"), nil
	}
	if !s.eng.IsVisible(id) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}

	sub := s.eng.Neighborhood(id, distance)
	type edgeOut struct {
		Source string `json:"source"`
		Target string `json:"target"`
		Label  string `json:"label,omitempty"`
	}
	type nodeOut struct {
		ID    string `json:"id"`
		Title string `json:"title,omitempty"`
	}
	out := struct {
		Nodes []nodeOut `json:"nodes"`
		Edges []edgeOut `json:"edges"`
	}{Nodes: []nodeOut{}, Edges: []edgeOut{}}
	for _, nid := range sub.IDs() {
		n := sub.Nodes[nid]
		out.Nodes = append(out.Nodes, nodeOut{ID: nid, Title: n.UI.Title})
		for _, e := range n.OutgoingEdges {
			out.Edges = append(out.Edges, edgeOut{Source: nid, Target: e.TargetID, Label: e.Label})
		}
	}
	payload, _ := json.MarshalIndent(out, "", "  ")
	return mcp.NewToolResultText(string(payload)), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id = vault.NodeID(id)

	bl, err := s.store.Backlinks(id)
	if err != nil || bl == nil {
		bl = nil
		for _, src := range s.eng.Snapshot().IncomingNodes(id) {
			bl = append(bl, src.ID)
		}
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return mcp.NewToolResultText(strings.Join(bl, "\n")), nil
}

func (s *Server) createNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id = vault.NodeID(id)

	if err := s.eng.CreateNode(ctx, id, []byte(content)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", id)), nil
}

func (s *Server) renameNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	oldID, err := req.RequireString("old_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	newID, err := req.RequireString("new_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	oldID, newID = vault.NodeID(oldID), vault.NodeID(newID)

	if err := s.eng.Rename(ctx, oldID, newID); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("renamed: %s -> %s", oldID, newID)), nil
}

func (s *Server) getNodeContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NodeFormatContract), nil
}

func (s *Server) readNodeFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "vefr://node-format",
			MIMEType: "text/markdown",
			Text:     NodeFormatContract,
		},
	}, nil
}
