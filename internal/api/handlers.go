package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/starford/vefr/internal/apperr"
	"github.com/starford/vefr/internal/vault"
)

// Handler holds API route handlers.
type Handler struct {
	svc *Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// nodeID extracts the node id from the URL (everything after the route
// prefix). Supports encoded slashes from OpenAPI clients
// (e.g. topics%2Fgo). A trailing .md extension is tolerated and stripped.
func nodeID(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		decoded = raw
	}
	return vault.NodeID(decoded)
}

// ListNodes handles GET /api/nodes.
//
//	@Summary		List visible nodes
//	@Tags			nodes
//	@Produce		json
//	@Success		200	{object}	NodeListResponse
//	@Security		BearerAuth
//	@Router			/nodes [get]
func (h *Handler) ListNodes(w http.ResponseWriter, r *http.Request) {
	items := h.svc.ListNodes(r.Context())
	writeJSON(w, http.StatusOK, NodeListResponse{Nodes: items, Total: len(items)})
}

// GetNode handles GET /api/nodes/*.
//
//	@Summary		Get a single node by id
//	@Tags			nodes
//	@Produce		json
//	@Param			id	path		string	true	"Node id"
//	@Success		200	{object}	NodeDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/nodes/{id} [get]
func (h *Handler) GetNode(w http.ResponseWriter, r *http.Request) {
	id := nodeID(r)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	node, err := h.svc.GetNode(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get node failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, node)
}

// CreateNode handles POST /api/nodes.
//
//	@Summary		Create a new node in the write root
//	@Tags			nodes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNodeRequest	true	"Node to create"
//	@Success		201		{object}	NodeDetail
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/nodes [post]
func (h *Handler) CreateNode(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req CreateNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	id := vault.NodeID(req.ID)
	if id == "" || req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id and content are required"))
		return
	}
	node, err := h.svc.CreateNode(r.Context(), id, []byte(req.Content))
	if err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			writeJSON(w, http.StatusConflict, errorBody("node already exists"))
		} else {
			slog.Error("create node failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusCreated, node)
}

// UpdateNode handles PUT /api/nodes/*.
//
//	@Summary		Update a node with optimistic concurrency
//	@Tags			nodes
//	@Accept			json
//	@Produce		json
//	@Param			id			path	string				true	"Node id"
//	@Param			If-Match	header	string				false	"SHA-256 checksum for optimistic concurrency"
//	@Param			body		body	UpdateNodeRequest	true	"Updated content"
//	@Success		200		{object}	NodeDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/nodes/{id} [put]
func (h *Handler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	id := nodeID(r)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	var req UpdateNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
		return
	}

	ifMatch := r.Header.Get("If-Match")
	// Strip surrounding quotes if present (standard ETag format).
	ifMatch = strings.Trim(ifMatch, `"`)

	node, err := h.svc.UpdateNode(r.Context(), id, []byte(req.Content), ifMatch)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrConflict):
			writeJSON(w, http.StatusConflict, errorBody("checksum mismatch"))
		case errors.Is(err, apperr.ErrReadOnly):
			writeJSON(w, http.StatusForbidden, errorBody("node is read-only"))
		default:
			slog.Error("update node failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, node)
}

// DeleteNode handles DELETE /api/nodes/*.
//
//	@Summary		Delete a node
//	@Tags			nodes
//	@Param			id	path	string	true	"Node id"
//	@Success		204	"Node deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/nodes/{id} [delete]
func (h *Handler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	id := nodeID(r)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	if err := h.svc.DeleteNode(r.Context(), id); err != nil {
		slog.Error("delete node failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Rename handles POST /api/rename.
//
//	@Summary		Rename a node and rewrite all referring links
//	@Tags			nodes
//	@Accept			json
//	@Produce		json
//	@Param			body	body	RenameRequest	true	"Old and new node ids"
//	@Success		204		"Node renamed"
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/rename [post]
func (h *Handler) Rename(w http.ResponseWriter, r *http.Request) {
	var req RenameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	oldID, newID := vault.NodeID(req.OldID), vault.NodeID(req.NewID)
	if oldID == "" || newID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("oldId and newId are required"))
		return
	}
	if err := h.svc.Rename(r.Context(), oldID, newID); err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrAlreadyExists):
			writeJSON(w, http.StatusConflict, errorBody("target id already exists"))
		default:
			slog.Error("rename failed",
				slog.String("old_id", oldID),
				slog.String("new_id", newID),
				slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Graph handles GET /api/graph.
//
//	@Summary		Get the full visible graph
//	@Tags			graph
//	@Produce		json
//	@Success		200	{object}	GraphResponse
//	@Security		BearerAuth
//	@Router			/graph [get]
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	nodes, links := h.svc.Graph(r.Context())
	writeJSON(w, http.StatusOK, GraphResponse{Nodes: nodes, Links: links})
}

// Neighborhood handles GET /api/neighborhood/*.
//
//	@Summary		Get the weighted subgraph within a distance bound
//	@Tags			graph
//	@Produce		json
//	@Param			id			path	string	true	"Start node id"
//	@Param			distance	query	number	true	"Exclusive distance bound"
//	@Success		200	{object}	GraphResponse
//	@Failure		400	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/neighborhood/{id} [get]
func (h *Handler) Neighborhood(w http.ResponseWriter, r *http.Request) {
	id := nodeID(r)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id is required"))
		return
	}
	distance, err := strconv.ParseFloat(r.URL.Query().Get("distance"), 64)
	if err != nil || distance <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'distance' must be a positive number"))
		return
	}
	nodes, links, err := h.svc.Neighborhood(r.Context(), id, distance)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("neighborhood failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, GraphResponse{Nodes: nodes, Links: links})
}
