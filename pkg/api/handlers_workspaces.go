package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/odvcencio/devroom/pkg/auth"
	"github.com/odvcencio/devroom/pkg/realtime"
	"github.com/odvcencio/devroom/pkg/workspace"
)

type createWorkspaceRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreateWorkspace(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createWorkspaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	ws := &workspace.Workspace{
		ID:       workspace.NewID(),
		Name:     req.Name,
		OwnerID:  claims.UserID,
		FileTree: workspace.FileTree{},
	}
	if err := s.cfg.Workspaces.Create(r.Context(), ws); err != nil {
		s.logger.Error("workspace create failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, ws)
}

func (s *Server) handleGetWorkspace(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	if err := workspace.ValidateID(id); err != nil {
		writeError(w, http.StatusBadRequest, "invalid workspace id")
		return
	}

	ws, err := s.cfg.Workspaces.Load(r.Context(), id)
	if err != nil {
		if errors.Is(err, workspace.ErrNotFound) {
			writeError(w, http.StatusNotFound, "workspace not found")
			return
		}
		s.logger.Error("workspace load failed", "workspace_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !ws.HasMember(claims.UserID) {
		writeError(w, http.StatusForbidden, "not a member of this workspace")
		return
	}

	writeJSON(w, http.StatusOK, ws)
}

type saveFileTreeRequest struct {
	FileTree workspace.FileTree `json:"fileTree"`
}

// handleSaveFileTree is the editor save flow: a compare-free overwrite of
// the whole file-tree. No merge, no version check; concurrent saves and AI
// mutations silently overwrite each other (last writer wins). The updated
// tree fans out to the workspace's room so every live member converges on
// the saved state.
func (s *Server) handleSaveFileTree(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	if err := workspace.ValidateID(id); err != nil {
		writeError(w, http.StatusBadRequest, "invalid workspace id")
		return
	}

	var req saveFileTreeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FileTree == nil {
		writeError(w, http.StatusBadRequest, "fileTree is required")
		return
	}

	ws, err := s.cfg.Workspaces.Load(r.Context(), id)
	if err != nil {
		if errors.Is(err, workspace.ErrNotFound) {
			writeError(w, http.StatusNotFound, "workspace not found")
			return
		}
		s.logger.Error("workspace load failed", "workspace_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !ws.HasMember(claims.UserID) {
		writeError(w, http.StatusForbidden, "not a member of this workspace")
		return
	}

	ws.FileTree = req.FileTree
	ws.Revision++
	if err := s.cfg.Workspaces.Save(r.Context(), ws); err != nil {
		s.logger.Error("workspace save failed", "workspace_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save file tree")
		return
	}

	if s.cfg.Registry != nil {
		s.cfg.Registry.BroadcastAll(id, realtime.Envelope{
			Type:    realtime.EventFileTreeUpdated,
			Payload: realtime.FileTreePayload{FileTree: ws.FileTree},
		})
	}

	writeJSON(w, http.StatusOK, ws)
}
