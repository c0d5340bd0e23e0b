package handler

import (
	"log/slog"
	"net/http"

	"contentnav/internal/config"
	"contentnav/internal/httputil"
	"contentnav/internal/service/navigation"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// SearchRequest carries raw search input.
type SearchRequest struct {
	Text string `json:"text"`
}

// Validate implements validation.Validatable
func (r SearchRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Text, validation.RuneLength(0, config.MaxSearchLength)),
	)
}

// NavigationHandler serves folder trees and the navigation search
type NavigationHandler struct {
	logger *slog.Logger
}

// NewNavigationHandler creates a new navigation handler
func NewNavigationHandler(logger *slog.Logger) *NavigationHandler {
	return &NavigationHandler{logger: logger}
}

// PersonalTree handles GET /api/tree/personal
func (h *NavigationHandler) PersonalTree(w http.ResponseWriter, r *http.Request) {
	ws, ok := requireWorkspace(w, r)
	if !ok {
		return
	}
	httputil.RespondJSON(w, http.StatusOK, ws.PersonalTree(r.Context()))
}

// SharedTree handles GET /api/tree/shared
func (h *NavigationHandler) SharedTree(w http.ResponseWriter, r *http.Request) {
	ws, ok := requireWorkspace(w, r)
	if !ok {
		return
	}
	httputil.RespondJSON(w, http.StatusOK, ws.SharedTree(r.Context()))
}

// FolderTree handles GET /api/folders/{id}/tree
// Query flags: open (render expanded), flatten (no own row), name (skip the
// metadata fetch).
func (h *NavigationHandler) FolderTree(w http.ResponseWriter, r *http.Request) {
	ws, ok := requireWorkspace(w, r)
	if !ok {
		return
	}

	folderID := r.PathValue("id")
	if folderID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "folder ID is required")
		return
	}

	node := ws.FolderTree(r.Context(), navigation.FolderRef{
		ID:          folderID,
		Name:        r.URL.Query().Get("name"),
		DefaultOpen: httputil.QueryBool(r, "open"),
		Flatten:     httputil.QueryBool(r, "flatten"),
	})
	httputil.RespondJSON(w, http.StatusOK, node)
}

// RefreshFolder handles POST /api/folders/{id}/refresh
func (h *NavigationHandler) RefreshFolder(w http.ResponseWriter, r *http.Request) {
	ws, ok := requireWorkspace(w, r)
	if !ok {
		return
	}

	folderID := r.PathValue("id")
	if folderID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "folder ID is required")
		return
	}

	ws.RefreshFolder(folderID)
	w.WriteHeader(http.StatusNoContent)
}

// Search handles PUT /api/search
// Input is debounced; the response is the overlay state right after typing.
func (h *NavigationHandler) Search(w http.ResponseWriter, r *http.Request) {
	ws, ok := requireWorkspace(w, r)
	if !ok {
		return
	}

	var req SearchRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, err)
		return
	}

	ws.Search(req.Text)
	httputil.RespondJSON(w, http.StatusAccepted, ws.Snapshot().Search)
}

// SearchResults handles GET /api/search
func (h *NavigationHandler) SearchResults(w http.ResponseWriter, r *http.Request) {
	ws, ok := requireWorkspace(w, r)
	if !ok {
		return
	}
	httputil.RespondJSON(w, http.StatusOK, ws.SearchView(r.Context()))
}
