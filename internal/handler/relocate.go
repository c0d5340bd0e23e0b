package handler

import (
	"context"
	"log/slog"
	"net/http"

	"contentnav/internal/domain/models/content"
	"contentnav/internal/httputil"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// OpenRelocateRequest opens the relocate dialog for one item.
type OpenRelocateRequest struct {
	ContentID string              `json:"content_id"`
	Kind      content.ContentKind `json:"kind"`
	Title     string              `json:"title"`
}

// Validate implements validation.Validatable
func (r OpenRelocateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ContentID, validation.Required),
		validation.Field(&r.Kind, validation.Required, validation.In(content.KindDocument, content.KindView)),
		validation.Field(&r.Title, validation.Length(0, 500)),
	)
}

// SelectFolderRequest picks a destination folder from the dialog's results.
type SelectFolderRequest struct {
	FolderID string `json:"folder_id"`
}

// Validate implements validation.Validatable
func (r SelectFolderRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FolderID, validation.Required),
	)
}

// RelocateHandler drives the relocate dialog of a workspace
type RelocateHandler struct {
	logger *slog.Logger
}

// NewRelocateHandler creates a new relocate handler
func NewRelocateHandler(logger *slog.Logger) *RelocateHandler {
	return &RelocateHandler{logger: logger}
}

// Get handles GET /api/relocate
func (h *RelocateHandler) Get(w http.ResponseWriter, r *http.Request) {
	ws, ok := requireWorkspace(w, r)
	if !ok {
		return
	}
	httputil.RespondJSON(w, http.StatusOK, ws.Relocator().Snapshot())
}

// Open handles POST /api/relocate
func (h *RelocateHandler) Open(w http.ResponseWriter, r *http.Request) {
	ws, ok := requireWorkspace(w, r)
	if !ok {
		return
	}

	var req OpenRelocateRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, err)
		return
	}

	relocator := ws.Relocator()
	if err := relocator.Open(content.MoveTarget{ContentID: req.ContentID, Kind: req.Kind, Title: req.Title}); err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, relocator.Snapshot())
}

// Close handles DELETE /api/relocate
func (h *RelocateHandler) Close(w http.ResponseWriter, r *http.Request) {
	ws, ok := requireWorkspace(w, r)
	if !ok {
		return
	}
	if err := ws.Relocator().Close(); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles PUT /api/relocate/search
func (h *RelocateHandler) Search(w http.ResponseWriter, r *http.Request) {
	ws, ok := requireWorkspace(w, r)
	if !ok {
		return
	}

	var req SearchRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, err)
		return
	}

	relocator := ws.Relocator()
	if err := relocator.Search(req.Text); err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusAccepted, relocator.Snapshot())
}

// SelectFolder handles PUT /api/relocate/folder
func (h *RelocateHandler) SelectFolder(w http.ResponseWriter, r *http.Request) {
	ws, ok := requireWorkspace(w, r)
	if !ok {
		return
	}

	var req SelectFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, err)
		return
	}

	relocator := ws.Relocator()
	if err := relocator.SelectFolder(req.FolderID); err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, relocator.Snapshot())
}

// Confirm handles POST /api/relocate/confirm
func (h *RelocateHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	ws, ok := requireWorkspace(w, r)
	if !ok {
		return
	}

	relocator := ws.Relocator()
	// A move that reached the repository completes even if the client hangs up
	if err := relocator.Confirm(context.WithoutCancel(r.Context())); err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, relocator.Snapshot())
}
