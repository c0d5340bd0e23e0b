package handler

import (
	"log/slog"
	"net/http"

	"contentnav/internal/domain/models/content"
	"contentnav/internal/httputil"
	"contentnav/internal/service/viewer"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// SelectRequest selects the content item to show.
type SelectRequest struct {
	Kind content.ContentKind `json:"kind"`
	ID   string              `json:"id"`
}

// Validate implements validation.Validatable
func (r SelectRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Kind, validation.Required, validation.In(content.KindDocument, content.KindView)),
		validation.Field(&r.ID, validation.Required),
	)
}

// ViewerEventRequest is a lifecycle event reported by the embedded viewer.
type ViewerEventRequest struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Validate implements validation.Validatable
func (r ViewerEventRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Type, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Message, validation.Length(0, 1000)),
	)
}

// ViewerHandler drives the selection and the embedded viewer
type ViewerHandler struct {
	logger *slog.Logger
}

// NewViewerHandler creates a new viewer handler
func NewViewerHandler(logger *slog.Logger) *ViewerHandler {
	return &ViewerHandler{logger: logger}
}

// Select handles PUT /api/selection
func (h *ViewerHandler) Select(w http.ResponseWriter, r *http.Request) {
	ws, ok := requireWorkspace(w, r)
	if !ok {
		return
	}

	var req SelectRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, err)
		return
	}

	snap := ws.Select(content.Selection{Kind: req.Kind, ID: req.ID})
	httputil.RespondJSON(w, http.StatusOK, snap)
}

// Get handles GET /api/viewer
func (h *ViewerHandler) Get(w http.ResponseWriter, r *http.Request) {
	ws, ok := requireWorkspace(w, r)
	if !ok {
		return
	}
	httputil.RespondJSON(w, http.StatusOK, ws.Viewer().Snapshot())
}

// ReportEvent handles POST /api/viewer/{id}/events
// Events for a viewer that is no longer live are rejected with 409.
func (h *ViewerHandler) ReportEvent(w http.ResponseWriter, r *http.Request) {
	ws, ok := requireWorkspace(w, r)
	if !ok {
		return
	}

	viewerID := r.PathValue("id")
	var req ViewerEventRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, err)
		return
	}

	if err := ws.Viewer().Deliver(viewerID, viewer.Event{Type: req.Type, Message: req.Message}); err != nil {
		h.logger.Debug("viewer event rejected",
			"workspace_id", ws.ID,
			"viewer_id", viewerID,
			"event", req.Type,
			"error", err,
		)
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
