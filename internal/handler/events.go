package handler

import (
	"log/slog"
	"net/http"
	"time"

	"contentnav/internal/handler/sse"
	"contentnav/internal/httputil"
)

// SSE event names
const (
	eventSnapshot = "snapshot"
	eventChanged  = "changed"
)

// EventsHandler streams workspace change notifications
type EventsHandler struct {
	config *sse.Config
	logger *slog.Logger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(config *sse.Config, logger *slog.Logger) *EventsHandler {
	if config == nil {
		config = sse.DefaultConfig()
	}
	return &EventsHandler{
		config: config,
		logger: logger,
	}
}

// Stream handles GET /api/events
// The first event carries the full workspace snapshot. Every later change
// sends a fresh snapshot; bursts within the coalesce window collapse into one.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ws, ok := requireWorkspace(w, r)
	if !ok {
		return
	}

	changes := ws.Subscribe()
	defer ws.Unsubscribe(changes)

	writer, err := sse.NewWriter(w)
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger := h.logger.With("workspace_id", ws.ID)
	logger.Debug("SSE stream established")
	defer logger.Debug("SSE stream ended")

	if err := writer.WriteEvent(eventSnapshot, ws.Snapshot()); err != nil {
		logger.Debug("initial snapshot write failed", "error", err)
		return
	}

	keepAlive := sse.NewTickerKeepAlive(h.config.KeepAliveInterval)
	stopped := keepAlive.Start(writer, logger)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-stopped:
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			h.coalesce(r, changes)
			if err := writer.WriteEvent(eventChanged, ws.Snapshot()); err != nil {
				logger.Debug("client disconnected during event write", "error", err)
				return
			}
		}
	}
}

// coalesce drains pings arriving within the coalesce window.
func (h *EventsHandler) coalesce(r *http.Request, changes <-chan struct{}) {
	if h.config.CoalesceWindow <= 0 {
		return
	}
	timer := time.NewTimer(h.config.CoalesceWindow)
	defer timer.Stop()
	for {
		select {
		case <-timer.C:
			return
		case <-r.Context().Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
		}
	}
}
