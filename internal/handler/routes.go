package handler

import "net/http"

// Handlers groups every HTTP handler of the server.
type Handlers struct {
	Health     *HealthHandler
	Session    *SessionHandler
	Navigation *NavigationHandler
	Viewer     *ViewerHandler
	Relocate   *RelocateHandler
	Events     *EventsHandler
}

// RegisterRoutes registers all routes on mux (Go 1.22+ enhanced patterns).
func RegisterRoutes(mux *http.ServeMux, h Handlers) {
	// Health check
	mux.HandleFunc("GET /health", h.Health.HealthCheck)

	// Workspace session
	mux.HandleFunc("POST /api/session", h.Session.Start)
	mux.HandleFunc("GET /api/session", h.Session.Get)
	mux.HandleFunc("DELETE /api/session", h.Session.End)

	// Folder trees
	mux.HandleFunc("GET /api/tree/personal", h.Navigation.PersonalTree)
	mux.HandleFunc("GET /api/tree/shared", h.Navigation.SharedTree)
	mux.HandleFunc("GET /api/folders/{id}/tree", h.Navigation.FolderTree)
	mux.HandleFunc("POST /api/folders/{id}/refresh", h.Navigation.RefreshFolder)

	// Navigation search
	mux.HandleFunc("PUT /api/search", h.Navigation.Search)
	mux.HandleFunc("GET /api/search", h.Navigation.SearchResults)

	// Selection and viewer
	mux.HandleFunc("PUT /api/selection", h.Viewer.Select)
	mux.HandleFunc("GET /api/viewer", h.Viewer.Get)
	mux.HandleFunc("POST /api/viewer/{id}/events", h.Viewer.ReportEvent)

	// Relocate dialog
	mux.HandleFunc("GET /api/relocate", h.Relocate.Get)
	mux.HandleFunc("POST /api/relocate", h.Relocate.Open)
	mux.HandleFunc("DELETE /api/relocate", h.Relocate.Close)
	mux.HandleFunc("PUT /api/relocate/search", h.Relocate.Search)
	mux.HandleFunc("PUT /api/relocate/folder", h.Relocate.SelectFolder)
	mux.HandleFunc("POST /api/relocate/confirm", h.Relocate.Confirm)

	// Change stream
	mux.HandleFunc("GET /api/events", h.Events.Stream)
}
