package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Deps are the collaborators behind the API routes. Search, Windows,
// Geometry and Events are optional; routes whose collaborator is nil are not
// mounted, except search which falls back to an in-memory scan.
type Deps struct {
	References ReferenceService
	Search     Searcher
	Launcher   Launcher
	Windows    Coordinator
	Geometry   GeometrySink
	Events     http.Handler
	Logger     *slog.Logger
}

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced; it also covers
// the SSE endpoint at GET /events.
func NewRouter(d Deps, authEnabled bool, token string) chi.Router {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{refs: d.References, search: d.Search, launcher: d.Launcher, logger: logger}

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// References CRUD.
	r.Get("/references", h.ListReferences)
	r.Post("/references", h.CreateReference)
	r.Get("/references/search", h.SearchReferences)
	r.Put("/references/{id}", h.UpdateReference)
	r.Delete("/references/{id}", h.DeleteReference)

	// Shell launch.
	if d.Launcher != nil {
		r.Post("/references/{id}/open", h.OpenReference)
		r.Post("/references/{id}/copy-path", h.CopyReferencePath)
	}
	r.Get("/paths/exists", h.PathExists)

	// Presentation.
	if d.Windows != nil {
		wh := &WindowHandler{coord: d.Windows, geometry: d.Geometry, logger: logger}
		r.Post("/windows/dashboard/show", wh.ShowDashboard)
		r.Post("/windows/popover/hide", wh.HidePopover)
		r.Get("/windows", wh.Windows)

		r.Post("/platform/tray", wh.TrayEvent)
		r.Post("/platform/menu", wh.MenuEvent)
		r.Post("/platform/focus", wh.FocusEvent)
		r.Post("/platform/close", wh.CloseEvent)
		r.Post("/platform/geometry", wh.Geometry)
	}

	// SSE endpoint (protected by same auth middleware).
	if d.Events != nil {
		r.Get("/events", d.Events.ServeHTTP)
	}

	return r
}
