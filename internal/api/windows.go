package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/starford/anchor/internal/window"
)

// Coordinator receives presentation events. Dispatch waits for the event to
// be handled; Post queues it and returns.
type Coordinator interface {
	Dispatch(ev window.Event)
	Post(ev window.Event)
	Snapshot() map[window.Surface]window.Visibility
}

// GeometrySink stores tray and monitor geometry reported by the UI shell.
type GeometrySink interface {
	SetTrayRect(r *window.Rect)
	SetMonitor(r *window.Rect)
}

// WindowHandler serves the presentation routes.
type WindowHandler struct {
	coord    Coordinator
	geometry GeometrySink
	logger   *slog.Logger
}

// optionalRect tells an omitted field apart from an explicit null.
type optionalRect struct {
	Set  bool
	Rect *window.Rect
}

func (o *optionalRect) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Rect = nil
		return nil
	}
	var r window.Rect
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	o.Rect = &r
	return nil
}

func validSurface(s window.Surface) bool {
	return s == window.Popover || s == window.Dashboard
}

// ShowDashboard handles POST /api/windows/dashboard/show.
//
//	@Summary		Construct (if needed), show and focus the dashboard
//	@Tags			windows
//	@Success		204	"Handled"
//	@Security		BearerAuth
//	@Router			/windows/dashboard/show [post]
func (h *WindowHandler) ShowDashboard(w http.ResponseWriter, _ *http.Request) {
	h.coord.Dispatch(window.ShowDashboard{})
	w.WriteHeader(http.StatusNoContent)
}

// HidePopover handles POST /api/windows/popover/hide.
//
//	@Summary		Hide the popover
//	@Tags			windows
//	@Success		204	"Handled"
//	@Security		BearerAuth
//	@Router			/windows/popover/hide [post]
func (h *WindowHandler) HidePopover(w http.ResponseWriter, _ *http.Request) {
	h.coord.Dispatch(window.HidePopover{})
	w.WriteHeader(http.StatusNoContent)
}

// Windows handles GET /api/windows.
//
//	@Summary		Report each surface's visibility
//	@Tags			windows
//	@Produce		json
//	@Success		200	{object}	WindowsResponse
//	@Security		BearerAuth
//	@Router			/windows [get]
func (h *WindowHandler) Windows(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, WindowsResponse{Windows: h.coord.Snapshot()})
}

// TrayEvent handles POST /api/platform/tray.
//
//	@Summary		Deliver a tray icon click
//	@Tags			platform
//	@Accept			json
//	@Param			body	body	TrayEventRequest	true	"Click"
//	@Success		204		"Handled"
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/platform/tray [post]
func (h *WindowHandler) TrayEvent(w http.ResponseWriter, r *http.Request) {
	var req TrayEventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.coord.Dispatch(window.TrayClick{Button: req.Button, State: req.State, Rect: req.Rect})
	w.WriteHeader(http.StatusNoContent)
}

// MenuEvent handles POST /api/platform/menu.
//
//	@Summary		Deliver a tray menu selection
//	@Tags			platform
//	@Accept			json
//	@Param			body	body	MenuEventRequest	true	"Menu item"
//	@Success		204		"Handled"
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/platform/menu [post]
func (h *WindowHandler) MenuEvent(w http.ResponseWriter, r *http.Request) {
	var req MenuEventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Item != window.MenuShowDashboard && req.Item != window.MenuQuit {
		writeJSON(w, http.StatusBadRequest, errorBody(fmt.Sprintf("item: unknown menu item %q", req.Item)))
		return
	}
	h.coord.Dispatch(window.MenuSelect{Item: req.Item})
	w.WriteHeader(http.StatusNoContent)
}

// FocusEvent handles POST /api/platform/focus. Focus changes arrive in
// bursts while windows move, so they are queued rather than awaited.
//
//	@Summary		Deliver a focus change
//	@Tags			platform
//	@Accept			json
//	@Param			body	body	FocusEventRequest	true	"Focus change"
//	@Success		202		"Queued"
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/platform/focus [post]
func (h *WindowHandler) FocusEvent(w http.ResponseWriter, r *http.Request) {
	var req FocusEventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validSurface(req.Surface) {
		writeJSON(w, http.StatusBadRequest, errorBody(fmt.Sprintf("surface: unknown surface %q", req.Surface)))
		return
	}
	h.coord.Post(window.FocusChanged{Surface: req.Surface, Focused: req.Focused})
	w.WriteHeader(http.StatusAccepted)
}

// CloseEvent handles POST /api/platform/close.
//
//	@Summary		Deliver an OS close request; the surface is hidden instead
//	@Tags			platform
//	@Accept			json
//	@Param			body	body	CloseEventRequest	true	"Close request"
//	@Success		204		"Handled"
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/platform/close [post]
func (h *WindowHandler) CloseEvent(w http.ResponseWriter, r *http.Request) {
	var req CloseEventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validSurface(req.Surface) {
		writeJSON(w, http.StatusBadRequest, errorBody(fmt.Sprintf("surface: unknown surface %q", req.Surface)))
		return
	}
	h.coord.Dispatch(window.CloseRequested{Surface: req.Surface})
	w.WriteHeader(http.StatusNoContent)
}

// Geometry handles POST /api/platform/geometry.
//
//	@Summary		Report tray and primary monitor geometry
//	@Tags			platform
//	@Accept			json
//	@Param			body	body	GeometryRequest	true	"Geometry"
//	@Success		204		"Stored"
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/platform/geometry [post]
func (h *WindowHandler) Geometry(w http.ResponseWriter, r *http.Request) {
	var req GeometryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if h.geometry == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("geometry reports are not accepted by this platform"))
		return
	}
	if req.Tray.Set {
		h.geometry.SetTrayRect(req.Tray.Rect)
	}
	if req.Monitor.Set {
		h.geometry.SetMonitor(req.Monitor.Rect)
	}
	h.logger.Debug("geometry updated", slog.Bool("tray", req.Tray.Set), slog.Bool("monitor", req.Monitor.Set))
	w.WriteHeader(http.StatusNoContent)
}
