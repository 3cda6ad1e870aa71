package api

import (
	"github.com/starford/anchor/internal/models"
	"github.com/starford/anchor/internal/window"
)

// ReferenceRequest is the request body for creating or updating a reference.
type ReferenceRequest = models.Candidate

// ReferenceListResponse wraps reference listings.
type ReferenceListResponse struct {
	References []models.Reference `json:"references" validate:"required"`
}

// PathExistsResponse reports whether a path exists on disk.
type PathExistsResponse struct {
	Path   string `json:"path" example:"/Users/x/proj" validate:"required"`
	Exists bool   `json:"exists" validate:"required"`
}

// WindowsResponse maps each surface to absent, hidden or visible.
type WindowsResponse struct {
	Windows map[window.Surface]window.Visibility `json:"windows" validate:"required"`
}

// TrayEventRequest is a tray icon click reported by the UI shell.
type TrayEventRequest struct {
	Button window.MouseButton `json:"button" example:"left" validate:"required"`
	State  window.ButtonState `json:"state" example:"up" validate:"required"`
	Rect   *window.Rect       `json:"rect,omitempty"`
}

// MenuEventRequest is a tray menu selection.
type MenuEventRequest struct {
	Item window.MenuItem `json:"item" example:"show_dashboard" validate:"required"`
}

// FocusEventRequest reports a focus change on a surface.
type FocusEventRequest struct {
	Surface window.Surface `json:"surface" example:"popover" validate:"required"`
	Focused bool           `json:"focused"`
}

// CloseEventRequest reports an OS close request on a surface.
type CloseEventRequest struct {
	Surface window.Surface `json:"surface" example:"dashboard" validate:"required"`
}

// GeometryRequest reports tray and monitor geometry. Omitted fields are
// left as they were; an explicit null clears them.
type GeometryRequest struct {
	Tray    optionalRect `json:"tray"`
	Monitor optionalRect `json:"monitor"`
}
