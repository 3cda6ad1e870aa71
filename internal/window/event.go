package window

// Event is a message delivered to the Coordinator.
type Event interface {
	isEvent()
}

// MouseButton identifies the tray mouse button.
type MouseButton string

const (
	ButtonLeft   MouseButton = "left"
	ButtonRight  MouseButton = "right"
	ButtonMiddle MouseButton = "middle"
)

// ButtonState is the press phase of a tray click.
type ButtonState string

const (
	ButtonDown ButtonState = "down"
	ButtonUp   ButtonState = "up"
)

// MenuItem identifies a tray menu entry.
type MenuItem string

const (
	MenuShowDashboard MenuItem = "show_dashboard"
	MenuQuit          MenuItem = "quit"
)

// TrayClick is a click on the tray icon. Rect is the icon's rectangle when
// the OS delivers it with the event.
type TrayClick struct {
	Button MouseButton
	State  ButtonState
	Rect   *Rect
}

// MenuSelect is a tray menu selection.
type MenuSelect struct {
	Item MenuItem
}

// FocusChanged reports a surface gaining or losing input focus.
type FocusChanged struct {
	Surface Surface
	Focused bool
}

// CloseRequested is the OS asking to close a surface. The platform must
// always prevent the close; the coordinator turns it into a hide.
type CloseRequested struct {
	Surface Surface
}

// ShowDashboard is the explicit request to bring up the dashboard.
type ShowDashboard struct{}

// HidePopover is the explicit request to dismiss the popover.
type HidePopover struct{}

func (TrayClick) isEvent()      {}
func (MenuSelect) isEvent()     {}
func (FocusChanged) isEvent()   {}
func (CloseRequested) isEvent() {}
func (ShowDashboard) isEvent()  {}
func (HidePopover) isEvent()    {}
