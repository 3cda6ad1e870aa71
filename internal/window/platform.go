package window

// Surface names one of the two managed windows.
type Surface string

const (
	Popover   Surface = "popover"
	Dashboard Surface = "dashboard"
)

// Options describes a window to construct.
type Options struct {
	Surface     Surface `json:"surface"`
	Route       string  `json:"route"`
	Size        Size    `json:"size"`
	Decorations bool    `json:"decorations"`
	SkipTaskbar bool    `json:"skipTaskbar"`
	AlwaysOnTop bool    `json:"alwaysOnTop"`
	Resizable   bool    `json:"resizable"`
	Centered    bool    `json:"centered"`
}

// Platform is the OS windowing and tray layer. Geometry lookups are optional:
// the bool result is false when the OS cannot tell.
type Platform interface {
	CreateWindow(opts Options) (Window, error)
	TrayRect() (Rect, bool)
	PrimaryMonitor() (Rect, bool)
}

// Window is a constructed OS window. Windows start hidden.
type Window interface {
	Show() error
	Hide() error
	Focus() error
	SetPosition(p Point) error
}

func popoverOptions(size Size) Options {
	return Options{
		Surface:     Popover,
		Route:       "/",
		Size:        size,
		Decorations: false,
		SkipTaskbar: true,
		AlwaysOnTop: true,
		Resizable:   false,
	}
}

func dashboardOptions(size Size) Options {
	return Options{
		Surface:     Dashboard,
		Route:       "/dashboard",
		Size:        size,
		Decorations: true,
		Resizable:   true,
		Centered:    true,
	}
}
