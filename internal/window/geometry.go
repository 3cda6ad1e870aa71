package window

// Point is a screen position in logical units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a width/height pair in logical units.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect is an on-screen rectangle as reported by the OS. ScaleFactor is set
// when the values are physical pixels; zero means they are already logical.
type Rect struct {
	Position    Point   `json:"position"`
	Size        Size    `json:"size"`
	ScaleFactor float64 `json:"scaleFactor,omitempty"`
}

// Logical returns r converted to logical units.
func (r Rect) Logical() Rect {
	if r.ScaleFactor <= 0 || r.ScaleFactor == 1 {
		r.ScaleFactor = 0
		return r
	}
	f := r.ScaleFactor
	return Rect{
		Position: Point{X: r.Position.X / f, Y: r.Position.Y / f},
		Size:     Size{Width: r.Size.Width / f, Height: r.Size.Height / f},
	}
}

// BelowTray centers a popover of the given size horizontally under the tray
// icon, gap units below its bottom edge. The result is not clamped.
func BelowTray(tray Rect, popover Size, gap float64) Point {
	tray = tray.Logical()
	centerX := tray.Position.X + tray.Size.Width/2
	bottom := tray.Position.Y + tray.Size.Height
	return Point{X: centerX - popover.Width/2, Y: bottom + gap}
}

// TopRight anchors a popover near the top-right corner of the monitor.
func TopRight(monitor Rect, popover Size, margin, top float64) Point {
	monitor = monitor.Logical()
	return Point{
		X: monitor.Position.X + monitor.Size.Width - popover.Width - margin,
		Y: monitor.Position.Y + top,
	}
}

// ClampTo moves p so a window of the given size lies inside monitor where it
// fits; the left/top edges win when the window is larger than the monitor.
func ClampTo(p Point, size Size, monitor Rect) Point {
	monitor = monitor.Logical()
	minX, minY := monitor.Position.X, monitor.Position.Y
	maxX := minX + monitor.Size.Width - size.Width
	maxY := minY + monitor.Size.Height - size.Height
	if p.X > maxX {
		p.X = maxX
	}
	if p.Y > maxY {
		p.Y = maxY
	}
	if p.X < minX {
		p.X = minX
	}
	if p.Y < minY {
		p.Y = minY
	}
	return p
}
