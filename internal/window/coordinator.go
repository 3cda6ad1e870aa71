// Package window coordinates the tray popover and the dashboard: creation,
// visibility, focus and popover placement.
package window

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// Visibility is the lifecycle state of a surface.
type Visibility string

const (
	Absent  Visibility = "absent"
	Hidden  Visibility = "hidden"
	Visible Visibility = "visible"
)

// Config holds window dimensions and popover placement constants.
type Config struct {
	PopoverSize   Size
	DashboardSize Size
	// Gap between the tray icon's bottom edge and the popover's top edge.
	Gap float64
	// ScreenMargin and TopOffset drive the fallback top-right placement.
	ScreenMargin float64
	TopOffset    float64
	// ClampToScreen keeps the popover inside the primary monitor when its
	// geometry is known.
	ClampToScreen bool
	// ReopenGuard treats a tray click arriving this soon after a focus-loss
	// hide as the dismissal click itself. Zero makes every click on a hidden
	// popover show it.
	ReopenGuard time.Duration
}

// DefaultConfig returns the stock popover and dashboard geometry.
func DefaultConfig() Config {
	return Config{
		PopoverSize:   Size{Width: 320, Height: 440},
		DashboardSize: Size{Width: 1000, Height: 700},
		Gap:           8,
		ScreenMargin:  10,
		TopOffset:     30,
		ClampToScreen: true,
		ReopenGuard:   200 * time.Millisecond,
	}
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger used for swallowed OS failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// WithClock overrides the time source used by the reopen guard.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithQuit sets the function called for the tray menu quit item.
func WithQuit(fn func()) Option {
	return func(c *Coordinator) { c.onQuit = fn }
}

type surfaceState struct {
	window  Window
	visible bool
	// blurHiddenAt is when the popover was last hidden by focus loss.
	blurHiddenAt time.Time
}

// envelope carries either an event or a snapshot request through the
// single queue, so a snapshot observes every event posted before it.
type envelope struct {
	ev   Event
	done chan struct{}
	snap chan map[Surface]Visibility
}

// Coordinator owns the surface state table. A single internal event loop
// handles every Event in arrival order and issues the OS calls; failed OS
// calls are logged and leave the state untouched so the next interaction
// retries the same transition.
type Coordinator struct {
	platform Platform
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time
	onQuit   func()

	eventCh chan envelope

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewCoordinator creates a coordinator and starts its event loop.
func NewCoordinator(platform Platform, cfg Config, opts ...Option) *Coordinator {
	c := &Coordinator{
		platform: platform,
		cfg:      cfg,
		logger:   slog.Default(),
		now:      time.Now,
		eventCh:  make(chan envelope, 64),
		stopCh:   make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	go c.run()
	return c
}

func (c *Coordinator) run() {
	defer close(c.stopped)

	surfaces := make(map[Surface]*surfaceState)

	for {
		select {
		case <-c.stopCh:
			return

		case env := <-c.eventCh:
			if env.snap != nil {
				env.snap <- snapshot(surfaces)
				continue
			}
			c.handle(surfaces, env.ev)
			if env.done != nil {
				close(env.done)
			}
		}
	}
}

// Close stops the event loop. Surfaces are left as they are.
func (c *Coordinator) Close() {
	if c.closed.CompareAndSwap(false, true) {
		close(c.stopCh)
	}
	<-c.stopped
}

// Dispatch delivers ev and waits until it has been handled.
func (c *Coordinator) Dispatch(ev Event) {
	if c.closed.Load() {
		return
	}
	done := make(chan struct{})
	select {
	case c.eventCh <- envelope{ev: ev, done: done}:
	case <-c.stopped:
		return
	}
	select {
	case <-done:
	case <-c.stopped:
	}
}

// Post delivers ev without waiting. It never blocks: when the queue is full
// the event is dropped. Snapshot still sees posted events in order.
func (c *Coordinator) Post(ev Event) {
	if c.closed.Load() {
		return
	}
	select {
	case c.eventCh <- envelope{ev: ev}:
	default:
		c.logger.Warn("window: event queue full, dropping event")
	}
}

// Snapshot returns the visibility of every surface.
func (c *Coordinator) Snapshot() map[Surface]Visibility {
	absent := map[Surface]Visibility{Popover: Absent, Dashboard: Absent}
	if c.closed.Load() {
		return absent
	}
	resp := make(chan map[Surface]Visibility, 1)
	select {
	case c.eventCh <- envelope{snap: resp}:
	case <-c.stopped:
		return absent
	}
	select {
	case snap := <-resp:
		return snap
	case <-c.stopped:
		return absent
	}
}

// State returns the visibility of one surface.
func (c *Coordinator) State(s Surface) Visibility {
	return c.Snapshot()[s]
}

func snapshot(surfaces map[Surface]*surfaceState) map[Surface]Visibility {
	snap := map[Surface]Visibility{Popover: Absent, Dashboard: Absent}
	for name, st := range surfaces {
		if st.visible {
			snap[name] = Visible
		} else {
			snap[name] = Hidden
		}
	}
	return snap
}

func (c *Coordinator) handle(surfaces map[Surface]*surfaceState, ev Event) {
	switch e := ev.(type) {
	case TrayClick:
		if e.Button != ButtonLeft || e.State != ButtonUp {
			return
		}
		c.toggle(surfaces, e.Rect)

	case FocusChanged:
		if e.Surface != Popover || e.Focused {
			return
		}
		if st := surfaces[Popover]; st != nil && st.visible {
			if c.hide(Popover, st) {
				st.blurHiddenAt = c.now()
			}
		}

	case HidePopover:
		if st := surfaces[Popover]; st != nil && st.visible {
			c.hide(Popover, st)
		}

	case ShowDashboard:
		c.showDashboard(surfaces)

	case CloseRequested:
		if st := surfaces[e.Surface]; st != nil && st.visible {
			c.hide(e.Surface, st)
		}

	case MenuSelect:
		switch e.Item {
		case MenuShowDashboard:
			c.showDashboard(surfaces)
		case MenuQuit:
			c.logger.Info("window: quit requested")
			if c.onQuit != nil {
				c.onQuit()
			}
		}
	}
}

func (c *Coordinator) toggle(surfaces map[Surface]*surfaceState, trayRect *Rect) {
	st := surfaces[Popover]
	if st == nil {
		w, err := c.platform.CreateWindow(popoverOptions(c.cfg.PopoverSize))
		if err != nil {
			c.logger.Warn("window: create failed", slog.String("surface", string(Popover)), slog.String("error", err.Error()))
			return
		}
		st = &surfaceState{window: w}
		surfaces[Popover] = st
	} else if st.visible {
		c.hide(Popover, st)
		return
	}

	// The click that blurred the popover already dismissed it.
	if !st.blurHiddenAt.IsZero() {
		since := c.now().Sub(st.blurHiddenAt)
		st.blurHiddenAt = time.Time{}
		if since >= 0 && since < c.cfg.ReopenGuard {
			return
		}
	}

	if p, ok := c.placePopover(trayRect); ok {
		if err := st.window.SetPosition(p); err != nil {
			c.logger.Warn("window: position failed", slog.String("surface", string(Popover)), slog.String("error", err.Error()))
		}
	} else {
		c.logger.Warn("window: no tray or monitor geometry, popover left in place")
	}
	c.show(Popover, st)
}

func (c *Coordinator) showDashboard(surfaces map[Surface]*surfaceState) {
	st := surfaces[Dashboard]
	if st == nil {
		w, err := c.platform.CreateWindow(dashboardOptions(c.cfg.DashboardSize))
		if err != nil {
			c.logger.Warn("window: create failed", slog.String("surface", string(Dashboard)), slog.String("error", err.Error()))
			return
		}
		st = &surfaceState{window: w}
		surfaces[Dashboard] = st
	}
	c.show(Dashboard, st)
}

func (c *Coordinator) show(name Surface, st *surfaceState) {
	if err := st.window.Show(); err != nil {
		c.logger.Warn("window: show failed", slog.String("surface", string(name)), slog.String("error", err.Error()))
		return
	}
	st.visible = true
	if err := st.window.Focus(); err != nil {
		c.logger.Warn("window: focus failed", slog.String("surface", string(name)), slog.String("error", err.Error()))
	}
}

func (c *Coordinator) hide(name Surface, st *surfaceState) bool {
	if err := st.window.Hide(); err != nil {
		c.logger.Warn("window: hide failed", slog.String("surface", string(name)), slog.String("error", err.Error()))
		return false
	}
	st.visible = false
	return true
}

// placePopover picks the tray-anchored position, falling back to the
// monitor's top-right corner. ok is false when neither geometry is known.
func (c *Coordinator) placePopover(trayRect *Rect) (Point, bool) {
	size := c.cfg.PopoverSize

	var tray Rect
	haveTray := false
	if trayRect != nil {
		tray, haveTray = *trayRect, true
	} else {
		tray, haveTray = c.platform.TrayRect()
	}
	monitor, haveMonitor := c.platform.PrimaryMonitor()

	var p Point
	switch {
	case haveTray:
		p = BelowTray(tray, size, c.cfg.Gap)
	case haveMonitor:
		p = TopRight(monitor, size, c.cfg.ScreenMargin, c.cfg.TopOffset)
	default:
		return Point{}, false
	}
	if c.cfg.ClampToScreen && haveMonitor {
		p = ClampTo(p, size, monitor)
	}
	return p, true
}
