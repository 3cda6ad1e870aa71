package window

import (
	"sync"

	"github.com/starford/anchor/internal/sse"
)

// Window command event names published by Bridge.
const (
	EventWindowCreate   = "window.create"
	EventWindowShow     = "window.show"
	EventWindowHide     = "window.hide"
	EventWindowFocus    = "window.focus"
	EventWindowPosition = "window.position"
)

// Publisher receives window commands.
type Publisher interface {
	Publish(event sse.Event)
}

// Bridge is a Platform that forwards window commands to a UI shell over the
// event stream. The shell reports tray and monitor geometry back through
// SetTrayRect and SetMonitor.
type Bridge struct {
	pub Publisher

	mu      sync.RWMutex
	tray    *Rect
	monitor *Rect
}

// NewBridge creates a bridge publishing to pub.
func NewBridge(pub Publisher) *Bridge {
	return &Bridge{pub: pub}
}

// SetTrayRect records the tray icon rectangle; nil clears it.
func (b *Bridge) SetTrayRect(r *Rect) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tray = copyRect(r)
}

// SetMonitor records the primary monitor rectangle; nil clears it.
func (b *Bridge) SetMonitor(r *Rect) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.monitor = copyRect(r)
}

// TrayRect implements Platform.
func (b *Bridge) TrayRect() (Rect, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.tray == nil {
		return Rect{}, false
	}
	return *b.tray, true
}

// PrimaryMonitor implements Platform.
func (b *Bridge) PrimaryMonitor() (Rect, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.monitor == nil {
		return Rect{}, false
	}
	return *b.monitor, true
}

// CreateWindow implements Platform.
func (b *Bridge) CreateWindow(opts Options) (Window, error) {
	b.pub.Publish(sse.Event{Type: EventWindowCreate, Data: opts})
	return &bridgeWindow{surface: opts.Surface, pub: b.pub}, nil
}

type bridgeWindow struct {
	surface Surface
	pub     Publisher
}

func (w *bridgeWindow) Show() error  { return w.send(EventWindowShow) }
func (w *bridgeWindow) Hide() error  { return w.send(EventWindowHide) }
func (w *bridgeWindow) Focus() error { return w.send(EventWindowFocus) }

func (w *bridgeWindow) SetPosition(p Point) error {
	w.pub.Publish(sse.Event{Type: EventWindowPosition, Data: map[string]any{
		"surface": w.surface,
		"x":       p.X,
		"y":       p.Y,
	}})
	return nil
}

func (w *bridgeWindow) send(name string) error {
	w.pub.Publish(sse.Event{Type: name, Data: map[string]any{"surface": w.surface}})
	return nil
}

func copyRect(r *Rect) *Rect {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}
