package window

import (
	"reflect"
	"sync"
	"testing"

	"github.com/starford/anchor/internal/sse"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []sse.Event
}

func (r *recordingPublisher) Publish(e sse.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func TestBridgeGeometry(t *testing.T) {
	b := NewBridge(&recordingPublisher{})

	if _, ok := b.TrayRect(); ok {
		t.Fatal("tray rect known before any report")
	}
	if _, ok := b.PrimaryMonitor(); ok {
		t.Fatal("monitor known before any report")
	}

	tray := trayAt(100, 10)
	b.SetTrayRect(tray)
	b.SetMonitor(&Rect{Size: Size{Width: 1440, Height: 900}})
	tray.Position.X = 999

	got, ok := b.TrayRect()
	if !ok {
		t.Fatal("tray rect missing after report")
	}
	if got.Position.X != 100 {
		t.Errorf("tray x = %v, want 100 (bridge keeps its own copy)", got.Position.X)
	}

	b.SetTrayRect(nil)
	if _, ok := b.TrayRect(); ok {
		t.Error("nil report should clear the tray rect")
	}
}

func TestBridgeDrivenByCoordinator(t *testing.T) {
	pub := &recordingPublisher{}
	b := NewBridge(pub)
	b.SetTrayRect(trayAt(1200, 0))
	c := newTestCoordinator(t, b, DefaultConfig())

	c.Dispatch(leftClick())
	c.Dispatch(leftClick())

	want := []string{
		EventWindowCreate,
		EventWindowPosition,
		EventWindowShow,
		EventWindowFocus,
		EventWindowHide,
	}
	if got := pub.types(); !reflect.DeepEqual(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	opts, ok := pub.events[0].Data.(Options)
	if !ok || opts.Surface != Popover {
		t.Fatalf("create data = %#v", pub.events[0].Data)
	}
	pos := pub.events[1].Data.(map[string]any)
	if pos["x"] != 1050.0 || pos["y"] != 28.0 {
		t.Errorf("position = %v, want x=1050 y=28", pos)
	}
}
