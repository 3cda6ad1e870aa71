package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(0)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(0)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "window.show", Data: map[string]string{"surface": "popover"}})

	select {
	case ev := <-ch:
		if ev.Type != "window.show" {
			t.Errorf("type = %q", ev.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishChangedReachesAllSubscribers(t *testing.T) {
	b := NewBroker(0)
	defer b.Close()
	a := b.Subscribe()
	c := b.Subscribe()

	b.PublishChanged()

	for _, ch := range []chan Event{a, c} {
		select {
		case ev := <-ch:
			if ev.Type != EventReferencesChanged {
				t.Errorf("type = %q", ev.Type)
			}
		case <-time.After(time.Second):
			t.Fatal("subscriber missed references_changed")
		}
	}
}

func TestPublishChanged_Throttled(t *testing.T) {
	b := NewBroker(200 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// First change is immediate, the burst collapses into one trailing event.
	b.PublishChanged()
	b.PublishChanged()
	b.PublishChanged()

	time.Sleep(50 * time.Millisecond)
	if n := drain(ch); n != 1 {
		t.Fatalf("immediate events = %d, want 1", n)
	}

	time.Sleep(300 * time.Millisecond)
	if n := drain(ch); n != 1 {
		t.Errorf("trailing events = %d, want 1", n)
	}
}

func drain(ch chan Event) int {
	n := 0
	for {
		select {
		case <-ch:
			n++
		default:
			return n
		}
	}
}

func TestFormat(t *testing.T) {
	msg, err := Format(Event{Type: EventReferencesChanged, Data: map[string]any{}})
	if err != nil {
		t.Fatal(err)
	}
	if string(msg) != "event: references_changed\ndata: {}\n\n" {
		t.Errorf("Format = %q", msg)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(0)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.PublishChanged()
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: references_changed") {
		t.Errorf("handler output missing event: %q", body)
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(0)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Fill buffer (capacity 64) and then one more should not block.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(0)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Should be safe no-op after close.
	b.Publish(Event{Type: "window.hide"})
	b.PublishChanged()
}
