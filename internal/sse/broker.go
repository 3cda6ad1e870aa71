// Package sse broadcasts change notifications and window commands to UI
// surfaces over Server-Sent Events and to in-process subscribers.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// EventReferencesChanged tells listeners to re-fetch the whole collection.
const EventReferencesChanged = "references_changed"

// Event represents an event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Broker manages subscribers and broadcasts events.
//
// A single internal event loop (goroutine) owns mutable state (clients and
// the change throttle). Public methods communicate with this loop through
// channels, so no mutexes are required.
type Broker struct {
	changeMin time.Duration

	subscribeCh   chan chan Event
	unsubscribeCh chan chan Event
	publishCh     chan Event
	changedCh     chan struct{}
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker. references_changed events closer together than
// changeThrottle are collapsed into one trailing event; zero disables this.
func NewBroker(changeThrottle time.Duration) *Broker {
	if changeThrottle < 0 {
		changeThrottle = 0
	}

	b := &Broker{
		changeMin:     changeThrottle,
		subscribeCh:   make(chan chan Event),
		unsubscribeCh: make(chan chan Event),
		publishCh:     make(chan Event, 256),
		changedCh:     make(chan struct{}, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan Event]struct{})
	var lastChange time.Time
	var trailing *time.Timer
	var trailingCh <-chan time.Time

	broadcast := func(event Event) {
		for ch := range clients {
			select {
			case ch <- event:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
			}
		}
	}
	changed := func() {
		lastChange = time.Now()
		broadcast(Event{Type: EventReferencesChanged, Data: map[string]any{}})
	}

	for {
		select {
		case <-b.stopCh:
			if trailing != nil {
				trailing.Stop()
			}
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case <-b.changedCh:
			if b.changeMin == 0 || time.Since(lastChange) >= b.changeMin {
				changed()
				continue
			}
			if trailing == nil {
				trailing = time.NewTimer(b.changeMin - time.Since(lastChange))
				trailingCh = trailing.C
			}

		case <-trailingCh:
			trailing, trailingCh = nil, nil
			changed()

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan Event {
	ch := make(chan Event, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishChanged broadcasts references_changed with an empty payload.
func (b *Broker) PublishChanged() {
	if b.closed.Load() {
		return
	}
	select {
	case b.changedCh <- struct{}{}:
	case <-b.stopped:
	}
}

// Format renders an event in text/event-stream framing.
func Format(event Event) ([]byte, error) {
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload)), nil
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			msg, err := Format(event)
			if err != nil {
				continue
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
