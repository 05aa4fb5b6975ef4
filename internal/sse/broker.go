// Package sse pushes session and library changes to connected clients as
// Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Event types emitted by the broker.
const (
	TypeSessionChanged = "session.changed"
	TypeStorageChanged = "storage.changed"
	TypeLibraryUpdated = "library.updated"
	typeDocumentPrefix = "mindmap."
)

const (
	clientBuffer = 64
	opQueue      = 256
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// hub is the broker state. Only the loop goroutine touches it.
type hub struct {
	clients     map[chan []byte]struct{}
	seq         uint64
	lastLibrary time.Time
	libraryMin  time.Duration
}

func (h *hub) send(e Event) {
	payload, err := json.Marshal(e.Data)
	if err != nil {
		return
	}
	h.seq++
	frame := []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", h.seq, e.Type, payload))
	for ch := range h.clients {
		select {
		case ch <- frame:
		default:
			// slow reader, frame dropped
		}
	}
}

func (h *hub) drop(ch chan []byte) {
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
}

// Broker fans events out to SSE clients. Every operation is queued as a
// closure and applied in order by one loop goroutine.
type Broker struct {
	keepAlive time.Duration

	ops       chan func(*hub)
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewBroker creates a broker. libraryThrottle bounds how often
// library.updated follows document events.
func NewBroker(libraryThrottle time.Duration) *Broker {
	if libraryThrottle <= 0 {
		libraryThrottle = 2 * time.Second
	}
	b := &Broker{
		keepAlive: 25 * time.Second,
		ops:       make(chan func(*hub), opQueue),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	h := &hub{clients: make(map[chan []byte]struct{}), libraryMin: libraryThrottle}
	go b.loop(h)
	return b
}

func (b *Broker) loop(h *hub) {
	defer close(b.done)
	for {
		select {
		case op := <-b.ops:
			op(h)
		case <-b.quit:
			for len(b.ops) > 0 {
				(<-b.ops)(h)
			}
			for ch := range h.clients {
				h.drop(ch)
			}
			return
		}
	}
}

// enqueue hands op to the loop. It reports false once the broker is closed.
func (b *Broker) enqueue(op func(*hub)) bool {
	select {
	case <-b.done:
		return false
	default:
	}
	select {
	case b.ops <- op:
		return true
	case <-b.done:
		return false
	}
}

// Close stops the loop and closes every client channel.
func (b *Broker) Close() {
	b.closeOnce.Do(func() { close(b.quit) })
	<-b.done
}

// Subscribe registers a client. The returned channel is closed by
// Unsubscribe or Close; on a closed broker it is returned already closed.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, clientBuffer)
	if !b.enqueue(func(h *hub) { h.clients[ch] = struct{}{} }) {
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	b.enqueue(func(h *hub) { h.drop(ch) })
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	reply := make(chan int, 1)
	if !b.enqueue(func(h *hub) { reply <- len(h.clients) }) {
		return 0
	}
	select {
	case n := <-reply:
		return n
	case <-b.done:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(e Event) {
	b.enqueue(func(h *hub) { h.send(e) })
}

// PublishDocumentEvent announces a mind-map change (kind is created,
// updated or deleted) followed by a throttled library.updated.
func (b *Broker) PublishDocumentEvent(kind, id string) {
	b.enqueue(func(h *hub) {
		h.send(Event{Type: typeDocumentPrefix + kind, Data: map[string]string{"id": id}})
		if now := time.Now(); now.Sub(h.lastLibrary) >= h.libraryMin {
			h.lastLibrary = now
			h.send(Event{Type: TypeLibraryUpdated, Data: map[string]string{}})
		}
	})
}

// PublishSessionEvent announces a login or logout.
func (b *Broker) PublishSessionEvent(authenticated bool) {
	b.Publish(Event{Type: TypeSessionChanged, Data: map[string]bool{"is_authenticated": authenticated}})
}

// PublishStorageEvent announces a key changed by another process.
func (b *Broker) PublishStorageEvent(kind, key string) {
	b.Publish(Event{Type: TypeStorageChanged, Data: map[string]string{"kind": kind, "key": key}})
}

// ServeHTTP streams events to one client (GET /api/events). A comment line
// is written every keep-alive interval so idle proxies keep the stream open.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	hdr := w.Header()
	hdr.Set("Content-Type", "text/event-stream")
	hdr.Set("Cache-Control", "no-cache")
	hdr.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ping := time.NewTicker(b.keepAlive)
	defer ping.Stop()

	write := func(p []byte) {
		_, _ = w.Write(p)
		flusher.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ping.C:
			write([]byte(": ping\n\n"))
		case frame, open := <-ch:
			if !open {
				return
			}
			write(frame)
		}
	}
}
