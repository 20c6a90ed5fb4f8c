package events

import (
	"sync"
	"sync/atomic"
)

// Hub fans events out to SSE subscribers. Slow subscribers miss events
// rather than block the scan that publishes them.
type Hub struct {
	mu      sync.Mutex
	clients map[chan Event][]string

	dropped atomic.Uint64
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan Event][]string)}
}

// Subscribe registers a listener for the given types (see Event.Matches).
func (h *Hub) Subscribe(types ...string) chan Event {
	ch := make(chan Event, 32)
	h.mu.Lock()
	h.clients[ch] = types
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
	h.mu.Unlock()
}

func (h *Hub) Publish(e Event) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch, types := range h.clients {
		if !e.Matches(types) {
			continue
		}
		select {
		case ch <- e:
		default:
			h.dropped.Add(1)
		}
	}
}

// Emit builds and publishes one event.
func (h *Hub) Emit(reqID, typ string, data any) {
	if h == nil {
		return
	}
	h.Publish(New(reqID, typ, data))
}

// Dropped counts deliveries skipped because a subscriber was full.
func (h *Hub) Dropped() uint64 {
	if h == nil {
		return 0
	}
	return h.dropped.Load()
}
