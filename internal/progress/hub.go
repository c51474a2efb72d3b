// Package progress fans scheduler events out to per-SKU subscribers.
package progress

import (
	"sync"

	"photo-sku-backend/internal/models"
)

const DefaultBuffer = 64

type subscriber struct {
	ch chan models.ProgressEvent
}

// Hub is an in-process publisher keyed by SKU. Publish never blocks: a
// subscriber whose buffer is full misses the event.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[*subscriber]struct{}
	last   map[string]models.ProgressEvent
	buffer int
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		subs:   make(map[string]map[*subscriber]struct{}),
		last:   make(map[string]models.ProgressEvent),
		buffer: buffer,
	}
}

func (h *Hub) Publish(ev models.ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.last[ev.SKU] = ev
	for sub := range h.subs[ev.SKU] {
		select {
		case sub.ch <- ev:
		default:
		}
	}
}

// Subscribe returns a channel of events for sku and a function that ends the
// subscription and closes the channel.
func (h *Hub) Subscribe(sku string) (<-chan models.ProgressEvent, func()) {
	sub := &subscriber{ch: make(chan models.ProgressEvent, h.buffer)}

	h.mu.Lock()
	if h.subs[sku] == nil {
		h.subs[sku] = make(map[*subscriber]struct{})
	}
	h.subs[sku][sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[sku], sub)
			if len(h.subs[sku]) == 0 {
				delete(h.subs, sku)
			}
			h.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Last returns the most recent event published for sku.
func (h *Hub) Last(sku string) (models.ProgressEvent, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ev, ok := h.last[sku]
	return ev, ok
}

// Forget drops the remembered state for sku.
func (h *Hub) Forget(sku string) {
	h.mu.Lock()
	delete(h.last, sku)
	h.mu.Unlock()
}

func (h *Hub) Subscribers(sku string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[sku])
}
