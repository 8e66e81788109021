package event

import "sync"

// Subscriber receives every published event through a buffered channel.
type Subscriber struct {
	ch chan Event
}

func (s *Subscriber) Chan() <-chan Event { return s.ch }

// Hub fans engine events out to all connected observers. Delivery is
// best-effort, at-most-once: Publish never blocks, a subscriber whose
// buffer is full loses the event.
type Hub struct {
	mu    sync.RWMutex
	subs  map[*Subscriber]struct{}
	qsize int
}

func NewHub(perSubQueue int) *Hub {
	if perSubQueue <= 0 {
		perSubQueue = 64
	}
	return &Hub{
		subs:  make(map[*Subscriber]struct{}),
		qsize: perSubQueue,
	}
}

func (h *Hub) Subscribe() *Subscriber {
	s := &Subscriber{ch: make(chan Event, h.qsize)}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

func (h *Hub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	if _, ok := h.subs[s]; ok {
		delete(h.subs, s)
		close(s.ch)
	}
	h.mu.Unlock()
}

func (h *Hub) Publish(e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs {
		select {
		case s.ch <- e:
		default:
			// slow subscriber, drop
		}
	}
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
