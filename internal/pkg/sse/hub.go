// Package sse fans out in-process events to server-sent-event subscribers
// keyed by recipient.
package sse

import (
	"sync"
	"sync/atomic"
)

// DefaultBufferSize is the per-subscriber channel capacity.
const DefaultBufferSize = 16

// Event is a payload addressed to one recipient.
type Event struct {
	RecipientID string
	Name        string
	Data        interface{}
}

type subscriber struct {
	ch chan Event
}

// Hub manages SSE subscribers and event broadcasting
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*subscriber]struct{}
	bufferSize  int
	dropped     atomic.Int64
}

// NewHub creates a hub whose subscriber channels hold bufferSize events.
func NewHub(bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Hub{
		subscribers: make(map[string]map[*subscriber]struct{}),
		bufferSize:  bufferSize,
	}
}

// Subscribe registers a listener for recipientID. The returned cleanup
// unregisters it and closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe(recipientID string) (<-chan Event, func()) {
	sub := &subscriber{ch: make(chan Event, h.bufferSize)}

	h.mu.Lock()
	if h.subscribers[recipientID] == nil {
		h.subscribers[recipientID] = make(map[*subscriber]struct{})
	}
	h.subscribers[recipientID][sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subscribers[recipientID], sub)
			if len(h.subscribers[recipientID]) == 0 {
				delete(h.subscribers, recipientID)
			}
			close(sub.ch)
		})
	}

	return sub.ch, cleanup
}

// Publish delivers event to every subscriber of its recipient and returns
// how many received it. Slow subscribers are skipped rather than blocking
// the publisher.
func (h *Hub) Publish(event Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for sub := range h.subscribers[event.RecipientID] {
		select {
		case sub.ch <- event:
			delivered++
		default:
			h.dropped.Add(1)
		}
	}
	return delivered
}

// SubscriberCount returns the number of active subscribers for a recipient
func (h *Hub) SubscriberCount(recipientID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[recipientID])
}

// Dropped returns how many events were discarded because a subscriber
// buffer was full.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}
