package stream

import (
	"sync"
	"sync/atomic"

	"errorcollector/src/model"

	logger "github.com/sirupsen/logrus"
)

const subscriberBuffer = 64

// Hub fans newly stored error events out to all live subscribers, typically
// WebSocket connections tailing /errors/stream.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[chan model.ErrorEvent]struct{}
	dropped     atomic.Int64
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[chan model.ErrorEvent]struct{}),
	}
}

// Subscribe registers a new consumer and returns its channel together with
// an unsubscribe function. The unsubscribe function closes the channel and
// may be called at most once.
func (h *Hub) Subscribe() (<-chan model.ErrorEvent, func()) {
	ch := make(chan model.ErrorEvent, subscriberBuffer)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	unsubscribe := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
		}
	}
	return ch, unsubscribe
}

// Publish sends an event to every subscriber. It never blocks: the event is
// dropped for any subscriber whose buffer is full.
func (h *Hub) Publish(ev model.ErrorEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers {
		select {
		case ch <- ev:
		default:
			total := h.dropped.Add(1)
			logger.WithField("totalDropped", total).Warn("stream: dropped event for slow subscriber")
		}
	}
}

// Dropped returns the total number of events dropped for slow subscribers.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// SubscriberCount reports how many consumers are currently attached.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
