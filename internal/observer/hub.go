// Package observer streams combat events to spectators over websocket.
package observer

import (
	"sync"
	"sync/atomic"

	"github.com/udisondev/abilitycore/internal/event"
)

// subscriberBuffer is the per-spectator queue length. Messages beyond it are dropped.
const subscriberBuffer = 100

// Message is one event as seen by spectators.
type Message struct {
	Battle string      `json:"battle"`
	Event  event.Event `json:"event"`
}

// Hub fans messages out to subscribers. Broadcast never blocks the caller:
// a slow spectator loses messages instead of stalling the simulation.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[uint64]chan Message
	nextID      uint64
	closed      bool

	dropped atomic.Uint64
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[uint64]chan Message),
	}
}

// Register создает личный канал подписчика.
// The channel is closed by Unregister or Close.
func (h *Hub) Register() (uint64, <-chan Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Message, subscriberBuffer)
	if h.closed {
		close(ch)
		return 0, ch
	}
	h.nextID++
	h.subscribers[h.nextID] = ch
	return h.nextID, ch
}

// Unregister удаляет подписчика.
func (h *Hub) Unregister(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subscribers[id]; ok {
		close(ch)
		delete(h.subscribers, id)
	}
}

// Broadcast отправляет всем подписчикам.
func (h *Hub) Broadcast(msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subscribers {
		select {
		case ch <- msg:
		default:
			h.dropped.Add(1)
		}
	}
}

// Sink returns an event handler that broadcasts events tagged with battle.
// Pass it to event.Bus.SubscribeAll.
func (h *Hub) Sink(battle string) event.Handler {
	return func(e event.Event) {
		h.Broadcast(Message{Battle: battle, Event: e})
	}
}

// SubscriberCount возвращает количество активных подписчиков.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Dropped returns how many messages were discarded on full queues.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// Close unregisters every subscriber. Later registrations get a closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for id, ch := range h.subscribers {
		close(ch)
		delete(h.subscribers, id)
	}
}
