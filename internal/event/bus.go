package event

import "sync"

// Handler receives published events.
type Handler func(Event)

// Bus is an in-process publisher. Handlers run synchronously on the
// publishing goroutine in subscription order; handlers that hand events to
// other goroutines must not block.
type Bus struct {
	mu     sync.RWMutex
	byType map[Type][]Handler
	all    []Handler
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{byType: make(map[Type][]Handler)}
}

// Subscribe registers h for events of type t.
func (b *Bus) Subscribe(t Type, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.byType[t] = append(b.byType[t], h)
}

// SubscribeAll registers h for every event.
func (b *Bus) SubscribeAll(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, h)
}

// Publish delivers e to typed subscribers first, then to catch-all subscribers.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	typed := b.byType[e.Type]
	all := b.all
	b.mu.RUnlock()

	for _, h := range typed {
		h(e)
	}
	for _, h := range all {
		h(e)
	}
}

// Recorder collects events in memory. Used by tests and the battle runner.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Handle appends e. Pass it to Bus.SubscribeAll.
func (r *Recorder) Handle(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfType returns recorded events of type t.
func (r *Recorder) OfType(t Type) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
