package realtime

import (
	"sync"
)

// Handler receives events. Handlers run on the publisher's goroutine and
// must not block.
type Handler func(Event)

// Subscription is the handle returned by Subscribe. Releasing it removes
// exactly the handler it registered.
type Subscription struct {
	bus  *Bus
	name string
	id   uint64
	once sync.Once
}

// Name is the event the subscription listens for.
func (s *Subscription) Name() string {
	return s.name
}

// Release removes the handler. It is safe to call more than once.
func (s *Subscription) Release() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		s.bus.remove(s.name, s.id)
	})
}

type entry struct {
	id uint64
	h  Handler
}

// Bus is a registry of handlers keyed by event name, delivered in
// subscription order.
type Bus struct {
	mu       sync.RWMutex
	next     uint64
	handlers map[string][]entry
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]entry)}
}

func (b *Bus) Subscribe(name string, h Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	b.handlers[name] = append(b.handlers[name], entry{id: b.next, h: h})
	return &Subscription{bus: b, name: name, id: b.next}
}

func (b *Bus) Unsubscribe(sub *Subscription) {
	sub.Release()
}

func (b *Bus) remove(name string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.handlers[name]
	for i, e := range list {
		if e.id == id {
			b.handlers[name] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(b.handlers[name]) == 0 {
		delete(b.handlers, name)
	}
}

// Publish delivers ev to a snapshot of the current handlers, so a handler
// may release its own subscription while running.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	list := append([]entry(nil), b.handlers[ev.Name]...)
	b.mu.RUnlock()
	for _, e := range list {
		e.h(ev)
	}
}

// Count returns the number of handlers registered for name.
func (b *Bus) Count(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[name])
}

// Total returns the number of handlers across all names.
func (b *Bus) Total() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, list := range b.handlers {
		n += len(list)
	}
	return n
}
