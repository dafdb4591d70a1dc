package events

import (
	"log/slog"
	"sync"
)

type Handler func(Event)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus delivers events synchronously, in subscription order, on the caller's
// goroutine. Handlers run outside the bus lock so they may emit or subscribe.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[Kind][]subscription
	log    *slog.Logger
}

func NewBus(log *slog.Logger) *Bus {
	return &Bus{
		subs: make(map[Kind][]subscription),
		log:  log,
	}
}

// On registers handler for kind and returns a function that removes it.
func (b *Bus) On(kind Kind, handler Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[kind] = append(b.subs[kind], subscription{id: id, handler: handler})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.off(kind, id) })
	}
}

func (b *Bus) off(kind Kind, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[kind]
	for i, s := range subs {
		if s.id == id {
			b.subs[kind] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Emit calls every handler registered for the event's kind. A panicking
// handler is logged and does not stop delivery to the others.
func (b *Bus) Emit(ev Event) {
	b.mu.RLock()
	subs := append([]subscription(nil), b.subs[ev.Kind()]...)
	b.mu.RUnlock()

	for _, s := range subs {
		b.dispatch(ev, s.handler)
	}
}

func (b *Bus) dispatch(ev Event, h Handler) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked", "event", ev.Kind().String(), "panic", r)
		}
	}()
	h(ev)
}

// Clear drops every subscription.
func (b *Bus) Clear() {
	b.mu.Lock()
	b.subs = make(map[Kind][]subscription)
	b.mu.Unlock()
}

// Subscribe registers a handler typed on the payload. The kind is taken from
// the zero value of T.
func Subscribe[T Event](b *Bus, fn func(T)) func() {
	var zero T
	return b.On(zero.Kind(), func(ev Event) {
		if typed, ok := ev.(T); ok {
			fn(typed)
		}
	})
}
