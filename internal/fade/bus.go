package fade

import "sync"

// ScrollEvent is one scroll notification from the host.
type ScrollEvent struct {
	Layout Layout
}

// Handler receives scroll notifications.
type Handler func(ScrollEvent)

// Source delivers scroll notifications to subscribed handlers.
type Source interface {
	Subscribe(h Handler) (cancel func())
}

// Bus is an in-process Source. Dispatch calls every subscriber for every
// event, in subscription order, without throttling.
type Bus struct {
	mu       sync.Mutex
	next     uint64
	order    []uint64
	handlers map[uint64]Handler
}

var _ Source = (*Bus)(nil)

func NewBus() *Bus {
	return &Bus{handlers: map[uint64]Handler{}}
}

// Subscribe registers h. The returned cancel func is safe to call more than once.
func (b *Bus) Subscribe(h Handler) (cancel func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.handlers[id] = h
	b.order = append(b.order, id)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.handlers, id)
			for i, v := range b.order {
				if v == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Dispatch delivers ev to the current subscribers and returns how many were notified.
func (b *Bus) Dispatch(ev ScrollEvent) int {
	b.mu.Lock()
	handlers := make([]Handler, 0, len(b.order))
	for _, id := range b.order {
		handlers = append(handlers, b.handlers[id])
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
	return len(handlers)
}

// Len returns the number of subscribers.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers)
}
