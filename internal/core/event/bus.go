package event

import (
	"reflect"
	"sync"
)

type queued struct {
	t  reflect.Type
	ev any
}

// Bus is a typed, synchronous event bus. Publish delivers immediately.
// Emit queues into the back buffer; Flush swaps buffers and delivers the
// front in emission order, so events emitted by handlers during a Flush
// wait for the next one.
type Bus struct {
	mu       sync.RWMutex // only protects handler registration
	front    []queued
	back     []queued
	handlers map[reflect.Type][]func(any)
}

func NewBus() *Bus {
	return &Bus{
		front:    make([]queued, 0, 64),
		back:     make([]queued, 0, 64),
		handlers: make(map[reflect.Type][]func(any)),
	}
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := typeOf[T]()
	b.handlers[t] = append(b.handlers[t], func(ev any) { fn(ev.(T)) })
}

// Publish delivers event to every handler of T before returning.
func Publish[T any](b *Bus, event T) {
	b.deliver(typeOf[T](), event)
}

// Emit queues an event for the next Flush.
func Emit[T any](b *Bus, event T) {
	b.back = append(b.back, queued{t: typeOf[T](), ev: event})
}

// Pending returns the number of queued events.
func (b *Bus) Pending() int { return len(b.back) }

// Flush delivers all queued events. Returns how many were delivered.
func (b *Bus) Flush() int {
	b.front, b.back = b.back, b.front[:0]
	for _, q := range b.front {
		b.deliver(q.t, q.ev)
	}
	n := len(b.front)
	b.front = b.front[:0]
	return n
}

func (b *Bus) deliver(t reflect.Type, ev any) {
	b.mu.RLock()
	handlers := b.handlers[t]
	b.mu.RUnlock()
	for _, h := range handlers {
		h(ev)
	}
}
