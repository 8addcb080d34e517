package eventbus

import (
	"slices"
	"sync"
)

// hookList is an append-only set of observer callbacks. Callers iterate over
// a copy so a hook may register further hooks without deadlocking.
type hookList[F any] struct {
	mu  sync.RWMutex
	fns []F
}

func (l *hookList[F]) add(fn F) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fns = append(l.fns, fn)
}

func (l *hookList[F]) list() []F {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.fns)
}

type hooks struct {
	published  hookList[func(Event, any)]
	dropped    hookList[func(Event, any)]
	subscribed hookList[func(Event)]
	panicked   hookList[func(Event, any, any)]
}

// OnPublish is called with every event accepted into the buffer.
func (bus *EventBus) OnPublish(fn func(Event, any)) { bus.hooks.published.add(fn) }

// OnDrop is called with every event rejected because the buffer was full.
func (bus *EventBus) OnDrop(fn func(Event, any)) { bus.hooks.dropped.add(fn) }

// OnSubscribe is called each time a subscriber registers for an event.
func (bus *EventBus) OnSubscribe(fn func(Event)) { bus.hooks.subscribed.add(fn) }

// OnPanic is called with the recovered value when a subscriber panics.
// A panic inside the hook itself is swallowed.
func (bus *EventBus) OnPanic(fn func(Event, any, any)) { bus.hooks.panicked.add(fn) }

// send enqueues without blocking.
func (bus *EventBus) send(event Event, payload any) {
	observers := &bus.hooks.published
	select {
	case bus.ch <- envelope{event: event, payload: payload}:
	default:
		observers = &bus.hooks.dropped
	}
	for _, fn := range observers.list() {
		fn(event, payload)
	}
}

func (bus *EventBus) notifySubscribed(event Event) {
	for _, fn := range bus.hooks.subscribed.list() {
		fn(event)
	}
}

func (bus *EventBus) notifyPanic(event Event, payload, recovered any) {
	for _, fn := range bus.hooks.panicked.list() {
		func() {
			defer func() { _ = recover() }()
			fn(event, payload, recovered)
		}()
	}
}
