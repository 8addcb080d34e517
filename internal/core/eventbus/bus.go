package eventbus

import (
	"context"
	"sync"
)

// Event is the name of an event type.
type Event string

const (
	EventTaskCreated       Event = "task.created"
	EventTaskDeleted       Event = "task.deleted"
	EventTaskStatusChanged Event = "task.status-changed"
	EventTaskTimeAdded     Event = "task.time-added"
	EventTaskUpdated       Event = "task.updated"
	EventTimerDiscarded    Event = "timer.discarded"
	EventTimerStarted      Event = "timer.started"
	EventTimerStopped      Event = "timer.stopped"
	EventTimerTick         Event = "timer.tick"
)

type envelope struct {
	event   Event
	payload any
}

// EventBus fans published events out to subscribers on a single dispatch
// goroutine. Publishing never blocks: when the buffer is full the event is
// dropped and the OnDrop hooks fire.
type EventBus struct {
	ch    chan envelope
	hooks hooks

	mu   sync.RWMutex
	subs map[Event][]func(any)
}

// New creates a bus with the given buffer size. Call Start to begin dispatching.
func New(buffer int) *EventBus {
	if buffer < 1 {
		buffer = 1
	}
	return &EventBus{
		ch:   make(chan envelope, buffer),
		subs: make(map[Event][]func(any)),
	}
}

// Start dispatches events until ctx is cancelled.
func (bus *EventBus) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-bus.ch:
			bus.dispatch(env)
		}
	}
}

// Drain dispatches every queued event on the calling goroutine. Used at
// shutdown after the dispatch loop has stopped.
func (bus *EventBus) Drain() {
	for {
		select {
		case env := <-bus.ch:
			bus.dispatch(env)
		default:
			return
		}
	}
}

func (bus *EventBus) dispatch(env envelope) {
	bus.mu.RLock()
	subs := make([]func(any), len(bus.subs[env.event]))
	copy(subs, bus.subs[env.event])
	bus.mu.RUnlock()

	for _, fn := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					bus.notifyPanic(env.event, env.payload, r)
				}
			}()
			fn(env.payload)
		}()
	}
}

func (bus *EventBus) subscribe(event Event, fn func(any)) {
	bus.mu.Lock()
	bus.subs[event] = append(bus.subs[event], fn)
	bus.mu.Unlock()

	bus.notifySubscribed(event)
}

func subscribeTyped[T any](bus *EventBus, event Event, fn func(T)) {
	bus.subscribe(event, func(payload any) {
		if p, ok := payload.(T); ok {
			fn(p)
		}
	})
}

// PublishTaskCreated publishes a task.created event.
func (bus *EventBus) PublishTaskCreated(p TaskCreatedPayload) {
	bus.send(EventTaskCreated, p)
}

// SubscribeTaskCreated registers fn for task.created events.
func (bus *EventBus) SubscribeTaskCreated(fn func(TaskCreatedPayload)) {
	subscribeTyped(bus, EventTaskCreated, fn)
}

// PublishTaskDeleted publishes a task.deleted event.
func (bus *EventBus) PublishTaskDeleted(p TaskDeletedPayload) {
	bus.send(EventTaskDeleted, p)
}

// SubscribeTaskDeleted registers fn for task.deleted events.
func (bus *EventBus) SubscribeTaskDeleted(fn func(TaskDeletedPayload)) {
	subscribeTyped(bus, EventTaskDeleted, fn)
}

// PublishTaskStatusChanged publishes a task.status-changed event.
func (bus *EventBus) PublishTaskStatusChanged(p TaskStatusChangedPayload) {
	bus.send(EventTaskStatusChanged, p)
}

// SubscribeTaskStatusChanged registers fn for task.status-changed events.
func (bus *EventBus) SubscribeTaskStatusChanged(fn func(TaskStatusChangedPayload)) {
	subscribeTyped(bus, EventTaskStatusChanged, fn)
}

// PublishTaskTimeAdded publishes a task.time-added event.
func (bus *EventBus) PublishTaskTimeAdded(p TaskTimeAddedPayload) {
	bus.send(EventTaskTimeAdded, p)
}

// SubscribeTaskTimeAdded registers fn for task.time-added events.
func (bus *EventBus) SubscribeTaskTimeAdded(fn func(TaskTimeAddedPayload)) {
	subscribeTyped(bus, EventTaskTimeAdded, fn)
}

// PublishTaskUpdated publishes a task.updated event.
func (bus *EventBus) PublishTaskUpdated(p TaskUpdatedPayload) {
	bus.send(EventTaskUpdated, p)
}

// SubscribeTaskUpdated registers fn for task.updated events.
func (bus *EventBus) SubscribeTaskUpdated(fn func(TaskUpdatedPayload)) {
	subscribeTyped(bus, EventTaskUpdated, fn)
}

// PublishTimerDiscarded publishes a timer.discarded event.
func (bus *EventBus) PublishTimerDiscarded(p TimerDiscardedPayload) {
	bus.send(EventTimerDiscarded, p)
}

// SubscribeTimerDiscarded registers fn for timer.discarded events.
func (bus *EventBus) SubscribeTimerDiscarded(fn func(TimerDiscardedPayload)) {
	subscribeTyped(bus, EventTimerDiscarded, fn)
}

// PublishTimerStarted publishes a timer.started event.
func (bus *EventBus) PublishTimerStarted(p TimerStartedPayload) {
	bus.send(EventTimerStarted, p)
}

// SubscribeTimerStarted registers fn for timer.started events.
func (bus *EventBus) SubscribeTimerStarted(fn func(TimerStartedPayload)) {
	subscribeTyped(bus, EventTimerStarted, fn)
}

// PublishTimerStopped publishes a timer.stopped event.
func (bus *EventBus) PublishTimerStopped(p TimerStoppedPayload) {
	bus.send(EventTimerStopped, p)
}

// SubscribeTimerStopped registers fn for timer.stopped events.
func (bus *EventBus) SubscribeTimerStopped(fn func(TimerStoppedPayload)) {
	subscribeTyped(bus, EventTimerStopped, fn)
}

// PublishTimerTick publishes a timer.tick event.
func (bus *EventBus) PublishTimerTick(p TimerTickPayload) {
	bus.send(EventTimerTick, p)
}

// SubscribeTimerTick registers fn for timer.tick events.
func (bus *EventBus) SubscribeTimerTick(fn func(TimerTickPayload)) {
	subscribeTyped(bus, EventTimerTick, fn)
}
