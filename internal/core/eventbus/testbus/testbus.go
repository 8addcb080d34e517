// Package testbus runs a real EventBus for tests and records what it
// dispatches.
package testbus

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/colonyops/taskboard/internal/core/eventbus"
)

const poll = 5 * time.Millisecond

type record struct {
	event   eventbus.Event
	payload any
}

// Bus is a running EventBus plus a log of every dispatched event.
type Bus struct {
	*eventbus.EventBus

	mu  sync.Mutex
	log []record
}

// New starts a bus that is stopped by t.Cleanup.
func New(t *testing.T) *Bus {
	t.Helper()

	tb := &Bus{EventBus: eventbus.New(64)}
	listen(tb, eventbus.EventTaskCreated, tb.SubscribeTaskCreated)
	listen(tb, eventbus.EventTaskUpdated, tb.SubscribeTaskUpdated)
	listen(tb, eventbus.EventTaskStatusChanged, tb.SubscribeTaskStatusChanged)
	listen(tb, eventbus.EventTaskDeleted, tb.SubscribeTaskDeleted)
	listen(tb, eventbus.EventTaskTimeAdded, tb.SubscribeTaskTimeAdded)
	listen(tb, eventbus.EventTimerStarted, tb.SubscribeTimerStarted)
	listen(tb, eventbus.EventTimerStopped, tb.SubscribeTimerStopped)
	listen(tb, eventbus.EventTimerDiscarded, tb.SubscribeTimerDiscarded)
	listen(tb, eventbus.EventTimerTick, tb.SubscribeTimerTick)

	ctx, cancel := context.WithCancel(context.Background())
	go tb.Start(ctx)
	t.Cleanup(cancel)
	return tb
}

func listen[T any](tb *Bus, event eventbus.Event, subscribe func(func(T))) {
	subscribe(func(p T) {
		tb.mu.Lock()
		tb.log = append(tb.log, record{event: event, payload: p})
		tb.mu.Unlock()
	})
}

func (tb *Bus) snapshot() []record {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return slices.Clone(tb.log)
}

// Count reports how many events of the given type have been dispatched.
func (tb *Bus) Count(event eventbus.Event) int {
	n := 0
	for _, r := range tb.snapshot() {
		if r.event == event {
			n++
		}
	}
	return n
}

// Payloads returns the dispatched payloads for event in order.
func Payloads[T any](tb *Bus, event eventbus.Event) []T {
	var out []T
	for _, r := range tb.snapshot() {
		if p, ok := r.payload.(T); ok && r.event == event {
			out = append(out, p)
		}
	}
	return out
}

// WaitFor polls until event has been dispatched or timeout passes.
func (tb *Bus) WaitFor(event eventbus.Event, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if tb.Count(event) > 0 {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(poll)
	}
}

func (tb *Bus) AssertPublished(t *testing.T, event eventbus.Event) {
	t.Helper()
	assert.Eventually(t, func() bool { return tb.Count(event) > 0 },
		500*time.Millisecond, poll, "event %q was never dispatched", event)
}

// AssertNotPublished fails if event is dispatched at any point during wait.
func (tb *Bus) AssertNotPublished(t *testing.T, event eventbus.Event, wait time.Duration) {
	t.Helper()
	assert.Never(t, func() bool { return tb.Count(event) > 0 },
		wait, poll, "event %q was dispatched", event)
}
