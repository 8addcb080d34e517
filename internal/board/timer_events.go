package board

import (
	"github.com/colonyops/taskboard/internal/core/eventbus"
	"github.com/colonyops/taskboard/internal/core/timer"
)

// TimerPublisher forwards tracker lifecycle changes to the event bus.
type TimerPublisher struct {
	bus *eventbus.EventBus
}

var _ timer.Observer = (*TimerPublisher)(nil)

// NewTimerPublisher returns an observer that publishes to bus.
func NewTimerPublisher(bus *eventbus.EventBus) *TimerPublisher {
	return &TimerPublisher{bus: bus}
}

func (p *TimerPublisher) SessionStarted(s timer.Session) {
	p.bus.PublishTimerStarted(eventbus.TimerStartedPayload{Session: s})
}

// SessionStopped also reports the committed seconds as a time-added event
// when the flush reached the task.
func (p *TimerPublisher) SessionStopped(s timer.Stopped) {
	p.bus.PublishTimerStopped(eventbus.TimerStoppedPayload{Result: s})

	if s.Flushed && s.Seconds > 0 {
		p.bus.PublishTaskTimeAdded(eventbus.TaskTimeAddedPayload{
			TaskID:  s.Session.TaskID,
			Seconds: s.Seconds,
			Total:   s.Total,
			Source:  eventbus.TimeSourceTimer,
			Actor:   s.Session.Actor,
		})
	}
}

func (p *TimerPublisher) SessionDiscarded(s timer.Session) {
	p.bus.PublishTimerDiscarded(eventbus.TimerDiscardedPayload{Session: s})
}

func (p *TimerPublisher) Ticked(t timer.Tick) {
	p.bus.PublishTimerTick(eventbus.TimerTickPayload{Tick: t})
}
