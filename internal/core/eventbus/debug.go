package eventbus

import (
	"fmt"

	"github.com/rs/zerolog"
)

// RegisterDebugLogger registers bus hooks that log all event activity at debug level.
// Uses OnPublish for event firing, OnDrop for buffer-full warnings, and OnPanic
// for subscriber panic reporting. Timer ticks are skipped on publish since
// they fire every interval.
func RegisterDebugLogger(bus *EventBus, logger zerolog.Logger) {
	bus.OnPublish(func(event Event, payload any) {
		if event == EventTimerTick {
			return
		}
		logger.Debug().
			Str("event", string(event)).
			Str("task_id", taskID(payload)).
			Msg("event fired")
	})

	bus.OnDrop(func(event Event, payload any) {
		logger.Warn().
			Str("event", string(event)).
			Str("task_id", taskID(payload)).
			Msg("event dropped: buffer full")
	})

	bus.OnPanic(func(event Event, _ any, recovered any) {
		logger.Error().
			Str("event", string(event)).
			Str("panic", fmt.Sprint(recovered)).
			Msg("subscriber panicked")
	})
}

// taskID extracts the task a payload refers to, or "" when it has none.
func taskID(payload any) string {
	switch p := payload.(type) {
	case TaskCreatedPayload:
		if p.Task != nil {
			return p.Task.ID
		}
	case TaskUpdatedPayload:
		if p.Task != nil {
			return p.Task.ID
		}
	case TaskStatusChangedPayload:
		if p.Task != nil {
			return p.Task.ID
		}
	case TaskDeletedPayload:
		return p.TaskID
	case TaskTimeAddedPayload:
		return p.TaskID
	case TimerStartedPayload:
		return p.Session.TaskID
	case TimerStoppedPayload:
		return p.Result.Session.TaskID
	case TimerDiscardedPayload:
		return p.Session.TaskID
	case TimerTickPayload:
		return p.Tick.TaskID
	}
	return ""
}
