// Package eventbus provides a typed publish/subscribe event bus for
// cross-component communication within taskboard.
package eventbus

import (
	"github.com/colonyops/taskboard/internal/core/task"
	"github.com/colonyops/taskboard/internal/core/timer"
)

// Events defines all event types and their payload structs. bus.go carries a
// typed Publish/Subscribe pair for every entry.
var Events = map[string]any{
	// Keep list sorted A-Z
	"task.created":        TaskCreatedPayload{},
	"task.deleted":        TaskDeletedPayload{},
	"task.status-changed": TaskStatusChangedPayload{},
	"task.time-added":     TaskTimeAddedPayload{},
	"task.updated":        TaskUpdatedPayload{},
	"timer.discarded":     TimerDiscardedPayload{},
	"timer.started":       TimerStartedPayload{},
	"timer.stopped":       TimerStoppedPayload{},
	"timer.tick":          TimerTickPayload{},
}

// TaskCreatedPayload is emitted when a task is created.
type TaskCreatedPayload struct {
	Task  *task.Task
	Actor task.Actor
}

// TaskUpdatedPayload is emitted after any successful update, including
// status-only updates.
type TaskUpdatedPayload struct {
	Task  *task.Task
	Actor task.Actor
}

// TaskStatusChangedPayload is emitted when an update moved a task to a new status.
type TaskStatusChangedPayload struct {
	Task  *task.Task
	From  task.Status
	To    task.Status
	Actor task.Actor
}

// TaskDeletedPayload is emitted when a task is deleted.
type TaskDeletedPayload struct {
	TaskID string
	Actor  task.Actor
}

// TimeSource identifies where recorded time came from.
type TimeSource string

const (
	TimeSourceTimer  TimeSource = "timer"
	TimeSourceManual TimeSource = "manual"
)

// TaskTimeAddedPayload is emitted when seconds are committed to a task.
type TaskTimeAddedPayload struct {
	TaskID  string
	Seconds int64
	Total   int64
	Source  TimeSource
	Actor   task.Actor
}

// TimerStartedPayload is emitted when an actor starts a timer session.
type TimerStartedPayload struct {
	Session timer.Session
}

// TimerStoppedPayload is emitted when a session is stopped and flushed.
type TimerStoppedPayload struct {
	Result timer.Stopped
}

// TimerDiscardedPayload is emitted when a session is dropped without flushing.
type TimerDiscardedPayload struct {
	Session timer.Session
}

// TimerTickPayload is emitted at the tick interval while a session runs.
type TimerTickPayload struct {
	Tick timer.Tick
}
