// Package board coordinates the task store, the time tracker and the event
// bus behind a single service that commands consume.
package board

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/taskboard/internal/core/eventbus"
	"github.com/colonyops/taskboard/internal/core/logging"
	"github.com/colonyops/taskboard/internal/core/task"
	"github.com/colonyops/taskboard/internal/core/timer"
)

// TaskService wraps task.Store and timer.Tracker with event publishing and
// the rules that span both.
type TaskService struct {
	store   *task.Store
	tracker *timer.Tracker
	bus     *eventbus.EventBus
	log     zerolog.Logger
	now     func() time.Time
}

// NewTaskService creates a new TaskService. The tracker should publish its
// session events through NewTimerPublisher(bus).
func NewTaskService(store *task.Store, tracker *timer.Tracker, bus *eventbus.EventBus, log zerolog.Logger) *TaskService {
	return &TaskService{
		store:   store,
		tracker: tracker,
		bus:     bus,
		log:     log.With().Str("component", "task-service").Logger(),
		now:     time.Now,
	}
}

// Policy returns the capability policy in force.
func (s *TaskService) Policy() *task.Policy {
	return s.store.Policy()
}

// Create adds a task. An empty assignee defaults to the acting user.
func (s *TaskService) Create(ctx context.Context, actor task.Actor, d task.Draft) (task.Task, error) {
	if d.Assignee == "" {
		d.Assignee = actor.Username
	}

	created, err := s.store.Create(d, actor)
	if err != nil {
		return task.Task{}, fmt.Errorf("create task: %w", err)
	}

	s.logger(ctx, actor).Info().Str("task_id", created.ID).Msg("task created")
	s.bus.PublishTaskCreated(eventbus.TaskCreatedPayload{Task: &created, Actor: actor})

	return created, nil
}

// Update applies a patch. A status change is published separately from the
// generic update event.
func (s *TaskService) Update(ctx context.Context, actor task.Actor, id string, p task.Patch) (task.Task, error) {
	updated, from, err := s.store.UpdateFrom(id, p, actor)
	if err != nil {
		return task.Task{}, fmt.Errorf("update task %s: %w", id, err)
	}
	if p.IsEmpty() {
		return updated, nil
	}

	log := s.logger(ctx, actor)
	s.bus.PublishTaskUpdated(eventbus.TaskUpdatedPayload{Task: &updated, Actor: actor})

	if updated.Status != from {
		log.Info().
			Str("task_id", id).
			Str("from", string(from)).
			Str("to", string(updated.Status)).
			Msg("task status changed")

		s.bus.PublishTaskStatusChanged(eventbus.TaskStatusChangedPayload{
			Task:  &updated,
			From:  from,
			To:    updated.Status,
			Actor: actor,
		})
	} else {
		log.Debug().Str("task_id", id).Msg("task updated")
	}

	return updated, nil
}

// SetStatus moves a task to status.
func (s *TaskService) SetStatus(ctx context.Context, actor task.Actor, id string, status task.Status) (task.Task, error) {
	return s.Update(ctx, actor, id, task.Patch{Status: &status})
}

// Delete removes a task and discards every timer session running on it.
func (s *TaskService) Delete(ctx context.Context, actor task.Actor, id string) error {
	if err := s.store.Delete(id, actor); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}

	dropped := s.tracker.Discard(id)

	s.logger(ctx, actor).Info().
		Str("task_id", id).
		Int("discarded_sessions", len(dropped)).
		Msg("task deleted")
	s.bus.PublishTaskDeleted(eventbus.TaskDeletedPayload{TaskID: id, Actor: actor})

	return nil
}

// Get returns a task regardless of the actor's scope.
func (s *TaskService) Get(id string) (task.Task, error) {
	return s.store.Get(id)
}

// Show returns a task if it is visible to actor.
func (s *TaskService) Show(actor task.Actor, id string) (task.Task, error) {
	t, err := s.store.Get(id)
	if err != nil {
		return task.Task{}, err
	}
	if len(task.Scope([]task.Task{t}, actor)) == 0 {
		return task.Task{}, &task.NotFoundError{ID: id}
	}
	return t, nil
}

// Capability reports what actor may do with the task.
func (s *TaskService) Capability(actor task.Actor, id string) (task.Capability, error) {
	t, err := s.Show(actor, id)
	if err != nil {
		return task.Capability{}, err
	}
	return s.store.Policy().Capability(actor.Role, t.Status), nil
}

// List returns the tasks visible to actor after applying q.
func (s *TaskService) List(actor task.Actor, q task.Query) []task.Task {
	return task.View(s.store.List(), actor, q)
}

// All returns every task in insertion order, unscoped.
func (s *TaskService) All() []task.Task {
	return s.store.List()
}

// Stats summarises the tasks visible to actor.
func (s *TaskService) Stats(actor task.Actor) task.Stats {
	return task.ComputeStats(s.store.List(), actor)
}

// Report builds the creation trend and time ranking for actor.
func (s *TaskService) Report(actor task.Actor, opts task.ReportOptions) task.Report {
	return task.BuildReport(s.store.List(), actor, s.now(), opts)
}

// StartTimer starts the actor's session on a task.
func (s *TaskService) StartTimer(ctx context.Context, actor task.Actor, id string) (timer.Session, error) {
	sess, err := s.tracker.Start(actor, id)
	if err != nil {
		return timer.Session{}, fmt.Errorf("start timer on %s: %w", id, err)
	}
	s.logger(ctx, actor).Debug().Str("task_id", id).Str("session_id", sess.ID).Msg("timer running")
	return sess, nil
}

// StopTimer stops the actor's session. Stopping without a session is a no-op
// that reports false.
func (s *TaskService) StopTimer(ctx context.Context, actor task.Actor) (timer.Stopped, bool, error) {
	stopped, ok, err := s.tracker.Stop(actor)
	if err != nil {
		return timer.Stopped{}, ok, fmt.Errorf("stop timer: %w", err)
	}
	if ok {
		s.logger(ctx, actor).Info().
			Str("task_id", stopped.Session.TaskID).
			Int64("seconds", stopped.Seconds).
			Bool("flushed", stopped.Flushed).
			Msg("timer stopped")
	}
	return stopped, ok, nil
}

// ActiveTimer returns the actor's running session and its elapsed time.
func (s *TaskService) ActiveTimer(actor task.Actor) (timer.Session, time.Duration, bool) {
	sess, ok := s.tracker.Active(actor.Username)
	if !ok {
		return timer.Session{}, 0, false
	}
	elapsed, _ := s.tracker.Elapsed(actor.Username)
	return sess, elapsed, true
}

// AddManualTime adds minutes of work to a task.
func (s *TaskService) AddManualTime(ctx context.Context, actor task.Actor, id string, minutes int) (task.Task, error) {
	updated, err := s.tracker.AddManual(id, minutes, actor)
	if err != nil {
		return task.Task{}, fmt.Errorf("add time to %s: %w", id, err)
	}

	s.logger(ctx, actor).Info().Str("task_id", id).Int("minutes", minutes).Msg("manual time added")
	s.bus.PublishTaskTimeAdded(eventbus.TaskTimeAddedPayload{
		TaskID:  id,
		Seconds: int64(minutes) * 60,
		Total:   updated.TimeSpent,
		Source:  eventbus.TimeSourceManual,
		Actor:   actor,
	})

	return updated, nil
}

// Import creates every draft in order, stopping at the first failure. The
// tasks created before the failure are kept and returned.
func (s *TaskService) Import(ctx context.Context, actor task.Actor, drafts []task.Draft) ([]task.Task, error) {
	out := make([]task.Task, 0, len(drafts))
	for i, d := range drafts {
		created, err := s.Create(ctx, actor, d)
		if err != nil {
			return out, fmt.Errorf("import draft %d: %w", i, err)
		}
		out = append(out, created)
	}
	return out, nil
}

// Close stops and flushes every running timer session.
func (s *TaskService) Close() error {
	stopped, err := s.tracker.Close()
	if len(stopped) > 0 {
		s.log.Info().Int("sessions", len(stopped)).Msg("flushed running timers")
	}
	return err
}

func (s *TaskService) logger(ctx context.Context, actor task.Actor) *zerolog.Logger {
	ctx = logging.WithActor(ctx, actor.Username, string(actor.Role))
	l := s.log.With().Ctx(ctx).Logger()
	return &l
}
