package board

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/taskboard/internal/core/config"
	"github.com/colonyops/taskboard/internal/core/eventbus"
	"github.com/colonyops/taskboard/internal/core/task"
	"github.com/colonyops/taskboard/internal/core/timer"
)

// Snapshotter persists the full task list between runs. ok is false from
// Load when nothing has been saved yet.
type Snapshotter interface {
	Load(ctx context.Context) (tasks []task.Task, ok bool, err error)
	Save(ctx context.Context, tasks []task.Task) error
}

// App is the central entry point for all taskboard operations.
// Commands consume App instead of cherry-picking raw dependencies.
type App struct {
	Tasks  *TaskService
	Users  *task.Directory
	Config *config.Config
	Bus    *eventbus.EventBus

	store    *task.Store
	snapshot Snapshotter
	log      zerolog.Logger
	now      func() time.Time
}

// AppOption configures an App.
type AppOption func(*appOptions)

type appOptions struct {
	snapshot Snapshotter
	now      func() time.Time
}

// WithSnapshot sets the persistence backend. Without one the board lives
// only in memory.
func WithSnapshot(s Snapshotter) AppOption {
	return func(o *appOptions) { o.snapshot = s }
}

// WithAppClock sets the time source shared by the store, tracker and reports.
func WithAppClock(now func() time.Time) AppOption {
	return func(o *appOptions) { o.now = now }
}

// NewApp constructs an App from configuration.
func NewApp(cfg *config.Config, bus *eventbus.EventBus, log zerolog.Logger, opts ...AppOption) (*App, error) {
	o := appOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	policy, err := task.NewPolicy(cfg.PolicyOptions())
	if err != nil {
		return nil, fmt.Errorf("build policy: %w", err)
	}

	users := cfg.Directory()
	store := task.NewStore(
		task.WithPolicy(policy),
		task.WithResolver(users),
		task.WithClock(o.now),
	)
	tracker := timer.New(store,
		timer.WithPolicy(policy),
		timer.WithClock(o.now),
		timer.WithTickInterval(cfg.Timer.TickInterval),
		timer.WithObserver(NewTimerPublisher(bus)),
		timer.WithLogger(log),
	)

	svc := NewTaskService(store, tracker, bus, log)
	svc.now = o.now

	return &App{
		Tasks:    svc,
		Users:    users,
		Config:   cfg,
		Bus:      bus,
		store:    store,
		snapshot: o.snapshot,
		log:      log.With().Str("component", "app").Logger(),
		now:      o.now,
	}, nil
}

// Load restores the last snapshot. When there is none and sample seeding is
// enabled, the demo tasks are loaded instead.
func (a *App) Load(ctx context.Context) error {
	if a.snapshot != nil {
		tasks, ok, err := a.snapshot.Load(ctx)
		if err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
		if ok {
			if err := a.store.Restore(tasks); err != nil {
				return fmt.Errorf("restore snapshot: %w", err)
			}
			a.log.Debug().Int("tasks", len(tasks)).Msg("snapshot restored")
			return nil
		}
	}

	if a.Config.SeedSamples {
		if err := a.store.Restore(SampleTasks(a.now())); err != nil {
			return fmt.Errorf("seed samples: %w", err)
		}
		a.log.Debug().Msg("seeded sample tasks")
	}
	return nil
}

// Reload replaces the board with the latest snapshot. Unlike Load it never
// seeds samples; a missing snapshot leaves the board untouched.
func (a *App) Reload(ctx context.Context) error {
	if a.snapshot == nil {
		return nil
	}
	tasks, ok, err := a.snapshot.Load(ctx)
	if err != nil {
		return fmt.Errorf("reload snapshot: %w", err)
	}
	if !ok {
		return nil
	}
	if err := a.store.Restore(tasks); err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	return nil
}

// Save writes the current tasks to the snapshot, if one is configured.
func (a *App) Save(ctx context.Context) error {
	if a.snapshot == nil {
		return nil
	}
	if err := a.snapshot.Save(ctx, a.store.List()); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Close flushes running timers and saves the snapshot.
func (a *App) Close(ctx context.Context) error {
	return errors.Join(a.Tasks.Close(), a.Save(ctx))
}
