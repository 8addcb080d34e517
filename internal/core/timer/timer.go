// Package timer tracks elapsed working time per actor. Each actor has at most
// one running session; stopping a session commits its whole elapsed seconds
// to the task in a single increment.
package timer

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hay-kot/criterio"
	"github.com/rs/zerolog"

	"github.com/colonyops/taskboard/internal/core/task"
	"github.com/colonyops/taskboard/internal/core/validate"
)

// DefaultTickInterval is how often running sessions report elapsed time.
const DefaultTickInterval = time.Second

// Session is an actor's running time accumulation on one task.
type Session struct {
	ID        string     `json:"id"`
	Actor     task.Actor `json:"actor"`
	TaskID    string     `json:"task_id"`
	StartedAt time.Time  `json:"started_at"`
}

// Stopped is the outcome of stopping a session.
type Stopped struct {
	Session   Session   `json:"session"`
	StoppedAt time.Time `json:"stopped_at"`
	Seconds   int64     `json:"seconds"`
	// Flushed is false when the task no longer existed at stop time.
	Flushed bool `json:"flushed"`
	// Total is the task's time spent after the flush.
	Total int64 `json:"total"`
}

// Tick reports the elapsed time of a running session.
type Tick struct {
	SessionID string        `json:"session_id"`
	Username  string        `json:"username"`
	TaskID    string        `json:"task_id"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Sink is the task store the tracker commits time into.
type Sink interface {
	Get(id string) (task.Task, error)
	AddTime(id string, seconds int64) (task.Task, error)
}

// Observer is notified of session lifecycle changes. Calls are made without
// the tracker lock held. Ticked runs on the session's goroutine and must not
// call back into the Tracker.
type Observer interface {
	SessionStarted(Session)
	SessionStopped(Stopped)
	SessionDiscarded(Session)
	Ticked(Tick)
}

type nopObserver struct{}

func (nopObserver) SessionStarted(Session)   {}
func (nopObserver) SessionStopped(Stopped)   {}
func (nopObserver) SessionDiscarded(Session) {}
func (nopObserver) Ticked(Tick)              {}

type running struct {
	Session
	cancel context.CancelFunc
	done   chan struct{}
}

// Tracker owns the per-actor session map.
type Tracker struct {
	mu       sync.Mutex
	sessions map[string]*running // keyed by username

	sink   Sink
	policy *task.Policy
	obs    Observer
	log    zerolog.Logger
	now    func() time.Time
	tick   time.Duration
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock sets the time source used for elapsed time.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithTickInterval sets how often running sessions emit ticks.
func WithTickInterval(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.tick = d
		}
	}
}

// WithObserver sets the lifecycle observer.
func WithObserver(o Observer) Option {
	return func(t *Tracker) {
		if o != nil {
			t.obs = o
		}
	}
}

// WithPolicy sets the policy deciding which roles may track time.
func WithPolicy(p *task.Policy) Option {
	return func(t *Tracker) { t.policy = p }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(t *Tracker) { t.log = l }
}

// New creates a tracker that commits time into sink.
func New(sink Sink, opts ...Option) *Tracker {
	t := &Tracker{
		sessions: make(map[string]*running),
		sink:     sink,
		policy:   task.DefaultPolicy(),
		obs:      nopObserver{},
		log:      zerolog.Nop(),
		now:      time.Now,
		tick:     DefaultTickInterval,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.log = t.log.With().Str("component", "timer").Logger()
	return t
}

// Start begins a session for actor on taskID. A running session on another
// task is stopped and flushed first; a running session on the same task is
// returned unchanged.
func (t *Tracker) Start(actor task.Actor, taskID string) (Session, error) {
	if err := checkActor(actor); err != nil {
		return Session{}, err
	}
	if err := t.policy.CheckTrackTime(actor.Role); err != nil {
		return Session{}, err
	}
	// Checked under t.mu so a concurrent delete either fails this lookup or
	// has its Discard serialized behind the insert below.
	t.mu.Lock()
	if _, err := t.sink.Get(taskID); err != nil {
		t.mu.Unlock()
		return Session{}, err
	}

	var prev *Stopped
	if cur, ok := t.sessions[actor.Username]; ok {
		if cur.TaskID == taskID {
			t.mu.Unlock()
			return cur.Session, nil
		}

		stopped, err := t.stopLocked(cur)
		if err != nil {
			t.mu.Unlock()
			return Session{}, fmt.Errorf("stop previous session: %w", err)
		}
		prev = &stopped
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &running{
		Session: Session{
			ID:        uuid.NewString(),
			Actor:     actor,
			TaskID:    taskID,
			StartedAt: t.now(),
		},
		cancel: cancel,
		done:   make(chan struct{}),
	}
	t.sessions[actor.Username] = r
	go t.run(ctx, r)

	t.mu.Unlock()

	if prev != nil {
		t.obs.SessionStopped(*prev)
	}
	t.obs.SessionStarted(r.Session)

	t.log.Debug().
		Str("user", actor.Username).
		Str("task_id", taskID).
		Str("session_id", r.ID).
		Msg("timer started")

	return r.Session, nil
}

// Stop ends the actor's session and commits its elapsed whole seconds. It
// reports false when the actor had no session.
func (t *Tracker) Stop(actor task.Actor) (Stopped, bool, error) {
	t.mu.Lock()
	cur, ok := t.sessions[actor.Username]
	if !ok {
		t.mu.Unlock()
		return Stopped{}, false, nil
	}

	stopped, err := t.stopLocked(cur)
	t.mu.Unlock()
	if err != nil {
		return Stopped{}, true, err
	}

	t.obs.SessionStopped(stopped)
	return stopped, true, nil
}

// stopLocked halts r, removes it and flushes its elapsed time. Callers hold t.mu.
func (t *Tracker) stopLocked(r *running) (Stopped, error) {
	delete(t.sessions, r.Actor.Username)
	r.halt()

	stoppedAt := t.now()
	stopped := Stopped{
		Session:   r.Session,
		StoppedAt: stoppedAt,
		Seconds:   wholeSeconds(stoppedAt.Sub(r.StartedAt)),
	}

	updated, err := t.sink.AddTime(r.TaskID, stopped.Seconds)
	switch {
	case errors.Is(err, task.ErrNotFound):
		t.log.Debug().Str("task_id", r.TaskID).Msg("task gone, dropping elapsed time")
		return stopped, nil
	case err != nil:
		return Stopped{}, fmt.Errorf("flush %d seconds to task %s: %w", stopped.Seconds, r.TaskID, err)
	}

	stopped.Flushed = true
	stopped.Total = updated.TimeSpent
	return stopped, nil
}

// Discard drops every session on taskID without committing any time.
func (t *Tracker) Discard(taskID string) []Session {
	t.mu.Lock()
	var dropped []*running
	for user, r := range t.sessions {
		if r.TaskID == taskID {
			delete(t.sessions, user)
			dropped = append(dropped, r)
		}
	}
	t.mu.Unlock()

	out := make([]Session, 0, len(dropped))
	for _, r := range dropped {
		r.halt()
		out = append(out, r.Session)
	}
	sortSessions(out)

	for _, s := range out {
		t.obs.SessionDiscarded(s)
	}
	return out
}

// AddManual adds minutes of work to taskID independent of any running
// session.
func (t *Tracker) AddManual(taskID string, minutes int, actor task.Actor) (task.Task, error) {
	if err := validate.MinutesField("minutes", minutes); err != nil {
		return task.Task{}, &task.ValidationError{Err: err}
	}
	if err := checkActor(actor); err != nil {
		return task.Task{}, err
	}
	if err := t.policy.CheckTrackTime(actor.Role); err != nil {
		return task.Task{}, err
	}

	return t.sink.AddTime(taskID, int64(minutes)*60)
}

// Active returns the actor's running session.
func (t *Tracker) Active(username string) (Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.sessions[username]
	if !ok {
		return Session{}, false
	}
	return r.Session, true
}

// Elapsed returns how long the actor's session has been running.
func (t *Tracker) Elapsed(username string) (time.Duration, bool) {
	s, ok := t.Active(username)
	if !ok {
		return 0, false
	}
	return t.now().Sub(s.StartedAt), true
}

// Sessions returns all running sessions, oldest first.
func (t *Tracker) Sessions() []Session {
	t.mu.Lock()
	out := make([]Session, 0, len(t.sessions))
	for _, r := range t.sessions {
		out = append(out, r.Session)
	}
	t.mu.Unlock()

	sortSessions(out)
	return out
}

// Close stops and flushes every running session.
func (t *Tracker) Close() ([]Stopped, error) {
	t.mu.Lock()
	all := make([]*running, 0, len(t.sessions))
	for _, r := range t.sessions {
		all = append(all, r)
	}

	var (
		out  []Stopped
		errs criterio.FieldErrorsBuilder
	)
	for _, r := range all {
		stopped, err := t.stopLocked(r)
		if err != nil {
			errs = errs.Append("session."+r.Actor.Username, err)
			continue
		}
		out = append(out, stopped)
	}
	t.mu.Unlock()

	slices.SortFunc(out, func(a, b Stopped) int {
		return a.Session.StartedAt.Compare(b.Session.StartedAt)
	})
	for _, s := range out {
		t.obs.SessionStopped(s)
	}
	return out, errs.ToError()
}

func (t *Tracker) run(ctx context.Context, r *running) {
	defer close(r.done)

	ticker := time.NewTicker(t.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			t.obs.Ticked(Tick{
				SessionID: r.ID,
				Username:  r.Actor.Username,
				TaskID:    r.TaskID,
				Elapsed:   t.now().Sub(r.StartedAt).Truncate(time.Second),
			})
		}
	}
}

// halt cancels the tick goroutine and waits for it to exit.
func (r *running) halt() {
	r.cancel()
	<-r.done
}

func wholeSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64(d / time.Second)
}

func sortSessions(s []Session) {
	slices.SortFunc(s, func(a, b Session) int {
		return a.StartedAt.Compare(b.StartedAt)
	})
}

func checkActor(a task.Actor) error {
	err := criterio.ValidateStruct(
		validate.UsernameField("actor.username", a.Username),
		roleField(a.Role),
	)
	if err != nil {
		return &task.ValidationError{Err: err}
	}
	return nil
}

func roleField(r task.Role) error {
	if !r.IsValid() {
		return criterio.NewFieldErrors("actor.role", fmt.Errorf("unknown role %q", r))
	}
	return nil
}
