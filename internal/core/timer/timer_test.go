package timer

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/taskboard/internal/core/task"
)

var (
	alice = task.Actor{Username: "alice", Role: task.RoleDeveloper}
	carol = task.Actor{Username: "carol", Role: task.RoleDeveloper}
	bob   = task.Actor{Username: "bob", Role: task.RoleManager}
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recorder struct {
	mu        sync.Mutex
	started   []Session
	stopped   []Stopped
	discarded []Session
	ticks     []Tick
}

func (r *recorder) SessionStarted(s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, s)
}

func (r *recorder) SessionStopped(s Stopped) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = append(r.stopped, s)
}

func (r *recorder) SessionDiscarded(s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.discarded = append(r.discarded, s)
}

func (r *recorder) Ticked(t Tick) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks = append(r.ticks, t)
}

func (r *recorder) tickCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ticks)
}

type fixture struct {
	store   *task.Store
	clock   *fakeClock
	obs     *recorder
	tracker *Tracker
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	clock := &fakeClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	store := task.NewStore(task.WithClock(clock.Now))
	obs := &recorder{}

	opts = append([]Option{
		WithClock(clock.Now),
		WithObserver(obs),
		WithTickInterval(time.Hour),
	}, opts...)

	tr := New(store, opts...)
	t.Cleanup(func() { _, _ = tr.Close() })

	return &fixture{store: store, clock: clock, obs: obs, tracker: tr}
}

func (f *fixture) createTask(t *testing.T, assignee string) task.Task {
	t.Helper()
	created, err := f.store.Create(task.Draft{Title: "t", Description: "d", Assignee: assignee}, alice)
	require.NoError(t, err)
	return created
}

func (f *fixture) timeSpent(t *testing.T, id string) int64 {
	t.Helper()
	got, err := f.store.Get(id)
	require.NoError(t, err)
	return got.TimeSpent
}

func TestTracker_StartStop(t *testing.T) {
	f := newFixture(t)
	tk := f.createTask(t, "alice")

	sess, err := f.tracker.Start(alice, tk.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, tk.ID, sess.TaskID)
	assert.Equal(t, f.clock.Now(), sess.StartedAt)

	f.clock.Advance(5 * time.Second)

	stopped, ok, err := f.tracker.Stop(alice)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(5), stopped.Seconds)
	assert.True(t, stopped.Flushed)
	assert.Equal(t, int64(5), stopped.Total)
	assert.Equal(t, int64(5), f.timeSpent(t, tk.ID))

	_, active := f.tracker.Active("alice")
	assert.False(t, active)

	require.Len(t, f.obs.started, 1)
	require.Len(t, f.obs.stopped, 1)
}

func TestTracker_StopWithoutSession(t *testing.T) {
	f := newFixture(t)

	_, ok, err := f.tracker.Stop(alice)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, f.obs.stopped)
}

func TestTracker_StartSameTaskKeepsSession(t *testing.T) {
	f := newFixture(t)
	tk := f.createTask(t, "alice")

	first, err := f.tracker.Start(alice, tk.ID)
	require.NoError(t, err)
	f.clock.Advance(3 * time.Second)

	second, err := f.tracker.Start(alice, tk.ID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(0), f.timeSpent(t, tk.ID))
}

func TestTracker_StartOtherTaskFlushesPrevious(t *testing.T) {
	f := newFixture(t)
	first := f.createTask(t, "alice")
	second := f.createTask(t, "alice")

	_, err := f.tracker.Start(alice, first.ID)
	require.NoError(t, err)
	f.clock.Advance(7 * time.Second)

	sess, err := f.tracker.Start(alice, second.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, sess.TaskID)
	assert.Equal(t, int64(7), f.timeSpent(t, first.ID))

	f.clock.Advance(2 * time.Second)
	_, _, err = f.tracker.Stop(alice)
	require.NoError(t, err)

	assert.Equal(t, int64(7), f.timeSpent(t, first.ID))
	assert.Equal(t, int64(2), f.timeSpent(t, second.ID))
	require.Len(t, f.obs.stopped, 2)
	assert.Equal(t, first.ID, f.obs.stopped[0].Session.TaskID)
}

func TestTracker_ActorsIndependent(t *testing.T) {
	f := newFixture(t)
	shared := f.createTask(t, "alice")

	_, err := f.tracker.Start(alice, shared.ID)
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	_, err = f.tracker.Start(carol, shared.ID)
	require.NoError(t, err)
	f.clock.Advance(4 * time.Second)

	_, _, err = f.tracker.Stop(alice)
	require.NoError(t, err)
	assert.Equal(t, int64(5), f.timeSpent(t, shared.ID))

	_, ok := f.tracker.Active("carol")
	assert.True(t, ok)

	_, _, err = f.tracker.Stop(carol)
	require.NoError(t, err)
	assert.Equal(t, int64(9), f.timeSpent(t, shared.ID))
}

func TestTracker_StartUnknownTask(t *testing.T) {
	f := newFixture(t)

	_, err := f.tracker.Start(alice, "missing")
	require.ErrorIs(t, err, task.ErrNotFound)
	assert.Empty(t, f.tracker.Sessions())
}

// interceptSink runs hook once, inside the first Get, before the lookup.
type interceptSink struct {
	*task.Store
	once sync.Once
	hook func()
}

func (s *interceptSink) Get(id string) (task.Task, error) {
	s.once.Do(s.hook)
	return s.Store.Get(id)
}

func TestTracker_DeleteDuringStartLookup(t *testing.T) {
	store := task.NewStore()
	tk, err := store.Create(task.Draft{Title: "t", Description: "d", Assignee: "alice"}, alice)
	require.NoError(t, err)

	obs := &recorder{}
	sink := &interceptSink{Store: store}
	tr := New(sink, WithObserver(obs), WithTickInterval(time.Millisecond))
	t.Cleanup(func() { _, _ = tr.Close() })

	deleted := make(chan struct{})
	discarded := make(chan struct{})
	sink.hook = func() {
		go func() {
			assert.NoError(t, store.Delete(tk.ID, alice))
			close(deleted)
			tr.Discard(tk.ID)
			close(discarded)
		}()
		<-deleted
	}

	_, err = tr.Start(alice, tk.ID)
	require.ErrorIs(t, err, task.ErrNotFound)
	<-discarded

	assert.Empty(t, tr.Sessions())
	time.Sleep(10 * time.Millisecond)
	assert.Zero(t, obs.tickCount())
}

func TestTracker_DeleteRacingStart(t *testing.T) {
	f := newFixture(t, WithTickInterval(time.Millisecond))

	for range 50 {
		tk := f.createTask(t, "alice")

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := f.tracker.Start(alice, tk.ID)
			if err != nil {
				assert.ErrorIs(t, err, task.ErrNotFound)
			}
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, f.store.Delete(tk.ID, alice))
			f.tracker.Discard(tk.ID)
		}()
		wg.Wait()

		require.Empty(t, f.tracker.Sessions(), "no session may outlive its task")
	}

	settled := f.obs.tickCount()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, settled, f.obs.tickCount(), "no ticks after every task is gone")
}

func TestTracker_ManagerCannotTrack(t *testing.T) {
	f := newFixture(t)
	tk := f.createTask(t, "alice")

	_, err := f.tracker.Start(bob, tk.ID)
	require.ErrorIs(t, err, task.ErrPermission)

	_, err = f.tracker.AddManual(tk.ID, 10, bob)
	require.ErrorIs(t, err, task.ErrPermission)
}

func TestTracker_PolicyAllowsManagers(t *testing.T) {
	policy, err := task.NewPolicy(task.PolicyOptions{TimeRoles: []task.Role{task.RoleDeveloper, task.RoleManager}})
	require.NoError(t, err)

	f := newFixture(t, WithPolicy(policy))
	tk := f.createTask(t, "alice")

	_, err = f.tracker.AddManual(tk.ID, 10, bob)
	require.NoError(t, err)
	assert.Equal(t, int64(600), f.timeSpent(t, tk.ID))
}

func TestTracker_AddManual(t *testing.T) {
	f := newFixture(t)
	tk := f.createTask(t, "alice")

	updated, err := f.tracker.AddManual(tk.ID, 15, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(900), updated.TimeSpent)

	_, err = f.tracker.AddManual("missing", 15, alice)
	require.ErrorIs(t, err, task.ErrNotFound)
}

func TestTracker_AddManual_Validation(t *testing.T) {
	f := newFixture(t)
	tk := f.createTask(t, "alice")

	for _, minutes := range []int{0, -1, -60} {
		_, err := f.tracker.AddManual(tk.ID, minutes, alice)
		require.ErrorIs(t, err, task.ErrValidation, "minutes=%d", minutes)
	}

	// validation wins over the role check
	_, err := f.tracker.AddManual(tk.ID, -1, bob)
	require.ErrorIs(t, err, task.ErrValidation)

	assert.Equal(t, int64(0), f.timeSpent(t, tk.ID))
}

func TestTracker_ManualDuringSession(t *testing.T) {
	f := newFixture(t)
	tk := f.createTask(t, "alice")

	_, err := f.tracker.Start(alice, tk.ID)
	require.NoError(t, err)
	f.clock.Advance(30 * time.Second)

	_, err = f.tracker.AddManual(tk.ID, 2, alice)
	require.NoError(t, err)

	_, _, err = f.tracker.Stop(alice)
	require.NoError(t, err)
	assert.Equal(t, int64(150), f.timeSpent(t, tk.ID))
}

func TestTracker_RepeatedCyclesSumExactly(t *testing.T) {
	f := newFixture(t)
	tk := f.createTask(t, "alice")

	var want int64
	for i := 1; i <= 20; i++ {
		_, err := f.tracker.Start(alice, tk.ID)
		require.NoError(t, err)
		f.clock.Advance(time.Duration(i) * time.Second)
		_, _, err = f.tracker.Stop(alice)
		require.NoError(t, err)
		want += int64(i)

		if i%5 == 0 {
			_, err = f.tracker.AddManual(tk.ID, 1, alice)
			require.NoError(t, err)
			want += 60
		}
		require.Equal(t, want, f.timeSpent(t, tk.ID))
	}
}

func TestTracker_SubSecondTruncated(t *testing.T) {
	f := newFixture(t)
	tk := f.createTask(t, "alice")

	_, err := f.tracker.Start(alice, tk.ID)
	require.NoError(t, err)
	f.clock.Advance(2900 * time.Millisecond)

	stopped, _, err := f.tracker.Stop(alice)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stopped.Seconds)
}

func TestTracker_Discard(t *testing.T) {
	f := newFixture(t)
	tk := f.createTask(t, "alice")
	other := f.createTask(t, "carol")

	_, err := f.tracker.Start(alice, tk.ID)
	require.NoError(t, err)
	_, err = f.tracker.Start(carol, other.ID)
	require.NoError(t, err)
	f.clock.Advance(10 * time.Second)

	dropped := f.tracker.Discard(tk.ID)
	require.Len(t, dropped, 1)
	assert.Equal(t, "alice", dropped[0].Actor.Username)

	_, ok, err := f.tracker.Stop(alice)
	require.NoError(t, err)
	assert.False(t, ok, "discarded session is gone")
	assert.Equal(t, int64(0), f.timeSpent(t, tk.ID))

	_, ok = f.tracker.Active("carol")
	assert.True(t, ok, "sessions on other tasks survive")
	require.Len(t, f.obs.discarded, 1)
}

func TestTracker_StopAfterTaskDeletedIsNoop(t *testing.T) {
	f := newFixture(t)
	tk := f.createTask(t, "alice")

	_, err := f.tracker.Start(alice, tk.ID)
	require.NoError(t, err)
	f.clock.Advance(3 * time.Second)

	require.NoError(t, f.store.Delete(tk.ID, alice))

	stopped, ok, err := f.tracker.Stop(alice)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, stopped.Flushed)
	assert.Equal(t, int64(3), stopped.Seconds)
}

func TestTracker_TicksStopAfterStop(t *testing.T) {
	f := newFixture(t, WithTickInterval(2*time.Millisecond))
	tk := f.createTask(t, "alice")

	_, err := f.tracker.Start(alice, tk.ID)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return f.obs.tickCount() >= 3 }, time.Second, time.Millisecond)

	_, _, err = f.tracker.Stop(alice)
	require.NoError(t, err)

	after := f.obs.tickCount()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, f.obs.tickCount(), "no ticks after stop")

	f.obs.mu.Lock()
	last := f.obs.ticks[len(f.obs.ticks)-1]
	f.obs.mu.Unlock()
	assert.Equal(t, tk.ID, last.TaskID)
	assert.Equal(t, "alice", last.Username)
}

func TestTracker_ElapsedAndSessions(t *testing.T) {
	f := newFixture(t)
	first := f.createTask(t, "alice")
	second := f.createTask(t, "carol")

	_, err := f.tracker.Start(alice, first.ID)
	require.NoError(t, err)
	f.clock.Advance(time.Second)
	_, err = f.tracker.Start(carol, second.ID)
	require.NoError(t, err)
	f.clock.Advance(41 * time.Second)

	elapsed, ok := f.tracker.Elapsed("alice")
	require.True(t, ok)
	assert.Equal(t, 42*time.Second, elapsed)

	_, ok = f.tracker.Elapsed("bob")
	assert.False(t, ok)

	sessions := f.tracker.Sessions()
	require.Len(t, sessions, 2)
	assert.Equal(t, "alice", sessions[0].Actor.Username)
	assert.Equal(t, "carol", sessions[1].Actor.Username)
}

func TestTracker_Close(t *testing.T) {
	f := newFixture(t)
	first := f.createTask(t, "alice")
	second := f.createTask(t, "carol")

	_, err := f.tracker.Start(alice, first.ID)
	require.NoError(t, err)
	_, err = f.tracker.Start(carol, second.ID)
	require.NoError(t, err)
	f.clock.Advance(8 * time.Second)

	stopped, err := f.tracker.Close()
	require.NoError(t, err)
	assert.Len(t, stopped, 2)
	assert.Empty(t, f.tracker.Sessions())
	assert.Equal(t, int64(8), f.timeSpent(t, first.ID))
	assert.Equal(t, int64(8), f.timeSpent(t, second.ID))
}

func TestTracker_InvalidActor(t *testing.T) {
	f := newFixture(t)
	tk := f.createTask(t, "alice")

	_, err := f.tracker.Start(task.Actor{Username: "", Role: task.RoleDeveloper}, tk.ID)
	require.ErrorIs(t, err, task.ErrValidation)

	_, err = f.tracker.Start(task.Actor{Username: "eve", Role: "intern"}, tk.ID)
	require.ErrorIs(t, err, task.ErrValidation)
}
