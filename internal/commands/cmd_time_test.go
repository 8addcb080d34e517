package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/taskboard/internal/core/task"
)

func TestTimeAdd(t *testing.T) {
	h := newHarness(t, nil)
	tk := h.mustCreate(t, "alex", "Timed")

	require.NoError(t, h.run("alex", "time", "add", tk.ID, "--minutes", "30"))
	assert.Contains(t, h.out.String(), "total 00:30:00")

	got, err := h.app.Tasks.Get(tk.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1800), got.TimeSpent)

	tests := []struct {
		name string
		user string
		args []string
		is   error
	}{
		{name: "zero minutes", user: "alex", args: []string{"time", "add", tk.ID, "--minutes", "0"}, is: task.ErrValidation},
		{name: "manager", user: "admin", args: []string{"time", "add", tk.ID, "--minutes", "5"}, is: task.ErrPermission},
		{name: "unknown task", user: "alex", args: []string{"time", "add", "missing1", "--minutes", "5"}, is: task.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, h.run(tt.user, tt.args...), tt.is)
		})
	}

	got, err = h.app.Tasks.Get(tk.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1800), got.TimeSpent, "failed additions change nothing")
}

func TestTimeTrack_StopsAfterDuration(t *testing.T) {
	h := newHarness(t, nil)
	tk := h.mustCreate(t, "alex", "Tracked")

	require.NoError(t, h.run("alex", "time", "track", tk.ID, "--for", "1100ms"))

	out := h.out.String()
	assert.Contains(t, out, "tracking "+tk.ID)
	assert.Contains(t, out, "stopped "+tk.ID)

	got, err := h.app.Tasks.Get(tk.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.TimeSpent)

	_, _, active := h.app.Tasks.ActiveTimer(task.Actor{Username: "alex", Role: task.RoleDeveloper})
	assert.False(t, active, "session ends with the command")
}

func TestTimeTrack_ManagerDenied(t *testing.T) {
	h := newHarness(t, nil)
	tk := h.mustCreate(t, "alex", "Tracked")

	err := h.run("admin", "time", "track", tk.ID, "--for", "10ms")
	require.ErrorIs(t, err, task.ErrPermission)
}
