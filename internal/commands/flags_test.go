package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/taskboard/internal/core/task"
)

func TestFlags_Actor(t *testing.T) {
	users := task.NewDirectory(
		task.Actor{Username: "alex", Role: task.RoleDeveloper},
		task.Actor{Username: "admin", Role: task.RoleManager},
	)

	tests := []struct {
		name    string
		user    string
		role    string
		want    task.Actor
		wantErr string
	}{
		{name: "known user", user: "alex", want: task.Actor{Username: "alex", Role: task.RoleDeveloper}},
		{name: "known user matching role", user: "admin", role: "manager", want: task.Actor{Username: "admin", Role: task.RoleManager}},
		{name: "known user other role", user: "alex", role: "manager", wantErr: "is a developer"},
		{name: "unknown user with role", user: "guest", role: "manager", want: task.Actor{Username: "guest", Role: task.RoleManager}},
		{name: "unknown user without role", user: "guest", wantErr: "unknown user"},
		{name: "unknown role", user: "guest", role: "intern", wantErr: "unknown role"},
		{name: "no user", wantErr: "no user set"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &Flags{User: tt.user, Role: tt.role}
			got, err := f.Actor(users)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")

	assert.Equal(t, "/cfg/taskboard/config.yaml", DefaultConfigPath())
	assert.Equal(t, "/data/taskboard", DefaultDataDir())
}
