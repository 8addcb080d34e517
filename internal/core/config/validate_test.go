package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/taskboard/internal/core/task"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	return &cfg
}

func TestValidate_Valid(t *testing.T) {
	require.NoError(t, validConfig(t).Validate())
}

func TestValidate_DuplicateUsers(t *testing.T) {
	cfg := validConfig(t)
	cfg.Users = append(cfg.Users, task.Actor{Username: "john", Role: task.RoleManager})

	err := cfg.Validate()

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	require.Len(t, fieldErrs, 1)
	assert.Equal(t, "users[6].username", fieldErrs[0].Field)
	assert.Contains(t, fieldErrs[0].Err.Error(), "duplicate of users[1]")
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig(t)
	cfg.DataDir = ""
	cfg.Timer.TickInterval = 0
	cfg.Users = []task.Actor{{Username: "has space", Role: "boss"}}
	cfg.Policy.DeleteRoles = []task.Role{"root"}

	err := cfg.Validate()

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)

	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{
		"data_dir",
		"timer.tick_interval",
		"users[0].username",
		"users[0].role",
		"policy.delete_roles[0]",
	}, fields)
}

func TestValidateDeep_DataDirIsFile(t *testing.T) {
	cfg := validConfig(t)
	file := filepath.Join(cfg.DataDir, "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	cfg.DataDir = file

	err := cfg.ValidateDeep("")

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	require.Len(t, fieldErrs, 1)
	assert.Equal(t, "data_dir", fieldErrs[0].Field)
}

func TestValidateDeep_ConfigIsDirectory(t *testing.T) {
	cfg := validConfig(t)

	err := cfg.ValidateDeep(t.TempDir())

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Equal(t, "config_file", fieldErrs[0].Field)
}

func TestValidateDeep_MissingConfigIsFine(t *testing.T) {
	cfg := validConfig(t)
	require.NoError(t, cfg.ValidateDeep(filepath.Join(t.TempDir(), "none.yaml")))
}

func TestWarnings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   []string
	}{
		{
			name:   "defaults",
			mutate: func(*Config) {},
			want:   nil,
		},
		{
			name: "no manager",
			mutate: func(c *Config) {
				c.Users = []task.Actor{{Username: "a", Role: task.RoleDeveloper}}
			},
			want: []string{"Users"},
		},
		{
			name: "time tracking disabled and no snapshot",
			mutate: func(c *Config) {
				c.Policy.TimeRoles = []task.Role{}
				c.Snapshot.Enabled = false
			},
			want: []string{"Policy", "Snapshot"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)

			var got []string
			for _, w := range cfg.Warnings() {
				got = append(got, w.Category)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
