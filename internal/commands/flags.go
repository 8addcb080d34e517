package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/colonyops/taskboard/internal/core/config"
	"github.com/colonyops/taskboard/internal/core/task"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	DataDir    string

	// User and Role identify the acting user for every command.
	User string
	Role string

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config
}

// Actor resolves the acting user. Users in the directory take their
// configured role; --role may only repeat it. Users outside the directory
// need an explicit --role.
func (f *Flags) Actor(users *task.Directory) (task.Actor, error) {
	if f.User == "" {
		return task.Actor{}, fmt.Errorf("no user set: pass --user or set TASKBOARD_USER")
	}

	if known, ok := users.Lookup(f.User); ok {
		if f.Role != "" && task.Role(f.Role) != known.Role {
			return task.Actor{}, fmt.Errorf("user %q is a %s, not a %s", f.User, known.Role, f.Role)
		}
		return known, nil
	}

	if f.Role == "" {
		return task.Actor{}, fmt.Errorf("unknown user %q: pass --role or add the user to the config", f.User)
	}
	role := task.Role(f.Role)
	if !role.IsValid() {
		return task.Actor{}, fmt.Errorf("unknown role %q", f.Role)
	}
	return task.Actor{Username: f.User, Role: role}, nil
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "taskboard", "config.yaml")
}

// DefaultDataDir returns the default data directory using XDG_DATA_HOME.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "taskboard")
}
