// Package config handles configuration loading and validation for taskboard.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/colonyops/taskboard/internal/core/styles"
	"github.com/colonyops/taskboard/internal/core/task"
	"github.com/colonyops/taskboard/internal/core/timer"
)

// Config holds the application configuration.
type Config struct {
	Users       []task.Actor   `yaml:"users"`
	UsersFiles  []string       `yaml:"users_files"` // extra rosters, relative to the config file
	Timer       TimerConfig    `yaml:"timer"`
	Policy      PolicyConfig   `yaml:"policy"`
	Snapshot    SnapshotConfig `yaml:"snapshot"`
	SeedSamples bool           `yaml:"seed_samples"`
	Theme       string         `yaml:"theme"`
	DataDir     string         `yaml:"-"` // set by caller, not from config file
}

// TimerConfig holds time tracker settings.
type TimerConfig struct {
	TickInterval time.Duration `yaml:"tick_interval"`
}

// PolicyConfig overrides the built-in capability policy. Omitted fields keep
// the defaults.
type PolicyConfig struct {
	ContentEdit map[task.Role][]task.Status `yaml:"content_edit"`
	DeleteRoles []task.Role                 `yaml:"delete_roles"`
	TimeRoles   []task.Role                 `yaml:"time_roles"`
}

// Snapshot backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// SnapshotConfig controls persistence of the task store between runs.
type SnapshotConfig struct {
	Enabled bool   `yaml:"enabled"`
	Backend string `yaml:"backend"` // json or sqlite
}

// DefaultUsers is the directory used when no users are configured.
func DefaultUsers() []task.Actor {
	return []task.Actor{
		{Username: "user", Role: task.RoleDeveloper},
		{Username: "john", Role: task.RoleDeveloper},
		{Username: "jane", Role: task.RoleDeveloper},
		{Username: "alex", Role: task.RoleDeveloper},
		{Username: "sam", Role: task.RoleDeveloper},
		{Username: "admin", Role: task.RoleManager},
	}
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Users: DefaultUsers(),
		Timer: TimerConfig{
			TickInterval: timer.DefaultTickInterval,
		},
		Snapshot:    SnapshotConfig{Enabled: true, Backend: BackendJSON},
		SeedSamples: true,
		Theme:       styles.DefaultTheme,
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	if len(cfg.UsersFiles) > 0 {
		extra, err := loadUsersFiles(filepath.Dir(configPath), cfg.UsersFiles)
		if err != nil {
			return nil, err
		}
		cfg.Users = append(cfg.Users, extra...)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Timer.TickInterval == 0 {
		c.Timer.TickInterval = defaults.Timer.TickInterval
	}
	if c.Snapshot.Backend == "" {
		c.Snapshot.Backend = defaults.Snapshot.Backend
	}
	if c.Theme == "" {
		c.Theme = defaults.Theme
	}
}

// Directory builds the user directory. Later entries for the same username
// replace earlier ones.
func (c *Config) Directory() *task.Directory {
	return task.NewDirectory(c.Users...)
}

// PolicyOptions converts the policy overrides for task.NewPolicy.
func (c *Config) PolicyOptions() task.PolicyOptions {
	return task.PolicyOptions{
		ContentEdit: c.Policy.ContentEdit,
		DeleteRoles: c.Policy.DeleteRoles,
		TimeRoles:   c.Policy.TimeRoles,
	}
}

// SnapshotFile returns the path to the task snapshot.
func (c *Config) SnapshotFile() string {
	return filepath.Join(c.DataDir, "tasks.json")
}

// LogFile returns the default log file path.
func (c *Config) LogFile() string {
	return filepath.Join(c.DataDir, "taskboard.log")
}
