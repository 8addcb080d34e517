package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/taskboard/internal/core/styles"
	"github.com/colonyops/taskboard/internal/core/task"
	"github.com/colonyops/taskboard/internal/core/validate"
)

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	var errs criterio.FieldErrorsBuilder

	if c.DataDir == "" {
		errs = errs.Append("data_dir", fmt.Errorf("cannot be empty"))
	}
	if c.Timer.TickInterval <= 0 {
		errs = errs.Append("timer.tick_interval", fmt.Errorf("must be positive, got %s", c.Timer.TickInterval))
	}
	switch c.Snapshot.Backend {
	case BackendJSON, BackendSQLite:
	default:
		errs = errs.Append("snapshot.backend", fmt.Errorf("unknown backend %q", c.Snapshot.Backend))
	}
	if _, ok := styles.GetPalette(c.Theme); !ok {
		errs = errs.Append("theme", fmt.Errorf("unknown theme %q (available: %s)", c.Theme, strings.Join(styles.ThemeNames(), ", ")))
	}

	return criterio.ValidateStruct(
		errs.ToError(),
		c.validateUsers(),
		c.validatePolicy(),
	)
}

// ValidateDeep performs Validate plus file system checks on the config file
// and data directory. An empty configPath skips the config file check.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
	)
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	hasManager := false
	for _, u := range c.Users {
		if u.Role == task.RoleManager {
			hasManager = true
			break
		}
	}
	if len(c.Users) > 0 && !hasManager {
		warnings = append(warnings, ValidationWarning{
			Category: "Users",
			Message:  "no manager configured; tasks cannot leave pending_approval",
		})
	}

	if c.Policy.TimeRoles != nil && len(c.Policy.TimeRoles) == 0 {
		warnings = append(warnings, ValidationWarning{
			Category: "Policy",
			Item:     "time_roles",
			Message:  "empty list disables time tracking for everyone",
		})
	}

	if !c.Snapshot.Enabled {
		warnings = append(warnings, ValidationWarning{
			Category: "Snapshot",
			Message:  "snapshot disabled; tasks are lost when the process exits",
		})
	}

	return warnings
}

func (c *Config) validateUsers() error {
	var errs criterio.FieldErrorsBuilder
	seen := make(map[string]int, len(c.Users))

	for i, u := range c.Users {
		field := fmt.Sprintf("users[%d]", i)
		if err := validate.Username(u.Username); err != nil {
			errs = errs.Append(field+".username", err)
		}
		if !u.Role.IsValid() {
			errs = errs.Append(field+".role", fmt.Errorf("unknown role %q", u.Role))
		}
		if prev, ok := seen[u.Username]; ok && u.Username != "" {
			errs = errs.Append(field+".username", fmt.Errorf("duplicate of users[%d]", prev))
		}
		seen[u.Username] = i
	}

	return errs.ToError()
}

func (c *Config) validatePolicy() error {
	var errs criterio.FieldErrorsBuilder

	for role, statuses := range c.Policy.ContentEdit {
		field := fmt.Sprintf("policy.content_edit[%s]", role)
		if !role.IsValid() {
			errs = errs.Append(field, fmt.Errorf("unknown role %q", role))
		}
		for _, s := range statuses {
			if !s.IsValid() {
				errs = errs.Append(field, fmt.Errorf("unknown status %q", s))
			}
		}
	}

	for name, roles := range map[string][]task.Role{
		"policy.delete_roles": c.Policy.DeleteRoles,
		"policy.time_roles":   c.Policy.TimeRoles,
	} {
		for i, r := range roles {
			if !r.IsValid() {
				errs = errs.Append(fmt.Sprintf("%s[%d]", name, i), fmt.Errorf("unknown role %q", r))
			}
		}
	}

	return errs.ToError()
}

// validateConfigFile checks the config file exists and is a file.
func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}
