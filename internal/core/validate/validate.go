// Package validate provides shared validation functions.
package validate

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/hay-kot/criterio"
)

// Required validates a text value is non-empty after trimming whitespace.
func Required(value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("is required")
	}
	return nil
}

// Username validates a username is non-empty and contains no whitespace.
func Username(name string) error {
	if name == "" {
		return fmt.Errorf("is required")
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return fmt.Errorf("must not contain whitespace")
	}
	return nil
}

// PositiveMinutes validates a manual time entry.
func PositiveMinutes(minutes int) error {
	if minutes <= 0 {
		return fmt.Errorf("must be a positive number of minutes, got %d", minutes)
	}
	return nil
}

// RequiredField returns a criterio validator for a required text field.
func RequiredField(field, value string) error {
	return criterio.Run(field, value, Required)
}

// UsernameField returns a criterio validator for usernames.
func UsernameField(field, name string) error {
	return criterio.Run(field, name, Username)
}

// MinutesField returns a criterio validator for manual time entries.
func MinutesField(field string, minutes int) error {
	return criterio.Run(field, minutes, PositiveMinutes)
}
