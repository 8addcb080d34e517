package task

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound matches every NotFoundError.
	ErrNotFound = errors.New("task not found")
	// ErrTransition matches every TransitionError.
	ErrTransition = errors.New("status transition not allowed")
	// ErrPermission matches every PermissionError.
	ErrPermission = errors.New("permission denied")
)

// ValidationError reports malformed command input. Err is usually a
// criterio.FieldErrors carrying one entry per offending field.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", e.Err)
}

// Unwrap exposes both the sentinel and the underlying field errors.
func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Err}
}

func invalid(err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Err: err}
}

// NotFoundError reports an unknown task id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("task %q not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// TransitionError reports a status change the actor's role may not perform
// from the task's current status.
type TransitionError struct {
	From Status
	To   Status
	Role Role
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s may not move a task from %s to %s", e.Role, e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrTransition
}

// Action names a role-gated operation other than a status change.
type Action string

const (
	ActionEditContent Action = "edit"
	ActionDelete      Action = "delete"
	ActionTrackTime   Action = "track time on"
)

// PermissionError reports a non-status operation denied by the policy.
type PermissionError struct {
	Role   Role
	Action Action
	Status Status // empty when the rule does not depend on status
}

func (e *PermissionError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("%s may not %s a task while it is %s", e.Role, e.Action, e.Status)
	}
	return fmt.Sprintf("%s may not %s a task", e.Role, e.Action)
}

func (e *PermissionError) Is(target error) bool {
	return target == ErrPermission
}
