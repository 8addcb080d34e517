// Package task defines the task domain model, the role-gated status guard,
// the in-memory task store, and the derived views over it.
package task

import (
	"slices"
	"time"
)

// Priority ranks how urgent a task is.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities returns every priority, highest first.
func Priorities() []Priority {
	return []Priority{PriorityHigh, PriorityMedium, PriorityLow}
}

// IsValid reports whether p is a known priority.
func (p Priority) IsValid() bool {
	return slices.Contains(Priorities(), p)
}

// Status represents the lifecycle state of a task.
type Status string

const (
	StatusOpen            Status = "open"
	StatusInProgress      Status = "in_progress"
	StatusPendingApproval Status = "pending_approval"
	StatusClosed          Status = "closed"
	StatusReopened        Status = "reopened"
)

// Statuses returns every status in lifecycle order.
func Statuses() []Status {
	return []Status{StatusOpen, StatusInProgress, StatusPendingApproval, StatusClosed, StatusReopened}
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	return slices.Contains(Statuses(), s)
}

// Role determines which lifecycle edges and edits an actor may perform.
type Role string

const (
	RoleDeveloper Role = "developer"
	RoleManager   Role = "manager"
)

// Roles returns every role.
func Roles() []Role {
	return []Role{RoleDeveloper, RoleManager}
}

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	return r == RoleDeveloper || r == RoleManager
}

// Actor is the user issuing a command.
type Actor struct {
	Username string `json:"username" yaml:"username"`
	Role     Role   `json:"role"     yaml:"role"`
}

// Task is the unit of work tracked by the store.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"`
	Status      Status     `json:"status"`
	Assignee    string     `json:"assignee"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	TimeSpent   int64      `json:"time_spent"` // seconds
}

// clone returns a deep copy so callers never share the store's DueDate pointer.
func (t Task) clone() Task {
	if t.DueDate != nil {
		due := *t.DueDate
		t.DueDate = &due
	}
	return t
}

// Draft holds the caller-supplied fields for a new task.
type Draft struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority,omitempty"`
	Assignee    string     `json:"assignee,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// Patch lists the fields to change on an existing task. Nil fields are left
// untouched.
type Patch struct {
	Title        *string
	Description  *string
	Priority     *Priority
	Assignee     *string
	DueDate      *time.Time
	ClearDueDate bool
	Status       *Status
}

// HasContent reports whether the patch changes any free-form field.
func (p Patch) HasContent() bool {
	return p.Title != nil ||
		p.Description != nil ||
		p.Priority != nil ||
		p.Assignee != nil ||
		p.DueDate != nil ||
		p.ClearDueDate
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return !p.HasContent() && p.Status == nil
}
