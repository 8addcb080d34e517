package task

import (
	"fmt"
	"slices"
)

type edge struct {
	from Status
	to   Status
}

// transitions maps each legal status edge to the only role that may take it.
var transitions = map[edge]Role{
	{StatusOpen, StatusInProgress}:            RoleDeveloper,
	{StatusInProgress, StatusPendingApproval}: RoleDeveloper,
	{StatusPendingApproval, StatusClosed}:     RoleManager,
	{StatusPendingApproval, StatusReopened}:   RoleManager,
	{StatusReopened, StatusInProgress}:        RoleDeveloper,
}

// Allowed reports whether role may move a task from one status to another.
// Staying in the same status is always allowed.
func Allowed(from, to Status, role Role) bool {
	if !from.IsValid() || !to.IsValid() || !role.IsValid() {
		return false
	}
	if from == to {
		return true
	}
	r, ok := transitions[edge{from, to}]
	return ok && r == role
}

// CheckTransition returns a TransitionError when Allowed is false.
func CheckTransition(from, to Status, role Role) error {
	if !Allowed(from, to, role) {
		return &TransitionError{From: from, To: to, Role: role}
	}
	return nil
}

// NextStatuses returns the statuses role may move a task to from the given
// status, in lifecycle order. The no-op self edge is not included.
func NextStatuses(from Status, role Role) []Status {
	var next []Status
	for _, to := range Statuses() {
		if to != from && Allowed(from, to, role) {
			next = append(next, to)
		}
	}
	return next
}

// Capability describes what a role may do to a task in a given status.
type Capability struct {
	CanEditContent bool     `json:"can_edit_content"`
	Next           []Status `json:"next"`
}

// PolicyOptions overrides parts of the default policy. Nil fields keep the
// defaults.
type PolicyOptions struct {
	// ContentEdit lists, per role, the statuses in which free-form fields
	// (title, description, priority, assignee, due date) may be edited.
	ContentEdit map[Role][]Status
	// DeleteRoles lists the roles allowed to delete tasks.
	DeleteRoles []Role
	// TimeRoles lists the roles allowed to run timers and add manual time.
	TimeRoles []Role
}

// Policy is the capability table keyed on (role, status). The status edge
// table is fixed; content editing, deletion and time tracking are
// configurable.
type Policy struct {
	contentEdit map[Role][]Status
	deleteRoles []Role
	timeRoles   []Role
}

// DefaultPolicy returns the built-in policy:
//   - developers edit content in every status except pending_approval
//   - managers edit content only in pending_approval and reopened
//   - only developers delete tasks and track time
func DefaultPolicy() *Policy {
	return &Policy{
		contentEdit: map[Role][]Status{
			RoleDeveloper: {StatusOpen, StatusInProgress, StatusClosed, StatusReopened},
			RoleManager:   {StatusPendingApproval, StatusReopened},
		},
		deleteRoles: []Role{RoleDeveloper},
		timeRoles:   []Role{RoleDeveloper},
	}
}

// NewPolicy returns the default policy with opts applied.
func NewPolicy(opts PolicyOptions) (*Policy, error) {
	p := DefaultPolicy()

	for role, statuses := range opts.ContentEdit {
		if !role.IsValid() {
			return nil, fmt.Errorf("content edit: unknown role %q", role)
		}
		for _, s := range statuses {
			if !s.IsValid() {
				return nil, fmt.Errorf("content edit for %s: unknown status %q", role, s)
			}
		}
		p.contentEdit[role] = slices.Clone(statuses)
	}

	if opts.DeleteRoles != nil {
		if err := checkRoles("delete roles", opts.DeleteRoles); err != nil {
			return nil, err
		}
		p.deleteRoles = slices.Clone(opts.DeleteRoles)
	}

	if opts.TimeRoles != nil {
		if err := checkRoles("time roles", opts.TimeRoles); err != nil {
			return nil, err
		}
		p.timeRoles = slices.Clone(opts.TimeRoles)
	}

	return p, nil
}

func checkRoles(name string, roles []Role) error {
	for _, r := range roles {
		if !r.IsValid() {
			return fmt.Errorf("%s: unknown role %q", name, r)
		}
	}
	return nil
}

// Capability returns the capability of role on a task in status.
func (p *Policy) Capability(role Role, status Status) Capability {
	return Capability{
		CanEditContent: p.CanEditContent(role, status),
		Next:           NextStatuses(status, role),
	}
}

// Allowed reports whether role may move a task between statuses.
func (p *Policy) Allowed(from, to Status, role Role) bool {
	return Allowed(from, to, role)
}

// CanEditContent reports whether role may edit free-form fields in status.
func (p *Policy) CanEditContent(role Role, status Status) bool {
	return slices.Contains(p.contentEdit[role], status)
}

// CanDelete reports whether role may delete tasks.
func (p *Policy) CanDelete(role Role) bool {
	return slices.Contains(p.deleteRoles, role)
}

// CanTrackTime reports whether role may run timers and add manual time.
func (p *Policy) CanTrackTime(role Role) bool {
	return slices.Contains(p.timeRoles, role)
}

// CheckContentEdit returns a PermissionError when role may not edit content
// in status.
func (p *Policy) CheckContentEdit(role Role, status Status) error {
	if !p.CanEditContent(role, status) {
		return &PermissionError{Role: role, Action: ActionEditContent, Status: status}
	}
	return nil
}

// CheckDelete returns a PermissionError when role may not delete tasks.
func (p *Policy) CheckDelete(role Role) error {
	if !p.CanDelete(role) {
		return &PermissionError{Role: role, Action: ActionDelete}
	}
	return nil
}

// CheckTrackTime returns a PermissionError when role may not track time.
func (p *Policy) CheckTrackTime(role Role) error {
	if !p.CanTrackTime(role) {
		return &PermissionError{Role: role, Action: ActionTrackTime}
	}
	return nil
}
