package task

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/taskboard/internal/core/validate"
	"github.com/colonyops/taskboard/pkg/randid"
)

const idLength = 8

// Store is the canonical in-memory task map. All mutations are serialized by
// a single mutex and every returned Task is a copy.
type Store struct {
	mu    sync.Mutex
	tasks map[string]*Task
	order []string

	policy *Policy
	users  Resolver
	now    func() time.Time
	newID  func() string
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithPolicy sets the capability policy. Defaults to DefaultPolicy.
func WithPolicy(p *Policy) StoreOption {
	return func(s *Store) { s.policy = p }
}

// WithResolver sets the assignee resolver. Defaults to accepting any
// well-formed username.
func WithResolver(r Resolver) StoreOption {
	return func(s *Store) { s.users = r }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator sets the id source.
func WithIDGenerator(fn func() string) StoreOption {
	return func(s *Store) { s.newID = fn }
}

// NewStore creates an empty store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		tasks:  make(map[string]*Task),
		policy: DefaultPolicy(),
		users:  NewDirectory(),
		now:    time.Now,
		newID:  func() string { return randid.Generate(idLength) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the policy the store enforces.
func (s *Store) Policy() *Policy {
	return s.policy
}

// Create adds a new open task with no time spent. Any valid actor may create
// tasks.
func (s *Store) Create(d Draft, actor Actor) (Task, error) {
	if d.Priority == "" {
		d.Priority = PriorityMedium
	}

	err := criterio.ValidateStruct(
		validateActor(actor),
		validate.RequiredField("title", d.Title),
		validate.RequiredField("description", d.Description),
		s.validateAssignee(d.Assignee),
		validatePriority(d.Priority),
	)
	if err != nil {
		return Task{}, invalid(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.uniqueID()
	if err != nil {
		return Task{}, err
	}

	now := s.now()
	t := Task{
		ID:          id,
		Title:       d.Title,
		Description: d.Description,
		Priority:    d.Priority,
		Status:      StatusOpen,
		Assignee:    d.Assignee,
		CreatedAt:   now,
		UpdatedAt:   now,
		TimeSpent:   0,
	}
	if d.DueDate != nil {
		due := *d.DueDate
		t.DueDate = &due
	}

	s.tasks[id] = &t
	s.order = append(s.order, id)

	return t.clone(), nil
}

// Update applies patch to the task. A status change is checked against the
// transition table first, then content fields against the policy. On any
// error nothing is applied.
func (s *Store) Update(id string, p Patch, actor Actor) (Task, error) {
	updated, _, err := s.UpdateFrom(id, p, actor)
	return updated, err
}

// UpdateFrom is Update that also reports the status the task held before
// the patch, read under the same lock as the write.
func (s *Store) UpdateFrom(id string, p Patch, actor Actor) (Task, Status, error) {
	if err := invalid(criterio.ValidateStruct(validateActor(actor))); err != nil {
		return Task{}, "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.tasks[id]
	if !ok {
		return Task{}, "", &NotFoundError{ID: id}
	}
	from := cur.Status

	if p.IsEmpty() {
		return cur.clone(), from, nil
	}

	if err := s.validatePatch(p); err != nil {
		return Task{}, from, err
	}

	if p.Status != nil {
		if err := CheckTransition(cur.Status, *p.Status, actor.Role); err != nil {
			return Task{}, from, err
		}
	}

	if p.HasContent() {
		if err := s.policy.CheckContentEdit(actor.Role, cur.Status); err != nil {
			return Task{}, from, err
		}
	}

	next := cur.clone()
	if p.Title != nil {
		next.Title = *p.Title
	}
	if p.Description != nil {
		next.Description = *p.Description
	}
	if p.Priority != nil {
		next.Priority = *p.Priority
	}
	if p.Assignee != nil {
		next.Assignee = *p.Assignee
	}
	if p.ClearDueDate {
		next.DueDate = nil
	}
	if p.DueDate != nil {
		due := *p.DueDate
		next.DueDate = &due
	}
	if p.Status != nil {
		next.Status = *p.Status
	}
	next.UpdatedAt = s.now()

	s.tasks[id] = &next
	return next.clone(), from, nil
}

// Delete removes the task. The policy decides which roles may delete.
func (s *Store) Delete(id string, actor Actor) error {
	if err := invalid(criterio.ValidateStruct(validateActor(actor))); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return &NotFoundError{ID: id}
	}

	if err := s.policy.CheckDelete(actor.Role); err != nil {
		return err
	}

	delete(s.tasks, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return nil
}

// Get returns the task with the given id.
func (s *Store) Get(id string) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return Task{}, &NotFoundError{ID: id}
	}
	return t.clone(), nil
}

// List returns a snapshot of all tasks in insertion order.
func (s *Store) List() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Task, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.tasks[id].clone())
	}
	return out
}

// Len returns the number of tasks.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// AddTime atomically adds seconds to the task's time spent.
func (s *Store) AddTime(id string, seconds int64) (Task, error) {
	if seconds < 0 {
		return Task{}, invalid(criterio.NewFieldErrors("seconds", fmt.Errorf("must not be negative, got %d", seconds)))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return Task{}, &NotFoundError{ID: id}
	}

	if seconds > 0 {
		t.TimeSpent += seconds
		t.UpdatedAt = s.now()
	}
	return t.clone(), nil
}

// Restore replaces the store contents with previously persisted tasks,
// keeping their ids, timestamps, time spent and order.
func (s *Store) Restore(tasks []Task) error {
	var errs criterio.FieldErrorsBuilder
	seen := make(map[string]bool, len(tasks))
	for i, t := range tasks {
		field := fmt.Sprintf("tasks[%d]", i)
		switch {
		case t.ID == "":
			errs = errs.Append(field+".id", fmt.Errorf("is required"))
		case seen[t.ID]:
			errs = errs.Append(field+".id", fmt.Errorf("duplicate id %q", t.ID))
		}
		seen[t.ID] = true

		if !t.Status.IsValid() {
			errs = errs.Append(field+".status", fmt.Errorf("unknown status %q", t.Status))
		}
		if !t.Priority.IsValid() {
			errs = errs.Append(field+".priority", fmt.Errorf("unknown priority %q", t.Priority))
		}
		if t.TimeSpent < 0 {
			errs = errs.Append(field+".time_spent", fmt.Errorf("must not be negative"))
		}
	}
	if err := errs.ToError(); err != nil {
		return invalid(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = make(map[string]*Task, len(tasks))
	s.order = make([]string, 0, len(tasks))
	for _, t := range tasks {
		c := t.clone()
		s.tasks[t.ID] = &c
		s.order = append(s.order, t.ID)
	}
	return nil
}

// uniqueID draws ids until one is unused. Callers hold s.mu.
func (s *Store) uniqueID() (string, error) {
	for range 16 {
		id := s.newID()
		if id == "" {
			continue
		}
		if _, taken := s.tasks[id]; !taken {
			return id, nil
		}
	}
	return "", fmt.Errorf("generate task id: too many collisions")
}

func (s *Store) validatePatch(p Patch) error {
	var errs []error
	if p.Title != nil {
		errs = append(errs, validate.RequiredField("title", *p.Title))
	}
	if p.Description != nil {
		errs = append(errs, validate.RequiredField("description", *p.Description))
	}
	if p.Priority != nil {
		errs = append(errs, validatePriority(*p.Priority))
	}
	if p.Assignee != nil {
		errs = append(errs, s.validateAssignee(*p.Assignee))
	}
	if p.Status != nil && !p.Status.IsValid() {
		errs = append(errs, criterio.NewFieldErrors("status", fmt.Errorf("unknown status %q", *p.Status)))
	}
	if p.DueDate != nil && p.ClearDueDate {
		errs = append(errs, criterio.NewFieldErrors("due_date", fmt.Errorf("cannot both set and clear")))
	}
	return invalid(criterio.ValidateStruct(errs...))
}

func (s *Store) validateAssignee(username string) error {
	if err := validate.UsernameField("assignee", username); err != nil {
		return err
	}
	if s.users != nil && !s.users.Resolve(username) {
		return criterio.NewFieldErrors("assignee", fmt.Errorf("unknown user %q", username))
	}
	return nil
}

func validatePriority(p Priority) error {
	if !p.IsValid() {
		return criterio.NewFieldErrors("priority", fmt.Errorf("unknown priority %q", p))
	}
	return nil
}

func validateActor(a Actor) error {
	if !a.Role.IsValid() {
		return criterio.NewFieldErrors("actor.role", fmt.Errorf("unknown role %q", a.Role))
	}
	return validate.UsernameField("actor.username", a.Username)
}
