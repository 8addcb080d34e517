package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleTasks() []Task {
	return []Task{
		{ID: "1", Title: "Fix login page", Description: "Email validation", Priority: PriorityHigh, Status: StatusOpen, Assignee: "alice"},
		{ID: "2", Title: "Dark mode", Description: "Add theme support", Priority: PriorityMedium, Status: StatusInProgress, Assignee: "carol"},
		{ID: "3", Title: "Optimize queries", Description: "Dashboard LOGIN is slow", Priority: PriorityHigh, Status: StatusPendingApproval, Assignee: "alice"},
		{ID: "4", Title: "Docs", Description: "API docs", Priority: PriorityLow, Status: StatusClosed, Assignee: "carol"},
		{ID: "5", Title: "Mobile layout", Description: "Responsive fixes", Priority: PriorityMedium, Status: StatusReopened, Assignee: "alice"},
	}
}

func ids(tasks []Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestView(t *testing.T) {
	tests := []struct {
		name  string
		actor Actor
		query Query
		want  []string
	}{
		{"manager sees all", bob, Query{}, []string{"1", "2", "3", "4", "5"}},
		{"developer scoped", alice, Query{}, []string{"1", "3", "5"}},
		{"developer with no tasks", Actor{Username: "dave", Role: RoleDeveloper}, Query{}, []string{}},
		{"search title or description case-insensitive", bob, Query{Search: "login"}, []string{"1", "3"}},
		{"search after scoping", Actor{Username: "carol", Role: RoleDeveloper}, Query{Search: "login"}, []string{}},
		{"status filter", bob, Query{Status: string(StatusInProgress)}, []string{"2"}},
		{"status all", bob, Query{Status: FilterAll}, []string{"1", "2", "3", "4", "5"}},
		{"priority filter", bob, Query{Priority: string(PriorityHigh)}, []string{"1", "3"}},
		{"priority all", alice, Query{Priority: FilterAll}, []string{"1", "3", "5"}},
		{"combined", alice, Query{Search: "o", Status: string(StatusReopened), Priority: string(PriorityMedium)}, []string{"5"}},
		{"no match", bob, Query{Search: "nothing here"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := View(sampleTasks(), tt.actor, tt.query)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestView_Idempotent(t *testing.T) {
	tasks := sampleTasks()
	q := Query{Search: "a", Priority: string(PriorityMedium)}

	once := View(tasks, bob, q)
	twice := View(once, bob, q)

	assert.Equal(t, once, twice)
	assert.Equal(t, once, View(tasks, bob, q))
}

func TestView_EmptyQueryEqualsScope(t *testing.T) {
	tasks := sampleTasks()

	assert.Equal(t, Scope(tasks, alice), View(tasks, alice, Query{}))
	assert.Equal(t, Scope(tasks, bob), View(tasks, bob, Query{Status: FilterAll, Priority: FilterAll}))
}

func TestView_DoesNotMutateInput(t *testing.T) {
	tasks := sampleTasks()
	before := append([]Task(nil), tasks...)

	View(tasks, alice, Query{Search: "mobile"})

	assert.Equal(t, before, tasks)
}
