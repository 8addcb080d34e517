package board

import (
	"time"

	"github.com/colonyops/taskboard/internal/core/task"
	"github.com/colonyops/taskboard/pkg/randid"
)

const day = 24 * time.Hour

// SampleTasks returns the demo tasks seeded into an empty board. Dates are
// relative to now and assignees come from the default user directory.
func SampleTasks(now time.Time) []task.Task {
	type sample struct {
		title, description string
		priority           task.Priority
		status             task.Status
		assignee           string
		age, due           time.Duration
		spent              int64
	}

	samples := []sample{
		{"Fix login page validation", "The login form doesn't validate email addresses correctly",
			task.PriorityHigh, task.StatusOpen, "user", 2 * day, 3 * day, 3600},
		{"Implement dark mode", "Add dark mode support to the application",
			task.PriorityMedium, task.StatusInProgress, "alex", 4 * day, 5 * day, 7200},
		{"Optimize database queries", "The dashboard is loading slowly due to inefficient queries",
			task.PriorityHigh, task.StatusPendingApproval, "john", 6 * day, 1 * day, 10800},
		{"Update documentation", "Update the API documentation with the new endpoints",
			task.PriorityLow, task.StatusClosed, "jane", 10 * day, -2 * day, 5400},
		{"Fix mobile responsiveness", "The application doesn't render correctly on mobile devices",
			task.PriorityMedium, task.StatusReopened, "sam", 8 * day, 2 * day, 1800},
	}

	seen := make(map[string]bool, len(samples))
	out := make([]task.Task, 0, len(samples))
	for _, s := range samples {
		id := randid.Generate(8)
		for seen[id] {
			id = randid.Generate(8)
		}
		seen[id] = true

		created := now.Add(-s.age)
		due := now.Add(s.due)
		out = append(out, task.Task{
			ID:          id,
			Title:       s.title,
			Description: s.description,
			Priority:    s.priority,
			Status:      s.status,
			Assignee:    s.assignee,
			CreatedAt:   created,
			UpdatedAt:   created,
			DueDate:     &due,
			TimeSpent:   s.spent,
		})
	}
	return out
}
