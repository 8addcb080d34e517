package task

import "strings"

// FilterAll is the filter value that disables a status or priority filter.
const FilterAll = "all"

// Query narrows a view. Empty fields match everything.
type Query struct {
	Search   string `json:"search,omitempty"`
	Status   string `json:"status,omitempty"`   // a Status, FilterAll, or empty
	Priority string `json:"priority,omitempty"` // a Priority, FilterAll, or empty
}

// Scope returns the tasks visible to actor. Developers see only tasks
// assigned to them; managers see everything.
func Scope(tasks []Task, actor Actor) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if actor.Role == RoleDeveloper && t.Assignee != actor.Username {
			continue
		}
		out = append(out, t)
	}
	return out
}

// View applies role scoping, text search, the status filter and the priority
// filter, in that order, preserving the input order. The input is never
// modified.
func View(tasks []Task, actor Actor, q Query) []Task {
	scoped := Scope(tasks, actor)

	term := strings.ToLower(q.Search)
	out := scoped[:0]
	for _, t := range scoped {
		if term != "" &&
			!strings.Contains(strings.ToLower(t.Title), term) &&
			!strings.Contains(strings.ToLower(t.Description), term) {
			continue
		}
		if !matchFilter(q.Status, string(t.Status)) {
			continue
		}
		if !matchFilter(q.Priority, string(t.Priority)) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func matchFilter(filter, value string) bool {
	return filter == "" || filter == FilterAll || filter == value
}
