package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/colonyops/taskboard/internal/core/task"
)

// errNoTerminal is returned by the default prompt when stdin cannot host a form.
var errNoTerminal = errors.New("stdin is not a terminal")

// taskFields are the values the interactive task form edits. Due is
// YYYY-MM-DD, empty for no due date.
type taskFields struct {
	Title       string
	Description string
	Priority    string
	Due         string
}

func fieldsFromTask(t task.Task) taskFields {
	f := taskFields{
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
	}
	if t.DueDate != nil {
		f.Due = t.DueDate.Format(dueLayout)
	}
	return f
}

// patch returns only the fields that differ from orig.
func (f taskFields) patch(orig task.Task) (task.Patch, error) {
	var p task.Patch
	if f.Title != orig.Title {
		p.Title = &f.Title
	}
	if f.Description != orig.Description {
		p.Description = &f.Description
	}
	if prio := task.Priority(f.Priority); prio != orig.Priority {
		p.Priority = &prio
	}

	if f.Due != fieldsFromTask(orig).Due {
		if f.Due == "" {
			p.ClearDueDate = true
			return p, nil
		}
		due, _, err := parseDue(f.Due)
		if err != nil {
			return task.Patch{}, err
		}
		p.DueDate = due
	}
	return p, nil
}

func (f *taskFields) form(heading string) *huh.Form {
	if f.Priority == "" {
		f.Priority = string(task.PriorityMedium)
	}

	priorities := make([]string, 0, len(task.Priorities()))
	for _, p := range task.Priorities() {
		priorities = append(priorities, string(p))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Validate(required("title")).
				Value(&f.Title),
			huh.NewText().
				Title("Description").
				Description("Markdown, rendered by task show").
				Validate(required("description")).
				Value(&f.Description),
			huh.NewSelect[string]().
				Title("Priority").
				Options(huh.NewOptions(priorities...)...).
				Value(&f.Priority),
			huh.NewInput().
				Title("Due date").
				Description("YYYY-MM-DD, leave empty for none").
				Validate(validDue).
				Value(&f.Due),
		).Title(heading),
	)
}

// promptTaskFields runs the task form on the controlling terminal.
func promptTaskFields(f *taskFields, heading string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errNoTerminal
	}
	return f.form(heading).Run()
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func validDue(s string) error {
	if s == "" {
		return nil
	}
	_, _, err := parseDue(s)
	return err
}
