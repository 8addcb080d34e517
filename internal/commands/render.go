package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/term"

	"github.com/colonyops/taskboard/internal/core/styles"
	"github.com/colonyops/taskboard/internal/core/task"
)

const dueLayout = "2006-01-02"

// parseDue reads a --due value. "none" clears the due date.
func parseDue(s string) (*time.Time, bool, error) {
	if s == "" || s == "none" {
		return nil, s == "none", nil
	}
	due, err := time.Parse(dueLayout, s)
	if err != nil {
		return nil, false, fmt.Errorf("invalid --due %q: expected YYYY-MM-DD or none", s)
	}
	return &due, false, nil
}

func formatDue(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(dueLayout)
}

func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

func renderTaskTable(w io.Writer, tasks []task.Task) error {
	if len(tasks) == 0 {
		_, err := fmt.Fprintln(w, styles.MutedStyle.Render("no tasks"))
		return err
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.DividerStyle).
		Headers("ID", "TITLE", "STATUS", "PRIORITY", "ASSIGNEE", "DUE", "TIME").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.HeaderStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})

	for _, tk := range tasks {
		t.Row(
			styles.IDStyle.Render(tk.ID),
			tk.Title,
			styles.Status(tk.Status),
			styles.Priority(tk.Priority),
			tk.Assignee,
			formatDue(tk.DueDate),
			task.FormatDuration(tk.TimeSpent),
		)
	}

	_, err := fmt.Fprintln(w, t.String())
	return err
}

func renderTaskDetail(w io.Writer, t task.Task, cp task.Capability) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", styles.IDStyle.Render(t.ID), styles.HeaderStyle.Render(t.Title))
	fmt.Fprintf(&b, "%s  %s  assigned to %s\n", styles.Status(t.Status), styles.Priority(t.Priority), t.Assignee)
	fmt.Fprintf(&b, "due %s  time %s\n", formatDue(t.DueDate), task.FormatDuration(t.TimeSpent))
	fmt.Fprintf(&b, "%s\n",
		styles.MutedStyle.Render(fmt.Sprintf("created %s  updated %s",
			t.CreatedAt.Local().Format(time.DateTime), t.UpdatedAt.Local().Format(time.DateTime))))

	next := make([]string, 0, len(cp.Next))
	for _, s := range cp.Next {
		next = append(next, string(s))
	}
	if len(next) == 0 {
		next = append(next, "none")
	}
	fmt.Fprintf(&b, "%s\n", styles.MutedStyle.Render("next: "+strings.Join(next, ", ")))

	desc, err := styles.RenderMarkdown(t.Description, terminalWidth())
	if err != nil {
		desc = t.Description + "\n"
	}
	b.WriteString(desc)

	_, err = io.WriteString(w, b.String())
	return err
}
