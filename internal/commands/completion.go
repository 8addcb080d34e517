package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskboard/internal/board"
	"github.com/colonyops/taskboard/internal/core/task"
)

// TaskIDCompleter returns a ShellCompleteFunc that suggests the ids of tasks
// visible to the acting user, followed by their titles. Set this as the
// ShellComplete field on any cli.Command that takes a task id argument.
//
// When the user's last typed argument starts with "-", it falls back to the
// default flag completion behavior.
func TaskIDCompleter(flags *Flags, app *board.App) cli.ShellCompleteFunc {
	return func(ctx context.Context, cmd *cli.Command) {
		// Delegate to default flag completion when typing a flag
		if args := cmd.Args(); args.Present() {
			last := args.Slice()[args.Len()-1]
			if len(last) > 0 && last[0] == '-' {
				cli.DefaultCompleteWithFlags(ctx, cmd)
				return
			}
		}

		if app.Tasks == nil {
			return
		}
		actor, err := flags.Actor(app.Users)
		if err != nil {
			return
		}

		w := cmd.Root().Writer
		for _, t := range app.Tasks.List(actor, task.Query{}) {
			_, _ = fmt.Fprintf(w, "%s:%s\n", t.ID, t.Title)
		}
	}
}
