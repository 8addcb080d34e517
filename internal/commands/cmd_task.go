package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskboard/internal/board"
	"github.com/colonyops/taskboard/internal/core/config"
	"github.com/colonyops/taskboard/internal/core/logging"
	"github.com/colonyops/taskboard/internal/core/task"
	"github.com/colonyops/taskboard/internal/printer"
	"github.com/colonyops/taskboard/internal/store/jsonfile"
	"github.com/colonyops/taskboard/pkg/iojson"
)

// TaskCmd implements the taskboard task command group.
type TaskCmd struct {
	flags *Flags
	app   *board.App

	// create / edit flags
	title       string
	description string
	priority    string
	assignee    string
	due         string

	// list flags
	query    task.Query
	jsonOut  bool
	watch    bool
	showJSON bool

	// import flags
	importer iojson.FileReader[[]task.Draft]
	glob     string

	// form fills task fields interactively when flags leave them out.
	form func(f *taskFields, heading string) error
}

// NewTaskCmd creates a new task command.
func NewTaskCmd(flags *Flags, app *board.App) *TaskCmd {
	return &TaskCmd{flags: flags, app: app, form: promptTaskFields}
}

// Register adds the task command to the application.
func (cmd *TaskCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "task",
		Usage: "Create, list and work tasks",
		Description: `Task commands act as the user given by --user.

Developers see and work the tasks assigned to them; managers see every
task and approve or reject work waiting in pending_approval.

Examples:
  taskboard task list --status in_progress
  taskboard task create --title "Fix login" --description "Tokens expire early"
  taskboard task status abc12345 pending_approval
  taskboard --user admin task status abc12345 closed`,
		Commands: []*cli.Command{
			cmd.listCmd(),
			cmd.showCmd(),
			cmd.createCmd(),
			cmd.editCmd(),
			cmd.statusCmd(),
			cmd.deleteCmd(),
			cmd.importCmd(),
		},
	})

	return app
}

func (cmd *TaskCmd) listCmd() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Aliases:   []string{"ls"},
		Usage:     "List visible tasks",
		UsageText: "taskboard task list [--search <text>] [--status <status>] [--priority <priority>] [--json] [--watch]",
		Description: `Lists the tasks visible to the current user, in creation order.

--search matches title or description, case-insensitively. --status and
--priority accept a value or "all".

With --watch the table is redrawn whenever another taskboard process saves
the board. Watching requires the json snapshot backend.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "search",
				Aliases:     []string{"q"},
				Usage:       "text to match in title or description",
				Destination: &cmd.query.Search,
			},
			&cli.StringFlag{
				Name:        "status",
				Aliases:     []string{"s"},
				Usage:       "filter by status (open, in_progress, pending_approval, closed, reopened, all)",
				Destination: &cmd.query.Status,
			},
			&cli.StringFlag{
				Name:        "priority",
				Aliases:     []string{"p"},
				Usage:       "filter by priority (low, medium, high, all)",
				Destination: &cmd.query.Priority,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print tasks as JSON lines",
				Destination: &cmd.jsonOut,
			},
			&cli.BoolFlag{
				Name:        "watch",
				Aliases:     []string{"w"},
				Usage:       "redraw when the snapshot changes",
				Destination: &cmd.watch,
			},
		},
		Action: cmd.runList,
	}
}

func (cmd *TaskCmd) showCmd() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show one task",
		UsageText: "taskboard task show <id> [--json]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print the task and capabilities as JSON",
				Destination: &cmd.showJSON,
			},
		},
		Action:        cmd.runShow,
		ShellComplete: TaskIDCompleter(cmd.flags, cmd.app),
	}
}

func (cmd *TaskCmd) draftFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "title",
			Aliases:     []string{"t"},
			Usage:       "task title",
			Destination: &cmd.title,
		},
		&cli.StringFlag{
			Name:        "description",
			Aliases:     []string{"d"},
			Usage:       "task description (markdown)",
			Destination: &cmd.description,
		},
		&cli.StringFlag{
			Name:        "priority",
			Aliases:     []string{"p"},
			Usage:       "low, medium or high",
			Destination: &cmd.priority,
		},
		&cli.StringFlag{
			Name:        "assignee",
			Aliases:     []string{"a"},
			Usage:       "username to assign (defaults to you on create)",
			Destination: &cmd.assignee,
		},
		&cli.StringFlag{
			Name:        "due",
			Usage:       "due date as YYYY-MM-DD, or none to clear",
			Destination: &cmd.due,
		},
	}
}

func (cmd *TaskCmd) createCmd() *cli.Command {
	return &cli.Command{
		Name:      "create",
		Aliases:   []string{"new"},
		Usage:     "Create a task",
		UsageText: "taskboard task create [--title <title> --description <desc>] [--priority <p>] [--assignee <user>] [--due <date>]",
		Description: `Creates an open task. Priority defaults to medium and the assignee
defaults to the current user.

Without --title or --description, and with stdin attached to a terminal, a
form asks for the missing fields.`,
		Flags:  cmd.draftFlags(),
		Action: cmd.runCreate,
	}
}

func (cmd *TaskCmd) editCmd() *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Edit task fields",
		UsageText: "taskboard task edit <id> [--title <title>] [--description <desc>] [--priority <p>] [--assignee <user>] [--due <date|none>]",
		Description: `Changes only the fields given. Whether you may edit depends on your
role and the task status; see "task show" for your capabilities.

With no field flags, and stdin attached to a terminal, a form prefilled
with the current values opens instead.`,
		Flags:         cmd.draftFlags(),
		Action:        cmd.runEdit,
		ShellComplete: TaskIDCompleter(cmd.flags, cmd.app),
	}
}

func (cmd *TaskCmd) statusCmd() *cli.Command {
	return &cli.Command{
		Name:      "status",
		Usage:     "Move a task to a new status",
		UsageText: "taskboard task status <id> <status>",
		Description: `Transitions allowed:
  developer  open -> in_progress
  developer  in_progress -> pending_approval
  developer  reopened -> in_progress
  manager    pending_approval -> closed
  manager    pending_approval -> reopened`,
		Action:        cmd.runStatus,
		ShellComplete: TaskIDCompleter(cmd.flags, cmd.app),
	}
}

func (cmd *TaskCmd) deleteCmd() *cli.Command {
	return &cli.Command{
		Name:          "delete",
		Aliases:       []string{"rm"},
		Usage:         "Delete a task",
		UsageText:     "taskboard task delete <id>",
		Action:        cmd.runDelete,
		ShellComplete: TaskIDCompleter(cmd.flags, cmd.app),
	}
}

func (cmd *TaskCmd) importCmd() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Create tasks from a JSON array of drafts",
		UsageText: "taskboard task import [-f <file>] [--glob <pattern>]",
		Description: `Reads a JSON array of drafts from a file, every file matching a glob,
or stdin. Import stops at the first invalid draft; tasks created before it
are kept.

Example:
  echo '[{"title":"Write docs","description":"README"}]' | taskboard task import
  taskboard task import --glob 'backlog/**/*.json'`,
		Flags: []cli.Flag{
			cmd.importer.Flag(),
			&cli.StringFlag{
				Name:        "glob",
				Usage:       "import every file matching the pattern (supports **)",
				Destination: &cmd.glob,
			},
		},
		Action: cmd.runImport,
	}
}

func (cmd *TaskCmd) actor() (task.Actor, error) {
	return cmd.flags.Actor(cmd.app.Users)
}

func (cmd *TaskCmd) runList(ctx context.Context, c *cli.Command) error {
	actor, err := cmd.actor()
	if err != nil {
		return err
	}

	if err := cmd.printList(c, actor); err != nil {
		return err
	}
	if !cmd.watch {
		return nil
	}

	if cmd.app.Config.Snapshot.Backend != config.BackendJSON || !cmd.app.Config.Snapshot.Enabled {
		return fmt.Errorf("--watch requires the json snapshot backend")
	}

	fw, err := jsonfile.NewFileWatcher(cmd.app.Config.SnapshotFile(), logging.Component("watch"))
	if err != nil {
		return fmt.Errorf("watch snapshot: %w", err)
	}
	defer func() { _ = fw.Close() }()

	ctx, cancel := signalContext(ctx)
	defer cancel()

	for range fw.Watch(ctx) {
		if err := cmd.app.Reload(ctx); err != nil {
			printer.Ctx(ctx).Warnf("reload: %v", err)
			continue
		}
		if err := cmd.printList(c, actor); err != nil {
			return err
		}
	}
	return nil
}

func (cmd *TaskCmd) printList(c *cli.Command, actor task.Actor) error {
	tasks := cmd.app.Tasks.List(actor, cmd.query)

	w := c.Root().Writer
	if cmd.jsonOut {
		for _, t := range tasks {
			if err := iojson.WriteLine(w, t); err != nil {
				return err
			}
		}
		return nil
	}
	return renderTaskTable(w, tasks)
}

func (cmd *TaskCmd) runShow(ctx context.Context, c *cli.Command) error {
	id, err := argID(c, "taskboard task show <id>")
	if err != nil {
		return err
	}
	actor, err := cmd.actor()
	if err != nil {
		return err
	}

	t, err := cmd.app.Tasks.Show(actor, id)
	if err != nil {
		return fmt.Errorf("show task: %w", err)
	}
	cp, err := cmd.app.Tasks.Capability(actor, id)
	if err != nil {
		return fmt.Errorf("show task: %w", err)
	}

	if cmd.showJSON {
		return iojson.WriteLine(c.Root().Writer, struct {
			task.Task
			Capability task.Capability `json:"capability"`
		}{t, cp})
	}
	return renderTaskDetail(c.Root().Writer, t, cp)
}

func (cmd *TaskCmd) runCreate(ctx context.Context, c *cli.Command) error {
	actor, err := cmd.actor()
	if err != nil {
		return err
	}
	fields := taskFields{
		Title:       cmd.title,
		Description: cmd.description,
		Priority:    cmd.priority,
		Due:         cmd.due,
	}
	if fields.Title == "" || fields.Description == "" {
		if err := cmd.form(&fields, "New task"); err != nil {
			switch {
			case errors.Is(err, huh.ErrUserAborted):
				return nil
			case errors.Is(err, errNoTerminal):
				return fmt.Errorf("--title and --description are required outside a terminal")
			}
			return fmt.Errorf("form: %w", err)
		}
	}

	due, _, err := parseDue(fields.Due)
	if err != nil {
		return err
	}

	t, err := cmd.app.Tasks.Create(ctx, actor, task.Draft{
		Title:       fields.Title,
		Description: fields.Description,
		Priority:    task.Priority(fields.Priority),
		Assignee:    cmd.assignee,
		DueDate:     due,
	})
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}

	printer.Ctx(ctx).Successf("created %s", t.ID)
	return nil
}

func (cmd *TaskCmd) runEdit(ctx context.Context, c *cli.Command) error {
	id, err := argID(c, "taskboard task edit <id> [flags]")
	if err != nil {
		return err
	}
	actor, err := cmd.actor()
	if err != nil {
		return err
	}

	var p task.Patch
	if c.IsSet("title") {
		p.Title = &cmd.title
	}
	if c.IsSet("description") {
		p.Description = &cmd.description
	}
	if c.IsSet("priority") {
		prio := task.Priority(cmd.priority)
		p.Priority = &prio
	}
	if c.IsSet("assignee") {
		p.Assignee = &cmd.assignee
	}
	if c.IsSet("due") {
		due, clear, err := parseDue(cmd.due)
		if err != nil {
			return err
		}
		p.DueDate = due
		p.ClearDueDate = clear
	}
	if p.IsEmpty() {
		p, err = cmd.editForm(actor, id)
		if err != nil {
			return err
		}
		if p.IsEmpty() {
			printer.Ctx(ctx).Infof("no changes to %s", id)
			return nil
		}
	}

	if _, err := cmd.app.Tasks.Update(ctx, actor, id, p); err != nil {
		return fmt.Errorf("edit task: %w", err)
	}

	printer.Ctx(ctx).Successf("updated %s", id)
	return nil
}

// editForm prefills the task form with id's current values and returns what
// the user changed. Aborting yields an empty patch.
func (cmd *TaskCmd) editForm(actor task.Actor, id string) (task.Patch, error) {
	cur, err := cmd.app.Tasks.Show(actor, id)
	if err != nil {
		return task.Patch{}, fmt.Errorf("edit task: %w", err)
	}

	fields := fieldsFromTask(cur)
	if err := cmd.form(&fields, "Edit "+id); err != nil {
		switch {
		case errors.Is(err, huh.ErrUserAborted):
			return task.Patch{}, nil
		case errors.Is(err, errNoTerminal):
			return task.Patch{}, fmt.Errorf("nothing to change: pass at least one field flag")
		}
		return task.Patch{}, fmt.Errorf("form: %w", err)
	}
	return fields.patch(cur)
}

func (cmd *TaskCmd) runStatus(ctx context.Context, c *cli.Command) error {
	if c.NArg() < 2 {
		return fmt.Errorf("usage: taskboard task status <id> <status>")
	}
	id := c.Args().Get(0)
	status := task.Status(c.Args().Get(1))

	actor, err := cmd.actor()
	if err != nil {
		return err
	}

	t, err := cmd.app.Tasks.SetStatus(ctx, actor, id, status)
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}

	printer.Ctx(ctx).Successf("%s is now %s", t.ID, t.Status)
	return nil
}

func (cmd *TaskCmd) runDelete(ctx context.Context, c *cli.Command) error {
	id, err := argID(c, "taskboard task delete <id>")
	if err != nil {
		return err
	}
	actor, err := cmd.actor()
	if err != nil {
		return err
	}

	if err := cmd.app.Tasks.Delete(ctx, actor, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	printer.Ctx(ctx).Successf("deleted %s", id)
	return nil
}

func (cmd *TaskCmd) runImport(ctx context.Context, c *cli.Command) error {
	actor, err := cmd.actor()
	if err != nil {
		return err
	}

	drafts, err := cmd.readDrafts()
	if err != nil {
		return err
	}

	created, err := cmd.app.Tasks.Import(ctx, actor, drafts)
	p := printer.Ctx(ctx)
	if len(created) > 0 {
		p.Successf("imported %d of %d tasks", len(created), len(drafts))
	}
	if err != nil {
		return fmt.Errorf("import tasks: %w", err)
	}
	if len(drafts) == 0 {
		p.Infof("nothing to import")
	}
	return nil
}

func (cmd *TaskCmd) readDrafts() ([]task.Draft, error) {
	if cmd.glob == "" {
		return cmd.importer.Read()
	}

	files, err := doublestar.FilepathGlob(cmd.glob, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("expand %q: %w", cmd.glob, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files match %q", cmd.glob)
	}

	var drafts []task.Draft
	for _, f := range files {
		cmd.importer.SetFile(f)
		batch, err := cmd.importer.Read()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		drafts = append(drafts, batch...)
	}
	return drafts, nil
}

func argID(c *cli.Command, usage string) (string, error) {
	if c.NArg() < 1 {
		return "", fmt.Errorf("usage: %s", usage)
	}
	return c.Args().Get(0), nil
}
