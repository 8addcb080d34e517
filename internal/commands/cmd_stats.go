package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskboard/internal/board"
	"github.com/colonyops/taskboard/internal/core/styles"
	"github.com/colonyops/taskboard/internal/core/task"
	"github.com/colonyops/taskboard/pkg/iojson"
)

// StatsCmd implements the stats and report commands.
type StatsCmd struct {
	flags *Flags
	app   *board.App

	jsonOut bool
	days    int
	top     int
}

// NewStatsCmd creates the stats and report commands.
func NewStatsCmd(flags *Flags, app *board.App) *StatsCmd {
	return &StatsCmd{flags: flags, app: app}
}

// Register adds the stats and report commands to the application.
func (cmd *StatsCmd) Register(app *cli.Command) *cli.Command {
	jsonFlag := func() cli.Flag {
		return &cli.BoolFlag{
			Name:        "json",
			Usage:       "print as JSON",
			Destination: &cmd.jsonOut,
		}
	}

	app.Commands = append(app.Commands,
		&cli.Command{
			Name:        "stats",
			Usage:       "Count visible tasks by status and priority",
			UsageText:   "taskboard stats [--json]",
			Description: "Summarises the tasks visible to the current user. Empty buckets are omitted.",
			Flags:       []cli.Flag{jsonFlag()},
			Action:      cmd.runStats,
		},
		&cli.Command{
			Name:      "report",
			Usage:     "Show the creation trend and where time went",
			UsageText: "taskboard report [--days <n>] [--top <n>] [--json]",
			Description: `Prints how many visible tasks were created on each of the last --days
days, and the --top tasks ranked by time spent.`,
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:        "days",
					Usage:       "trend window in days",
					Value:       7,
					Destination: &cmd.days,
				},
				&cli.IntFlag{
					Name:        "top",
					Usage:       "number of tasks ranked by time spent",
					Value:       5,
					Destination: &cmd.top,
				},
				jsonFlag(),
			},
			Action: cmd.runReport,
		},
	)

	return app
}

func (cmd *StatsCmd) runStats(ctx context.Context, c *cli.Command) error {
	actor, err := cmd.flags.Actor(cmd.app.Users)
	if err != nil {
		return err
	}

	st := cmd.app.Tasks.Stats(actor)
	w := c.Root().Writer
	if cmd.jsonOut {
		return iojson.WriteLine(w, st)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %d  %s %s\n",
		styles.HeaderStyle.Render("tasks"), st.Total,
		styles.HeaderStyle.Render("time"), task.FormatDuration(st.TimeSpent))
	writeBuckets(&b, "by status", st.ByStatus)
	writeBuckets(&b, "by priority", st.ByPriority)

	_, err = io.WriteString(w, b.String())
	return err
}

func writeBuckets(b *strings.Builder, title string, buckets []task.Bucket) {
	fmt.Fprintf(b, "%s\n", styles.MutedStyle.Render(title))
	for _, bk := range buckets {
		fmt.Fprintf(b, "  %-18s %d\n", bk.Name, bk.Count)
	}
}

func (cmd *StatsCmd) runReport(ctx context.Context, c *cli.Command) error {
	actor, err := cmd.flags.Actor(cmd.app.Users)
	if err != nil {
		return err
	}
	if cmd.days < 1 || cmd.top < 1 {
		return fmt.Errorf("--days and --top must be positive")
	}

	rep := cmd.app.Tasks.Report(actor, task.ReportOptions{Days: cmd.days, Top: cmd.top})
	w := c.Root().Writer
	if cmd.jsonOut {
		return iojson.WriteLine(w, rep)
	}

	trend := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.DividerStyle).
		Headers("DATE", "CREATED")
	for _, d := range rep.Trend {
		trend.Row(d.Date, fmt.Sprint(d.Count))
	}

	top := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.DividerStyle).
		Headers("ID", "TASK", "TIME", "HOURS")
	for _, tt := range rep.TopTime {
		top.Row(styles.IDStyle.Render(tt.ID), tt.Name, task.FormatDuration(tt.Seconds), fmt.Sprintf("%.2f", tt.Hours))
	}

	_, err = fmt.Fprintf(w, "%s\n%s\n%s\n%s\n",
		styles.HeaderStyle.Render("created per day"), trend.String(),
		styles.HeaderStyle.Render("time spent"), top.String())
	return err
}
