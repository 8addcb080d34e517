package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskboard/internal/board"
	"github.com/colonyops/taskboard/internal/core/eventbus"
	"github.com/colonyops/taskboard/internal/core/styles"
	"github.com/colonyops/taskboard/internal/core/task"
	"github.com/colonyops/taskboard/internal/printer"
)

// TimeCmd implements the taskboard time command group.
type TimeCmd struct {
	flags *Flags
	app   *board.App

	minutes  int
	duration time.Duration
	plain    bool
}

// NewTimeCmd creates a new time command.
func NewTimeCmd(flags *Flags, app *board.App) *TimeCmd {
	return &TimeCmd{flags: flags, app: app}
}

// Register adds the time command to the application.
func (cmd *TimeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "time",
		Usage: "Track time spent on tasks",
		Description: `Time is recorded in whole seconds. A live session counts time while
"time track" runs and commits it when the session stops.

Examples:
  taskboard time add abc12345 --minutes 30
  taskboard time track abc12345
  taskboard time track abc12345 --for 25m`,
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add minutes to a task",
				UsageText: "taskboard time add <id> --minutes <n>",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:        "minutes",
						Aliases:     []string{"m"},
						Usage:       "minutes to add (must be positive)",
						Required:    true,
						Destination: &cmd.minutes,
					},
				},
				Action:        cmd.runAdd,
				ShellComplete: TaskIDCompleter(cmd.flags, cmd.app),
			},
			{
				Name:      "track",
				Usage:     "Run a live timer in the foreground",
				UsageText: "taskboard time track <id> [--for <duration>]",
				Description: `Starts a session on the task and shows the elapsed time at every tick.
The session stops on q or Ctrl+C, or after --for when given, and the
elapsed whole seconds are added to the task.

On a terminal the timer is a live row; otherwise, or with --plain, each
tick is printed as a line.`,
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:        "for",
						Usage:       "stop automatically after this long",
						Destination: &cmd.duration,
					},
					&cli.BoolFlag{
						Name:        "plain",
						Usage:       "print ticks as lines instead of the live view",
						Destination: &cmd.plain,
					},
				},
				Action:        cmd.runTrack,
				ShellComplete: TaskIDCompleter(cmd.flags, cmd.app),
			},
		},
	})

	return app
}

func (cmd *TimeCmd) runAdd(ctx context.Context, c *cli.Command) error {
	id, err := argID(c, "taskboard time add <id> --minutes <n>")
	if err != nil {
		return err
	}
	actor, err := cmd.flags.Actor(cmd.app.Users)
	if err != nil {
		return err
	}

	t, err := cmd.app.Tasks.AddManualTime(ctx, actor, id, cmd.minutes)
	if err != nil {
		return fmt.Errorf("add time: %w", err)
	}

	printer.Ctx(ctx).Successf("added %dm to %s (total %s)", cmd.minutes, t.ID, task.FormatDuration(t.TimeSpent))
	return nil
}

func (cmd *TimeCmd) runTrack(ctx context.Context, c *cli.Command) error {
	id, err := argID(c, "taskboard time track <id> [--for <duration>]")
	if err != nil {
		return err
	}
	actor, err := cmd.flags.Actor(cmd.app.Users)
	if err != nil {
		return err
	}

	tk, err := cmd.app.Tasks.Show(actor, id)
	if err != nil {
		return fmt.Errorf("start timer: %w", err)
	}

	w := &lockedWriter{w: c.Root().Writer}
	p := printer.New(w, w)

	var live *liveTracker
	onTick := func(d time.Duration) {
		p.Printf("%s %s", styles.IconTimer, styles.TimerStyle.Render(task.FormatDuration(int64(d/time.Second))))
	}
	if !cmd.plain && isTerminal(c.Root().Writer) {
		live = newLiveTracker(c.Root().Writer, tk)
		onTick = live.Elapsed
	}

	var sessionID string
	var mu sync.Mutex
	cmd.app.Bus.SubscribeTimerTick(func(pl eventbus.TimerTickPayload) {
		mu.Lock()
		own := pl.Tick.SessionID == sessionID
		mu.Unlock()
		if own {
			onTick(pl.Tick.Elapsed)
		}
	})

	session, err := cmd.app.Tasks.StartTimer(ctx, actor, id)
	if err != nil {
		return fmt.Errorf("start timer: %w", err)
	}
	mu.Lock()
	sessionID = session.ID
	mu.Unlock()

	waitCtx, cancel := signalContext(ctx)
	defer cancel()
	if cmd.duration > 0 {
		var cancelTimeout context.CancelFunc
		waitCtx, cancelTimeout = context.WithTimeout(waitCtx, cmd.duration)
		defer cancelTimeout()
	}

	if live != nil {
		if err := live.Run(waitCtx); err != nil {
			p.Warnf("live view: %v", err)
		}
	} else {
		p.Infof("tracking %s, press Ctrl+C to stop", id)
		<-waitCtx.Done()
	}

	res, ok, err := cmd.app.Tasks.StopTimer(ctx, actor)
	if err != nil {
		return fmt.Errorf("stop timer: %w", err)
	}
	if !ok || !res.Flushed {
		p.Warnf("task %s was deleted, session discarded", id)
		return nil
	}

	p.Successf("stopped %s: +%s (total %s)", id, task.FormatDuration(res.Seconds), task.FormatDuration(res.Total))
	return nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// lockedWriter serialises writes from the bus goroutine and the command.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(b []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(b)
}
