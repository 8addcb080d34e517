package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskboard/internal/board"
	"github.com/colonyops/taskboard/internal/commands"
	"github.com/colonyops/taskboard/internal/core/config"
	"github.com/colonyops/taskboard/internal/core/eventbus"
	"github.com/colonyops/taskboard/internal/core/logging"
	"github.com/colonyops/taskboard/internal/core/styles"
	"github.com/colonyops/taskboard/internal/printer"
	"github.com/colonyops/taskboard/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

// eventBuffer sizes the event bus queue. Ticks from a long "time track"
// session are the main producer.
const eventBuffer = 256

func main() {
	ctx := context.Background()

	var (
		logCloser     func()
		snapshotClose func() error
		busCancel     context.CancelFunc
		bus           *eventbus.EventBus
		loaded        bool
		boardApp      = &board.App{}
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "taskboard",
		Usage:     "Track tasks, approvals and time for a small team",
		UsageText: "taskboard [global options] command [command options]",
		Description: `taskboard is a role-aware task tracker. Developers create and work
tasks and log time; managers approve or reopen finished work.

Every command runs as the user given by --user. Known users take their role
from the config; others need --role.`,
		Version:               build(),
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "user",
				Aliases:     []string{"u"},
				Usage:       "acting username",
				Sources:     cli.EnvVars("TASKBOARD_USER"),
				Value:       "user",
				Destination: &flags.User,
			},
			&cli.StringFlag{
				Name:        "role",
				Usage:       "acting role (developer, manager)",
				Sources:     cli.EnvVars("TASKBOARD_ROLE"),
				Destination: &flags.Role,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("TASKBOARD_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/taskboard.log)",
				Sources:     cli.EnvVars("TASKBOARD_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("TASKBOARD_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("TASKBOARD_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logFile := flags.LogFile
			if logFile == "" {
				logFile = filepath.Join(flags.DataDir, "taskboard.log")
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger.Hook(logging.ContextHook{})
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			// Validation ensures the theme name is known
			palette, _ := styles.GetPalette(cfg.Theme)
			styles.SetTheme(palette)

			bus = eventbus.New(eventBuffer)
			eventbus.RegisterDebugLogger(bus, logging.Component("eventbus"))
			busCtx, cancel := context.WithCancel(context.Background())
			busCancel = cancel
			go bus.Start(busCtx)

			snapshot, closeFn, err := commands.OpenSnapshot(cfg, logging.Component("snapshot"))
			if err != nil {
				return ctx, err
			}
			snapshotClose = closeFn

			var opts []board.AppOption
			if snapshot != nil {
				opts = append(opts, board.WithSnapshot(snapshot))
			}
			a, err := board.NewApp(cfg, bus, logging.Component("board"), opts...)
			if err != nil {
				return ctx, fmt.Errorf("create app: %w", err)
			}
			if err := a.Load(ctx); err != nil {
				return ctx, err
			}

			// Populate the pre-allocated App (commands already hold a pointer to it)
			*boardApp = *a
			loaded = true

			return printer.NewContext(ctx, printer.New(c.Root().Writer, os.Stderr)), nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			var closeErr error
			if loaded {
				if err := boardApp.Close(ctx); err != nil {
					log.Error().Err(err).Msg("failed to close board")
					closeErr = err
				}
			}

			if busCancel != nil {
				busCancel()
				bus.Drain()
			}

			if snapshotClose != nil {
				if err := snapshotClose(); err != nil {
					log.Error().Err(err).Msg("failed to close snapshot")
					closeErr = err
				}
			}

			if logCloser != nil {
				logCloser()
			}
			return closeErr
		},
	}

	app = commands.NewTaskCmd(flags, boardApp).Register(app)
	app = commands.NewTimeCmd(flags, boardApp).Register(app)
	app = commands.NewStatsCmd(flags, boardApp).Register(app)
	app = commands.NewConfigValidateCmd(flags).Register(app)

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		if msg := runErr.Error(); msg != "" {
			fmt.Fprintln(os.Stderr, styles.ErrorStyle.Render(msg))
		}
		exitCode = 1
	}

	os.Exit(exitCode)
}
