package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/taskboard/internal/board"
	"github.com/colonyops/taskboard/internal/core/config"
	"github.com/colonyops/taskboard/internal/core/eventbus/testbus"
	"github.com/colonyops/taskboard/internal/core/task"
	"github.com/colonyops/taskboard/internal/printer"
	"github.com/colonyops/taskboard/internal/store/jsonfile"
)

// syncBuffer is a bytes.Buffer safe for the bus goroutine and the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

type harness struct {
	cfg *config.Config
	app *board.App
	out *syncBuffer
	err *syncBuffer

	// form stands in for the interactive task form. The default behaves
	// like a run without a terminal.
	form func(f *taskFields, heading string) error
}

func newHarness(t *testing.T, mutate func(*config.Config)) *harness {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.SeedSamples = false
	cfg.Timer.TickInterval = 10 * time.Millisecond
	if mutate != nil {
		mutate(&cfg)
	}

	app, err := board.NewApp(&cfg, testbus.New(t).EventBus, zerolog.Nop(),
		board.WithSnapshot(jsonfile.NewTaskStore(cfg.SnapshotFile())))
	require.NoError(t, err)
	require.NoError(t, app.Load(context.Background()))
	t.Cleanup(func() { _ = app.Tasks.Close() })

	return &harness{
		cfg:  &cfg,
		app:  app,
		out:  &syncBuffer{},
		err:  &syncBuffer{},
		form: func(*taskFields, string) error { return errNoTerminal },
	}
}

func (h *harness) runCtx(ctx context.Context, user string, args ...string) error {
	h.out.Reset()
	h.err.Reset()

	flags := &Flags{User: user, Config: h.cfg}
	root := &cli.Command{
		Name:      "taskboard",
		Writer:    h.out,
		ErrWriter: h.err,
	}
	taskCmd := NewTaskCmd(flags, h.app)
	taskCmd.form = h.form
	root = taskCmd.Register(root)
	root = NewTimeCmd(flags, h.app).Register(root)
	root = NewStatsCmd(flags, h.app).Register(root)
	root = NewConfigValidateCmd(flags).Register(root)

	ctx = printer.NewContext(ctx, printer.New(h.out, h.err))
	return root.Run(ctx, append([]string{"taskboard"}, args...))
}

func (h *harness) run(user string, args ...string) error {
	return h.runCtx(context.Background(), user, args...)
}

// mustCreate creates a task as user and returns it.
func (h *harness) mustCreate(t *testing.T, user, title string, extra ...string) task.Task {
	t.Helper()

	args := append([]string{"task", "create", "--title", title, "--description", title + " details"}, extra...)
	require.NoError(t, h.run(user, args...))

	for _, tk := range h.app.Tasks.All() {
		if tk.Title == title {
			return tk
		}
	}
	t.Fatalf("task %q not created", title)
	return task.Task{}
}

// decodeLines reads JSON lines written by a command.
func decodeLines[T any](t *testing.T, s string) []T {
	t.Helper()

	var out []T
	dec := json.NewDecoder(bytes.NewBufferString(s))
	for {
		var v T
		err := dec.Decode(&v)
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, v)
	}
}
