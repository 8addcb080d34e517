package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/colonyops/taskboard/internal/core/styles"
	"github.com/colonyops/taskboard/internal/core/task"
)

type (
	elapsedMsg time.Duration
	stopMsg    struct{}
)

var stopKey = key.NewBinding(
	key.WithKeys("q", "esc", "ctrl+c"),
	key.WithHelp("q", "stop and record"),
)

// trackModel is the single-row live view shown by "time track".
type trackModel struct {
	taskID  string
	title   string
	elapsed time.Duration
	spin    spinner.Model
	help    help.Model
	done    bool
}

func newTrackModel(t task.Task) trackModel {
	return trackModel{
		taskID: t.ID,
		title:  t.Title,
		spin: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(styles.CurrentPalette.Primary)),
		),
		help: help.New(),
	}
}

func (m trackModel) Init() tea.Cmd {
	return m.spin.Tick
}

func (m trackModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case elapsedMsg:
		m.elapsed = time.Duration(msg)
		return m, nil
	case stopMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if key.Matches(msg, stopKey) {
			m.done = true
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m trackModel) View() string {
	if m.done {
		return ""
	}
	row := fmt.Sprintf("%s %s %s  %s",
		m.spin.View(),
		styles.IDStyle.Render(m.taskID),
		m.title,
		styles.TimerStyle.Render(task.FormatDuration(int64(m.elapsed/time.Second))),
	)
	return row + "\n" + m.help.ShortHelpView([]key.Binding{stopKey}) + "\n"
}

// liveTracker drives a trackModel program until the user stops it or ctx ends.
type liveTracker struct {
	prog *tea.Program
}

func newLiveTracker(out io.Writer, t task.Task) *liveTracker {
	return &liveTracker{prog: tea.NewProgram(newTrackModel(t), tea.WithOutput(out))}
}

// Elapsed forwards a tick. Safe to call from any goroutine, including after
// the program has exited.
func (lt *liveTracker) Elapsed(d time.Duration) {
	lt.prog.Send(elapsedMsg(d))
}

func (lt *liveTracker) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		lt.prog.Send(stopMsg{})
	}()
	_, err := lt.prog.Run()
	return err
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
