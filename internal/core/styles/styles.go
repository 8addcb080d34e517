// Package styles provides shared lipgloss styles for CLI output.
package styles

import (
	"github.com/charmbracelet/glamour"
	glamouransi "github.com/charmbracelet/glamour/ansi"
	glamourstyles "github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/taskboard/internal/core/task"
)

// CurrentPalette holds the active theme palette.
var CurrentPalette Palette

// Style exports.
var (
	HeaderStyle  lipgloss.Style
	DividerStyle lipgloss.Style
	MutedStyle   lipgloss.Style
	IDStyle      lipgloss.Style
	SuccessStyle lipgloss.Style
	WarningStyle lipgloss.Style
	ErrorStyle   lipgloss.Style
	TimerStyle   lipgloss.Style

	statusStyles   map[task.Status]lipgloss.Style
	priorityStyles map[task.Priority]lipgloss.Style
)

// SetTheme sets the active palette and rebuilds all global styles.
func SetTheme(p Palette) {
	CurrentPalette = p

	HeaderStyle = lipgloss.NewStyle().
		Foreground(p.Primary).
		Bold(true)
	DividerStyle = lipgloss.NewStyle().
		Foreground(p.Muted)
	MutedStyle = lipgloss.NewStyle().
		Foreground(p.Muted)
	IDStyle = lipgloss.NewStyle().
		Foreground(p.Secondary)
	SuccessStyle = lipgloss.NewStyle().
		Foreground(p.Success)
	WarningStyle = lipgloss.NewStyle().
		Foreground(p.Warning)
	ErrorStyle = lipgloss.NewStyle().
		Foreground(p.Error).
		Bold(true)
	TimerStyle = lipgloss.NewStyle().
		Foreground(p.Warning).
		Bold(true)

	statusStyles = map[task.Status]lipgloss.Style{
		task.StatusOpen:            lipgloss.NewStyle().Foreground(p.Primary),
		task.StatusInProgress:      lipgloss.NewStyle().Foreground(p.Warning),
		task.StatusPendingApproval: lipgloss.NewStyle().Foreground(p.Secondary),
		task.StatusClosed:          lipgloss.NewStyle().Foreground(p.Success),
		task.StatusReopened:        lipgloss.NewStyle().Foreground(p.Error),
	}
	priorityStyles = map[task.Priority]lipgloss.Style{
		task.PriorityHigh:   lipgloss.NewStyle().Foreground(p.Error).Bold(true),
		task.PriorityMedium: lipgloss.NewStyle().Foreground(p.Warning),
		task.PriorityLow:    lipgloss.NewStyle().Foreground(p.Muted),
	}
}

// Status renders a status badge with its icon.
func Status(s task.Status) string {
	return statusStyles[s].Render(StatusIcon(s) + " " + string(s))
}

// Priority renders a priority label.
func Priority(p task.Priority) string {
	return priorityStyles[p].Render(string(p))
}

// nolint:gochecknoinits // bootstrap default theme before any style is accessed.
func init() {
	SetTheme(themes[DefaultTheme])
}

func colorHexPtr(c lipgloss.Color) *string {
	if c == "" {
		return nil
	}
	hex := string(c)
	return &hex
}

// GlamourStyle returns a Glamour style config derived from the active theme.
func GlamourStyle() glamouransi.StyleConfig {
	cfg := glamourstyles.DarkStyleConfig

	p := CurrentPalette
	fg := colorHexPtr(p.Foreground)
	primary := colorHexPtr(p.Primary)
	secondary := colorHexPtr(p.Secondary)
	muted := colorHexPtr(p.Muted)

	cfg.Document.Color = fg
	cfg.Paragraph.Color = fg

	cfg.Heading.Color = primary
	cfg.H1.Color = fg
	cfg.H1.BackgroundColor = colorHexPtr(p.Surface)
	cfg.H2.Color = primary
	cfg.H3.Color = primary

	cfg.BlockQuote.Color = muted
	cfg.HorizontalRule.Color = muted

	cfg.Link.Color = secondary
	cfg.LinkText.Color = secondary

	cfg.Code.Color = secondary
	cfg.CodeBlock.Color = muted

	return cfg
}

// RenderMarkdown renders md for a terminal of the given width using the
// active theme.
func RenderMarkdown(md string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(GlamourStyle()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return r.Render(md)
}
