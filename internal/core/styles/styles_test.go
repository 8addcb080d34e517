package styles

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/taskboard/internal/core/task"
)

func TestThemes(t *testing.T) {
	names := ThemeNames()
	assert.Contains(t, names, DefaultTheme)

	for _, name := range names {
		p, ok := GetPalette(name)
		require.True(t, ok, name)
		assert.NotEmpty(t, p.Primary, name)
		assert.NotEmpty(t, p.Error, name)
	}

	_, ok := GetPalette("nope")
	assert.False(t, ok)
}

func TestStatusAndPriority(t *testing.T) {
	for _, s := range task.Statuses() {
		out := Status(s)
		assert.Contains(t, out, string(s))
		assert.Contains(t, out, StatusIcon(s))
	}
	for _, p := range task.Priorities() {
		assert.Contains(t, Priority(p), string(p))
	}
	assert.Equal(t, "?", StatusIcon("bogus"))
}

func TestGlamourStyle_UsesPalette(t *testing.T) {
	p, _ := GetPalette("gruvbox")
	SetTheme(p)
	t.Cleanup(func() { SetTheme(themes[DefaultTheme]) })

	cfg := GlamourStyle()
	require.NotNil(t, cfg.Document.Color)
	assert.Equal(t, string(p.Foreground), *cfg.Document.Color)
	assert.Equal(t, string(p.Primary), *cfg.H2.Color)
}

func TestRenderMarkdown(t *testing.T) {
	out, err := RenderMarkdown("# Heading\n\nsome **bold** text", 40)
	require.NoError(t, err)
	assert.Contains(t, out, "Heading")
	assert.Contains(t, strings.Join(strings.Fields(out), " "), "bold")
}
