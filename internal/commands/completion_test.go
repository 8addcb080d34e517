package commands

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/urfave/cli/v3"
)

func TestTaskIDCompleter(t *testing.T) {
	h := newHarness(t, nil)
	mine := h.mustCreate(t, "alex", "Mine")
	other := h.mustCreate(t, "john", "Not mine")

	var buf bytes.Buffer
	root := &cli.Command{Name: "taskboard", Writer: &buf}

	TaskIDCompleter(&Flags{User: "alex"}, h.app)(context.Background(), root)

	assert.Contains(t, buf.String(), mine.ID+":Mine")
	assert.NotContains(t, buf.String(), other.ID)
}

func TestTaskIDCompleter_UnknownUser(t *testing.T) {
	h := newHarness(t, nil)
	h.mustCreate(t, "alex", "Mine")

	var buf bytes.Buffer
	root := &cli.Command{Name: "taskboard", Writer: &buf}

	TaskIDCompleter(&Flags{User: "ghost"}, h.app)(context.Background(), root)
	assert.Empty(t, buf.String())
}
