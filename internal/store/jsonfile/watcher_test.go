package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/taskboard/internal/core/task"
)

func TestFileWatcher_SaveTriggersEvent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tasks.json")

	watcher, err := NewFileWatcher(path, zerolog.Nop())
	require.NoError(t, err)
	defer watcher.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events := watcher.Watch(ctx)

	store := NewTaskStore(path)
	require.NoError(t, store.Save(ctx, []task.Task{{ID: "a", Status: task.StatusOpen, Priority: task.PriorityLow}}))

	select {
	case event := <-events:
		assert.Equal(t, filepath.Clean(path), event.Path)
		assert.False(t, event.Timestamp.IsZero())
	case <-ctx.Done():
		t.Fatal("timeout waiting for event")
	}
}

func TestFileWatcher_IgnoresOtherFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.json")

	watcher, err := NewFileWatcher(path, zerolog.Nop())
	require.NoError(t, err)
	defer watcher.Close() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := watcher.Watch(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o644))

	select {
	case <-events:
		t.Fatal("unexpected event for unrelated file")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestFileWatcher_CloseClosesChannels(t *testing.T) {
	t.Parallel()

	watcher, err := NewFileWatcher(filepath.Join(t.TempDir(), "tasks.json"), zerolog.Nop())
	require.NoError(t, err)

	events := watcher.Watch(context.Background())
	require.NoError(t, watcher.Close())

	_, ok := <-events
	assert.False(t, ok)
}

func TestFileWatcher_UnsubscribeOnCancel(t *testing.T) {
	t.Parallel()

	watcher, err := NewFileWatcher(filepath.Join(t.TempDir(), "tasks.json"), zerolog.Nop())
	require.NoError(t, err)
	defer watcher.Close() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	events := watcher.Watch(ctx)
	cancel()

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-events:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}
