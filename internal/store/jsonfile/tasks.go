package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/colonyops/taskboard/internal/core/task"
)

// TaskFile is the root JSON structure stored on disk.
type TaskFile struct {
	Tasks []task.Task `json:"tasks"`
}

// TaskStore persists task snapshots to a single JSON file.
type TaskStore struct {
	path string
	mu   sync.RWMutex
}

// NewTaskStore creates a new JSON file task store at the given path.
func NewTaskStore(path string) *TaskStore {
	return &TaskStore{path: path}
}

// Path returns the snapshot file location.
func (s *TaskStore) Path() string {
	return s.path
}

// Load returns the persisted tasks in their saved order. A missing or empty
// file yields no tasks and ok=false.
func (s *TaskStore) Load(ctx context.Context) (tasks []task.Task, ok bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	if len(data) == 0 {
		return nil, false, nil
	}

	var file TaskFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, false, fmt.Errorf("parse %s: %w", s.path, err)
	}

	return file.Tasks, true, nil
}

// Save replaces the snapshot with tasks, writing atomically.
func (s *TaskStore) Save(ctx context.Context, tasks []task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tasks == nil {
		tasks = []task.Task{}
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(TaskFile{Tasks: tasks}, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}

	return os.Rename(tmp, s.path)
}
