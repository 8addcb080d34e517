package stores

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/colonyops/taskboard/internal/core/task"
	"github.com/colonyops/taskboard/internal/data/db"
)

const saveAttempts = 3

// TaskStore persists task snapshots in SQLite.
type TaskStore struct {
	db *db.DB
}

// NewTaskStore creates a new SQLite-backed task snapshot store.
func NewTaskStore(db *db.DB) *TaskStore {
	return &TaskStore{db: db}
}

// Load returns the persisted tasks in their saved order. ok is false when no
// snapshot has been saved yet.
func (s *TaskStore) Load(ctx context.Context) ([]task.Task, bool, error) {
	conn := s.db.Conn()

	var savedAt string
	err := conn.QueryRowContext(ctx, "SELECT saved_at FROM snapshot_meta WHERE id = 1").Scan(&savedAt)
	if IsNotFoundError(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read snapshot meta: %w", err)
	}

	rows, err := conn.QueryContext(ctx, `
		SELECT id, title, description, priority, status, assignee,
		       created_at, updated_at, due_date, time_spent
		FROM tasks
		ORDER BY position`)
	if err != nil {
		return nil, false, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []task.Task
	for rows.Next() {
		var (
			t                task.Task
			created, updated string
			due              sql.NullString
			priority, status string
		)
		err := rows.Scan(&t.ID, &t.Title, &t.Description, &priority, &status, &t.Assignee,
			&created, &updated, &due, &t.TimeSpent)
		if err != nil {
			return nil, false, fmt.Errorf("failed to scan task: %w", err)
		}

		t.Priority = task.Priority(priority)
		t.Status = task.Status(status)
		if t.CreatedAt, err = parseTime(created); err != nil {
			return nil, false, fmt.Errorf("task %s created_at: %w", t.ID, err)
		}
		if t.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, false, fmt.Errorf("task %s updated_at: %w", t.ID, err)
		}
		if due.Valid {
			d, err := parseTime(due.String)
			if err != nil {
				return nil, false, fmt.Errorf("task %s due_date: %w", t.ID, err)
			}
			t.DueDate = &d
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}

	return tasks, true, nil
}

// Save replaces the snapshot with tasks in one transaction, retrying while
// the database is busy.
func (s *TaskStore) Save(ctx context.Context, tasks []task.Task) error {
	var err error
	for attempt := range saveAttempts {
		err = s.save(ctx, tasks)
		if err == nil || !IsBusyError(err) {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 50 * time.Millisecond):
		}
	}
	return err
}

func (s *TaskStore) save(ctx context.Context, tasks []task.Task) error {
	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM tasks"); err != nil {
			return fmt.Errorf("failed to clear tasks: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO tasks (id, position, title, description, priority, status, assignee,
			                   created_at, updated_at, due_date, time_spent)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for i, t := range tasks {
			var due sql.NullString
			if t.DueDate != nil {
				due = sql.NullString{String: formatTime(*t.DueDate), Valid: true}
			}

			_, err := stmt.ExecContext(ctx,
				t.ID, i, t.Title, t.Description, string(t.Priority), string(t.Status), t.Assignee,
				formatTime(t.CreatedAt), formatTime(t.UpdatedAt), due, t.TimeSpent,
			)
			if err != nil {
				return fmt.Errorf("failed to insert task %s: %w", t.ID, err)
			}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO snapshot_meta (id, saved_at) VALUES (1, ?)
			ON CONFLICT (id) DO UPDATE SET saved_at = excluded.saved_at`,
			formatTime(time.Now()))
		if err != nil {
			return fmt.Errorf("failed to record snapshot: %w", err)
		}
		return nil
	})
}

// Timestamps are stored as RFC 3339 text, which keeps the UTC offset and
// covers years 0000 through 9999.
func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
