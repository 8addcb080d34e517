package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"slices"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// step is one versioned schema change, built from a NNNN_name.up.sql and
// NNNN_name.down.sql pair.
type step struct {
	Version int
	Name    string
	Up      string
	Down    string
}

var stepFile = regexp.MustCompile(`^(\d{4})_([a-z0-9_]+)\.(up|down)\.sql$`)

// splitStepFile returns the version, name and direction encoded in a
// migration filename.
func splitStepFile(filename string) (int, string, string, error) {
	m := stepFile.FindStringSubmatch(filename)
	if m == nil {
		return 0, "", "", fmt.Errorf("migration %q: want NNNN_name.(up|down).sql", filename)
	}
	version, _ := strconv.Atoi(m[1])
	if version == 0 {
		return 0, "", "", fmt.Errorf("migration %q: version starts at 0001", filename)
	}
	return version, m[2], m[3], nil
}

func loadSteps() ([]step, error) {
	files, err := fs.Glob(migrationFS, "migrations/*.sql")
	if err != nil {
		return nil, err
	}

	byVersion := map[int]*step{}
	for _, file := range files {
		version, name, dir, err := splitStepFile(path.Base(file))
		if err != nil {
			return nil, err
		}
		body, err := migrationFS.ReadFile(file)
		if err != nil {
			return nil, err
		}

		s, ok := byVersion[version]
		if !ok {
			s = &step{Version: version, Name: name}
			byVersion[version] = s
		}
		if s.Name != name {
			return nil, fmt.Errorf("migration %04d named both %q and %q", version, s.Name, name)
		}
		if dir == "up" {
			s.Up = string(body)
		} else {
			s.Down = string(body)
		}
	}

	steps := make([]step, 0, len(byVersion))
	for _, s := range byVersion {
		if s.Up == "" || s.Down == "" {
			return nil, fmt.Errorf("migration %04d_%s needs both up and down files", s.Version, s.Name)
		}
		steps = append(steps, *s)
	}
	slices.SortFunc(steps, func(a, b step) int { return a.Version - b.Version })
	return steps, nil
}

// migrator tracks applied steps in the board_migrations table.
type migrator struct {
	conn *sql.DB
	log  zerolog.Logger
}

func (m migrator) init(ctx context.Context) error {
	_, err := m.conn.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS board_migrations (
		version    INTEGER PRIMARY KEY,
		name       TEXT NOT NULL,
		applied_at INTEGER NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("create board_migrations: %w", err)
	}
	return nil
}

func (m migrator) applied(ctx context.Context) (map[int]bool, error) {
	rows, err := m.conn.QueryContext(ctx, "SELECT version FROM board_migrations")
	if err != nil {
		return nil, fmt.Errorf("read board_migrations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	done := map[int]bool{}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		done[v] = true
	}
	return done, rows.Err()
}

// run executes body and the bookkeeping statement in one transaction.
func (m migrator) run(ctx context.Context, body, bookkeeping string, args ...any) (err error) {
	tx, err := m.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	if _, err = tx.ExecContext(ctx, body); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, bookkeeping, args...); err != nil {
		return err
	}
	return tx.Commit()
}

// migrateUp applies every step not yet recorded, oldest first.
func migrateUp(ctx context.Context, conn *sql.DB, log zerolog.Logger) error {
	steps, err := loadSteps()
	if err != nil {
		return err
	}
	m := migrator{conn: conn, log: log}
	if err := m.init(ctx); err != nil {
		return err
	}
	done, err := m.applied(ctx)
	if err != nil {
		return err
	}

	for _, s := range steps {
		if done[s.Version] {
			continue
		}
		err := m.run(ctx, s.Up,
			"INSERT INTO board_migrations (version, name, applied_at) VALUES (?, ?, ?)",
			s.Version, s.Name, time.Now().Unix())
		if err != nil {
			return fmt.Errorf("apply %04d_%s: %w", s.Version, s.Name, err)
		}
		m.log.Debug().Int("version", s.Version).Str("name", s.Name).Msg("schema step applied")
	}
	return nil
}

// MigrateDown reverts the newest n applied steps.
func MigrateDown(ctx context.Context, conn *sql.DB, n int, log zerolog.Logger) error {
	if n < 1 {
		return fmt.Errorf("revert count must be positive, got %d", n)
	}
	steps, err := loadSteps()
	if err != nil {
		return err
	}
	m := migrator{conn: conn, log: log}
	if err := m.init(ctx); err != nil {
		return err
	}
	done, err := m.applied(ctx)
	if err != nil {
		return err
	}

	var revert []step
	for i := len(steps) - 1; i >= 0 && len(revert) < n; i-- {
		if done[steps[i].Version] {
			revert = append(revert, steps[i])
		}
	}
	if len(revert) < n {
		return fmt.Errorf("asked to revert %d steps but only %d are applied", n, len(revert))
	}

	for _, s := range revert {
		err := m.run(ctx, s.Down, "DELETE FROM board_migrations WHERE version = ?", s.Version)
		if err != nil {
			return fmt.Errorf("revert %04d_%s: %w", s.Version, s.Name, err)
		}
		m.log.Info().Int("version", s.Version).Str("name", s.Name).Msg("schema step reverted")
	}
	return nil
}
