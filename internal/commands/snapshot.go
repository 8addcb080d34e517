package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/colonyops/taskboard/internal/board"
	"github.com/colonyops/taskboard/internal/core/config"
	"github.com/colonyops/taskboard/internal/data/db"
	"github.com/colonyops/taskboard/internal/data/stores"
	"github.com/colonyops/taskboard/internal/store/jsonfile"
)

// OpenSnapshot returns the configured snapshot backend and a func releasing
// it. A disabled snapshot yields a nil Snapshotter and the board stays in
// memory.
func OpenSnapshot(cfg *config.Config, log zerolog.Logger) (board.Snapshotter, func() error, error) {
	noop := func() error { return nil }

	if !cfg.Snapshot.Enabled {
		return nil, noop, nil
	}

	switch cfg.Snapshot.Backend {
	case config.BackendJSON:
		return jsonfile.NewTaskStore(cfg.SnapshotFile()), noop, nil
	case config.BackendSQLite:
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, noop, fmt.Errorf("create data dir: %w", err)
		}

		opts := db.DefaultOpenOptions()
		opts.Logger = log

		database, err := db.Open(cfg.DataDir, opts)
		if err != nil && stores.IsCorruptionError(err) {
			backup, rerr := stores.RecoverFromCorruption(cfg.DataDir, opts.FileName)
			if rerr != nil {
				return nil, noop, fmt.Errorf("recover database: %w", rerr)
			}
			log.Warn().Str("backup", backup).Msg("database was corrupt, moved aside")
			database, err = db.Open(cfg.DataDir, opts)
		}
		if err != nil {
			return nil, noop, fmt.Errorf("open database: %w", err)
		}
		return stores.NewTaskStore(database), database.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown snapshot backend %q", cfg.Snapshot.Backend)
	}
}
