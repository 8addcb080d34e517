package stores

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	corruptCodes = []int{sqlite3.SQLITE_CORRUPT, sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_CANTOPEN}

	// Some driver paths surface corruption only as text.
	corruptMessages = []string{
		"database disk image is malformed",
		"file is not a database",
		"database corruption",
	}
)

func sqliteCode(err error) (int, bool) {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return 0, false
	}
	return se.Code(), true
}

// IsBusyError reports whether err is SQLITE_BUSY.
func IsBusyError(err error) bool {
	code, ok := sqliteCode(err)
	return ok && code == sqlite3.SQLITE_BUSY
}

// IsCorruptionError reports whether err means the database file is unusable.
func IsCorruptionError(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := sqliteCode(err); ok {
		return slices.Contains(corruptCodes, code)
	}
	msg := err.Error()
	return slices.ContainsFunc(corruptMessages, func(s string) bool {
		return strings.Contains(msg, s)
	})
}

// IsNotFoundError reports whether a single-row query matched nothing.
func IsNotFoundError(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// RecoverFromCorruption renames the database file in dataDir, together with
// its -wal and -shm companions, to <name>.corrupt.<stamp> and returns that
// path. A missing database file is not an error.
func RecoverFromCorruption(dataDir, fileName string) (string, error) {
	src := filepath.Join(dataDir, fileName)
	dst := filepath.Join(dataDir, fileName+".corrupt."+time.Now().Format("20060102-150405"))

	for _, suffix := range []string{"", "-wal", "-shm"} {
		err := os.Rename(src+suffix, dst+suffix)
		switch {
		case err == nil, errors.Is(err, os.ErrNotExist):
			continue
		case suffix == "":
			return "", fmt.Errorf("move corrupt database aside: %w", err)
		default:
			// A stale journal replays into the fresh file, so drop it if it can't move.
			if rmErr := os.Remove(src + suffix); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				return "", fmt.Errorf("clear %s journal: %w", suffix, err)
			}
		}
	}
	return dst, nil
}
