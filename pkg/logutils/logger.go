// Package logutils builds the process-wide zerolog logger.
package logutils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// openSink returns where log lines go. Without a file that is stderr, which
// keeps diagnostics out of command output.
func openSink(file string) (io.Writer, func(), error) {
	if file == "" {
		return os.Stderr, func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return nil, nil, fmt.Errorf("log dir: %w", err)
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("log file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// New builds a timestamped JSON logger at level (debug, info, warn, error)
// writing to file, or stderr when file is empty. The returned func closes
// the file and is always safe to call.
func New(level, file string) (zerolog.Logger, func(), error) {
	noop := func() {}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), noop, fmt.Errorf("log level %q: %w", level, err)
	}
	sink, closeSink, err := openSink(file)
	if err != nil {
		return zerolog.Nop(), noop, err
	}
	return zerolog.New(sink).Level(lvl).With().Timestamp().Logger(), closeSink, nil
}
