// Package iojson reads and writes the JSON documents exchanged by commands.
package iojson

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// ErrNoInput is returned when a FileReader would block on an interactive
// terminal.
var ErrNoInput = errors.New("no input: pass --file or pipe JSON on stdin")

// WriteLine encodes obj as one compact line, the shape consumed by jq and
// line-oriented watchers.
func WriteLine(w io.Writer, obj any) error {
	bits, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("encode json line: %w", err)
	}
	bits = append(bits, '\n')
	_, err = w.Write(bits)
	return err
}

// Decode reads exactly one JSON value of type T from r.
func Decode[T any](r io.Reader) (T, error) {
	var v T
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		return v, fmt.Errorf("decode json: %w", err)
	}
	return v, nil
}

// FileReader decodes a T from the path given by its --file flag, falling
// back to piped stdin.
type FileReader[T any] struct {
	// Stdin replaces os.Stdin, mainly for tests.
	Stdin *os.File

	path string
}

func (fr *FileReader[T]) Flag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:        "file",
		Aliases:     []string{"f"},
		Usage:       "read JSON from `PATH` instead of stdin",
		Destination: &fr.path,
	}
}

// SetFile overrides the --file value.
func (fr *FileReader[T]) SetFile(path string) { fr.path = path }

func (fr *FileReader[T]) Read() (T, error) {
	if fr.path != "" {
		f, err := os.Open(fr.path)
		if err != nil {
			var zero T
			return zero, err
		}
		defer func() { _ = f.Close() }()
		return Decode[T](f)
	}

	in := fr.Stdin
	if in == nil {
		in = os.Stdin
	}
	if term.IsTerminal(int(in.Fd())) {
		var zero T
		return zero, ErrNoInput
	}
	return Decode[T](in)
}
