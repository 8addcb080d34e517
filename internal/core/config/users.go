package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/colonyops/taskboard/internal/core/task"
)

// rosterFile is the shape of a users file.
type rosterFile struct {
	Users []task.Actor `yaml:"users"`
}

// loadUsersFiles reads roster files in declaration order. Relative paths are
// resolved against configDir.
func loadUsersFiles(configDir string, files []string) ([]task.Actor, error) {
	var out []task.Actor

	for _, file := range files {
		path := resolvePath(configDir, file)

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read users file %q: %w", file, err)
		}

		var roster rosterFile
		if err := yaml.Unmarshal(data, &roster); err != nil {
			return nil, fmt.Errorf("parse users file %q: %w", file, err)
		}

		out = append(out, roster.Users...)
	}

	return out, nil
}

func resolvePath(configDir, file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(configDir, file)
}
