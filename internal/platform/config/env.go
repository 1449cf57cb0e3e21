// Package config loads playlog configuration from the environment.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every env tag declared on config structs.
const EnvPrefix = "PLAYLOG_"

// DefaultDBPath is the conventional database location relative to the
// project root.
const DefaultDBPath = "data/playlog.db"

// Storage holds the settings shared by every command that opens the
// tracker database.
type Storage struct {
	ProjectRoot string `env:"PROJECT_ROOT" envDefault:"."`
	DBPath      string `env:"DB_PATH" envDefault:"data/playlog.db"`
}

// ParseEnv loads configuration from PLAYLOG_-prefixed environment variables.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ResolvePath joins a relative path onto root. Absolute paths are returned
// cleaned and unchanged.
func ResolvePath(root, path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	root = strings.TrimSpace(root)
	if root == "" {
		root = "."
	}
	return filepath.Join(root, path)
}

// DatabasePath resolves the storage database path against the project root.
func (s Storage) DatabasePath() string {
	path := s.DBPath
	if strings.TrimSpace(path) == "" {
		path = DefaultDBPath
	}
	return ResolvePath(s.ProjectRoot, path)
}
