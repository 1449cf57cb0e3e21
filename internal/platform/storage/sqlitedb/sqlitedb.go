// Package sqlitedb opens the single-file SQLite database used by playlog.
package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

const readWritePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"

const readOnlyPragmas = "_pragma=query_only(1)&_pragma=busy_timeout(5000)"

// ErrNotExist is returned by OpenReadOnly when the database file is missing.
var ErrNotExist = errors.New("database file does not exist")

// Open opens (creating if needed) the database at path for read/write use.
//
// The pool is capped at one connection: the file is owned by a single
// process at a time and every caller shares that connection.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	cleanPath, err := cleanDBPath(path)
	if err != nil {
		return nil, err
	}
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	return open(ctx, cleanPath+"?"+readWritePragmas)
}

// OpenReadOnly opens an existing database with writes disabled.
func OpenReadOnly(ctx context.Context, path string) (*sql.DB, error) {
	cleanPath, err := cleanDBPath(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(cleanPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotExist, cleanPath)
		}
		return nil, fmt.Errorf("stat database: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("database path %s is a directory", cleanPath)
	}
	return open(ctx, cleanPath+"?"+readOnlyPragmas)
}

func cleanDBPath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("storage path is required")
	}
	return filepath.Clean(path), nil
}

func open(ctx context.Context, dsn string) (*sql.DB, error) {
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return sqlDB, nil
}
