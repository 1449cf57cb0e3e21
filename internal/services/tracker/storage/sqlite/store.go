// Package sqlite provides the SQLite-backed tracker storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/louisbranch/playlog/internal/platform/storage/sqlitedb"
	"github.com/louisbranch/playlog/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/playlog/internal/services/tracker/storage"
	"github.com/louisbranch/playlog/internal/services/tracker/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// timeFormat is fixed width so stored timestamps sort lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Store persists tracker state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens the tracker database at path and applies pending migrations.
// Migration warnings go to logger when it is non-nil.
func Open(ctx context.Context, path string, logger *log.Logger) (*Store, error) {
	sqlDB, err := sqlitedb.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	all, err := migrations.All()
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	if _, err := sqlitemigrate.Apply(ctx, sqlDB, all, logger); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// DB exposes the underlying handle for read-only inspection.
func (s *Store) DB() *sql.DB {
	if s == nil {
		return nil
	}
	return s.sqlDB
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

func formatTime(value time.Time) sql.NullString {
	if value.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: value.UTC().Format(timeFormat), Valid: true}
}

// parseTime accepts RFC 3339 values and the "YYYY-MM-DD HH:MM:SS" form
// written by CURRENT_TIMESTAMP defaults.
func parseTime(value sql.NullString) (time.Time, error) {
	raw := strings.TrimSpace(value.String)
	if !value.Valid || raw == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return parsed.UTC(), nil
	}
	if parsed, err := time.Parse(time.DateTime, raw); err == nil {
		return parsed.UTC(), nil
	}
	if parsed, err := time.Parse(time.DateOnly, raw); err == nil {
		return parsed.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("parse time %q", raw)
}

func nullString(value string) sql.NullString {
	value = strings.TrimSpace(value)
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func nullInt(value int) sql.NullInt64 {
	if value <= 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(value), Valid: true}
}

func boolInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

// encodeJSON serializes a JSON-valued column; nil values encode as empty.
func encodeJSON(column string, value any, empty string) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", column, err)
	}
	if string(data) == "null" {
		return empty, nil
	}
	return string(data), nil
}

// decodeJSON parses a JSON-valued column into target. Blank cells leave
// target untouched.
func decodeJSON(column string, raw sql.NullString, target any) error {
	if !raw.Valid || strings.TrimSpace(raw.String) == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw.String), target); err != nil {
		return fmt.Errorf("decode %s: %w", column, err)
	}
	return nil
}

func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint failed")
}

func requireAffected(result sql.Result, action string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

var _ storage.Store = (*Store)(nil)
