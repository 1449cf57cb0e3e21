package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// LoadPreferences returns every stored preference.
func (s *Store) LoadPreferences(ctx context.Context) (map[string]string, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT key, value FROM preferences`)
	if err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}
	defer rows.Close()

	values := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("load preferences: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}
	return values, nil
}

// PutPreference upserts one preference.
func (s *Store) PutPreference(ctx context.Context, key, value string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("preference key is required")
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put preference: %w", err)
	}
	return nil
}
