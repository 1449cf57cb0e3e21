package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/louisbranch/playlog/internal/services/tracker/storage"
)

// CreateExtension inserts an extension of an existing base game. A missing
// base game yields storage.ErrNotFound.
func (s *Store) CreateExtension(ctx context.Context, extension storage.GameExtension) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	extensionID := strings.TrimSpace(extension.ID)
	name := strings.TrimSpace(extension.Name)
	baseGame := strings.TrimSpace(extension.BaseGameName)
	if extensionID == "" {
		return fmt.Errorf("extension id is required")
	}
	if name == "" {
		return fmt.Errorf("extension name is required")
	}
	if baseGame == "" {
		return fmt.Errorf("extension base game is required")
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO game_extensions (id, name, base_game_name, description, min_players, max_players, rules, image)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		extensionID,
		name,
		baseGame,
		nullString(extension.Description),
		nullInt(extension.MinPlayers),
		nullInt(extension.MaxPlayers),
		nullString(extension.Rules),
		nullString(extension.Image),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return storage.ErrAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("base game %q: %w", baseGame, storage.ErrNotFound)
		}
		return fmt.Errorf("create extension: %w", err)
	}
	return nil
}

// ListExtensions returns extensions ordered by name. An empty base game
// name lists every extension.
func (s *Store) ListExtensions(ctx context.Context, baseGameName string) ([]storage.GameExtension, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	query := `SELECT id, name, base_game_name, description, min_players, max_players, rules, image
	            FROM game_extensions`
	var args []any
	if baseGameName = strings.TrimSpace(baseGameName); baseGameName != "" {
		query += ` WHERE base_game_name = ?`
		args = append(args, baseGameName)
	}
	query += ` ORDER BY base_game_name COLLATE NOCASE, name COLLATE NOCASE`

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list extensions: %w", err)
	}
	defer rows.Close()

	extensions := []storage.GameExtension{}
	for rows.Next() {
		var (
			extension   storage.GameExtension
			description sql.NullString
			minPlayers  sql.NullInt64
			maxPlayers  sql.NullInt64
			rules       sql.NullString
			image       sql.NullString
		)
		if err := rows.Scan(
			&extension.ID,
			&extension.Name,
			&extension.BaseGameName,
			&description,
			&minPlayers,
			&maxPlayers,
			&rules,
			&image,
		); err != nil {
			return nil, fmt.Errorf("list extensions: %w", err)
		}
		extension.Description = description.String
		extension.MinPlayers = int(minPlayers.Int64)
		extension.MaxPlayers = int(maxPlayers.Int64)
		extension.Rules = rules.String
		extension.Image = image.String
		extensions = append(extensions, extension)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list extensions: %w", err)
	}
	return extensions, nil
}

// DeleteExtension removes one extension by id.
func (s *Store) DeleteExtension(ctx context.Context, extensionID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	extensionID = strings.TrimSpace(extensionID)
	if extensionID == "" {
		return fmt.Errorf("extension id is required")
	}
	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM game_extensions WHERE id = ?`, extensionID)
	if err != nil {
		return fmt.Errorf("delete extension: %w", err)
	}
	return requireAffected(result, "delete extension")
}
