package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/playlog/internal/services/tracker/storage"
)

// CreatePlayer inserts one player.
func (s *Store) CreatePlayer(ctx context.Context, player storage.Player) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	playerID := strings.TrimSpace(player.ID)
	name := strings.TrimSpace(player.Name)
	if playerID == "" {
		return fmt.Errorf("player id is required")
	}
	if name == "" {
		return fmt.Errorf("player name is required")
	}
	createdAt := player.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO players (id, name, created_at) VALUES (?, ?, ?)`,
		playerID, name, formatTime(createdAt),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create player: %w", err)
	}
	return nil
}

// GetPlayer returns one player by id.
func (s *Store) GetPlayer(ctx context.Context, playerID string) (storage.Player, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Player{}, err
	}
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return storage.Player{}, fmt.Errorf("player id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `SELECT id, name, created_at FROM players WHERE id = ?`, playerID)
	player, err := scanPlayer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Player{}, storage.ErrNotFound
		}
		return storage.Player{}, fmt.Errorf("get player: %w", err)
	}
	return player, nil
}

// ListPlayers returns every player ordered by name.
func (s *Store) ListPlayers(ctx context.Context) ([]storage.Player, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT id, name, created_at FROM players ORDER BY name COLLATE NOCASE, id`)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	players := []storage.Player{}
	for rows.Next() {
		player, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("list players: %w", err)
		}
		players = append(players, player)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	return players, nil
}

// UpdatePlayer renames a player.
func (s *Store) UpdatePlayer(ctx context.Context, player storage.Player) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	playerID := strings.TrimSpace(player.ID)
	name := strings.TrimSpace(player.Name)
	if playerID == "" {
		return fmt.Errorf("player id is required")
	}
	if name == "" {
		return fmt.Errorf("player name is required")
	}
	result, err := s.sqlDB.ExecContext(ctx, `UPDATE players SET name = ? WHERE id = ?`, name, playerID)
	if err != nil {
		return fmt.Errorf("update player: %w", err)
	}
	return requireAffected(result, "update player")
}

// DeletePlayer removes a player. Sessions keep the id in their player list.
func (s *Store) DeletePlayer(ctx context.Context, playerID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return fmt.Errorf("player id is required")
	}
	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM players WHERE id = ?`, playerID)
	if err != nil {
		return fmt.Errorf("delete player: %w", err)
	}
	return requireAffected(result, "delete player")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row rowScanner) (storage.Player, error) {
	var player storage.Player
	var createdAt sql.NullString
	if err := row.Scan(&player.ID, &player.Name, &createdAt); err != nil {
		return storage.Player{}, err
	}
	parsed, err := parseTime(createdAt)
	if err != nil {
		return storage.Player{}, fmt.Errorf("player %s created_at: %w", player.ID, err)
	}
	player.CreatedAt = parsed
	return player, nil
}
