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

const sessionColumns = `id, game_type, is_cooperative, game_mode, players, scores,
	characters, dead_characters, new_character_names, extensions,
	winner, win_condition, date, start_time, end_time, duration,
	completed, coop_result, character_history, created_at`

// CreateSession inserts one session.
func (s *Store) CreateSession(ctx context.Context, session storage.GameSession) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	values, err := sessionValues(session)
	if err != nil {
		return err
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO game_sessions (`+sessionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		values...,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSession returns one session by id.
func (s *Store) GetSession(ctx context.Context, sessionID string) (storage.GameSession, error) {
	if err := s.ready(ctx); err != nil {
		return storage.GameSession{}, err
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return storage.GameSession{}, fmt.Errorf("session id is required")
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM game_sessions WHERE id = ?`, sessionID)
	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.GameSession{}, storage.ErrNotFound
		}
		return storage.GameSession{}, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// ListSessions returns sessions newest first.
func (s *Store) ListSessions(ctx context.Context, filter storage.SessionFilter) ([]storage.GameSession, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	var (
		clauses []string
		args    []any
	)
	if gameType := strings.TrimSpace(filter.GameType); gameType != "" {
		clauses = append(clauses, "game_type = ?")
		args = append(args, gameType)
	}
	if filter.CompletedOnly {
		clauses = append(clauses, "completed = 1")
	}
	query := `SELECT ` + sessionColumns + ` FROM game_sessions`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY COALESCE(date, created_at) DESC, created_at DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []storage.GameSession{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// UpdateSession replaces every mutable field of a session.
func (s *Store) UpdateSession(ctx context.Context, session storage.GameSession) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	values, err := sessionValues(session)
	if err != nil {
		return err
	}
	// created_at is immutable; id moves to the WHERE clause.
	args := make([]any, 0, len(values)-1)
	args = append(args, values[1:len(values)-1]...)
	args = append(args, values[0])
	result, err := s.sqlDB.ExecContext(ctx,
		`UPDATE game_sessions SET
		   game_type = ?, is_cooperative = ?, game_mode = ?, players = ?, scores = ?,
		   characters = ?, dead_characters = ?, new_character_names = ?, extensions = ?,
		   winner = ?, win_condition = ?, date = ?, start_time = ?, end_time = ?, duration = ?,
		   completed = ?, coop_result = ?, character_history = ?
		 WHERE id = ?`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return requireAffected(result, "update session")
}

// DeleteSession removes one session.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM game_sessions WHERE id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return requireAffected(result, "delete session")
}

func sessionValues(session storage.GameSession) ([]any, error) {
	sessionID := strings.TrimSpace(session.ID)
	gameType := strings.TrimSpace(session.GameType)
	if sessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}
	if gameType == "" {
		return nil, fmt.Errorf("session game type is required")
	}
	mode := session.GameMode
	if mode == "" {
		mode = storage.ModeCompetitive
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("unknown game mode %q", mode)
	}

	players, err := encodeJSON("players", session.Players, "[]")
	if err != nil {
		return nil, err
	}
	scores, err := encodeJSON("scores", session.Scores, "{}")
	if err != nil {
		return nil, err
	}
	characters, err := encodeJSON("characters", session.Characters, "{}")
	if err != nil {
		return nil, err
	}
	dead, err := encodeJSON("dead_characters", session.DeadCharacters, "{}")
	if err != nil {
		return nil, err
	}
	renamed, err := encodeJSON("new_character_names", session.NewCharacterNames, "{}")
	if err != nil {
		return nil, err
	}
	extensions, err := encodeJSON("extensions", session.Extensions, "[]")
	if err != nil {
		return nil, err
	}
	history, err := encodeJSON("character_history", session.CharacterHistory, "[]")
	if err != nil {
		return nil, err
	}
	var duration sql.NullInt64
	if session.Duration > 0 {
		duration = sql.NullInt64{Int64: int64(session.Duration), Valid: true}
	}

	return []any{
		sessionID,
		gameType,
		boolInt(session.IsCooperative),
		string(mode),
		players,
		scores,
		characters,
		dead,
		renamed,
		extensions,
		nullString(session.Winner),
		nullString(session.WinCondition),
		formatTime(session.Date),
		formatTime(session.StartTime),
		formatTime(session.EndTime),
		duration,
		boolInt(session.Completed),
		nullString(string(session.CoopResult)),
		history,
		formatTime(session.CreatedAt),
	}, nil
}

func scanSession(row rowScanner) (storage.GameSession, error) {
	var (
		session       storage.GameSession
		isCooperative int
		gameMode      string
		players       sql.NullString
		scores        sql.NullString
		characters    sql.NullString
		dead          sql.NullString
		renamed       sql.NullString
		extensions    sql.NullString
		winner        sql.NullString
		winCondition  sql.NullString
		date          sql.NullString
		startTime     sql.NullString
		endTime       sql.NullString
		duration      sql.NullInt64
		completed     int
		coopResult    sql.NullString
		history       sql.NullString
		createdAt     sql.NullString
	)
	if err := row.Scan(
		&session.ID,
		&session.GameType,
		&isCooperative,
		&gameMode,
		&players,
		&scores,
		&characters,
		&dead,
		&renamed,
		&extensions,
		&winner,
		&winCondition,
		&date,
		&startTime,
		&endTime,
		&duration,
		&completed,
		&coopResult,
		&history,
		&createdAt,
	); err != nil {
		return storage.GameSession{}, err
	}

	decoders := []struct {
		column string
		raw    sql.NullString
		target any
	}{
		{"players", players, &session.Players},
		{"scores", scores, &session.Scores},
		{"characters", characters, &session.Characters},
		{"dead_characters", dead, &session.DeadCharacters},
		{"new_character_names", renamed, &session.NewCharacterNames},
		{"extensions", extensions, &session.Extensions},
		{"character_history", history, &session.CharacterHistory},
	}
	for _, decoder := range decoders {
		if err := decodeJSON(decoder.column, decoder.raw, decoder.target); err != nil {
			return storage.GameSession{}, fmt.Errorf("session %s: %w", session.ID, err)
		}
	}

	times := []struct {
		column string
		raw    sql.NullString
		target *time.Time
	}{
		{"date", date, &session.Date},
		{"start_time", startTime, &session.StartTime},
		{"end_time", endTime, &session.EndTime},
		{"created_at", createdAt, &session.CreatedAt},
	}
	for _, field := range times {
		parsed, err := parseTime(field.raw)
		if err != nil {
			return storage.GameSession{}, fmt.Errorf("session %s %s: %w", session.ID, field.column, err)
		}
		*field.target = parsed
	}

	session.IsCooperative = isCooperative != 0
	session.GameMode = storage.GameMode(gameMode)
	session.Winner = winner.String
	session.WinCondition = winCondition.String
	session.Duration = int(duration.Int64)
	session.Completed = completed != 0
	session.CoopResult = storage.CoopResult(coopResult.String)
	return session, nil
}
