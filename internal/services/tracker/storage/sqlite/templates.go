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

const templateColumns = `name, has_characters, characters, is_cooperative_by_default,
	supports_cooperative, supports_competitive, supports_campaign, default_mode,
	base_game_name, min_players, max_players, description, image, created_at`

// CreateTemplate inserts one game template.
func (s *Store) CreateTemplate(ctx context.Context, template storage.GameTemplate) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	values, err := templateValues(template)
	if err != nil {
		return err
	}
	if template.CreatedAt.IsZero() {
		values[len(values)-1] = formatTime(time.Now())
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO game_templates (`+templateColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		values...,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create template: %w", err)
	}
	return nil
}

// GetTemplate returns one template by name.
func (s *Store) GetTemplate(ctx context.Context, name string) (storage.GameTemplate, error) {
	if err := s.ready(ctx); err != nil {
		return storage.GameTemplate{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return storage.GameTemplate{}, fmt.Errorf("template name is required")
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM game_templates WHERE name = ?`, name)
	template, err := scanTemplate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.GameTemplate{}, storage.ErrNotFound
		}
		return storage.GameTemplate{}, fmt.Errorf("get template: %w", err)
	}
	return template, nil
}

// ListTemplates returns every template ordered by name.
func (s *Store) ListTemplates(ctx context.Context) ([]storage.GameTemplate, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT `+templateColumns+` FROM game_templates ORDER BY name COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	templates := []storage.GameTemplate{}
	for rows.Next() {
		template, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("list templates: %w", err)
		}
		templates = append(templates, template)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return templates, nil
}

// UpdateTemplate replaces every mutable field of the named template.
func (s *Store) UpdateTemplate(ctx context.Context, template storage.GameTemplate) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	values, err := templateValues(template)
	if err != nil {
		return err
	}
	// created_at is immutable; name moves to the WHERE clause.
	args := make([]any, 0, len(values)-1)
	args = append(args, values[1:len(values)-1]...)
	args = append(args, values[0])
	result, err := s.sqlDB.ExecContext(ctx,
		`UPDATE game_templates SET
		   has_characters = ?, characters = ?, is_cooperative_by_default = ?,
		   supports_cooperative = ?, supports_competitive = ?, supports_campaign = ?,
		   default_mode = ?, base_game_name = ?, min_players = ?, max_players = ?,
		   description = ?, image = ?
		 WHERE name = ?`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	return requireAffected(result, "update template")
}

// DeleteTemplate removes a template and, through the foreign key, its
// extensions.
func (s *Store) DeleteTemplate(ctx context.Context, name string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("template name is required")
	}
	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM game_templates WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return requireAffected(result, "delete template")
}

func templateValues(template storage.GameTemplate) ([]any, error) {
	name := strings.TrimSpace(template.Name)
	if name == "" {
		return nil, fmt.Errorf("template name is required")
	}
	mode := template.DefaultMode
	if mode == "" {
		mode = storage.ModeCompetitive
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("unknown default mode %q", mode)
	}
	characters, err := encodeJSON("characters", template.Characters, "[]")
	if err != nil {
		return nil, err
	}
	return []any{
		name,
		boolInt(template.HasCharacters),
		characters,
		boolInt(template.IsCooperativeByDefault),
		boolInt(template.SupportsCooperative),
		boolInt(template.SupportsCompetitive),
		boolInt(template.SupportsCampaign),
		string(mode),
		nullString(template.BaseGameName),
		nullInt(template.MinPlayers),
		nullInt(template.MaxPlayers),
		nullString(template.Description),
		nullString(template.Image),
		formatTime(template.CreatedAt),
	}, nil
}

func scanTemplate(row rowScanner) (storage.GameTemplate, error) {
	var (
		template      storage.GameTemplate
		hasCharacters int
		characters    sql.NullString
		coopDefault   int
		supportsCoop  int
		supportsComp  int
		supportsCamp  int
		defaultMode   string
		baseGame      sql.NullString
		minPlayers    sql.NullInt64
		maxPlayers    sql.NullInt64
		description   sql.NullString
		image         sql.NullString
		createdAt     sql.NullString
	)
	if err := row.Scan(
		&template.Name,
		&hasCharacters,
		&characters,
		&coopDefault,
		&supportsCoop,
		&supportsComp,
		&supportsCamp,
		&defaultMode,
		&baseGame,
		&minPlayers,
		&maxPlayers,
		&description,
		&image,
		&createdAt,
	); err != nil {
		return storage.GameTemplate{}, err
	}
	if err := decodeJSON("characters", characters, &template.Characters); err != nil {
		return storage.GameTemplate{}, fmt.Errorf("template %s: %w", template.Name, err)
	}
	parsed, err := parseTime(createdAt)
	if err != nil {
		return storage.GameTemplate{}, fmt.Errorf("template %s created_at: %w", template.Name, err)
	}
	template.HasCharacters = hasCharacters != 0
	template.IsCooperativeByDefault = coopDefault != 0
	template.SupportsCooperative = supportsCoop != 0
	template.SupportsCompetitive = supportsComp != 0
	template.SupportsCampaign = supportsCamp != 0
	template.DefaultMode = storage.GameMode(defaultMode)
	template.BaseGameName = baseGame.String
	template.MinPlayers = int(minPlayers.Int64)
	template.MaxPlayers = int(maxPlayers.Int64)
	template.Description = description.String
	template.Image = image.String
	template.CreatedAt = parsed
	return template, nil
}
