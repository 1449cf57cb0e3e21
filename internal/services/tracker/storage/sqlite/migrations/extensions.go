package migrations

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/louisbranch/playlog/internal/platform/id"
	"github.com/louisbranch/playlog/internal/platform/storage/sqlitemigrate"
)

type legacyTemplate struct {
	name       string
	extensions sql.NullString
}

func liftTemplateExtensions(newID id.Generator) sqlitemigrate.Migration {
	return sqlitemigrate.Migration{
		ID:          IDLiftTemplateExtensions,
		Description: "Move serialized template extension lists into game_extensions rows.",
		Up: func(ctx context.Context, tx *sql.Tx, logger *log.Logger) error {
			return liftExtensions(ctx, tx, logger, newID)
		},
	}
}

func liftExtensions(ctx context.Context, tx *sql.Tx, logger *log.Logger, newID id.Generator) error {
	for _, table := range []string{TableTemplates, TableExtensions} {
		exists, err := sqlitemigrate.TableExists(ctx, tx, table)
		if err != nil {
			return err
		}
		if !exists {
			logger.Printf("warning: table %s does not exist, skipping extension lift", table)
			return nil
		}
	}
	columns, err := sqlitemigrate.ColumnNames(ctx, tx, TableTemplates)
	if err != nil {
		return err
	}
	if !contains(columns, legacyExtensionsColumn) {
		logger.Printf("warning: column %s.%s does not exist, skipping extension lift", TableTemplates, legacyExtensionsColumn)
		return nil
	}

	templates, err := readLegacyTemplates(ctx, tx)
	if err != nil {
		return err
	}

	inserted := 0
	for _, template := range templates {
		for _, name := range parseExtensionNames(template.extensions) {
			extensionID, err := newID()
			if err != nil {
				return fmt.Errorf("generate extension id: %w", err)
			}
			result, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO game_extensions (id, name, base_game_name) VALUES (?, ?, ?)`,
				extensionID, name, template.name,
			)
			if err != nil {
				return fmt.Errorf("insert extension %q of %q: %w", name, template.name, err)
			}
			if n, err := result.RowsAffected(); err == nil {
				inserted += int(n)
			}
		}
	}
	logger.Printf("lifted %d extensions from %d templates", inserted, len(templates))
	return nil
}

func readLegacyTemplates(ctx context.Context, tx *sql.Tx) ([]legacyTemplate, error) {
	rows, err := tx.QueryContext(ctx, `SELECT name, extensions FROM game_templates ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("read legacy templates: %w", err)
	}
	defer rows.Close()

	var templates []legacyTemplate
	for rows.Next() {
		var template legacyTemplate
		if err := rows.Scan(&template.name, &template.extensions); err != nil {
			return nil, fmt.Errorf("read legacy templates: %w", err)
		}
		templates = append(templates, template)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read legacy templates: %w", err)
	}
	return templates, nil
}

// parseExtensionNames decodes a serialized extension list. Anything that is
// not a JSON list yields no names; list entries may be strings or objects
// with a "name" field. Blank and repeated names are dropped.
func parseExtensionNames(raw sql.NullString) []string {
	if !raw.Valid || strings.TrimSpace(raw.String) == "" {
		return nil
	}
	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(raw.String), &entries); err != nil {
		return nil
	}

	seen := make(map[string]struct{}, len(entries))
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := extensionEntryName(entry)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

func extensionEntryName(entry json.RawMessage) string {
	var name string
	if err := json.Unmarshal(entry, &name); err == nil {
		return strings.TrimSpace(name)
	}
	var object struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(entry, &object); err == nil {
		return strings.TrimSpace(object.Name)
	}
	return ""
}

func contains(values []string, want string) bool {
	for _, value := range values {
		if strings.EqualFold(value, want) {
			return true
		}
	}
	return false
}
