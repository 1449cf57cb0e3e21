package migrations

import (
	"context"
	"database/sql"
	"log"

	"github.com/louisbranch/playlog/internal/platform/storage/sqlitemigrate"
)

// templateShape is game_templates without the legacy extensions column.
var templateShape = sqlitemigrate.Rebuild{
	Table: TableTemplates,
	Columns: []sqlitemigrate.Column{
		{Name: "name", Definition: "TEXT PRIMARY KEY"},
		{Name: "has_characters", Definition: "INTEGER NOT NULL DEFAULT 0", Fallback: "0"},
		{Name: "characters", Definition: "TEXT NOT NULL DEFAULT '[]'", Fallback: "'[]'"},
		{Name: "is_cooperative_by_default", Definition: "INTEGER NOT NULL DEFAULT 0", Fallback: "0"},
		{Name: "supports_cooperative", Definition: "INTEGER NOT NULL DEFAULT 0", Fallback: "0"},
		{Name: "supports_competitive", Definition: "INTEGER NOT NULL DEFAULT 1", Fallback: "1"},
		{Name: "supports_campaign", Definition: "INTEGER NOT NULL DEFAULT 0", Fallback: "0"},
		{Name: "default_mode", Definition: "TEXT NOT NULL DEFAULT 'competitive'", Fallback: "'competitive'"},
		{Name: "base_game_name", Definition: "TEXT"},
		{Name: "min_players", Definition: "INTEGER"},
		{Name: "max_players", Definition: "INTEGER"},
		{Name: "description", Definition: "TEXT"},
		{Name: "image", Definition: "TEXT"},
		{Name: "created_at", Definition: "TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP", Fallback: "CURRENT_TIMESTAMP"},
	},
}

func dropTemplateExtensions() sqlitemigrate.Migration {
	return sqlitemigrate.Migration{
		ID:          IDDropTemplateExtensions,
		Description: "Rebuild game_templates without the serialized extensions column.",
		Rebuild:     true,
		Up: func(ctx context.Context, tx *sql.Tx, logger *log.Logger) error {
			_, err := sqlitemigrate.RebuildTable(ctx, tx, logger, templateShape)
			return err
		},
	}
}
