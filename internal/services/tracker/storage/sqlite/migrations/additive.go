package migrations

import (
	"context"
	"database/sql"
	"log"

	"github.com/louisbranch/playlog/internal/platform/storage/sqlitemigrate"
)

type columnAddition struct {
	name       string
	definition string
}

var sessionTrackingColumns = []columnAddition{
	{"game_mode", "TEXT NOT NULL DEFAULT 'competitive'"},
	{"characters", "TEXT NOT NULL DEFAULT '{}'"},
	{"dead_characters", "TEXT NOT NULL DEFAULT '{}'"},
	{"new_character_names", "TEXT NOT NULL DEFAULT '{}'"},
	{"extensions", "TEXT NOT NULL DEFAULT '[]'"},
	{"win_condition", "TEXT"},
	{"start_time", "TEXT"},
	{"end_time", "TEXT"},
	{"duration", "INTEGER"},
	{"completed", "INTEGER NOT NULL DEFAULT 0"},
	{"coop_result", "TEXT"},
	{"character_history", "TEXT NOT NULL DEFAULT '[]'"},
}

var templateModeColumns = []columnAddition{
	{"supports_cooperative", "INTEGER NOT NULL DEFAULT 0"},
	{"supports_competitive", "INTEGER NOT NULL DEFAULT 1"},
	{"supports_campaign", "INTEGER NOT NULL DEFAULT 0"},
	{"default_mode", "TEXT NOT NULL DEFAULT 'competitive'"},
	{"base_game_name", "TEXT"},
	{"min_players", "INTEGER"},
	{"max_players", "INTEGER"},
	{"description", "TEXT"},
	{"image", "TEXT"},
}

func sessionTracking() sqlitemigrate.Migration {
	return sqlitemigrate.Migration{
		ID:          IDSessionTracking,
		Description: "Session mode, character, timing and outcome columns.",
		Up:          addColumns(TableSessions, sessionTrackingColumns),
	}
}

func templateModes() sqlitemigrate.Migration {
	return sqlitemigrate.Migration{
		ID:          IDTemplateModes,
		Description: "Template mode support, player bounds and presentation columns.",
		Up:          addColumns(TableTemplates, templateModeColumns),
	}
}

func addColumns(table string, columns []columnAddition) func(context.Context, *sql.Tx, *log.Logger) error {
	return func(ctx context.Context, tx *sql.Tx, logger *log.Logger) error {
		exists, err := sqlitemigrate.TableExists(ctx, tx, table)
		if err != nil {
			return err
		}
		if !exists {
			logger.Printf("warning: table %s does not exist, skipping %d columns", table, len(columns))
			return nil
		}
		for _, column := range columns {
			if _, err := sqlitemigrate.AddColumnIfMissing(ctx, tx, logger, table, column.name, column.definition); err != nil {
				return err
			}
		}
		return nil
	}
}
