package migrations

import (
	"context"
	"database/sql"
	"log"

	"github.com/louisbranch/playlog/internal/platform/storage/sqlitemigrate"
)

var trackerIndexes = []sqlitemigrate.Index{
	{Name: "idx_game_sessions_game_type", Table: TableSessions, Columns: []string{"game_type"}},
	{Name: "idx_game_sessions_created_at", Table: TableSessions, Columns: []string{"created_at"}},
	{Name: "idx_game_extensions_base_game", Table: TableExtensions, Columns: []string{"base_game_name"}},
	{Name: "idx_players_name", Table: TablePlayers, Columns: []string{"name"}},
}

func indexes() sqlitemigrate.Migration {
	return sqlitemigrate.Migration{
		ID:          IDIndexes,
		Description: "Lookup indexes for sessions, extensions and players.",
		Up: func(ctx context.Context, tx *sql.Tx, logger *log.Logger) error {
			for _, index := range trackerIndexes {
				if _, err := sqlitemigrate.CreateIndexIfMissing(ctx, tx, logger, index); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
