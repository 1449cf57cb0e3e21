// Package migrations holds the ordered tracker schema migrations. Plain
// DDL lives in embedded SQL files; steps that probe the live schema or move
// data are written in Go.
package migrations

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/louisbranch/playlog/internal/platform/id"
	"github.com/louisbranch/playlog/internal/platform/storage/sqlitemigrate"
)

// Tracker table names.
const (
	TablePlayers     = "players"
	TableTemplates   = "game_templates"
	TableExtensions  = "game_extensions"
	TableSessions    = "game_sessions"
	TablePreferences = "preferences"
)

// Migration identifiers of the Go steps.
const (
	IDSessionTracking        = "002_session_tracking"
	IDTemplateModes          = "003_template_modes"
	IDLiftTemplateExtensions = "005_lift_template_extensions"
	IDDropTemplateExtensions = "006_drop_template_extensions"
	IDIndexes                = "007_indexes"
)

// legacyExtensionsColumn is the serialized extension list carried by
// game_templates before extensions became rows of their own.
const legacyExtensionsColumn = "extensions"

// All returns every tracker migration in application order.
func All() ([]sqlitemigrate.Migration, error) {
	return build(id.Default)
}

func build(newID id.Generator) ([]sqlitemigrate.Migration, error) {
	migrations, err := sqlitemigrate.FromFS(FS, ".")
	if err != nil {
		return nil, fmt.Errorf("load sql migrations: %w", err)
	}
	migrations = append(migrations,
		sessionTracking(),
		templateModes(),
		liftTemplateExtensions(newID),
		dropTemplateExtensions(),
		indexes(),
	)
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].ID < migrations[j].ID })
	return migrations, nil
}

// Find returns the migration whose ID equals key, or whose numeric prefix
// equals key ("5", "005" and "005_lift_template_extensions" all match step 5).
func Find(migrations []sqlitemigrate.Migration, key string) (sqlitemigrate.Migration, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return sqlitemigrate.Migration{}, false
	}
	for _, migration := range migrations {
		if migration.ID == key {
			return migration, true
		}
	}
	want, err := strconv.Atoi(key)
	if err != nil {
		return sqlitemigrate.Migration{}, false
	}
	for _, migration := range migrations {
		if seq, ok := sequence(migration.ID); ok && seq == want {
			return migration, true
		}
	}
	return sqlitemigrate.Migration{}, false
}

func sequence(migrationID string) (int, bool) {
	prefix, _, _ := strings.Cut(migrationID, "_")
	seq, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, false
	}
	return seq, true
}
