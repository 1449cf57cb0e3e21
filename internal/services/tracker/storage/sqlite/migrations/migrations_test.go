package migrations

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/louisbranch/playlog/internal/platform/storage/sqlitedb"
	"github.com/louisbranch/playlog/internal/platform/storage/sqlitemigrate"
)

func TestAllIsOrderedAndUnique(t *testing.T) {
	t.Parallel()

	migrations := mustAll(t)
	want := []string{
		"001_initial_schema",
		IDSessionTracking,
		IDTemplateModes,
		"004_game_extensions",
		IDLiftTemplateExtensions,
		IDDropTemplateExtensions,
		IDIndexes,
		"008_preferences",
	}
	if len(migrations) != len(want) {
		t.Fatalf("migrations = %d, want %d", len(migrations), len(want))
	}
	for i, migration := range migrations {
		if migration.ID != want[i] {
			t.Fatalf("migration[%d] = %q, want %q", i, migration.ID, want[i])
		}
	}
}

func TestFind(t *testing.T) {
	t.Parallel()

	migrations := mustAll(t)
	for _, key := range []string{"5", "005", IDLiftTemplateExtensions} {
		migration, ok := Find(migrations, key)
		if !ok || migration.ID != IDLiftTemplateExtensions {
			t.Fatalf("Find(%q) = %q, %v", key, migration.ID, ok)
		}
	}
	for _, key := range []string{"", "42", "lift"} {
		if _, ok := Find(migrations, key); ok {
			t.Fatalf("Find(%q) matched, want no match", key)
		}
	}
}

func TestEveryStepIsIdempotent(t *testing.T) {
	t.Parallel()

	migrations := mustAll(t)
	for i, migration := range migrations {
		prefix := migrations[:i]
		t.Run(migration.ID, func(t *testing.T) {
			once := openTempDB(t)
			applyPrefix(t, once, prefix)
			seedLegacyTemplate(t, once, `["Spirit Island: Branch & Claw"]`)
			applyStep(t, once, migration, false)

			twice := openTempDB(t)
			applyPrefix(t, twice, prefix)
			seedLegacyTemplate(t, twice, `["Spirit Island: Branch & Claw"]`)
			applyStep(t, twice, migration, false)
			applyStep(t, twice, migration, true)

			if got, want := schemaSnapshot(t, twice), schemaSnapshot(t, once); got != want {
				t.Fatalf("schema after two runs differs from one run\nonce:\n%s\ntwice:\n%s", want, got)
			}
			if got, want := countRows(t, twice, TableExtensions), countRows(t, once, TableExtensions); got != want {
				t.Fatalf("extension rows after two runs = %d, after one = %d", got, want)
			}
		})
	}
}

func TestGoStepsWarnOnEmptyDatabase(t *testing.T) {
	t.Parallel()

	migrations := mustAll(t)
	for _, key := range []string{IDSessionTracking, IDTemplateModes, IDLiftTemplateExtensions, IDDropTemplateExtensions, IDIndexes} {
		migration, ok := Find(migrations, key)
		if !ok {
			t.Fatalf("missing migration %s", key)
		}
		t.Run(key, func(t *testing.T) {
			db := openTempDB(t)
			var buffer bytes.Buffer
			logger := log.New(&buffer, "", 0)

			if _, err := sqlitemigrate.ApplyOne(context.Background(), db, migration, logger, false); err != nil {
				t.Fatalf("apply on empty database: %v", err)
			}
			if !strings.Contains(buffer.String(), "warning:") {
				t.Fatalf("expected a warning, got %q", buffer.String())
			}
		})
	}
}

func TestLiftTemplateExtensionsSkipsBlankNames(t *testing.T) {
	t.Parallel()

	migrations := mustAll(t)
	db := openTempDB(t)
	applyThrough(t, db, migrations, "004_game_extensions")
	seedLegacyTemplate(t, db, `["Expansion A", "  ", "Expansion B"]`)

	lift, _ := Find(migrations, IDLiftTemplateExtensions)
	applyStep(t, db, lift, false)

	rows, err := db.Query(`SELECT name, base_game_name FROM game_extensions ORDER BY name`)
	if err != nil {
		t.Fatalf("query extensions: %v", err)
	}
	var got []string
	for rows.Next() {
		var name, base string
		if err := rows.Scan(&name, &base); err != nil {
			t.Fatalf("scan: %v", err)
		}
		got = append(got, name+"@"+base)
	}
	if err := rows.Close(); err != nil {
		t.Fatalf("close rows: %v", err)
	}
	want := "Expansion A@Gloomhaven,Expansion B@Gloomhaven"
	if strings.Join(got, ",") != want {
		t.Fatalf("extensions = %v, want %s", got, want)
	}

	applyStep(t, db, lift, true)
	if n := countRows(t, db, TableExtensions); n != 2 {
		t.Fatalf("extensions after rerun = %d, want 2", n)
	}
}

func TestLiftTemplateExtensionsIgnoresUnparseableCells(t *testing.T) {
	t.Parallel()

	migrations := mustAll(t)
	for _, cell := range []string{`["Expansion A"`, `"Expansion A"`, `{"name": "Expansion A"}`, `null`, `[]`} {
		t.Run(cell, func(t *testing.T) {
			db := openTempDB(t)
			applyThrough(t, db, migrations, "004_game_extensions")
			seedLegacyTemplate(t, db, cell)

			lift, _ := Find(migrations, IDLiftTemplateExtensions)
			applyStep(t, db, lift, false)
			if n := countRows(t, db, TableExtensions); n != 0 {
				t.Fatalf("extensions = %d, want 0", n)
			}
		})
	}
}

func TestLiftTemplateExtensionsAcceptsNamedObjects(t *testing.T) {
	t.Parallel()

	names := parseExtensionNames(sql.NullString{Valid: true, String: `[{"name":" Forgotten Circles "}, "Jaws of the Lion", 7, "Jaws of the Lion"]`})
	if got := strings.Join(names, "|"); got != "Forgotten Circles|Jaws of the Lion" {
		t.Fatalf("names = %q", got)
	}
}

func TestLiftTemplateExtensionsUsesGenerator(t *testing.T) {
	t.Parallel()

	next := 0
	migrations, err := build(func() (string, error) {
		next++
		return fmt.Sprintf("ext-%d", next), nil
	})
	if err != nil {
		t.Fatalf("build migrations: %v", err)
	}
	db := openTempDB(t)
	applyThrough(t, db, migrations, "004_game_extensions")
	seedLegacyTemplate(t, db, `["Solo Scenarios"]`)

	lift, _ := Find(migrations, IDLiftTemplateExtensions)
	applyStep(t, db, lift, false)

	var extensionID string
	if err := db.QueryRow(`SELECT id FROM game_extensions`).Scan(&extensionID); err != nil {
		t.Fatalf("read extension id: %v", err)
	}
	if extensionID != "ext-1" {
		t.Fatalf("id = %q, want ext-1", extensionID)
	}
}

func TestDropTemplateExtensionsKeepsRows(t *testing.T) {
	t.Parallel()

	migrations := mustAll(t)
	db := openTempDB(t)
	applyThrough(t, db, migrations, IDLiftTemplateExtensions)
	seedLegacyTemplate(t, db, `["Expansion A"]`)
	if _, err := db.Exec(`UPDATE game_templates SET min_players = 1, max_players = 4 WHERE name = 'Gloomhaven'`); err != nil {
		t.Fatalf("update template: %v", err)
	}
	lift, _ := Find(migrations, IDLiftTemplateExtensions)
	applyStep(t, db, lift, true)

	drop, _ := Find(migrations, IDDropTemplateExtensions)
	applyStep(t, db, drop, false)

	var minPlayers, maxPlayers int
	if err := db.QueryRow(`SELECT min_players, max_players FROM game_templates WHERE name = 'Gloomhaven'`).Scan(&minPlayers, &maxPlayers); err != nil {
		t.Fatalf("read template: %v", err)
	}
	if minPlayers != 1 || maxPlayers != 4 {
		t.Fatalf("players = %d-%d, want 1-4", minPlayers, maxPlayers)
	}
	if n := countRows(t, db, TableExtensions); n != 1 {
		t.Fatalf("extensions = %d, want 1 (rebuild must not cascade)", n)
	}
}

func TestAllMigrationsFromEmptyDatabase(t *testing.T) {
	t.Parallel()

	db := openTempDB(t)
	result, err := sqlitemigrate.Apply(context.Background(), db, mustAll(t), nil)
	if err != nil {
		t.Fatalf("apply all: %v", err)
	}
	if len(result.Applied) != 8 {
		t.Fatalf("applied = %v, want 8 migrations", result.Applied)
	}

	extensionColumns := columnSet(t, db, TableExtensions)
	want := "base_game_name,description,id,image,max_players,min_players,name,rules"
	if extensionColumns != want {
		t.Fatalf("game_extensions columns = %s, want %s", extensionColumns, want)
	}
	templateColumns, err := sqlitemigrate.ColumnNames(context.Background(), db, TableTemplates)
	if err != nil {
		t.Fatalf("template columns: %v", err)
	}
	if contains(templateColumns, legacyExtensionsColumn) {
		t.Fatalf("game_templates still has %s column: %v", legacyExtensionsColumn, templateColumns)
	}
	for _, column := range []string{"game_mode", "character_history", "coop_result", "completed"} {
		if !strings.Contains(","+columnSet(t, db, TableSessions)+",", ","+column+",") {
			t.Fatalf("game_sessions missing column %s", column)
		}
	}

	again, err := sqlitemigrate.Apply(context.Background(), db, mustAll(t), nil)
	if err != nil {
		t.Fatalf("re-apply all: %v", err)
	}
	if len(again.Applied) != 0 {
		t.Fatalf("re-apply applied %v, want nothing", again.Applied)
	}
}

func mustAll(t *testing.T) []sqlitemigrate.Migration {
	t.Helper()
	migrations, err := All()
	if err != nil {
		t.Fatalf("load migrations: %v", err)
	}
	return migrations
}

func openTempDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sqlitedb.Open(context.Background(), filepath.Join(t.TempDir(), "playlog.db"))
	if err != nil {
		t.Fatalf("open temp db: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Fatalf("close db: %v", err)
		}
	})
	return db
}

func applyPrefix(t *testing.T, db *sql.DB, migrations []sqlitemigrate.Migration) {
	t.Helper()
	if _, err := sqlitemigrate.Apply(context.Background(), db, migrations, nil); err != nil {
		t.Fatalf("apply prefix: %v", err)
	}
}

func applyThrough(t *testing.T, db *sql.DB, migrations []sqlitemigrate.Migration, lastID string) {
	t.Helper()
	for i, migration := range migrations {
		if migration.ID == lastID {
			applyPrefix(t, db, migrations[:i+1])
			return
		}
	}
	t.Fatalf("unknown migration %s", lastID)
}

func applyStep(t *testing.T, db *sql.DB, migration sqlitemigrate.Migration, force bool) {
	t.Helper()
	if _, err := sqlitemigrate.ApplyOne(context.Background(), db, migration, nil, force); err != nil {
		t.Fatalf("apply %s: %v", migration.ID, err)
	}
}

// seedLegacyTemplate inserts a Gloomhaven template carrying a serialized
// extension list when the legacy column is present.
func seedLegacyTemplate(t *testing.T, db *sql.DB, extensions string) {
	t.Helper()
	ctx := context.Background()
	exists, err := sqlitemigrate.TableExists(ctx, db, TableTemplates)
	if err != nil {
		t.Fatalf("check templates: %v", err)
	}
	if !exists {
		return
	}
	columns, err := sqlitemigrate.ColumnNames(ctx, db, TableTemplates)
	if err != nil {
		t.Fatalf("template columns: %v", err)
	}
	if !contains(columns, legacyExtensionsColumn) {
		return
	}
	if _, err := db.Exec(
		`INSERT INTO game_templates (name, extensions) VALUES ('Gloomhaven', ?)
		 ON CONFLICT(name) DO UPDATE SET extensions = excluded.extensions`,
		extensions,
	); err != nil {
		t.Fatalf("seed template: %v", err)
	}
}

func schemaSnapshot(t *testing.T, db *sql.DB) string {
	t.Helper()
	rows, err := db.Query(`SELECT type, name, COALESCE(sql, '') FROM sqlite_master
		WHERE name NOT LIKE 'sqlite_%' AND name != 'schema_migrations'
		ORDER BY type, name`)
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}
	defer rows.Close()
	var lines []string
	for rows.Next() {
		var kind, name, stmt string
		if err := rows.Scan(&kind, &name, &stmt); err != nil {
			t.Fatalf("scan schema: %v", err)
		}
		lines = append(lines, kind+" "+name+": "+stmt)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("read schema: %v", err)
	}
	return strings.Join(lines, "\n")
}

func columnSet(t *testing.T, db *sql.DB, table string) string {
	t.Helper()
	columns, err := sqlitemigrate.ColumnNames(context.Background(), db, table)
	if err != nil {
		t.Fatalf("columns of %s: %v", table, err)
	}
	sort.Strings(columns)
	return strings.Join(columns, ",")
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	exists, err := sqlitemigrate.TableExists(context.Background(), db, table)
	if err != nil {
		t.Fatalf("check %s: %v", table, err)
	}
	if !exists {
		return 0
	}
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + sqlitemigrate.QuoteIdent(table)).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
