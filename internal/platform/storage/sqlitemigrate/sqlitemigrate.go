// Package sqlitemigrate applies ordered schema migrations to a SQLite
// database and records each applied step in a ledger table.
package sqlitemigrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"path"
	"sort"
	"strings"
	"time"
)

const migrationTable = "schema_migrations"

// Migration is one numbered schema step.
type Migration struct {
	// ID orders migrations and keys the ledger, e.g. "005_lift_template_extensions".
	ID          string
	Description string
	// Rebuild suspends foreign key enforcement for the duration of the step.
	// SQLite ignores the pragma inside a transaction, so the runner switches
	// it on the pinned connection before BEGIN and restores it after.
	Rebuild bool
	// Up runs inside the step transaction. Warnings go to logger.
	Up func(ctx context.Context, tx *sql.Tx, logger *log.Logger) error
}

// Status describes one migration's ledger state.
type Status struct {
	ID          string
	Description string
	Applied     bool
	AppliedAt   time.Time
}

// Result lists what an Apply run did.
type Result struct {
	Applied []string
	Skipped []string
}

// Apply runs every migration not yet recorded in the ledger, in ID order.
func Apply(ctx context.Context, sqlDB *sql.DB, migrations []Migration, logger *log.Logger) (Result, error) {
	if sqlDB == nil {
		return Result{}, fmt.Errorf("sql db is required")
	}
	ordered, err := sortMigrations(migrations)
	if err != nil {
		return Result{}, err
	}
	logger = orDiscard(logger)

	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	if err := ensureLedger(ctx, conn); err != nil {
		return Result{}, err
	}

	var result Result
	for _, migration := range ordered {
		applied, err := isApplied(ctx, conn, migration.ID)
		if err != nil {
			return result, fmt.Errorf("check migration %s: %w", migration.ID, err)
		}
		if applied {
			result.Skipped = append(result.Skipped, migration.ID)
			continue
		}
		if err := run(ctx, conn, migration, logger); err != nil {
			return result, err
		}
		result.Applied = append(result.Applied, migration.ID)
	}
	return result, nil
}

// ApplyOne runs a single migration. A step already in the ledger is skipped
// unless force is set, in which case it runs again and its ledger timestamp
// is refreshed. It reports whether the step ran.
func ApplyOne(ctx context.Context, sqlDB *sql.DB, migration Migration, logger *log.Logger, force bool) (bool, error) {
	if sqlDB == nil {
		return false, fmt.Errorf("sql db is required")
	}
	if err := validate(migration); err != nil {
		return false, err
	}
	logger = orDiscard(logger)

	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	if err := ensureLedger(ctx, conn); err != nil {
		return false, err
	}
	applied, err := isApplied(ctx, conn, migration.ID)
	if err != nil {
		return false, fmt.Errorf("check migration %s: %w", migration.ID, err)
	}
	if applied && !force {
		return false, nil
	}
	if err := run(ctx, conn, migration, logger); err != nil {
		return false, err
	}
	return true, nil
}

// Statuses reports the ledger state of each migration without writing.
func Statuses(ctx context.Context, q Querier, migrations []Migration) ([]Status, error) {
	if q == nil {
		return nil, fmt.Errorf("sql db is required")
	}
	ordered, err := sortMigrations(migrations)
	if err != nil {
		return nil, err
	}

	appliedAt := map[string]int64{}
	exists, err := TableExists(ctx, q, migrationTable)
	if err != nil {
		return nil, err
	}
	if exists {
		rows, err := q.QueryContext(ctx, "SELECT name, applied_at FROM "+migrationTable)
		if err != nil {
			return nil, fmt.Errorf("read migration ledger: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var name string
			var at int64
			if err := rows.Scan(&name, &at); err != nil {
				return nil, fmt.Errorf("read migration ledger: %w", err)
			}
			appliedAt[name] = at
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("read migration ledger: %w", err)
		}
	}

	statuses := make([]Status, 0, len(ordered))
	for _, migration := range ordered {
		status := Status{ID: migration.ID, Description: migration.Description}
		if at, ok := appliedAt[migration.ID]; ok {
			status.Applied = true
			status.AppliedAt = time.UnixMilli(at).UTC()
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// FromFS builds migrations from the *.sql files directly under root, one per
// file, identified by the file name without its extension. Only the
// "-- +migrate Up" section runs; DDL that fails because the object already
// exists is tolerated.
func FromFS(migrationFS fs.FS, root string) ([]Migration, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		root = "."
	}
	entries, err := fs.ReadDir(migrationFS, root)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	var migrations []Migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		content, err := fs.ReadFile(migrationFS, path.Join(root, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		upSQL := ExtractUpMigration(string(content))
		migrations = append(migrations, Migration{
			ID:          strings.TrimSuffix(entry.Name(), ".sql"),
			Description: describe(string(content)),
			Up: func(ctx context.Context, tx *sql.Tx, _ *log.Logger) error {
				if strings.TrimSpace(upSQL) == "" {
					return nil
				}
				if _, err := tx.ExecContext(ctx, upSQL); err != nil && !IsAlreadyExistsError(err) {
					return err
				}
				return nil
			},
		})
	}
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].ID < migrations[j].ID })
	return migrations, nil
}

// ExtractUpMigration returns the SQL in the -- +migrate Up section.
func ExtractUpMigration(content string) string {
	upIdx := strings.Index(content, "-- +migrate Up")
	if upIdx == -1 {
		return content
	}
	downIdx := strings.Index(content, "-- +migrate Down")
	if downIdx == -1 {
		return content[upIdx+len("-- +migrate Up"):]
	}
	return content[upIdx+len("-- +migrate Up") : downIdx]
}

// IsAlreadyExistsError reports whether this error indicates idempotent DDL success.
func IsAlreadyExistsError(err error) bool {
	if err == nil {
		return false
	}
	value := strings.ToLower(err.Error())
	return strings.Contains(value, "already exists") || strings.Contains(value, "duplicate column name")
}

func run(ctx context.Context, conn *sql.Conn, migration Migration, logger *log.Logger) (err error) {
	if migration.Rebuild {
		if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
			return fmt.Errorf("suspend foreign keys for %s: %w", migration.ID, err)
		}
		defer func() {
			if _, restoreErr := conn.ExecContext(context.WithoutCancel(ctx), "PRAGMA foreign_keys = ON"); restoreErr != nil {
				err = errors.Join(err, fmt.Errorf("restore foreign keys after %s: %w", migration.ID, restoreErr))
			}
		}()
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration transaction %s: %w", migration.ID, err)
	}
	if err := migration.Up(ctx, tx, logger); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("exec migration %s: %w", migration.ID, err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO "+migrationTable+" (name, applied_at) VALUES (?, ?) "+
			"ON CONFLICT(name) DO UPDATE SET applied_at = excluded.applied_at",
		migration.ID,
		time.Now().UTC().UnixMilli(),
	); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record migration %s: %w", migration.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", migration.ID, err)
	}
	return nil
}

func ensureLedger(ctx context.Context, q Querier) error {
	createSQL := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    name TEXT PRIMARY KEY,
    applied_at INTEGER NOT NULL
);
`, migrationTable)
	if _, err := q.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}
	return nil
}

func isApplied(ctx context.Context, q Querier, name string) (bool, error) {
	var found int
	row := q.QueryRowContext(ctx, "SELECT 1 FROM "+migrationTable+" WHERE name = ?", name)
	if err := row.Scan(&found); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func sortMigrations(migrations []Migration) ([]Migration, error) {
	ordered := make([]Migration, len(migrations))
	copy(ordered, migrations)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })
	for i, migration := range ordered {
		if err := validate(migration); err != nil {
			return nil, err
		}
		if i > 0 && ordered[i-1].ID == migration.ID {
			return nil, fmt.Errorf("duplicate migration id %s", migration.ID)
		}
	}
	return ordered, nil
}

func validate(migration Migration) error {
	if strings.TrimSpace(migration.ID) == "" {
		return fmt.Errorf("migration id is required")
	}
	if migration.Up == nil {
		return fmt.Errorf("migration %s has no up step", migration.ID)
	}
	return nil
}

// describe returns the first plain comment line of a migration file.
func describe(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "--") || strings.HasPrefix(line, "-- +migrate") {
			continue
		}
		if text := strings.TrimSpace(strings.TrimPrefix(line, "--")); text != "" {
			return text
		}
	}
	return ""
}

func orDiscard(logger *log.Logger) *log.Logger {
	if logger == nil {
		return log.New(io.Discard, "", 0)
	}
	return logger
}
