package sqlitemigrate

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sort"
	"strings"
)

// Querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Index describes a secondary index.
type Index struct {
	Name    string
	Table   string
	Columns []string
	Unique  bool
}

// Column is one column of a rebuilt table.
type Column struct {
	// Name is the column name in the rebuilt table.
	Name string
	// Definition is the type and constraints, e.g. "TEXT NOT NULL DEFAULT ''".
	Definition string
	// Source is the column to copy from when it differs from Name (a rename).
	Source string
	// Fallback is the SQL expression used when neither Source nor Name
	// exists on the old table, and in place of NULLs when one does. Empty
	// means NULL.
	Fallback string
}

// Rebuild describes a shadow-table rebuild of Table into a new column set.
type Rebuild struct {
	Table       string
	Columns     []Column
	Constraints []string
}

// QuoteIdent quotes a SQLite identifier.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// TableExists reports whether a table is present in the catalog.
func TableExists(ctx context.Context, q Querier, table string) (bool, error) {
	var found int
	err := q.QueryRowContext(ctx,
		"SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?",
		table,
	).Scan(&found)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check table %s: %w", table, err)
	}
	return true, nil
}

// ColumnNames lists a table's columns in declaration order. A missing table
// yields an empty list.
func ColumnNames(ctx context.Context, q Querier, table string) ([]string, error) {
	rows, err := q.QueryContext(ctx, "PRAGMA table_info("+QuoteIdent(table)+")")
	if err != nil {
		return nil, fmt.Errorf("read columns of %s: %w", table, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var (
			cid      int
			name     string
			ctype    string
			notNull  int
			defValue sql.NullString
			pk       int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &defValue, &pk); err != nil {
			return nil, fmt.Errorf("read columns of %s: %w", table, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read columns of %s: %w", table, err)
	}
	return names, nil
}

// AddColumnIfMissing adds column to table unless it is already present.
// A missing table is logged and skipped. It reports whether the column was
// added.
func AddColumnIfMissing(ctx context.Context, q Querier, logger *log.Logger, table, column, definition string) (bool, error) {
	logger = orDiscard(logger)
	exists, err := TableExists(ctx, q, table)
	if err != nil {
		return false, err
	}
	if !exists {
		logger.Printf("warning: table %s does not exist, skipping column %s", table, column)
		return false, nil
	}
	columns, err := ColumnNames(ctx, q, table)
	if err != nil {
		return false, err
	}
	if containsFold(columns, column) {
		return false, nil
	}
	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", QuoteIdent(table), QuoteIdent(column), definition)
	if _, err := q.ExecContext(ctx, stmt); err != nil {
		if IsAlreadyExistsError(err) {
			return false, nil
		}
		return false, fmt.Errorf("add column %s.%s: %w", table, column, err)
	}
	return true, nil
}

// CreateIndexIfMissing creates index unless it already exists. A missing
// owning table is logged and skipped.
func CreateIndexIfMissing(ctx context.Context, q Querier, logger *log.Logger, index Index) (bool, error) {
	logger = orDiscard(logger)
	if strings.TrimSpace(index.Name) == "" || len(index.Columns) == 0 {
		return false, fmt.Errorf("index name and columns are required")
	}
	exists, err := TableExists(ctx, q, index.Table)
	if err != nil {
		return false, err
	}
	if !exists {
		logger.Printf("warning: table %s does not exist, skipping index %s", index.Table, index.Name)
		return false, nil
	}
	quoted := make([]string, len(index.Columns))
	for i, column := range index.Columns {
		quoted[i] = QuoteIdent(column)
	}
	unique := ""
	if index.Unique {
		unique = "UNIQUE "
	}
	stmt := fmt.Sprintf("CREATE %sINDEX IF NOT EXISTS %s ON %s (%s)",
		unique, QuoteIdent(index.Name), QuoteIdent(index.Table), strings.Join(quoted, ", "))
	if _, err := q.ExecContext(ctx, stmt); err != nil {
		return false, fmt.Errorf("create index %s: %w", index.Name, err)
	}
	return true, nil
}

// RebuildTable recreates target.Table with the target column set: a shadow table
// is created, filled by projecting the retained columns of the old table,
// the old table dropped and the shadow renamed into place. Indexes on the
// old table are dropped with it.
//
// The caller provides the transaction and must have suspended foreign key
// enforcement (see Migration.Rebuild). A missing table is logged and
// skipped; a table whose columns already equal the target set is left
// alone. It reports whether the table was rebuilt.
func RebuildTable(ctx context.Context, q Querier, logger *log.Logger, target Rebuild) (bool, error) {
	logger = orDiscard(logger)
	if strings.TrimSpace(target.Table) == "" || len(target.Columns) == 0 {
		return false, fmt.Errorf("rebuild table and columns are required")
	}
	exists, err := TableExists(ctx, q, target.Table)
	if err != nil {
		return false, err
	}
	if !exists {
		logger.Printf("warning: table %s does not exist, skipping rebuild", target.Table)
		return false, nil
	}
	current, err := ColumnNames(ctx, q, target.Table)
	if err != nil {
		return false, err
	}
	targets := make([]string, len(target.Columns))
	for i, column := range target.Columns {
		targets[i] = column.Name
	}
	if sameSet(current, targets) {
		return false, nil
	}

	shadow := target.Table + "__rebuild"
	defs := make([]string, 0, len(target.Columns)+len(target.Constraints))
	names := make([]string, 0, len(target.Columns))
	exprs := make([]string, 0, len(target.Columns))
	for _, column := range target.Columns {
		defs = append(defs, strings.TrimSpace(QuoteIdent(column.Name)+" "+column.Definition))
		names = append(names, QuoteIdent(column.Name))
		exprs = append(exprs, projection(column, current))
	}
	defs = append(defs, target.Constraints...)

	stmts := []string{
		"DROP TABLE IF EXISTS " + QuoteIdent(shadow),
		fmt.Sprintf("CREATE TABLE %s (\n    %s\n)", QuoteIdent(shadow), strings.Join(defs, ",\n    ")),
		fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s",
			QuoteIdent(shadow), strings.Join(names, ", "), strings.Join(exprs, ", "), QuoteIdent(target.Table)),
		"DROP TABLE " + QuoteIdent(target.Table),
		fmt.Sprintf("ALTER TABLE %s RENAME TO %s", QuoteIdent(shadow), QuoteIdent(target.Table)),
	}
	for _, stmt := range stmts {
		if _, err := q.ExecContext(ctx, stmt); err != nil {
			return false, fmt.Errorf("rebuild %s: %w", target.Table, err)
		}
	}
	return true, nil
}

func projection(column Column, current []string) string {
	fallback := strings.TrimSpace(column.Fallback)
	source := ""
	switch {
	case column.Source != "" && containsFold(current, column.Source):
		source = QuoteIdent(column.Source)
	case containsFold(current, column.Name):
		source = QuoteIdent(column.Name)
	}
	switch {
	case source != "" && fallback != "":
		return "COALESCE(" + source + ", " + fallback + ")"
	case source != "":
		return source
	case fallback != "":
		return fallback
	}
	return "NULL"
}

func containsFold(values []string, want string) bool {
	for _, value := range values {
		if strings.EqualFold(value, want) {
			return true
		}
	}
	return false
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	left := make([]string, len(a))
	right := make([]string, len(b))
	for i := range a {
		left[i] = strings.ToLower(a[i])
		right[i] = strings.ToLower(b[i])
	}
	sort.Strings(left)
	sort.Strings(right)
	for i := range left {
		if left[i] != right[i] {
			return false
		}
	}
	return true
}
