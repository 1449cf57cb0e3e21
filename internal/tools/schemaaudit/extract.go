package schemaaudit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/louisbranch/playlog/internal/platform/storage/sqlitemigrate"
)

// Table is one user table as found in the live catalog.
type Table struct {
	Name        string       `json:"name"`
	SQL         string       `json:"sql"`
	Columns     []string     `json:"columns"`
	Indexes     []Index      `json:"indexes"`
	ForeignKeys []ForeignKey `json:"foreign_keys"`
	RowCount    int64        `json:"row_count"`
}

// Index is one index on a table.
type Index struct {
	Name    string   `json:"name"`
	Unique  bool     `json:"unique"`
	Origin  string   `json:"origin"`
	Columns []string `json:"columns"`
}

// ForeignKey is one declared reference. Composite keys carry one entry per
// column, in declaration order.
type ForeignKey struct {
	FromTable   string   `json:"from_table"`
	FromColumns []string `json:"from_columns"`
	ToTable     string   `json:"to_table"`
	ToColumns   []string `json:"to_columns"`
}

// ExtractSchema reads every user table with its statement, columns,
// indexes, foreign keys and row count. Catalog tables (sqlite_*) are
// excluded.
func ExtractSchema(ctx context.Context, q sqlitemigrate.Querier) ([]Table, error) {
	tables, err := listTables(ctx, q)
	if err != nil {
		return nil, err
	}
	for i := range tables {
		table := &tables[i]
		if table.Columns, err = sqlitemigrate.ColumnNames(ctx, q, table.Name); err != nil {
			return nil, err
		}
		if table.Indexes, err = listIndexes(ctx, q, table.Name); err != nil {
			return nil, err
		}
		if table.ForeignKeys, err = listForeignKeys(ctx, q, table.Name); err != nil {
			return nil, err
		}
		if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+sqlitemigrate.QuoteIdent(table.Name)).Scan(&table.RowCount); err != nil {
			return nil, fmt.Errorf("count rows of %s: %w", table.Name, err)
		}
	}
	return tables, nil
}

func listTables(ctx context.Context, q sqlitemigrate.Querier) ([]Table, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT name, COALESCE(sql, '') FROM sqlite_master
		  WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		  ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	tables := []Table{}
	for rows.Next() {
		var table Table
		if err := rows.Scan(&table.Name, &table.SQL); err != nil {
			return nil, fmt.Errorf("list tables: %w", err)
		}
		tables = append(tables, table)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return tables, nil
}

func listIndexes(ctx context.Context, q sqlitemigrate.Querier, table string) ([]Index, error) {
	rows, err := q.QueryContext(ctx, "PRAGMA index_list("+sqlitemigrate.QuoteIdent(table)+")")
	if err != nil {
		return nil, fmt.Errorf("list indexes of %s: %w", table, err)
	}
	indexes := []Index{}
	for rows.Next() {
		var (
			seq     int
			index   Index
			unique  int
			partial int
		)
		if err := rows.Scan(&seq, &index.Name, &unique, &index.Origin, &partial); err != nil {
			rows.Close()
			return nil, fmt.Errorf("list indexes of %s: %w", table, err)
		}
		index.Unique = unique != 0
		indexes = append(indexes, index)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("list indexes of %s: %w", table, err)
	}
	rows.Close()

	for i := range indexes {
		columns, err := indexColumns(ctx, q, indexes[i].Name)
		if err != nil {
			return nil, err
		}
		indexes[i].Columns = columns
	}
	return indexes, nil
}

func indexColumns(ctx context.Context, q sqlitemigrate.Querier, index string) ([]string, error) {
	rows, err := q.QueryContext(ctx, "PRAGMA index_info("+sqlitemigrate.QuoteIdent(index)+")")
	if err != nil {
		return nil, fmt.Errorf("read index %s: %w", index, err)
	}
	defer rows.Close()

	columns := []string{}
	for rows.Next() {
		var (
			seqno int
			cid   int
			name  sql.NullString
		)
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, fmt.Errorf("read index %s: %w", index, err)
		}
		columns = append(columns, name.String)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read index %s: %w", index, err)
	}
	return columns, nil
}

func listForeignKeys(ctx context.Context, q sqlitemigrate.Querier, table string) ([]ForeignKey, error) {
	rows, err := q.QueryContext(ctx, "PRAGMA foreign_key_list("+sqlitemigrate.QuoteIdent(table)+")")
	if err != nil {
		return nil, fmt.Errorf("list foreign keys of %s: %w", table, err)
	}
	defer rows.Close()

	keys := []ForeignKey{}
	byID := map[int]int{}
	for rows.Next() {
		var (
			keyID      int
			seq        int
			toTable    string
			fromColumn string
			toColumn   sql.NullString
			onUpdate   string
			onDelete   string
			match      string
		)
		if err := rows.Scan(&keyID, &seq, &toTable, &fromColumn, &toColumn, &onUpdate, &onDelete, &match); err != nil {
			return nil, fmt.Errorf("list foreign keys of %s: %w", table, err)
		}
		idx, ok := byID[keyID]
		if !ok {
			idx = len(keys)
			byID[keyID] = idx
			keys = append(keys, ForeignKey{FromTable: table, ToTable: toTable})
		}
		keys[idx].FromColumns = append(keys[idx].FromColumns, fromColumn)
		keys[idx].ToColumns = append(keys[idx].ToColumns, toColumn.String)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list foreign keys of %s: %w", table, err)
	}
	return keys, nil
}
