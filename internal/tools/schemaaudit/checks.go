package schemaaudit

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/louisbranch/playlog/internal/platform/config"
	"github.com/louisbranch/playlog/internal/services/tracker/storage/schema"
)

// IssueKind classifies an audit finding.
type IssueKind string

const (
	// ColumnNotInType is a live column the declared type does not list.
	ColumnNotInType IssueKind = "column_not_in_type"
	// FieldNotInSQL is a declared field with no live column.
	FieldNotInSQL IssueKind = "field_not_in_sql"
	// DanglingForeignKey is a reference to a table that does not exist.
	DanglingForeignKey IssueKind = "dangling_foreign_key"
)

// Issue is one audit finding.
type Issue struct {
	Kind    IssueKind `json:"kind"`
	Table   string    `json:"table"`
	Type    string    `json:"type,omitempty"`
	Name    string    `json:"name"`
	Message string    `json:"message"`
}

// DocStatus records whether an expected documentation file exists.
type DocStatus struct {
	Path    string `json:"path"`
	Present bool   `json:"present"`
}

// CheckCorrespondence compares live columns against declared fields for
// each table named in tableTypes. Tables or types absent on either side
// produce no issue.
func CheckCorrespondence(tables []Table, types []schema.Type, tableTypes map[string]string) []Issue {
	byTable := make(map[string]Table, len(tables))
	for _, table := range tables {
		byTable[table.Name] = table
	}
	byType := make(map[string]schema.Type, len(types))
	for _, declared := range types {
		byType[declared.Name] = declared
	}

	names := make([]string, 0, len(tableTypes))
	for name := range tableTypes {
		names = append(names, name)
	}
	sort.Strings(names)

	issues := []Issue{}
	for _, tableName := range names {
		table, ok := byTable[tableName]
		if !ok {
			continue
		}
		declared, ok := byType[tableTypes[tableName]]
		if !ok {
			continue
		}
		for _, column := range difference(table.Columns, declared.Fields) {
			issues = append(issues, Issue{
				Kind:    ColumnNotInType,
				Table:   table.Name,
				Type:    declared.Name,
				Name:    column,
				Message: fmt.Sprintf("column %s.%s is not declared on %s", table.Name, column, declared.Name),
			})
		}
		for _, field := range difference(declared.Fields, table.Columns) {
			issues = append(issues, Issue{
				Kind:    FieldNotInSQL,
				Table:   table.Name,
				Type:    declared.Name,
				Name:    field,
				Message: fmt.Sprintf("field %s.%s has no column in %s", declared.Name, field, table.Name),
			})
		}
	}
	return issues
}

// CheckForeignKeys reports one issue per foreign key whose target table is
// not among tables.
func CheckForeignKeys(tables []Table) []Issue {
	present := make(map[string]struct{}, len(tables))
	for _, table := range tables {
		present[table.Name] = struct{}{}
	}
	issues := []Issue{}
	for _, table := range tables {
		for _, key := range table.ForeignKeys {
			if _, ok := present[key.ToTable]; ok {
				continue
			}
			issues = append(issues, Issue{
				Kind:    DanglingForeignKey,
				Table:   key.FromTable,
				Name:    key.ToTable,
				Message: fmt.Sprintf("%s(%s) references missing table %s", key.FromTable, strings.Join(key.FromColumns, ", "), key.ToTable),
			})
		}
	}
	return issues
}

// CheckDocs reports which of paths exist under root.
func CheckDocs(root string, paths []string) []DocStatus {
	statuses := make([]DocStatus, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(config.ResolvePath(root, path))
		statuses = append(statuses, DocStatus{Path: path, Present: err == nil && !info.IsDir()})
	}
	return statuses
}

// difference returns the values of a missing from b, in a's order.
func difference(a, b []string) []string {
	set := make(map[string]struct{}, len(b))
	for _, value := range b {
		set[value] = struct{}{}
	}
	var out []string
	for _, value := range a {
		if _, ok := set[value]; !ok {
			out = append(out, value)
		}
	}
	return out
}
