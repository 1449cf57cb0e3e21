package schemaaudit

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// writeText prints the multi-section report. An empty section prints
// "none".
func writeText(out io.Writer, report Report) error {
	p := message.NewPrinter(language.English)
	w := &reportWriter{out: out, p: p}

	w.printf("Schema audit: %s\n", report.Database)

	w.section("Tables (%d)", len(report.Tables))
	if len(report.Tables) == 0 {
		w.none()
	}
	for _, table := range report.Tables {
		w.printf("  %s: %d rows, %d columns\n", table.Name, table.RowCount, len(table.Columns))
		w.printf("    columns: %s\n", strings.Join(table.Columns, ", "))
		for _, index := range table.Indexes {
			unique := ""
			if index.Unique {
				unique = "unique "
			}
			w.printf("    %sindex %s (%s)\n", unique, index.Name, strings.Join(index.Columns, ", "))
		}
		for _, key := range table.ForeignKeys {
			w.printf("    foreign key (%s) -> %s(%s)\n", strings.Join(key.FromColumns, ", "), key.ToTable, strings.Join(key.ToColumns, ", "))
		}
		for _, line := range strings.Split(strings.TrimSpace(table.SQL), "\n") {
			w.printf("    | %s\n", line)
		}
	}

	w.section("Declared types (%d, from %s)", len(report.Types), report.TypesSource)
	if len(report.Types) == 0 {
		w.none()
	}
	for _, declared := range report.Types {
		w.printf("  %s: %s\n", declared.Name, strings.Join(declared.Fields, ", "))
	}

	w.issues("Columns in SQL not in type", report.ColumnsNotInType)
	w.issues("Fields in type not in SQL", report.FieldsNotInSQL)
	w.issues("Dangling foreign keys", report.DanglingForeignKeys)

	w.section("Documentation (%d)", len(report.Docs))
	if len(report.Docs) == 0 {
		w.none()
	}
	for _, doc := range report.Docs {
		state := "missing"
		if doc.Present {
			state = "present"
		}
		w.printf("  %-7s %s\n", state, doc.Path)
	}

	if len(report.Notes) > 0 {
		w.section("Notes (%d)", len(report.Notes))
		for _, note := range report.Notes {
			w.printf("  %s\n", note)
		}
	}
	return w.err
}

type reportWriter struct {
	out io.Writer
	p   *message.Printer
	err error
}

func (w *reportWriter) printf(format string, args ...any) {
	if w.err != nil {
		return
	}
	if _, err := w.p.Fprintf(w.out, format, args...); err != nil {
		w.err = fmt.Errorf("write report: %w", err)
	}
}

func (w *reportWriter) section(format string, args ...any) {
	w.printf("\n"+format+":\n", args...)
}

func (w *reportWriter) none() {
	w.printf("  none\n")
}

func (w *reportWriter) issues(title string, issues []Issue) {
	w.section("%s (%d)", title, len(issues))
	if len(issues) == 0 {
		w.none()
	}
	for _, issue := range issues {
		w.printf("  %s\n", issue.Message)
	}
}
