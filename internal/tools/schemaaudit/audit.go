// Package schemaaudit reports drift between the live tracker schema and the
// declared record types, plus dangling foreign keys and missing docs. The
// audit is advisory: it never writes to the database and only fails when
// the database cannot be opened.
package schemaaudit

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/louisbranch/playlog/internal/platform/config"
	"github.com/louisbranch/playlog/internal/platform/storage/sqlitedb"
	"github.com/louisbranch/playlog/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/playlog/internal/platform/timeouts"
	"github.com/louisbranch/playlog/internal/services/tracker/storage/schema"
)

// DefaultDocPaths are the documentation files expected under the project
// root.
var DefaultDocPaths = []string{"README.md", "DESIGN.md", "docs/database.md"}

// Config holds schema audit configuration.
type Config struct {
	config.Storage
	TypesSource  string        `env:"AUDIT_TYPES_SOURCE"`
	Declarations string        `env:"AUDIT_DECLARATIONS"`
	DocPaths     []string      `env:"AUDIT_DOCS" envSeparator:","`
	Timeout      time.Duration `env:"AUDIT_TIMEOUT"`
	JSONOutput   bool
}

// ParseConfig loads PLAYLOG_ env defaults and then flags.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = timeouts.Audit
	}
	if len(cfg.DocPaths) == 0 {
		cfg.DocPaths = append([]string(nil), DefaultDocPaths...)
	}
	docs := strings.Join(cfg.DocPaths, ",")

	fs.StringVar(&cfg.ProjectRoot, "root", cfg.ProjectRoot, "project root that relative paths resolve against")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "path to the tracker sqlite database (default: PLAYLOG_DB_PATH or data/playlog.db)")
	fs.StringVar(&cfg.TypesSource, "types-source", cfg.TypesSource, "source file to scan for export interface declarations (default: embedded YAML declarations)")
	fs.StringVar(&cfg.Declarations, "declarations", cfg.Declarations, "YAML declarations file overriding the embedded set")
	fs.StringVar(&docs, "docs", docs, "comma-separated documentation paths expected under -root")
	fs.BoolVar(&cfg.JSONOutput, "json", false, "output a JSON report")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "overall timeout")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.DocPaths = splitCSV(docs)
	return cfg, nil
}

// Report is the assembled audit result.
type Report struct {
	Database            string        `json:"database"`
	TypesSource         string        `json:"types_source"`
	Tables              []Table       `json:"tables"`
	Types               []schema.Type `json:"types"`
	ColumnsNotInType    []Issue       `json:"columns_not_in_type"`
	FieldsNotInSQL      []Issue       `json:"fields_not_in_sql"`
	DanglingForeignKeys []Issue       `json:"dangling_foreign_keys"`
	Docs                []DocStatus   `json:"docs"`
	Notes               []string      `json:"notes"`
}

// Run opens the database read-only, builds the report and prints it.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}

	dbPath := cfg.DatabasePath()
	sqlDB, err := sqlitedb.OpenReadOnly(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if closeErr := sqlDB.Close(); closeErr != nil {
			fmt.Fprintf(errOut, "Error: close database: %v\n", closeErr)
		}
	}()

	report := Build(ctx, sqlDB, cfg)
	report.Database = dbPath
	if cfg.JSONOutput {
		return writeJSON(out, report)
	}
	return writeText(out, report)
}

// Build assembles the report from q. Extraction failures become notes.
func Build(ctx context.Context, q sqlitemigrate.Querier, cfg Config) Report {
	report := Report{Notes: []string{}}

	tables, err := ExtractSchema(ctx, q)
	if err != nil {
		report.Notes = append(report.Notes, fmt.Sprintf("schema extraction incomplete: %v", err))
	}
	if tables == nil {
		tables = []Table{}
	}
	report.Tables = tables

	typesSource := cfg.TypesSource
	if strings.TrimSpace(typesSource) != "" {
		typesSource = config.ResolvePath(cfg.ProjectRoot, typesSource)
		report.TypesSource = typesSource
	} else if strings.TrimSpace(cfg.Declarations) != "" {
		report.TypesSource = config.ResolvePath(cfg.ProjectRoot, cfg.Declarations)
	} else {
		report.TypesSource = "embedded declarations"
	}
	declarationsPath := ""
	if strings.TrimSpace(cfg.Declarations) != "" {
		declarationsPath = config.ResolvePath(cfg.ProjectRoot, cfg.Declarations)
	}
	types, tableTypes, notes := declaredTypes(typesSource, declarationsPath)
	if types == nil {
		types = []schema.Type{}
	}
	report.Types = types
	report.Notes = append(report.Notes, notes...)

	report.ColumnsNotInType = []Issue{}
	report.FieldsNotInSQL = []Issue{}
	for _, issue := range CheckCorrespondence(tables, types, tableTypes) {
		switch issue.Kind {
		case ColumnNotInType:
			report.ColumnsNotInType = append(report.ColumnsNotInType, issue)
		case FieldNotInSQL:
			report.FieldsNotInSQL = append(report.FieldsNotInSQL, issue)
		}
	}
	report.DanglingForeignKeys = CheckForeignKeys(tables)

	docPaths := cfg.DocPaths
	if docPaths == nil {
		docPaths = DefaultDocPaths
	}
	report.Docs = CheckDocs(cfg.ProjectRoot, docPaths)
	return report
}

func writeJSON(out io.Writer, report Report) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
