// Package migrate applies the tracker schema migrations to the database
// file, either all pending steps or one named step per invocation.
package migrate

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	platformcmd "github.com/louisbranch/playlog/internal/platform/cmd"
	"github.com/louisbranch/playlog/internal/platform/config"
	"github.com/louisbranch/playlog/internal/platform/storage/sqlitedb"
	"github.com/louisbranch/playlog/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/playlog/internal/platform/timeouts"
	"github.com/louisbranch/playlog/internal/services/tracker/storage/sqlite/migrations"
)

// Config holds migrate command configuration.
type Config struct {
	config.Storage
	Timeout time.Duration `env:"MIGRATE_TIMEOUT"`
	Step    string
	Force   bool
	List    bool
}

// ParseConfig loads PLAYLOG_ env defaults and then flags.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = timeouts.Migrate
	}

	fs.StringVar(&cfg.ProjectRoot, "root", cfg.ProjectRoot, "project root that relative paths resolve against")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "path to the tracker sqlite database (default: PLAYLOG_DB_PATH or data/playlog.db)")
	fs.StringVar(&cfg.Step, "step", "", "run only this migration, by id or number (e.g. 5 or 005_lift_template_extensions)")
	fs.BoolVar(&cfg.Force, "force", false, "re-run -step even if the ledger records it as applied")
	fs.BoolVar(&cfg.List, "list", false, "list migrations and their ledger state without applying")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "overall timeout")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes the migrate command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	if cfg.Force && strings.TrimSpace(cfg.Step) == "" {
		return errors.New("-force requires -step")
	}
	if cfg.List && strings.TrimSpace(cfg.Step) != "" {
		return errors.New("-list cannot be combined with -step")
	}

	all, err := migrations.All()
	if err != nil {
		return err
	}
	dbPath := cfg.DatabasePath()
	if cfg.List {
		return list(ctx, dbPath, all, out)
	}

	logger := log.New(errOut, platformcmd.LogPrefix(platformcmd.ServiceMigrate), log.LstdFlags)
	sqlDB, err := sqlitedb.Open(ctx, dbPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := sqlDB.Close(); closeErr != nil {
			logger.Printf("close database: %v", closeErr)
		}
	}()

	if step := strings.TrimSpace(cfg.Step); step != "" {
		migration, ok := migrations.Find(all, step)
		if !ok {
			return fmt.Errorf("unknown migration %q", step)
		}
		ran, err := sqlitemigrate.ApplyOne(ctx, sqlDB, migration, logger, cfg.Force)
		if err != nil {
			return err
		}
		if !ran {
			fmt.Fprintf(out, "Migration %s already applied (use -force to re-run)\n", migration.ID)
			return nil
		}
		fmt.Fprintf(out, "Migration %s completed\n", migration.ID)
		return nil
	}

	result, err := sqlitemigrate.Apply(ctx, sqlDB, all, logger)
	for _, migrationID := range result.Applied {
		fmt.Fprintf(out, "Migration %s completed\n", migrationID)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Applied %d migrations to %s (%d already applied)\n", len(result.Applied), dbPath, len(result.Skipped))
	return nil
}

func list(ctx context.Context, dbPath string, all []sqlitemigrate.Migration, out io.Writer) error {
	var statuses []sqlitemigrate.Status
	sqlDB, err := sqlitedb.OpenReadOnly(ctx, dbPath)
	switch {
	case errors.Is(err, sqlitedb.ErrNotExist):
		for _, migration := range all {
			statuses = append(statuses, sqlitemigrate.Status{ID: migration.ID, Description: migration.Description})
		}
	case err != nil:
		return err
	default:
		defer sqlDB.Close()
		statuses, err = sqlitemigrate.Statuses(ctx, sqlDB, all)
		if err != nil {
			return err
		}
	}

	for _, status := range statuses {
		state := "pending"
		if status.Applied {
			state = "applied " + status.AppliedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(out, "%-32s %-28s %s\n", status.ID, state, status.Description)
	}
	return nil
}
