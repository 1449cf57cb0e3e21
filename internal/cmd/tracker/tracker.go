// Package tracker parses tracker service flags and launches the service.
package tracker

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strconv"

	entrypoint "github.com/louisbranch/playlog/internal/platform/cmd"
	"github.com/louisbranch/playlog/internal/platform/config"
	"github.com/louisbranch/playlog/internal/services/tracker/app"
	"github.com/louisbranch/playlog/internal/services/tracker/integration/bgg"
)

// Config holds tracker command configuration.
type Config struct {
	config.Storage
	Host            string `env:"TRACKER_HOST" envDefault:"localhost"`
	Port            int    `env:"TRACKER_PORT" envDefault:"8095"`
	MetadataBaseURL string `env:"BGG_BASE_URL"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.MetadataBaseURL == "" {
		cfg.MetadataBaseURL = bgg.DefaultBaseURL
	}
	fs.StringVar(&cfg.ProjectRoot, "root", cfg.ProjectRoot, "project root that relative paths resolve against")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "path to the tracker sqlite database")
	fs.StringVar(&cfg.Host, "host", cfg.Host, "HTTP listen host")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "HTTP listen port")
	fs.StringVar(&cfg.MetadataBaseURL, "bgg-base-url", cfg.MetadataBaseURL, "BoardGameGeek XML API2 base URL")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("port %d out of range", cfg.Port)
	}
	return cfg, nil
}

// HTTPAddr is the listen address built from host and port.
func (c Config) HTTPAddr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// Run starts the tracker HTTP service and blocks until ctx is done.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceTracker, func(ctx context.Context) error {
		server, err := app.NewServer(ctx, app.Config{
			HTTPAddr:        cfg.HTTPAddr(),
			DBPath:          cfg.DatabasePath(),
			MetadataBaseURL: cfg.MetadataBaseURL,
			Logger:          log.Default(),
		})
		if err != nil {
			return fmt.Errorf("init tracker server: %w", err)
		}
		defer func() {
			if err := server.Close(); err != nil {
				log.Printf("close tracker server: %v", err)
			}
		}()
		return server.ListenAndServe(ctx)
	})
}
