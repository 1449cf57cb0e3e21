// Package main prints the schema/type audit report for the tracker database.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	platformcmd "github.com/louisbranch/playlog/internal/platform/cmd"
	"github.com/louisbranch/playlog/internal/platform/config"
	"github.com/louisbranch/playlog/internal/tools/schemaaudit"
)

func main() {
	cfg, err := schemaaudit.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	err = platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceSchemaAudit, func(ctx context.Context) error {
		return schemaaudit.Run(ctx, cfg, os.Stdout, os.Stderr)
	})
	if err != nil {
		config.Exitf("Error: %v", err)
	}
}
