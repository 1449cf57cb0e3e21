package cmd

import (
	"context"
	"errors"
	"flag"
	"testing"
)

type testConfig struct {
	Address string `env:"CMD_TEST_ADDRESS" envDefault:"127.0.0.1:8080"`
	Mode    string `env:"CMD_TEST_MODE" envDefault:"server"`
}

func TestParseConfigReadsEnvAndFlags(t *testing.T) {
	t.Setenv("PLAYLOG_CMD_TEST_ADDRESS", "env:9000")
	t.Setenv("PLAYLOG_CMD_TEST_MODE", "env-mode")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfgRef := testConfig{}
	if err := ParseConfig(&cfgRef); err != nil {
		t.Fatalf("load config defaults: %v", err)
	}
	fs.StringVar(&cfgRef.Address, "address", cfgRef.Address, "address")
	fs.StringVar(&cfgRef.Mode, "mode", cfgRef.Mode, "mode")

	if err := ParseArgs(fs, []string{"-address", "flag:9001"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if cfgRef.Address != "flag:9001" {
		t.Fatalf("expected flag value for address, got %q", cfgRef.Address)
	}
	if cfgRef.Mode != "env-mode" {
		t.Fatalf("expected env default mode, got %q", cfgRef.Mode)
	}
}

func TestParseConfigRejectsNilTarget(t *testing.T) {
	var cfg *testConfig
	if err := ParseConfig(cfg); err == nil {
		t.Fatal("expected nil target error")
	}
}

func TestParseArgsRejectsNilParser(t *testing.T) {
	if err := ParseArgs(nil, []string{}); err == nil {
		t.Fatal("expected parse args to reject nil parser")
	}
}

func TestLogPrefix(t *testing.T) {
	tests := map[string]string{
		ServiceMigrate:     "[MIGRATE] ",
		ServiceSchemaAudit: "[SCHEMAAUDIT] ",
		ServiceTracker:     "[TRACKER] ",
		" ":                "",
	}
	for service, want := range tests {
		if got := LogPrefix(service); got != want {
			t.Fatalf("LogPrefix(%q) = %q, want %q", service, got, want)
		}
	}
}

func TestRunWithTelemetryRunsEveryCommand(t *testing.T) {
	t.Setenv("PLAYLOG_OTEL_ENDPOINT", "")

	for _, service := range []string{ServiceMigrate, ServiceSchemaAudit, ServiceTracker} {
		called := false
		err := RunWithTelemetry(context.Background(), service, func(ctx context.Context) error {
			called = ctx != nil
			return nil
		})
		if err != nil {
			t.Fatalf("%s: run with telemetry: %v", service, err)
		}
		if !called {
			t.Fatalf("%s: run function not called with a context", service)
		}
	}
}

func TestRunWithTelemetryRejectsMissingInputs(t *testing.T) {
	if err := RunWithTelemetry(context.Background(), "", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected missing service error")
	}
	if err := RunWithTelemetry(context.Background(), ServiceTracker, nil); err == nil {
		t.Fatal("expected missing run function error")
	}
}

func TestRunWithTelemetryReturnsRunError(t *testing.T) {
	t.Setenv("PLAYLOG_OTEL_ENDPOINT", "")
	want := errors.New("boom")

	err := RunWithTelemetry(context.Background(), ServiceMigrate, func(context.Context) error { return want })
	if !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
}
