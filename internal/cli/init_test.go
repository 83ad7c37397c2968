package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"subtrack/internal/config"
	"subtrack/internal/core"
	"subtrack/internal/metrics"
	"subtrack/internal/query"
)

func testConfig(dir string) *config.Config {
	return &config.Config{
		Port:               "8081",
		LogLevel:           "info",
		DataBackend:        config.BackendFile,
		DataDir:            dir,
		RateLimitPerMinute: 60,
		ShutdownTimeout:    time.Second,
		DashboardCacheTTL:  time.Minute,
	}
}

func TestBootstrapPersistsAcrossRestarts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	ctx := context.Background()
	logger := SetupLogger(&bytes.Buffer{}, "error")

	app, err := Bootstrap(ctx, testConfig(dir), logger, metrics.New())
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	created, err := app.Subscriptions.Create(ctx, core.CreateInput{
		Name:      "Netflix",
		Price:     "1200",
		RenewDate: "2025-08-01",
		Category:  "Entertainment",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := app.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	app, err = Bootstrap(ctx, testConfig(dir), logger, nil)
	if err != nil {
		t.Fatalf("second Bootstrap: %v", err)
	}
	defer app.Close()

	got := app.Subscriptions.List(query.Criteria{})
	if len(got) != 1 || got[0].ID != created.ID {
		t.Fatalf("reloaded list = %+v", got)
	}
	if s := app.Settings.Get(); !s.Notifications {
		t.Errorf("settings should start from defaults, got %+v", s)
	}
}

func TestBootstrapRejectsUnknownBackend(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.DataBackend = "postgres"
	if _, err := Bootstrap(context.Background(), cfg, SetupLogger(&bytes.Buffer{}, "error"), nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestSetupLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(&buf, "warn")
	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("unexpected output %q", out)
	}
}
