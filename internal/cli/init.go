// Package cli provides the initialization shared by cmd/subtrack and
// cmd/subtrackctl: logging, configuration, and wiring the stores and
// services on top of the configured backend.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"subtrack/internal/backend"
	"subtrack/internal/cache"
	"subtrack/internal/config"
	"subtrack/internal/log"
	"subtrack/internal/metrics"
	"subtrack/internal/query"
	"subtrack/internal/services"
	"subtrack/internal/settings"
	"subtrack/internal/storage"
	"subtrack/internal/subscriptions"
)

const dashboardCacheSize = 32

// SetupLogger builds the process logger at level and installs it as the
// slog default.
func SetupLogger(w io.Writer, level string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(level)
	if w != nil {
		cfg.Output = w
	}
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ShutdownContext is cancelled on SIGINT or SIGTERM.
func ShutdownContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// App is the wired application: loaded stores and the service over them.
type App struct {
	Config        *config.Config
	Logger        *log.Logger
	KV            storage.KV
	Subscriptions *services.SubscriptionService
	Settings      *settings.Store
	Metrics       *metrics.Collector
	Caches        *cache.Manager
}

// Bootstrap opens the configured backend, loads both stores and builds the
// subscription service. Close releases everything it opened.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *log.Logger, m *metrics.Collector) (*App, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}

	store := subscriptions.New(res.KV, subscriptions.WithLogger(logger))
	prefs := settings.New(res.KV, logger)
	manager := cache.NewManager(logger)

	opts := []services.Option{
		services.WithLogger(logger),
		services.WithMetrics(m),
		services.WithCleanup(res.Cleanup),
	}
	if res.Publisher != nil {
		opts = append(opts, services.WithPublisher(res.Publisher))
	}
	if cfg.DashboardCacheTTL > 0 {
		dash := cache.NewLRUCache[query.Summary](dashboardCacheSize, cfg.DashboardCacheTTL)
		opts = append(opts, services.WithDashboardCache(dash, manager))
	}
	svc := services.NewSubscriptionService(store, opts...)

	app := &App{
		Config:        cfg,
		Logger:        logger,
		KV:            res.KV,
		Subscriptions: svc,
		Settings:      prefs,
		Metrics:       m,
		Caches:        manager,
	}

	if err := svc.Load(ctx); err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("load subscriptions: %w", err)
	}
	if err := prefs.Load(ctx); err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return app, nil
}

func (a *App) Close() error {
	return a.Subscriptions.Close()
}
