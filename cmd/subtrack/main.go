package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"subtrack/internal/cli"
	apphttp "subtrack/internal/http"
	"subtrack/internal/log"
	"subtrack/internal/metrics"
)

const cacheSweepInterval = 10 * time.Minute

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup happens before exit.
func run() int {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		log.New(log.DefaultConfig()).Error("Configuration validation failed",
			log.FieldOperation, log.OpValidate,
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeConfiguration)
		return 1
	}
	logger := cli.SetupLogger(os.Stdout, cfg.LogLevel)

	ctx, stop := cli.ShutdownContext(context.Background())
	defer stop()

	m := metrics.New()
	app, err := cli.Bootstrap(ctx, cfg, logger, m)
	if err != nil {
		logger.Error("Failed to initialize application",
			log.FieldOperation, log.OpStartup,
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeStorage,
			log.FieldBackend, cfg.DataBackend)
		return 1
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("Failed to release resources", log.FieldError, err)
		}
	}()

	app.Caches.StartCleanup(cacheSweepInterval)
	defer app.Caches.Stop()

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Subscriptions:      app.Subscriptions,
		Settings:           app.Settings,
		Metrics:            m,
		Logger:             logger,
		Ready:              app.KV.Ping,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})
	if err != nil {
		logger.Error("Failed to configure HTTP server", log.FieldError, err)
		return 1
	}
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting subtrack server",
			log.FieldOperation, log.OpStartup,
			"port", cfg.Port,
			log.FieldBackend, cfg.DataBackend,
			"events", cfg.AMQPURL != "")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		return 1
	}
	logger.Info("Server stopped gracefully")
	return 0
}
