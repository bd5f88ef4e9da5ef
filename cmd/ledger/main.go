package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"ledger/internal/auth"
	"ledger/internal/backend"
	"ledger/internal/cli"
	"ledger/internal/config"
	apphttp "ledger/internal/http"
	"ledger/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).Validate)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Store:             res.Store,
		Resolver:          auth.NewResolver(cfg.JWTSecret),
		Logger:            logger,
		Publisher:         res.Publisher,
		RequestsPerMinute: cfg.RateLimitRPM,
		TrustedProxies:    cfg.TrustedProxies,
	})
	if err != nil {
		logger.Error("Failed to create server", log.FieldError, err)
		_ = res.Cleanup()
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	logger.Info("Starting ledger server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		_ = res.Cleanup()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
