package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"laporan/internal/auth"
	"laporan/internal/cli"
	"laporan/internal/config"
	apphttp "laporan/internal/http"
	"laporan/internal/log"
	"laporan/internal/reconcile"
	"laporan/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, "laporan")

	logger.Info("Starting laporan",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"auth_enabled", cfg.AuthEnabled,
		"amqp_enabled", cfg.AMQPURL != "")

	be := cli.OpenBackend(context.Background(), logger, cfg)

	// Validate already parsed these once.
	links, _ := config.ParseTransferLinks(cfg.TransferLinks)
	var opts []reconcile.Option
	if len(links) > 0 {
		opts = append(opts, reconcile.WithLinks(links))
	}
	ledger := services.NewLedgerService(be.Store, be.Publisher, logger, opts...)

	var authSvc *auth.Service
	if cfg.AuthEnabled {
		authSvc = auth.NewService(be.Store, auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL), logger)
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		Ledger:             ledger,
		Auth:               authSvc,
		Logger:             logger,
		CacheTTL:           cfg.CacheTTL,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := be.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	logger.Info("Server listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server failed", log.FieldError, err)
		os.Exit(1)
	}
	cli.WaitForShutdown(ctx, done)
}
