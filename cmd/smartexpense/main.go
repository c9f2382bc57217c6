package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"smartexpense/internal/amqp"
	"smartexpense/internal/api"
	"smartexpense/internal/backend"
	"smartexpense/internal/cache"
	"smartexpense/internal/cli"
	apphttp "smartexpense/internal/http"
	"smartexpense/internal/log"
	"smartexpense/internal/services"
	"smartexpense/internal/session"
)

const sweepInterval = 5 * time.Minute

func main() {
	cli.LoadEnvFile()
	cfg := cli.MustLoadConfig()
	logger := cli.SetupLogger(os.Stdout, log.ComponentApp, cfg)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	infra, err := backend.NewFactory(logger.Logger).Create(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.SessionBackend)
		os.Exit(1)
	}

	svc := services.NewExpenseService(api.New(cfg.APIBaseURL, cfg.APITimeout), infra.Publisher, amqp.SourceWeb)

	caches := cache.NewManager(logger.Logger)
	caches.Register("sessions", infra.Sweeper)
	caches.Register("categories", svc.CategoryCache())
	caches.StartCleanup(sweepInterval)

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Service:            svc,
		Sessions:           infra.Sessions,
		SessionOptions:     session.Options{TTL: cfg.SessionTTL, Secure: cfg.CookieSecure},
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Ready:              infra.Ping,
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", log.FieldError, err)
		os.Exit(1)
	}
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		caches.Stop()
		if infra.Cleanup != nil {
			if err := infra.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", log.FieldError, err)
			}
		}
	})

	logger.Info("Starting smartexpense server",
		log.FieldAddr, srv.Addr,
		"api_base_url", cfg.APIBaseURL,
		"backend", cfg.SessionBackend,
		"activity_events", infra.Publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, log.FieldAddr, srv.Addr)
		os.Exit(1)
	}

	<-ctx.Done()
	<-done
	logger.Info("Server stopped gracefully")
}
