// Package cli holds the start-up steps shared by the smartexpense binaries.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"smartexpense/internal/config"
	"smartexpense/internal/log"
)

// ShutdownTimeout bounds how long cleanup may take after a signal.
const ShutdownTimeout = 30 * time.Second

// SetupLogger builds the process logger for component and installs it as the
// slog default.
func SetupLogger(w io.Writer, component string, cfg *config.Config) *log.Logger {
	lc := log.DefaultConfig()
	lc.Component = component
	lc.Writer = w
	if cfg != nil {
		lc.Level = cfg.SlogLevel()
	}
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env for local development. A missing file is not an error.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig reads the environment and validates the result.
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

// MustLoadConfig is LoadAndValidateConfig for daemons: it exits on failure.
func MustLoadConfig() *config.Config {
	cfg, err := LoadAndValidateConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return cfg
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. cleanup
// runs with a ShutdownTimeout deadline before the returned channel closes.
func GracefulShutdown(logger *log.Logger, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", log.FieldSignal, sig.String())
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer shutdownCancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}
