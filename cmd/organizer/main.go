package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/file-organizer/internal/bootstrap"
	"github.com/kirillkom/file-organizer/internal/config"
	"github.com/kirillkom/file-organizer/internal/observability/logging"
)

func main() {
	envErr := config.LoadEnvFiles()
	cfg := config.Load()
	logger := logging.New("file-organizer", cfg.LogLevel, cfg.LogFormat)
	if envErr != nil {
		logger.Warn("env_file_load_failed", "error", envErr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	var server *http.Server
	if cfg.MetricsPort != "" {
		server = &http.Server{
			Addr:              ":" + cfg.MetricsPort,
			Handler:           app.ObservabilityHandler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("metrics_listening", "addr", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics_server_failed", "error", err)
			}
		}()
	}

	runErr := app.Run(ctx)

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics_shutdown_failed", "error", err)
		}
		cancel()
	}

	if runErr != nil {
		logger.Error("organizer_stopped", "error", runErr)
		app.Close()
		os.Exit(1)
	}
	logger.Info("organizer_stopped")
}
