package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/riyazashik07/ai-document-analyser/internal/adapters/http"
	"github.com/riyazashik07/ai-document-analyser/internal/bootstrap"
	"github.com/riyazashik07/ai-document-analyser/internal/config"
	"github.com/riyazashik07/ai-document-analyser/internal/core/ports"
	"github.com/riyazashik07/ai-document-analyser/internal/observability/logging"
)

const sweepInterval = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.NewJSONLogger("docqa-api", "info").Error("config_load_failed", "error", err)
		os.Exit(1)
	}
	logger := logging.NewJSONLogger("docqa-api", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if app.Sweeper != nil && cfg.SessionTTLMinutes > 0 {
		go runSweeper(ctx, app.Sweeper, logger)
	}

	router := httpadapter.NewRouter(cfg, app.Analyzer, app.Exporter, app.Metrics).Handler()
	requestTimeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: time.Duration(cfg.HeadersTimeoutSeconds) * time.Second,
		ReadTimeout:       requestTimeout,
		WriteTimeout:      requestTimeout,
		IdleTimeout:       time.Duration(cfg.KeepAliveTimeoutSeconds) * time.Second,
	}

	go func() {
		logger.Info("api_listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_failed", "error", err)
	}
}

func runSweeper(ctx context.Context, sweeper ports.SessionSweeper, logger *slog.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed, err := sweeper.Sweep(ctx, now)
			if err != nil {
				logger.Warn("session_sweep_failed", "error", err)
				continue
			}
			if removed > 0 {
				logger.Info("session_sweep", "removed", removed)
			}
		}
	}
}
