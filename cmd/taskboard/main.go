package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskboard/internal/config"
	"taskboard/internal/security"
	"taskboard/internal/server"
	"taskboard/internal/service"
	"taskboard/internal/storage/sqlite"
)

func main() {
	config.LoadDotEnv()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(2)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)
	logger.Info("taskboard starting", slog.String("addr", cfg.Addr), slog.String("db", cfg.DBPath))

	store, err := sqlite.Open(cfg.DBPath, logger)
	if err != nil {
		logger.Error("unable to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	tokens, err := security.NewTokenManager(cfg.SecretKey, cfg.Algorithm, cfg.AccessTokenTTL)
	if err != nil {
		logger.Error("unable to configure tokens", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv := server.New(service.New(store, tokens, logger), logger, server.Options{
		DocsDir:    cfg.DocsDir,
		LoginRate:  cfg.LoginRate,
		LoginBurst: cfg.LoginBurst,
		Health:     store.Ping,
	})

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	if err := serve(httpServer, quit, cfg.ShutdownTimeout, logger); err != nil {
		logger.Error("server stopped unexpectedly", slog.String("error", err.Error()))
		_ = store.Close()
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// serve runs httpServer until quit fires, then shuts it down gracefully. A
// listener failure such as a busy port is returned immediately.
func serve(httpServer *http.Server, quit <-chan os.Signal, timeout time.Duration, logger *slog.Logger) error {
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-quit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
