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

	"github.com/joho/godotenv"

	"github.com/nestegg-app/nestegg/internal/devserver"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	if err := run(logger); err != nil {
		logger.Error("devserver failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	port := envOr("PORT", "8080")
	dbPath := envOr("NESTEGG_DEV_DB", "nestegg-dev.db")
	token := envOr("NESTEGG_DEV_TOKEN", devserver.DefaultToken)

	fx, err := loadFixtures()
	if err != nil {
		return fmt.Errorf("load fixtures: %w", err)
	}

	store, err := devserver.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	if err := store.Bootstrap(fx); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	srv := devserver.New(store, fx,
		devserver.WithToken(token),
		devserver.WithLogger(logger),
	)

	httpSrv := &http.Server{
		Addr:              ":" + port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("devserver listening", "addr", httpSrv.Addr, "db", dbPath)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("devserver stopped")
	return nil
}

// loadFixtures prefers an operator-supplied YAML file so teams can point the
// emulator at their own category template.
func loadFixtures() (*devserver.Fixtures, error) {
	if path := os.Getenv("NESTEGG_DEV_FIXTURES"); path != "" {
		return devserver.LoadFixturesFile(path)
	}
	return devserver.DefaultFixtures()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
