// Package cli consolidates the initialization shared by cmd/tally and
// cmd/tally-worker: env file, config, logging, storage and the session.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"tally/internal/config"
	"tally/internal/events"
	applog "tally/internal/log"
	"tally/internal/services"
	"tally/internal/storage"
)

// Bootstrap loads .env (optional), the configuration and the logger for
// one binary. Exits the process on invalid configuration.
func Bootstrap(component string) *config.Config {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := applog.Setup(component, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// OpenStorage opens the SQLite repository or exits the process.
func OpenStorage(cfg *config.Config) *storage.Repository {
	repo, err := storage.Open(cfg.SQLiteDBPath)
	if err != nil {
		slog.Error("Failed to open storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	return repo
}

// ConnectEvents dials the broker when one is configured. Returns nil when
// events are disabled; a dial failure is fatal, a missing broker is not an
// error state.
func ConnectEvents(cfg *config.Config) *events.Client {
	if !cfg.EventsEnabled() {
		slog.Info("Event publishing disabled, no AMQP URL configured")
		return nil
	}
	client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		slog.Error("Failed to connect to AMQP", "error", err, "url", cfg.AMQPURL)
		os.Exit(1)
	}
	return client
}

// ResolveSession loads (or creates on first run) the configured user and
// returns a static session for it.
func ResolveSession(ctx context.Context, repo *storage.Repository, cfg *config.Config) services.StaticSession {
	u, err := repo.GetUserByName(ctx, cfg.Username)
	if err != nil {
		u, err = repo.CreateUser(ctx, cfg.Username)
		if err != nil {
			slog.Error("Failed to resolve user", "error", err, "username", cfg.Username)
			os.Exit(1)
		}
		slog.Info("Created user", "id", u.ID, "username", u.Username)
	}
	return services.StaticSession{UserID: u.ID}
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
