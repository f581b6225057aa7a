// Command worker drains the Redis task queue populated by the GraphQL
// server. It shares the server's configuration and runs until interrupted.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"inventory-graphql/internal/config"
	"inventory-graphql/internal/dbexec"
	"inventory-graphql/internal/logging"
	"inventory-graphql/internal/serverapp"
	"inventory-graphql/internal/tasks"

	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/spf13/pflag"
)

var (
	// Version is set at build time via -ldflags "-X main.Version=...".
	Version = "dev"
	Commit  = "none"
)

func main() {
	if err := run(); err != nil {
		slog.Error("worker error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	pflag.Bool("version", false, "Print version and exit")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if showVersion, _ := pflag.CommandLine.GetBool("version"); showVersion {
		fmt.Printf("inventory-graphql-worker %s (%s)\n", Version, Commit)
		return nil
	}

	if cfg.Broker.URL == "" {
		return fmt.Errorf("broker.url is required: the worker consumes the Redis task queue")
	}

	validationResult := cfg.Validate()
	if validationResult.HasErrors() {
		for _, err := range validationResult.Errors {
			slog.Error("configuration error",
				slog.String("field", err.Field),
				slog.String("message", err.Message),
			)
		}
		return fmt.Errorf("configuration validation failed")
	}

	logger, loggerProvider, err := serverapp.InitLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	if loggerProvider != nil {
		defer func() {
			_ = loggerProvider.Shutdown(context.Background(), logger.Logger)
		}()
	}

	db, err := sql.Open("mysql", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.Pool.MaxOpen)
	db.SetMaxIdleConns(cfg.Database.Pool.MaxIdle)
	db.SetConnMaxLifetime(cfg.Database.Pool.MaxLifetime)

	if err := db.Ping(); err != nil {
		return fmt.Errorf("database not available: %w", err)
	}

	opts, err := redis.ParseURL(cfg.Broker.URL)
	if err != nil {
		return fmt.Errorf("invalid broker URL: %w", err)
	}
	client := redis.NewClient(opts)
	defer client.Close()

	logger.Info("worker connecting to broker",
		slog.String("broker_addr", opts.Addr),
		slog.String("queue_key", cfg.Broker.QueueKey),
	)

	runner := tasks.NewRunner(dbexec.NewStandardExecutor(db))
	worker := tasks.NewWorker(client, cfg.Broker.QueueKey, runner)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithLogger(ctx, logger)

	if err := worker.Run(ctx); err != nil {
		return err
	}

	logger.Info("worker stopped gracefully")
	return nil
}
