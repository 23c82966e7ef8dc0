package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IlyasAtabaev731/kodbank/internal/api"
	"github.com/IlyasAtabaev731/kodbank/internal/bank"
	"github.com/IlyasAtabaev731/kodbank/internal/config"
	"github.com/IlyasAtabaev731/kodbank/internal/storage/sqlstore"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting application",
		slog.String("env", cfg.Env),
		slog.String("host", cfg.ApiHost),
		slog.Int("port", cfg.ApiPort),
		slog.String("storage", cfg.Storage.Driver),
	)

	storage, err := sqlstore.New(cfg.Storage.Driver, cfg.DSN())
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := storage.Stop(); err != nil {
			log.Error("Failed to close database", "error", err)
		}
	}()

	if cfg.Storage.AutoMigrate {
		applied, err := storage.Migrate(cfg.Storage.MigrationsTable)
		if err != nil {
			log.Error("Failed to apply migrations", "error", err)
			os.Exit(1)
		}
		log.Info("Migrations checked", slog.Bool("applied", applied))
	}

	openingAccounts, err := cfg.OpeningAccounts()
	if err != nil {
		log.Error("Invalid seed accounts", "error", err)
		os.Exit(1)
	}

	bankService := bank.New(log, storage, bank.Config{
		OpeningAccounts: openingAccounts,
		BcryptCost:      cfg.Auth.BcryptCost,
	})

	apiServer := api.New(cfg, log, bankService)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		apiServer.MustStart()
	}()

	<-sigChan
	log.Info("Got signal to shutdown server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Stop(ctx); err != nil {
		log.Error("Stopping server error", "error", err)
	}
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger
	switch env {
	case config.EnvLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case config.EnvDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}
	return log
}
