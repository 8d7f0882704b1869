package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/dmcosta/billfold/internal/config"
	"github.com/dmcosta/billfold/internal/database"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.New(ctx, cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	schema, err := os.ReadFile("migrations/schema.sql")
	if err != nil {
		slog.Error("failed to read schema", "error", err)
		os.Exit(1)
	}

	if _, err := db.ExecContext(ctx, string(schema)); err != nil {
		slog.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	slog.Info("schema applied")
}
