package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/dmcosta/billfold/internal/auth"
	"github.com/dmcosta/billfold/internal/category"
	categoryStore "github.com/dmcosta/billfold/internal/category/store"
	"github.com/dmcosta/billfold/internal/config"
	"github.com/dmcosta/billfold/internal/database"
	"github.com/dmcosta/billfold/internal/export"
	billfoldHttp "github.com/dmcosta/billfold/internal/http"
	categoryHandler "github.com/dmcosta/billfold/internal/http/category"
	eventsHandler "github.com/dmcosta/billfold/internal/http/events"
	exportHandler "github.com/dmcosta/billfold/internal/http/export"
	statsHandler "github.com/dmcosta/billfold/internal/http/stats"
	txHandler "github.com/dmcosta/billfold/internal/http/transaction"
	userHandler "github.com/dmcosta/billfold/internal/http/user"
	walletHandler "github.com/dmcosta/billfold/internal/http/wallet"
	"github.com/dmcosta/billfold/internal/notify"
	"github.com/dmcosta/billfold/internal/stats"
	"github.com/dmcosta/billfold/internal/transaction"
	txStore "github.com/dmcosta/billfold/internal/transaction/store"
	"github.com/dmcosta/billfold/internal/upload"
	"github.com/dmcosta/billfold/internal/user"
	userStore "github.com/dmcosta/billfold/internal/user/store"
	"github.com/dmcosta/billfold/internal/wallet"
	walletStore "github.com/dmcosta/billfold/internal/wallet/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(context.Background(), cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var (
		tokens   = auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
		uploader = upload.NewClient(cfg.Uploads.URL, cfg.Uploads.Preset)
		broker   = notify.NewBroker()
	)

	var (
		userService        = user.NewService(userStore.New(db))
		walletService      = wallet.NewService(walletStore.New(db), uploader, broker)
		transactionService = transaction.NewService(txStore.New(db), uploader, broker)
		statsService       = stats.NewService(transactionService)
		categoryService    = category.NewService(categoryStore.New(db))
		exportService      = export.NewService(transactionService)
	)

	var (
		userH        = userHandler.NewHandler(userService, tokens)
		walletH      = walletHandler.NewHandler(walletService)
		transactionH = txHandler.NewHandler(transactionService, categoryService)
		statsH       = statsHandler.NewHandler(statsService)
		categoryH    = categoryHandler.NewHandler(categoryService)
		exportH      = exportHandler.NewHandler(exportService)
		eventsH      = eventsHandler.NewHandler(broker)
	)

	router := billfoldHttp.New(tokens, userH, walletH, transactionH, statsH, categoryH, exportH, eventsH)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "port", port)

	if err := http.ListenAndServe(port, router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
