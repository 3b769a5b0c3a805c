package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/front10/calendar-chat/pkg/controller"
	"github.com/front10/calendar-chat/pkg/model/gemini"
	"github.com/front10/calendar-chat/pkg/server"
	"github.com/front10/calendar-chat/pkg/store/sqlite"
	"github.com/front10/calendar-chat/pkg/tools/calendar"
)

func main() {
	// Load .env if present, before reading any config.
	godotenv.Load()

	// Setup logger.
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}
	logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
	slog.SetDefault(logger)

	// Config.
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		slog.Error("GEMINI_API_KEY environment variable not set")
		os.Exit(1)
	}
	addr := os.Getenv("CALENDAR_CHAT_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	ctx := context.Background()

	// Initialize store.
	dbPath := os.Getenv("CALENDAR_CHAT_DB")
	if dbPath == "" {
		wd, _ := os.Getwd()
		dbPath = filepath.Join(wd, "data", "calendar-chat.db")
	}
	os.MkdirAll(filepath.Dir(dbPath), 0755)

	store, err := sqlite.New(dbPath)
	if err != nil {
		slog.Error("Failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Initialize model provider.
	provider, err := gemini.New(ctx, apiKey)
	if err != nil {
		slog.Error("Failed to initialize Gemini provider", "error", err)
		os.Exit(1)
	}

	// Initialize calendar tools. Without a token the tools still run; every
	// call returns an error telling the user to connect their account.
	var calAPI calendar.API
	if token := os.Getenv("GOOGLE_OAUTH_TOKEN"); token != "" {
		calAPI, err = calendar.NewAPI(ctx, token)
		if err != nil {
			slog.Error("Failed to initialize calendar API", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Warn("GOOGLE_OAUTH_TOKEN not set, calendar tools will report a missing account")
	}
	calSvc := calendar.NewService(calAPI)

	// Initialize controller.
	ctrl := controller.New(store, store, provider, calSvc)

	// Start controller in background.
	go func() {
		if err := ctrl.Start(ctx); err != nil {
			slog.Error("Controller stopped unexpectedly", "error", err)
		}
	}()

	// Start server.
	srv := server.New(store, store, provider, ctrl)
	if err := srv.Start(addr); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
