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

	"github.com/go-chi/chi/v5"
	"github.com/match-scheduler/config"
	"github.com/match-scheduler/discord"
	"github.com/match-scheduler/handlers"
	"github.com/match-scheduler/live"
	"github.com/match-scheduler/middleware"
	api "github.com/match-scheduler/routes"
	"github.com/match-scheduler/services"
	"github.com/match-scheduler/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	store := storage.NewStore(cfg.DataDir, logger)
	store.Load()
	serverCfg := store.ServerConfig()
	logger.Info("store loaded",
		slog.String("data_dir", cfg.DataDir),
		slog.Int("matches", len(store.Matches())))

	gateway := discord.NewGateway(discord.GatewayConfig{
		ClientID:     cfg.DiscordClientID,
		ClientSecret: cfg.DiscordClientSecret,
	}, store, logger)
	webhook := discord.NewWebhook(nil)
	sessions := middleware.NewSessions(cfg.SessionSecret, logger)

	hub := live.NewHub(logger)
	go hub.Run()
	defer hub.Stop()

	matchService := services.NewMatchService(store, webhook, hub, logger)
	settingsService := services.NewSettingsService(store, logger)

	authHandler := handlers.NewAuthHandler(gateway, sessions, store, cfg.WebDir, logger)
	matchHandler := handlers.NewMatchHandler(matchService)
	settingsHandler := handlers.NewSettingsHandler(settingsService)
	webSocketHandler := handlers.NewWebSocketHandler(hub, logger)

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		serverCfg.PathBase,
		sessions,
		gateway,
		authHandler,
		matchHandler,
		settingsHandler,
		webSocketHandler,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", serverCfg.Host, serverCfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			slog.String("address", server.Addr),
			slog.String("path_base", serverCfg.PathBase))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
		}
	}

	// One final flush so edits made since the last mutation survive.
	if err := store.Save(); err != nil {
		logger.Error("final store flush failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("application exited")
}
