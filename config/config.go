package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds process-level configuration: secrets and paths that are
// supplied out-of-band and never exposed through the API. Everything the
// operator can edit at runtime lives in the store (models.ServerConfig).
type Config struct {
	DiscordClientID     string
	DiscordClientSecret string
	SessionSecret       string
	DataDir             string
	WebDir              string
	LogLevel            slog.Level
}

// Load reads configuration from environment variables. A .env file is
// loaded first if present, which is convenient for local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	clientID := os.Getenv("DISCORD_CLIENT_ID")
	if clientID == "" {
		return nil, fmt.Errorf("DISCORD_CLIENT_ID environment variable is not set")
	}

	clientSecret := os.Getenv("DISCORD_CLIENT_SECRET")
	if clientSecret == "" {
		return nil, fmt.Errorf("DISCORD_CLIENT_SECRET environment variable is not set")
	}

	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET environment variable is not set")
	}

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "config"
	}

	webDir := os.Getenv("WEB_DIR")
	if webDir == "" {
		webDir = "web"
	}

	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	case "", "info":
	default:
		return nil, fmt.Errorf("invalid LOG_LEVEL environment variable: %q", os.Getenv("LOG_LEVEL"))
	}

	cfg := &Config{
		DiscordClientID:     clientID,
		DiscordClientSecret: clientSecret,
		SessionSecret:       sessionSecret,
		DataDir:             dataDir,
		WebDir:              webDir,
		LogLevel:            level,
	}

	return cfg, nil
}
