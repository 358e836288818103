package services

import (
	"context"
	"log/slog"

	"github.com/match-scheduler/models"
	"github.com/match-scheduler/storage"
)

// SettingsService exposes the schema, player mapping and server config
// collections. Every setter persists the whole store.
type SettingsService interface {
	Config(ctx context.Context) models.ServerConfig
	SetConfig(ctx context.Context, cfg models.ServerConfig) error
	Schema(ctx context.Context) []models.MatchField
	SetSchema(ctx context.Context, schema []models.MatchField) error
	Players(ctx context.Context) []models.PlayerIDMap
	SetPlayers(ctx context.Context, players []models.PlayerIDMap) error
	Reload(ctx context.Context) error
}

type settingsService struct {
	store  *storage.Store
	logger *slog.Logger
}

func NewSettingsService(store *storage.Store, logger *slog.Logger) SettingsService {
	return &settingsService{store: store, logger: logger}
}

func (s *settingsService) Config(ctx context.Context) models.ServerConfig {
	return s.store.ServerConfig()
}

func (s *settingsService) SetConfig(ctx context.Context, cfg models.ServerConfig) error {
	s.store.SetServerConfig(cfg)
	return s.store.Save()
}

func (s *settingsService) Schema(ctx context.Context) []models.MatchField {
	return s.store.Schema()
}

func (s *settingsService) SetSchema(ctx context.Context, schema []models.MatchField) error {
	s.store.SetSchema(schema)
	return s.store.Save()
}

func (s *settingsService) Players(ctx context.Context) []models.PlayerIDMap {
	return s.store.Players()
}

func (s *settingsService) SetPlayers(ctx context.Context, players []models.PlayerIDMap) error {
	s.store.SetPlayers(players)
	return s.store.Save()
}

// Reload re-reads all collections from disk, discarding in-memory state.
func (s *settingsService) Reload(ctx context.Context) error {
	s.logger.Info("reloading store from disk")
	s.store.Load()
	return nil
}
