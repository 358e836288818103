package services

import (
	"context"
	"log/slog"
	"slices"
	"strconv"

	"github.com/google/uuid"
	"github.com/match-scheduler/discord"
	"github.com/match-scheduler/models"
	"github.com/match-scheduler/storage"
)

// Publisher delivers a scheduled-match announcement to a webhook.
type Publisher interface {
	Publish(ctx context.Context, url string, ann discord.Announcement) error
}

// Broadcaster pushes match changes to connected live clients.
type Broadcaster interface {
	BroadcastMatchUpdate(match models.Match)
}

type MatchService interface {
	List(ctx context.Context) []models.Match
	Add(ctx context.Context, players []string) (models.Match, error)
	Update(ctx context.Context, key string, data models.Match) error
}

type matchService struct {
	store     *storage.Store
	publisher Publisher
	live      Broadcaster
	logger    *slog.Logger
}

func NewMatchService(store *storage.Store, publisher Publisher, live Broadcaster, logger *slog.Logger) MatchService {
	return &matchService{
		store:     store,
		publisher: publisher,
		live:      live,
		logger:    logger,
	}
}

func (s *matchService) List(ctx context.Context) []models.Match {
	return s.store.Matches()
}

// Add appends an unscheduled, unfinished match between the given players
// and persists the store.
func (s *matchService) Add(ctx context.Context, players []string) (models.Match, error) {
	if len(players) == 0 {
		return models.Match{}, ErrNoPlayers
	}

	match := models.Match{
		ID:             uuid.NewString(),
		Date:           nil,
		Players:        players,
		AdditionalData: map[string]models.FieldValue{},
		Finished:       false,
	}
	s.store.AppendMatch(match)
	if err := s.store.Save(); err != nil {
		return models.Match{}, err
	}

	if s.live != nil {
		s.live.BroadcastMatchUpdate(match)
	}
	return match, nil
}

// Update overwrites the addressed match and persists the store. When the
// matchup channel is enabled and a publicly visible part of the match
// changed, the new record is announced to the webhook afterwards; a
// delivery failure propagates, the store write does not roll back.
func (s *matchService) Update(ctx context.Context, key string, data models.Match) error {
	index := s.resolveIndex(key)
	if index < 0 {
		return ErrMatchNotFound
	}
	current, ok := s.store.MatchAt(index)
	if !ok {
		return ErrMatchNotFound
	}

	cfg := s.store.ServerConfig()
	announce := false
	if cfg.Discord.EnableMatchupChannel {
		announce = s.shouldAnnounce(current, data)
	}

	s.logger.Debug("updating match", slog.String("id", current.ID), slog.Bool("announce", announce))

	data.ID = current.ID
	s.store.SetMatch(index, data)
	if err := s.store.Save(); err != nil {
		return err
	}

	if s.live != nil {
		s.live.BroadcastMatchUpdate(data)
	}

	if announce {
		ann := discord.Announcement{
			Match:      data,
			Schema:     s.store.Schema(),
			Tournament: cfg.TournamentName,
			Username:   cfg.Discord.WebhookUsername,
			AvatarURL:  cfg.Discord.WebhookAvatar,
			PingFor:    s.store.PlayerPing,
		}
		if err := s.publisher.Publish(ctx, cfg.Discord.MatchupWebhook, ann); err != nil {
			return err
		}
	}
	return nil
}

// resolveIndex addresses a match by stable id, falling back to the
// legacy numeric position for older clients.
func (s *matchService) resolveIndex(key string) int {
	if index := s.store.IndexByID(key); index >= 0 {
		return index
	}
	if n, err := strconv.Atoi(key); err == nil {
		if _, ok := s.store.MatchAt(n); ok {
			return n
		}
	}
	return -1
}

// shouldAnnounce applies the change checks in strict order: the date
// first, then the player list, then any announce-flagged schema field.
// The first hit decides.
func (s *matchService) shouldAnnounce(current, data models.Match) bool {
	if !equalDate(current.Date, data.Date) && data.Date != nil {
		s.logger.Debug("announcing because of date")
		return true
	}
	if !slices.Equal(current.Players, data.Players) {
		s.logger.Debug("announcing because of players")
		return true
	}
	for _, field := range s.store.Schema() {
		if !field.AnnounceInDiscord {
			continue
		}
		before, haveBefore := current.AdditionalData[field.Name]
		after, haveAfter := data.AdditionalData[field.Name]
		if haveBefore != haveAfter || (haveAfter && !before.Equal(after)) {
			s.logger.Debug("announcing because of field", slog.String("field", field.Name))
			return true
		}
	}
	return false
}

func equalDate(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
