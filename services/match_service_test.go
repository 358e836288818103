package services

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/match-scheduler/discord"
	"github.com/match-scheduler/models"
	"github.com/match-scheduler/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	calls []discord.Announcement
	urls  []string
}

func (p *fakePublisher) Publish(ctx context.Context, url string, ann discord.Announcement) error {
	p.calls = append(p.calls, ann)
	p.urls = append(p.urls, url)
	return nil
}

func newTestService(t *testing.T, announceEnabled bool) (MatchService, *storage.Store, *fakePublisher) {
	service, store, publisher, _ := newTestServiceDir(t, announceEnabled)
	return service, store, publisher
}

func newTestServiceDir(t *testing.T, announceEnabled bool) (MatchService, *storage.Store, *fakePublisher, string) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	dir := t.TempDir()
	store := storage.NewStore(dir, logger)
	store.Load()

	cfg := store.ServerConfig()
	cfg.TournamentName = "Spring Cup"
	cfg.Discord.EnableMatchupChannel = announceEnabled
	cfg.Discord.MatchupWebhook = "https://hooks.example.com/1"
	store.SetServerConfig(cfg)
	store.SetSchema([]models.MatchField{
		{Type: models.FieldTypeString, Name: "caster", AnnounceInDiscord: true},
		{Type: models.FieldTypeString, Name: "notes", AnnounceInDiscord: false},
	})

	publisher := &fakePublisher{}
	return NewMatchService(store, publisher, nil, logger), store, publisher, dir
}

func strptr(s string) *string { return &s }

func TestAddMatch(t *testing.T) {
	service, _, publisher, dir := newTestServiceDir(t, true)

	match, err := service.Add(context.Background(), []string{"Alice", "Bob"})
	require.NoError(t, err)

	assert.NotEmpty(t, match.ID)
	assert.Nil(t, match.Date)
	assert.False(t, match.Finished)
	assert.Empty(t, match.AdditionalData)
	assert.Empty(t, publisher.calls, "adding a match never announces")

	matches := service.List(context.Background())
	require.Len(t, matches, 1)
	assert.Equal(t, []string{"Alice", "Bob"}, matches[0].Players)

	// Persisted: a fresh store sees the match.
	reloaded := storage.NewStore(dir, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	reloaded.Load()
	assert.Len(t, reloaded.Matches(), 1)
}

func TestAddMatchRequiresPlayers(t *testing.T) {
	service, _, _ := newTestService(t, true)

	_, err := service.Add(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoPlayers)
}

func TestUpdateMatchAnnounceDecision(t *testing.T) {
	base := models.Match{
		Date:           strptr("2026-09-01T18:00:00Z"),
		Players:        []string{"Alice", "Bob"},
		AdditionalData: map[string]models.FieldValue{"caster": models.StringValue("Carol")},
	}

	tests := []struct {
		name     string
		change   func(m *models.Match)
		announce bool
	}{
		{
			name:     "date changed to a new non-null value",
			change:   func(m *models.Match) { m.Date = strptr("2026-09-02T18:00:00Z") },
			announce: true,
		},
		{
			name:     "date cleared",
			change:   func(m *models.Match) { m.Date = nil },
			announce: false,
		},
		{
			name:     "players reordered",
			change:   func(m *models.Match) { m.Players = []string{"Bob", "Alice"} },
			announce: true,
		},
		{
			name:     "player replaced",
			change:   func(m *models.Match) { m.Players = []string{"Alice", "Dave"} },
			announce: true,
		},
		{
			name:     "announce-flagged field changed",
			change:   func(m *models.Match) { m.AdditionalData["caster"] = models.StringValue("Dave") },
			announce: true,
		},
		{
			name:     "announce-flagged field removed",
			change:   func(m *models.Match) { delete(m.AdditionalData, "caster") },
			announce: true,
		},
		{
			name: "only unflagged field changed",
			change: func(m *models.Match) {
				m.AdditionalData["notes"] = models.StringValue("new notes")
			},
			announce: false,
		},
		{
			name:     "nothing changed",
			change:   func(m *models.Match) {},
			announce: false,
		},
		{
			name:     "finished toggled",
			change:   func(m *models.Match) { m.Finished = true },
			announce: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, store, publisher := newTestService(t, true)
			stored := base
			stored.ID = "match-1"
			stored.AdditionalData = map[string]models.FieldValue{"caster": models.StringValue("Carol")}
			store.AppendMatch(stored)

			updated := base
			updated.AdditionalData = map[string]models.FieldValue{"caster": models.StringValue("Carol")}
			tt.change(&updated)

			require.NoError(t, service.Update(context.Background(), "match-1", updated))

			if tt.announce {
				require.Len(t, publisher.calls, 1, "expected exactly one announcement")
				assert.Equal(t, updated.Players, publisher.calls[0].Match.Players, "announcement must carry the new record")
				assert.Equal(t, "Spring Cup", publisher.calls[0].Tournament)
				assert.Equal(t, "https://hooks.example.com/1", publisher.urls[0])
			} else {
				assert.Empty(t, publisher.calls)
			}
		})
	}
}

func TestUpdateMatchChannelDisabledNeverAnnounces(t *testing.T) {
	service, store, publisher := newTestService(t, false)
	store.AppendMatch(models.Match{
		ID:             "match-1",
		Players:        []string{"Alice", "Bob"},
		AdditionalData: map[string]models.FieldValue{},
	})

	updated := models.Match{
		Date:           strptr("2026-09-02T18:00:00Z"),
		Players:        []string{"Bob", "Carol"},
		AdditionalData: map[string]models.FieldValue{"caster": models.StringValue("Dave")},
	}
	require.NoError(t, service.Update(context.Background(), "match-1", updated))
	assert.Empty(t, publisher.calls)
}

func TestUpdateMatchPreservesID(t *testing.T) {
	service, store, _ := newTestService(t, false)
	store.AppendMatch(models.Match{ID: "match-1", Players: []string{"Alice", "Bob"}})

	require.NoError(t, service.Update(context.Background(), "match-1", models.Match{
		Players: []string{"Alice", "Bob"},
	}))

	m, ok := store.MatchAt(0)
	require.True(t, ok)
	assert.Equal(t, "match-1", m.ID)
}

func TestUpdateMatchByLegacyIndex(t *testing.T) {
	service, store, _ := newTestService(t, false)
	store.AppendMatch(models.Match{ID: "match-1", Players: []string{"Alice", "Bob"}})

	require.NoError(t, service.Update(context.Background(), "0", models.Match{
		Players:  []string{"Alice", "Bob"},
		Finished: true,
	}))

	m, _ := store.MatchAt(0)
	assert.True(t, m.Finished)
	assert.Equal(t, "match-1", m.ID)
}

func TestUpdateMatchUnknownKey(t *testing.T) {
	service, _, _ := newTestService(t, false)

	err := service.Update(context.Background(), "no-such-match", models.Match{})
	assert.ErrorIs(t, err, ErrMatchNotFound)

	err = service.Update(context.Background(), "7", models.Match{})
	assert.ErrorIs(t, err, ErrMatchNotFound)
}
