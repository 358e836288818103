package storage

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/match-scheduler/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewStore(t.TempDir(), logger)
}

func TestLoadMissingFilesUsesDefaults(t *testing.T) {
	store := newTestStore(t)
	store.Load()

	assert.Empty(t, store.Matches())
	assert.Empty(t, store.Schema())
	assert.Empty(t, store.Players())

	cfg := store.ServerConfig()
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, "unnamed tournament", cfg.TournamentName)
	assert.False(t, cfg.Discord.EnableMatchupChannel)
}

func TestLoadUnparsableFileUsesDefaults(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(store.dir, matchesFile), []byte("{not json"), 0o644))

	store.Load()
	assert.Empty(t, store.Matches())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	store.Load()

	date := "2026-09-01T18:00:00Z"
	store.AppendMatch(models.Match{
		ID:      "match-1",
		Date:    &date,
		Players: []string{"Alice", "Bob"},
		AdditionalData: map[string]models.FieldValue{
			"maps": models.ListValue("Dust", "Inferno"),
		},
		Finished: true,
	})
	store.SetSchema([]models.MatchField{
		{Type: models.FieldTypeList, Name: "maps", DisplayInOverview: true, AnnounceInDiscord: true, Options: []string{"Dust", "Inferno"}},
	})
	store.SetPlayers([]models.PlayerIDMap{{Name: "Alice", ID: "111"}})
	cfg := store.ServerConfig()
	cfg.TournamentName = "Spring Cup"
	cfg.Discord.EnableMatchupChannel = true
	store.SetServerConfig(cfg)

	require.NoError(t, store.Save())

	reloaded := NewStore(store.dir, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	reloaded.Load()

	assert.Equal(t, store.Matches(), reloaded.Matches())
	assert.Equal(t, store.Schema(), reloaded.Schema())
	assert.Equal(t, store.Players(), reloaded.Players())
	assert.Equal(t, store.ServerConfig(), reloaded.ServerConfig())
}

func TestLoadBackfillsMatchIDs(t *testing.T) {
	store := newTestStore(t)
	legacy := `[{"date":null,"players":["Alice","Bob"],"additionalData":{},"finished":false}]`
	require.NoError(t, os.WriteFile(filepath.Join(store.dir, matchesFile), []byte(legacy), 0o644))

	store.Load()

	matches := store.Matches()
	require.Len(t, matches, 1)
	assert.NotEmpty(t, matches[0].ID)
	assert.Equal(t, 0, store.IndexByID(matches[0].ID))
}

func TestPlayerPing(t *testing.T) {
	store := newTestStore(t)
	store.SetPlayers([]models.PlayerIDMap{{Name: "Alice", ID: "12345"}})

	assert.Equal(t, "<@12345>", store.PlayerPing("Alice"))
	assert.Equal(t, "Unknown", store.PlayerPing("Unknown"))
}

func TestMatchAccessors(t *testing.T) {
	store := newTestStore(t)
	store.AppendMatch(models.Match{ID: "a", Players: []string{"P1", "P2"}})

	m, ok := store.MatchAt(0)
	require.True(t, ok)
	assert.Equal(t, "a", m.ID)

	_, ok = store.MatchAt(1)
	assert.False(t, ok)
	_, ok = store.MatchAt(-1)
	assert.False(t, ok)

	assert.Equal(t, -1, store.IndexByID("missing"))

	m.Finished = true
	require.True(t, store.SetMatch(0, m))
	got, _ := store.MatchAt(0)
	assert.True(t, got.Finished)
}
