package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/match-scheduler/models"
)

const (
	matchesFile = "matches.json"
	schemaFile  = "schema.json"
	playersFile = "players.json"
	configFile  = "config.json"
)

// Store holds the four record collections in memory and mirrors them to
// JSON files in a data directory. Every mutation rewrites all four files
// in full; the last writer wins. The mutex serializes in-process access,
// there is no cross-process locking.
type Store struct {
	dir    string
	logger *slog.Logger

	mu      sync.RWMutex
	matches []models.Match
	schema  []models.MatchField
	players []models.PlayerIDMap
	config  models.ServerConfig
}

func NewStore(dir string, logger *slog.Logger) *Store {
	return &Store{
		dir:     dir,
		logger:  logger,
		matches: []models.Match{},
		schema:  []models.MatchField{},
		players: []models.PlayerIDMap{},
		config:  models.DefaultServerConfig(),
	}
}

// Load reads all collections from disk. A missing or unparsable file is
// replaced by its default and logged; Load itself never fails.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.matches = []models.Match{}
	s.loadFile(matchesFile, &s.matches)
	s.schema = []models.MatchField{}
	s.loadFile(schemaFile, &s.schema)
	s.players = []models.PlayerIDMap{}
	s.loadFile(playersFile, &s.players)
	s.config = models.DefaultServerConfig()
	s.loadFile(configFile, &s.config)

	// Records written before stable ids existed get one assigned here,
	// so updates can address them by id from now on.
	for i := range s.matches {
		if s.matches[i].ID == "" {
			s.matches[i].ID = uuid.NewString()
		}
	}
}

func (s *Store) loadFile(name string, dst interface{}) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		s.logger.Warn("store file not found, using defaults", slog.String("file", name))
		return
	}
	if err := json.Unmarshal(data, dst); err != nil {
		s.logger.Warn("store file unparsable, using defaults",
			slog.String("file", name), slog.Any("error", err))
	}
}

// Save serializes all four collections and overwrites their files. The
// first write error aborts and propagates to the caller.
func (s *Store) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.saveFile(matchesFile, s.matches); err != nil {
		return err
	}
	if err := s.saveFile(schemaFile, s.schema); err != nil {
		return err
	}
	if err := s.saveFile(configFile, s.config); err != nil {
		return err
	}
	return s.saveFile(playersFile, s.players)
}

func (s *Store) saveFile(name string, src interface{}) error {
	data, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// Matches returns a copy of the match collection.
func (s *Store) Matches() []models.Match {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Match, len(s.matches))
	copy(out, s.matches)
	return out
}

// MatchAt returns the match at the given index.
func (s *Store) MatchAt(index int) (models.Match, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.matches) {
		return models.Match{}, false
	}
	return s.matches[index], true
}

// IndexByID returns the position of the match with the given id, or -1.
func (s *Store) IndexByID(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.matches {
		if s.matches[i].ID == id {
			return i
		}
	}
	return -1
}

// SetMatch overwrites the match at the given index.
func (s *Store) SetMatch(index int, m models.Match) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.matches) {
		return false
	}
	s.matches[index] = m
	return true
}

// AppendMatch adds a match to the end of the collection.
func (s *Store) AppendMatch(m models.Match) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches = append(s.matches, m)
}

func (s *Store) Schema() []models.MatchField {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.MatchField, len(s.schema))
	copy(out, s.schema)
	return out
}

func (s *Store) SetSchema(schema []models.MatchField) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schema = schema
}

func (s *Store) Players() []models.PlayerIDMap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.PlayerIDMap, len(s.players))
	copy(out, s.players)
	return out
}

func (s *Store) SetPlayers(players []models.PlayerIDMap) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players = players
}

func (s *Store) ServerConfig() models.ServerConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

func (s *Store) SetServerConfig(cfg models.ServerConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg
}

// PlayerPing resolves a player name to a Discord mention. Unknown names
// come back unchanged.
func (s *Store) PlayerPing(name string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.players {
		if p.Name == name {
			return fmt.Sprintf("<@%s>", p.ID)
		}
	}
	return name
}
