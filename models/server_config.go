package models

// ServerConfig is the runtime configuration kept in config.json. It is
// editable over the API and reloadable from disk at runtime.
type ServerConfig struct {
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	PathBase       string        `json:"pathBase"`
	PublicDomain   string        `json:"publicDomain"`
	TournamentName string        `json:"tournamentName"`
	Discord        DiscordConfig `json:"discord"`
}

type DiscordConfig struct {
	EnableMatchupChannel bool     `json:"enableMatchupChannel"`
	GuildID              string   `json:"guildId"`
	RoleIDs              []string `json:"roleIds"`
	MatchupWebhook       string   `json:"matchupWebhook"`
	WebhookUsername      string   `json:"webhookUsername"`
	WebhookAvatar        string   `json:"webhookAvatar"`
}

// DefaultServerConfig returns the built-in defaults used when config.json
// is missing or lacks fields.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:           "localhost",
		Port:           5000,
		TournamentName: "unnamed tournament",
		Discord: DiscordConfig{
			RoleIDs: []string{},
		},
	}
}
