package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/match-scheduler/models"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	defaultAPIBaseURL = "https://discord.com/api"
	defaultCDNBaseURL = "https://cdn.discordapp.com"

	// Tokens within an hour of expiry are refreshed before use.
	refreshWindow = time.Hour

	// Guild member payloads are served from cache for 15 minutes.
	memberTTL = 15 * time.Minute
)

var oauthScopes = []string{"guilds.members.read"}

// ConfigSource provides the live server configuration. The guild id,
// permitted roles and redirect host are all runtime-editable, so the
// gateway reads them on every use instead of capturing them once.
type ConfigSource interface {
	ServerConfig() models.ServerConfig
}

// Member is the guild membership payload returned by the provider.
type Member struct {
	User  MemberUser `json:"user"`
	Roles []string   `json:"roles"`
}

type MemberUser struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator"`
	Avatar        string `json:"avatar"`
}

type tokenEntry struct {
	expiresAt    time.Time
	refreshToken string
}

type memberEntry struct {
	member    Member
	fetchedAt time.Time
}

type GatewayConfig struct {
	ClientID     string
	ClientSecret string

	// APIBaseURL and CDNBaseURL override the provider endpoints in tests.
	APIBaseURL string
	CDNBaseURL string
	HTTPClient *http.Client
	Now        func() time.Time
}

// Gateway exchanges authorization codes for tokens, keeps them fresh and
// answers guild-membership questions, caching both the token pair and the
// member payload keyed by the current access token.
type Gateway struct {
	clientID     string
	clientSecret string
	apiBase      string
	cdnBase      string
	client       *http.Client
	now          func() time.Time
	config       ConfigSource
	logger       *slog.Logger

	mu      sync.Mutex
	tokens  map[string]tokenEntry
	members map[string]memberEntry
	flight  singleflight.Group
}

func NewGateway(cfg GatewayConfig, source ConfigSource, logger *slog.Logger) *Gateway {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultAPIBaseURL
	}
	if cfg.CDNBaseURL == "" {
		cfg.CDNBaseURL = defaultCDNBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Gateway{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		apiBase:      cfg.APIBaseURL,
		cdnBase:      cfg.CDNBaseURL,
		client:       cfg.HTTPClient,
		now:          cfg.Now,
		config:       source,
		logger:       logger,
		tokens:       make(map[string]tokenEntry),
		members:      make(map[string]memberEntry),
	}
}

func (g *Gateway) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     g.clientID,
		ClientSecret: g.clientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   g.apiBase + "/oauth2/authorize",
			TokenURL:  g.apiBase + "/oauth2/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: g.RedirectURI(),
		Scopes:      oauthScopes,
	}
}

func (g *Gateway) withClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, g.client)
}

// RedirectURI derives the OAuth callback from the live server config:
// the public domain over https when one is set, otherwise host:port.
func (g *Gateway) RedirectURI() string {
	cfg := g.config.ServerConfig()
	base := strings.Trim(cfg.PathBase, "/")
	if base != "" {
		base += "/"
	}
	if cfg.PublicDomain != "" {
		return fmt.Sprintf("https://%s/%sdiscord_login", cfg.PublicDomain, base)
	}
	return fmt.Sprintf("http://%s:%d/%sdiscord_login", cfg.Host, cfg.Port, base)
}

// AuthURL builds the provider authorization URL for the login page. The
// state is the caller's session id and is verified on callback.
func (g *Gateway) AuthURL(state string) string {
	return g.oauthConfig().AuthCodeURL(state)
}

// Exchange performs the one-shot code-for-token exchange and caches the
// resulting pair keyed by the access token.
func (g *Gateway) Exchange(ctx context.Context, code string) (string, error) {
	tok, err := g.oauthConfig().Exchange(g.withClient(ctx), code)
	if err != nil {
		g.logger.Debug("code exchange failed", slog.Any("error", err))
		return "", fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	g.mu.Lock()
	g.tokens[tok.AccessToken] = tokenEntry{
		expiresAt:    tok.Expiry,
		refreshToken: tok.RefreshToken,
	}
	g.mu.Unlock()

	g.logger.Debug("new token", slog.Time("expires_at", tok.Expiry))
	return tok.AccessToken, nil
}

// ensureFresh refreshes the token when it has an hour or less left,
// relocating the cache entry under the new access token. The old entry
// is removed only after a successful refresh.
func (g *Gateway) ensureFresh(ctx context.Context, token string) (string, error) {
	g.mu.Lock()
	entry, ok := g.tokens[token]
	g.mu.Unlock()
	if !ok {
		return "", ErrUnknownToken
	}
	if entry.expiresAt.After(g.now().Add(refreshWindow)) {
		return token, nil
	}

	g.logger.Debug("token expiring within the refresh window, renewing")

	// A token value with no expiry forces the source to hit the refresh
	// endpoint immediately.
	src := g.oauthConfig().TokenSource(g.withClient(ctx), &oauth2.Token{
		RefreshToken: entry.refreshToken,
	})
	tok, err := src.Token()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}

	refresh := tok.RefreshToken
	if refresh == "" {
		refresh = entry.refreshToken
	}

	g.mu.Lock()
	delete(g.tokens, token)
	g.tokens[tok.AccessToken] = tokenEntry{
		expiresAt:    tok.Expiry,
		refreshToken: refresh,
	}
	g.mu.Unlock()

	return tok.AccessToken, nil
}

// GuildMember returns the caller's membership in the configured guild,
// refreshing the token first. The possibly rotated token is returned so
// the session can follow the rotation. Member payloads are cached for 15
// minutes; concurrent queries for the same token are collapsed.
func (g *Gateway) GuildMember(ctx context.Context, token string) (Member, string, error) {
	token, err := g.ensureFresh(ctx, token)
	if err != nil {
		return Member{}, "", err
	}

	g.mu.Lock()
	cached, ok := g.members[token]
	g.mu.Unlock()
	if ok && g.now().Sub(cached.fetchedAt) < memberTTL {
		return cached.member, token, nil
	}

	v, err, _ := g.flight.Do(token, func() (interface{}, error) {
		return g.queryMember(ctx, token)
	})
	if err != nil {
		return Member{}, "", err
	}
	return v.(Member), token, nil
}

func (g *Gateway) queryMember(ctx context.Context, token string) (Member, error) {
	url := fmt.Sprintf("%s/v9/users/@me/guilds/%s/member", g.apiBase, g.config.ServerConfig().Discord.GuildID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Member{}, fmt.Errorf("%w: %v", ErrMemberQueryFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := g.client.Do(req)
	if err != nil {
		return Member{}, fmt.Errorf("%w: %v", ErrMemberQueryFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.logger.Debug("guild member query failed", slog.Int("status", resp.StatusCode))
		return Member{}, fmt.Errorf("%w: status %d", ErrMemberQueryFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Member{}, fmt.Errorf("%w: %v", ErrMemberQueryFailed, err)
	}
	var member Member
	if err := json.Unmarshal(body, &member); err != nil {
		return Member{}, fmt.Errorf("%w: %v", ErrMemberQueryFailed, err)
	}

	g.mu.Lock()
	g.members[token] = memberEntry{member: member, fetchedAt: g.now()}
	g.mu.Unlock()

	g.logger.Debug("queried guild member", slog.String("username", member.User.Username))
	return member, nil
}

// IsValid reports whether the token is cached and not yet expired. Pure
// cache read, no provider call.
func (g *Gateway) IsValid(token string) bool {
	g.mu.Lock()
	entry, ok := g.tokens[token]
	g.mu.Unlock()
	return ok && entry.expiresAt.After(g.now())
}

// HasPermission reports whether the caller holds any of the configured
// role ids. Every failure along the chain, including an unknown token,
// downgrades to false.
func (g *Gateway) HasPermission(ctx context.Context, token string) bool {
	member, _, err := g.GuildMember(ctx, token)
	if err != nil {
		return false
	}
	for _, role := range g.config.ServerConfig().Discord.RoleIDs {
		if slices.Contains(member.Roles, role) {
			return true
		}
	}
	return false
}

// DisplayName returns the member's presentable name along with the
// possibly rotated token.
func (g *Gateway) DisplayName(ctx context.Context, token string) (string, string, error) {
	member, token, err := g.GuildMember(ctx, token)
	if err != nil {
		return "", "", err
	}
	return member.User.Username + "#" + member.User.Discriminator, token, nil
}

// AvatarURL returns the member's CDN avatar URL along with the possibly
// rotated token.
func (g *Gateway) AvatarURL(ctx context.Context, token string) (string, string, error) {
	member, token, err := g.GuildMember(ctx, token)
	if err != nil {
		return "", "", err
	}
	url := fmt.Sprintf("%s/avatars/%s/%s.png", g.cdnBase, member.User.ID, member.User.Avatar)
	return url, token, nil
}
