package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/match-scheduler/discord"
	"github.com/match-scheduler/middleware"
	"github.com/match-scheduler/storage"
)

// AuthHandler serves the entry pages and the OAuth login flow.
type AuthHandler struct {
	gateway  *discord.Gateway
	sessions *middleware.Sessions
	store    *storage.Store
	webDir   string
	logger   *slog.Logger
}

func NewAuthHandler(gateway *discord.Gateway, sessions *middleware.Sessions, store *storage.Store, webDir string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		gateway:  gateway,
		sessions: sessions,
		store:    store,
		webDir:   webDir,
		logger:   logger,
	}
}

// Home serves the login page for anonymous visitors, the main page for
// organizers and the no-permission page for everyone else.
func (h *AuthHandler) Home(w http.ResponseWriter, r *http.Request) {
	sid := middleware.SessionID(r.Context())
	token := h.sessions.Token(sid)

	if token != "" && h.gateway.IsValid(token) {
		if h.gateway.HasPermission(r.Context(), token) {
			http.ServeFile(w, r, filepath.Join(h.webDir, "mainPage.html"))
		} else {
			http.ServeFile(w, r, filepath.Join(h.webDir, "noPermission.html"))
		}
		return
	}

	page, err := os.ReadFile(filepath.Join(h.webDir, "login.html"))
	if err != nil {
		serverErrorResponse(w, err)
		return
	}
	// The session id doubles as the OAuth state.
	page = []byte(strings.ReplaceAll(string(page), "%DISCORD_LOGIN%", h.gateway.AuthURL(sid)))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

// LoginCallback finishes the OAuth flow: it verifies the state against
// the session id, exchanges the code and binds the token to the session.
func (h *AuthHandler) LoginCallback(w http.ResponseWriter, r *http.Request) {
	sid := middleware.SessionID(r.Context())
	if r.URL.Query().Get("state") != sid {
		h.logger.Warn("login callback state mismatch")
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, "Error: Incorrect state")
		return
	}

	token, err := h.gateway.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		h.logger.Error("authorization code exchange failed", slog.Any("error", err))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintf(w, "An error occurred: %v", err)
		return
	}
	h.sessions.SetToken(sid, token)

	http.Redirect(w, r, basePath(h.store.ServerConfig().PathBase), http.StatusFound)
}

// CurrentUser returns the session user's display name and avatar. Both
// gateway calls can rotate the token, so the final value is written back
// to the session.
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	sid := middleware.SessionID(r.Context())
	token := h.sessions.Token(sid)

	name, token, err := h.gateway.DisplayName(r.Context(), token)
	if err != nil {
		h.userError(w, err)
		return
	}
	avatar, token, err := h.gateway.AvatarURL(r.Context(), token)
	if err != nil {
		h.userError(w, err)
		return
	}
	h.sessions.SetToken(sid, token)

	writeJSON(w, http.StatusOK, jsonResponse{
		"name":   name,
		"avatar": avatar,
	})
}

func (h *AuthHandler) userError(w http.ResponseWriter, err error) {
	h.logger.Error("user lookup failed", slog.Any("error", err))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "An error occurred: %v", err)
}

// basePath normalizes the configured path prefix into a redirect target.
func basePath(pathBase string) string {
	trimmed := strings.Trim(pathBase, "/")
	if trimmed == "" {
		return "/"
	}
	return "/" + trimmed + "/"
}
