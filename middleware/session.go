package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

type contextKey string

const sessionContextKey contextKey = "session"

const (
	cookieName = "scheduler_session"
	sessionTTL = 7 * 24 * time.Hour
)

// PermissionChecker answers whether a provider token carries one of the
// configured guild roles.
type PermissionChecker interface {
	HasPermission(ctx context.Context, token string) bool
}

// Sessions issues an HS256-signed cookie carrying an opaque session id
// and keeps the session id to provider-token binding server-side. The
// session id stays stable while the provider token rotates underneath.
type Sessions struct {
	secret []byte
	logger *slog.Logger

	mu     sync.RWMutex
	tokens map[string]string
}

func NewSessions(secret string, logger *slog.Logger) *Sessions {
	return &Sessions{
		secret: []byte(secret),
		logger: logger,
		tokens: make(map[string]string),
	}
}

// Middleware ensures every request has a session, minting a fresh one
// when the cookie is absent, expired or tampered with.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := ""
		if cookie, err := r.Cookie(cookieName); err == nil {
			sid = s.parse(cookie.Value)
		}
		if sid == "" {
			sid = uuid.NewString()
			signed, err := s.sign(sid)
			if err != nil {
				s.logger.Error("failed to sign session cookie", slog.Any("error", err))
				http.Error(w, "session error", http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     cookieName,
				Value:    signed,
				Path:     "/",
				MaxAge:   int(sessionTTL.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, sid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Sessions) sign(sid string) (string, error) {
	claims := jwt.MapClaims{
		"sid": sid,
		"exp": time.Now().Add(sessionTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Sessions) parse(value string) string {
	token, err := jwt.Parse(value, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return ""
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	sid, _ := claims["sid"].(string)
	return sid
}

// SessionID returns the session id bound to the request context.
func SessionID(ctx context.Context) string {
	sid, _ := ctx.Value(sessionContextKey).(string)
	return sid
}

// Token returns the provider token bound to the session, if any.
func (s *Sessions) Token(sid string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens[sid]
}

// SetToken binds a provider token to the session, replacing any previous
// binding. Used both on login and on token rotation.
func (s *Sessions) SetToken(sid, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[sid] = token
}

// RequireRole guards a route group: requests whose session token does
// not carry a permitted role are answered with a bare 403.
func (s *Sessions) RequireRole(checker PermissionChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := s.Token(SessionID(r.Context()))
			if !checker.HasPermission(r.Context(), token) {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
