package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func sessionProbe(sessions *Sessions) (http.Handler, *string) {
	var seen string
	handler := sessions.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	return handler, &seen
}

func TestMiddlewareIssuesAndRestoresSession(t *testing.T) {
	sessions := NewSessions("test-secret", testLogger())
	handler, seen := sessionProbe(sessions)

	// First request mints a session and sets the cookie.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	first := *seen
	require.NotEmpty(t, first)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "scheduler_session", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	// Replaying the cookie restores the same session id.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, first, *seen)
}

func TestMiddlewareRejectsTamperedCookie(t *testing.T) {
	sessions := NewSessions("test-secret", testLogger())
	handler, seen := sessionProbe(sessions)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	first := *seen
	cookie := rec.Result().Cookies()[0]

	// Cookie signed under a different secret must not be honored.
	other := NewSessions("other-secret", testLogger())
	otherHandler, otherSeen := sessionProbe(other)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	otherHandler.ServeHTTP(httptest.NewRecorder(), req)
	assert.NotEqual(t, first, *otherSeen)
	assert.NotEmpty(t, *otherSeen)
}

func TestTokenBinding(t *testing.T) {
	sessions := NewSessions("test-secret", testLogger())

	assert.Empty(t, sessions.Token("sid-1"))
	sessions.SetToken("sid-1", "tok-1")
	assert.Equal(t, "tok-1", sessions.Token("sid-1"))

	// Rotation replaces the binding.
	sessions.SetToken("sid-1", "tok-2")
	assert.Equal(t, "tok-2", sessions.Token("sid-1"))
}

type staticChecker bool

func (c staticChecker) HasPermission(ctx context.Context, token string) bool { return bool(c) }

func TestRequireRole(t *testing.T) {
	sessions := NewSessions("test-secret", testLogger())

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	denied := sessions.Middleware(sessions.RequireRole(staticChecker(false))(next))
	rec := httptest.NewRecorder()
	denied.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/matches", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	granted := sessions.Middleware(sessions.RequireRole(staticChecker(true))(next))
	rec = httptest.NewRecorder()
	granted.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/matches", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
