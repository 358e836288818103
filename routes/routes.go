package routes

import (
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/match-scheduler/handlers"
	"github.com/match-scheduler/middleware"
)

// SetupRoutes wires the HTTP surface onto the router, everything mounted
// under the configured path prefix. The API group below /api is gated on
// guild-role membership; the entry pages and the login callback are not.
func SetupRoutes(
	router *chi.Mux,
	pathBase string,
	sessions *middleware.Sessions,
	checker middleware.PermissionChecker,
	authHandler *handlers.AuthHandler,
	matchHandler *handlers.MatchHandler,
	settingsHandler *handlers.SettingsHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedMethods:   []string{"GET", "PUT", "PATCH", "OPTIONS"},
		AllowCredentials: true,
	}))
	router.Use(sessions.Middleware)

	router.Route(mountPath(pathBase), func(r chi.Router) {
		r.Get("/", authHandler.Home)
		r.Get("/discord_login", authHandler.LoginCallback)
		r.Get("/api/user", authHandler.CurrentUser)

		r.Group(func(r chi.Router) {
			r.Use(sessions.RequireRole(checker))

			r.Get("/api/matches", matchHandler.List)
			r.Put("/api/match", matchHandler.Create)
			r.Patch("/api/match", matchHandler.Update)

			r.Get("/api/config", settingsHandler.GetConfig)
			r.Patch("/api/config", settingsHandler.PatchConfig)
			r.Get("/api/schema", settingsHandler.GetSchema)
			r.Patch("/api/schema", settingsHandler.PatchSchema)
			r.Get("/api/players", settingsHandler.GetPlayers)
			r.Patch("/api/players", settingsHandler.PatchPlayers)
			r.Get("/api/reloadConfig", settingsHandler.Reload)

			r.Get("/api/live", webSocketHandler.ServeWs)
		})
	})
}

func mountPath(pathBase string) string {
	trimmed := strings.Trim(pathBase, "/")
	if trimmed == "" {
		return "/"
	}
	return "/" + trimmed
}
