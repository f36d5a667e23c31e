package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/gdg-garage/achievement-bot/internal/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func RegisterRoutes(r *chi.Mux, authHandler *auth.AuthHandler, achievements *AchievementsHandler, apiKeys *APIKeyHandler) {
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Initialize Huma API
	config := huma.DefaultConfig("Guild Achievement Bot API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"cookieAuth": {
			Type: "apiKey",
			In:   "cookie",
			Name: "auth_token",
		},
		"apiKeyAuth": {
			Type: "apiKey",
			In:   "header",
			Name: "X-API-KEY",
		},
	}
	api := humachi.New(r, config)

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Auth routes
	r.Get("/auth/discord/login", authHandler.HandleLogin)
	r.Get("/auth/discord/callback", authHandler.HandleCallback)

	// The middleware renews the session cookie once it is past half its
	// lifetime, so clients can keep a session alive by hitting this.
	r.With(authHandler.AuthMiddleware).Get("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	withCookie := func(o *huma.Operation) {
		o.Security = []map[string][]string{{"cookieAuth": {}}}
	}
	withCookieOrKey := func(o *huma.Operation) {
		o.Security = []map[string][]string{{"cookieAuth": {}}, {"apiKeyAuth": {}}}
	}

	huma.Get(api, "/me", authHandler.HandleMe, withCookie)

	huma.Get(api, "/guilds/{guildID}/achievements", achievements.HandleList, withCookieOrKey)
	huma.Get(api, "/guilds/{guildID}/users/{discordID}/achievements", achievements.HandleUserGrants, withCookieOrKey)

	huma.Post(api, "/keys", apiKeys.HandleCreate, withCookie)
	huma.Get(api, "/keys", apiKeys.HandleList, withCookie)
	huma.Delete(api, "/keys/{id}", apiKeys.HandleDelete, withCookie)
}
