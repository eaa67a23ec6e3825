// Package service exposes the HTTP API: session-gated data and chat endpoints,
// the sign-in flow and a health check.
package service

import (
	"net/http"

	"github.com/rs/cors"

	"github.com/jimikki-app/backend/internal/auth"
	"github.com/jimikki-app/backend/internal/chat"
	"github.com/jimikki-app/backend/internal/logging"
	"github.com/jimikki-app/backend/internal/store"
)

// RouterConfig is everything the router wires together.
type RouterConfig struct {
	Store    store.Store
	Chat     *chat.Service
	Exporter Exporter
	OAuth    *auth.OAuthBridge
	// Auth wraps every route; public paths are exempted by the middleware.
	Auth           func(http.Handler) http.Handler
	AllowedOrigins []string
	Log            logging.Logger
}

// NewRouter builds the root handler.
func NewRouter(cfg RouterConfig) http.Handler {
	data := NewDataHandler(cfg.Store, cfg.Exporter, cfg.Log)
	chatHandler := NewChatHandler(cfg.Chat, cfg.Log)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/data", data.GetData)
	mux.HandleFunc("POST /api/data", data.SaveData)
	mux.HandleFunc("POST /api/chat", chatHandler.Chat)
	mux.HandleFunc("GET /health", HealthHandler(cfg.Store, cfg.Log))
	if cfg.OAuth != nil {
		cfg.OAuth.Register(mux)
	}

	var handler http.Handler = mux
	if cfg.Auth != nil {
		handler = cfg.Auth(handler)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			RequestIDHeader,
		},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: true,
	})
	handler = c.Handler(handler)

	handler = Recoverer(cfg.Log)(handler)
	return AccessLog(cfg.Log)(handler)
}
