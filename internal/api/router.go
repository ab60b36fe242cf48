package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/belchote2025/nuevaweb-sub001/internal/api/middleware"
	"github.com/belchote2025/nuevaweb-sub001/internal/chat"
	"github.com/belchote2025/nuevaweb-sub001/internal/handlers"
	"github.com/belchote2025/nuevaweb-sub001/internal/store"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(logger zerolog.Logger, svc *chat.Service, st store.Store) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(16 * 1024))
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// CORS - the host frontend polls from the browser
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.HeaderUser, middleware.HeaderName, middleware.HeaderRole},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h := handlers.NewHandler(svc, st)

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// Public routes (no identity required)
	r.Get("/health", h.Health)

	// Chat routes: every operation resolves the caller identity first
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireIdentity)

		r.Get("/rooms", h.ListRooms)
		r.Get("/rooms/{id}/messages", h.GetRoomMessages)
		r.Post("/rooms/{id}/messages", h.PostMessage)

		r.Get("/dm/unread", h.UnreadCount)
		r.Get("/dm/{peer}", h.GetConversation)
		r.Post("/dm/{peer}", h.SendDM)

		r.Get("/roster", h.Roster)
	})

	return r
}
