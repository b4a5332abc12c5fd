package app

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/steamfolio/portfolio/internal/achievement"
	"github.com/steamfolio/portfolio/internal/guard"
	"github.com/steamfolio/portfolio/internal/handler"
	"github.com/steamfolio/portfolio/internal/notify"
)

// RouterDeps holds all dependencies needed by NewRouter.
type RouterDeps struct {
	Engine  *achievement.Engine
	Hub     *notify.Hub
	Sources handler.SourceProvider
	Logger  *slog.Logger

	// Storage health
	Backend     string
	HealthCheck handler.HealthCheck

	CORSOrigins  []string
	TrackLimiter *guard.RateLimiter
	// OnReset hooks run after achievements are reset over HTTP.
	OnReset []func()
}

// NewRouter assembles the chi.Router with all routes and middleware.
func NewRouter(deps RouterDeps) chi.Router {
	logger := deps.Logger

	// Handlers
	achievementHandler := handler.NewAchievementHandler(deps.Engine, deps.OnReset...)
	trackHandler := handler.NewTrackHandler(deps.Engine)
	levelHandler := handler.NewLevelHandler(deps.Engine, deps.Sources)
	wsHandler := handler.NewWSHandler(deps.Hub, deps.CORSOrigins, logger)

	limiter := deps.TrackLimiter
	if limiter == nil {
		limiter = guard.NewRateLimiter(0, 0)
	}

	// Router
	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(handler.Recovery(logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(logger))
	r.Use(handler.CORS(deps.CORSOrigins))

	// WebSocket upgrade, outside the JSON group
	r.Get("/ws", wsHandler.Serve)

	r.Group(func(r chi.Router) {
		r.Use(handler.JSONContentType)

		r.Get("/health", handler.HealthHandler(deps.Backend, deps.HealthCheck))

		r.Route("/achievements", func(r chi.Router) {
			r.Get("/", achievementHandler.List)
			r.Get("/stats", achievementHandler.Stats)
			r.Post("/init", achievementHandler.Init)
			r.Post("/reset", achievementHandler.Reset)
			r.Post("/{id}/unlock", achievementHandler.Unlock)
		})

		// Interaction tracking, rate limited per client address
		r.Route("/track", func(r chi.Router) {
			r.Use(handler.RateLimit(limiter))
			r.Post("/section", trackHandler.Section)
			r.Post("/project", trackHandler.Project)
			r.Post("/hover", trackHandler.Hover)
			r.Post("/logo", trackHandler.Logo)
			r.Post("/key", trackHandler.Key)
			r.Post("/click", trackHandler.Click)
		})

		r.Get("/level", levelHandler.Get)
	})

	return r
}
