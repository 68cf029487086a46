package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"chargehub/internal/http/handlers"
	"chargehub/internal/http/middleware"
	"chargehub/internal/service"
)

// Deps groups router collaborators.
type Deps struct {
	Stations    *service.StationsService
	Sessions    *service.SessionsService
	Coordinator *service.CoordinatorService
	JWTSecret   string
	RateLimiter *middleware.RateLimiter
	WSHandler   http.HandlerFunc
	Metrics     http.Handler
	Logger      *zap.Logger
}

// NewRouter registers endpoints. The /api tree requires a bearer token; the
// websocket endpoint stays outside the request logger so hijacking works.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handlers.NewHealthHandler())
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}
	if deps.WSHandler != nil {
		r.Get("/ws/queue", deps.WSHandler)
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.RequestLogger(deps.Logger))
		api.Use(middleware.Auth(deps.JWTSecret))
		if deps.RateLimiter != nil {
			api.Use(deps.RateLimiter.Middleware())
		}

		api.Get("/stations", handlers.NewStationsListHandler(deps.Stations))
		api.Post("/stations", handlers.NewStationCreateHandler(deps.Stations))
		api.Get("/stations/mine", handlers.NewOwnerStationsHandler(deps.Stations))
		api.Post("/stations/{id}/approve", handlers.NewStationApproveHandler(deps.Stations))

		api.Post("/recommend", handlers.NewRecommendHandler(deps.Stations))

		api.Post("/stations/{name}/charge", handlers.NewChargeHandler(deps.Coordinator))
		api.Get("/stations/{name}/queue-status", handlers.NewQueueStatusHandler(deps.Coordinator))

		api.Post("/sessions/{id}/stop", handlers.NewSessionStopHandler(deps.Sessions))
		api.Post("/sessions/{id}/complete", handlers.NewSessionCompleteHandler(deps.Sessions))
		api.Post("/sessions/{id}/cancel", handlers.NewSessionCancelHandler(deps.Sessions))
		api.Get("/sessions/me", handlers.NewSessionsMeHandler(deps.Sessions))
		api.Get("/sessions/active", handlers.NewActiveSessionsHandler(deps.Sessions))
	})

	return r
}
