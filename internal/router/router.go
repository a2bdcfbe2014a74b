package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"club-auth-service/internal/config"
	"club-auth-service/internal/handler"
	"club-auth-service/internal/middleware"
)

type Handlers struct {
	Auth   *handler.AuthHandler
	User   *handler.UserHandler
	Health *handler.HealthHandler
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", h.Health.Health)
	r.Handle("/metrics", promhttp.Handler())

	// Route shapes follow the original mobile client contract.
	r.Route("/api/usuarios", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Post("/register", h.Auth.Register)
		api.Post("/login", h.Auth.Login)
		api.Post("/refresh", h.Auth.Refresh)
		api.Post("/logout", h.Auth.Logout)
		api.With(authMiddleware.RequireAuth).Get("/me", h.User.Me)
	})

	r.With(middleware.Timeout(cfg.RequestTimeout)).Post("/auth/google", h.Auth.GoogleLogin)

	return r
}
