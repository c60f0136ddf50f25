package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/aemoz-unilab/sorteio/internal/api/auth"
	"github.com/aemoz-unilab/sorteio/internal/api/draws"
	"github.com/aemoz-unilab/sorteio/internal/api/export"
	"github.com/aemoz-unilab/sorteio/internal/api/middleware"
	"github.com/aemoz-unilab/sorteio/internal/api/participants"
	"github.com/aemoz-unilab/sorteio/internal/pdf"
)

// setupRouter creates and configures the chi router with all routes.
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	// Create JWT service
	jwtService := auth.NewJWTService(s.config.JWTSecret, s.config.TokenTTL)

	// Create rate limiters
	ipLimiter := middleware.NewIPLimiter(s.config.RateLimitPerIP)
	loginLimiter := middleware.NewLoginLimiter(s.config.LoginRateLimit, s.config.LoginRateWindow)

	// Global middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestLogger(s.config.Verbose))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.PrometheusMiddleware)

	participantsHandler := participants.NewHandler(s.storage)
	drawsHandler := draws.NewHandler(s.storage, s.engine)
	exportHandler := export.NewHandler(s.storage, pdf.NewRenderer("AEMOZ Sorteio"))
	authHandler := auth.NewHandler(jwtService, s.config.AdminPassword, s.config.AdminPasswordHash)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.QueryTimeout(s.config.QueryTimeout))

		// Health (public, no rate limit; the status page polls it)
		r.Get("/health", s.healthHandler.Health)
		r.Get("/health/live", s.healthHandler.Live)

		// Public routes with general IP rate limiting
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(ipLimiter))
			r.Post("/participants", participantsHandler.Register)
			r.Get("/stats", s.handleStats)
		})

		// Auth routes
		r.Route("/auth", func(r chi.Router) {
			// Login gets the strict per-IP window on top of the
			// general limit.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimitByIP(ipLimiter))
				r.Use(middleware.LoginRateLimit(loginLimiter))
				r.Post("/login", authHandler.Login)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.JWTAuth(jwtService))
				r.Get("/validate", authHandler.Validate)
			})
		})

		// Admin routes (protected)
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(ipLimiter))
			r.Use(middleware.JWTAuth(jwtService))
			r.Use(middleware.RequireAdmin)

			r.Route("/participants", func(r chi.Router) {
				r.Get("/", participantsHandler.List)
				r.Get("/by-course", participantsHandler.ByCourse)
				r.Delete("/{id}", participantsHandler.Delete)
			})

			r.Post("/test-data", participantsHandler.SeedTestData)

			r.Route("/sorteio", func(r chi.Router) {
				r.Post("/", drawsHandler.Run)
				r.Get("/result", drawsHandler.Result)
			})

			r.Delete("/clear-all", drawsHandler.ClearAll)

			r.Route("/pdf", func(r chi.Router) {
				r.Get("/participants", exportHandler.Participants)
				r.Get("/groups", exportHandler.Groups)
			})
		})
	})

	return r
}
