// Package router assembles the HTTP surface of the booking API.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mahyar-jbr/dog-wash-booking/internal/http/handlers"
	httpmw "github.com/mahyar-jbr/dog-wash-booking/internal/http/middleware"
	"github.com/mahyar-jbr/dog-wash-booking/internal/service"
	"github.com/mahyar-jbr/dog-wash-booking/pkg/auth"
	"github.com/mahyar-jbr/dog-wash-booking/pkg/config"
	mw "github.com/mahyar-jbr/dog-wash-booking/pkg/middleware"
)

type Deps struct {
	Bookings   service.BookingService
	Passphrase *auth.Passphrase
	// Idempotency is optional; without it Idempotency-Key is ignored.
	Idempotency mw.IdempotencyStore
}

func New(cfg *config.Config, deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("dog-wash-api"))
	r.Use(mw.Logging)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Idempotent-Replay"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(mw.Health)

	createGuard := []func(http.Handler) http.Handler{
		httpmw.RateLimitPerMinute(cfg.RateLimit.BookingsPerMinute),
	}
	if deps.Idempotency != nil {
		createGuard = append(createGuard, mw.IdempotencyMiddleware(deps.Idempotency, cfg.Redis.IdempotencyTTL))
	}

	public := handlers.NewBookingsHandler(deps.Bookings, createGuard...)
	admin := handlers.NewAdminHandler(deps.Bookings, deps.Passphrase, cfg.Auth.JWTSecret, sessionTTL(cfg),
		httpmw.RateLimitPerMinute(cfg.RateLimit.LoginsPerMinute))

	r.Route("/v1", func(r chi.Router) {
		r.Mount("/admin", admin.Routes())
		r.Mount("/", public.Routes())
	})
	return r
}

func sessionTTL(cfg *config.Config) time.Duration {
	if cfg.Auth.AdminSessionTTL <= 0 {
		return 8 * time.Hour
	}
	return cfg.Auth.AdminSessionTTL
}
