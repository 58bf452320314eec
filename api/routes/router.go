package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/sweetshop-backend/api/controllers"
	"github.com/angelmondragon/sweetshop-backend/api/middleware"
	"github.com/angelmondragon/sweetshop-backend/internal/sweets"
	"github.com/angelmondragon/sweetshop-backend/pkg/config"
	"github.com/angelmondragon/sweetshop-backend/pkg/logger"
	"github.com/angelmondragon/sweetshop-backend/pkg/redis"
)

// NewRouter wires the HTTP surface. idempotencyStore and metricsHandler are
// optional; readiness lists the dependencies probed by /health/ready.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	sweetService sweets.Service,
	idempotencyStore redis.IdempotencyStore,
	metricsHandler http.Handler,
	readiness ...controllers.ReadinessCheck,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness...))
	})

	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	idempotent := middleware.Idempotency(idempotencyStore, logg)
	adminOnly := middleware.RequireAdmin(logg)

	r.Route("/api/sweets", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Get("/", controllers.ListSweets(sweetService, logg))
		r.Get("/search", controllers.SearchSweets(sweetService, logg))
		r.Get("/{id}", controllers.GetSweet(sweetService, logg))
		r.With(idempotent).Post("/{id}/purchase", controllers.PurchaseSweet(sweetService, logg))

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)
			r.Post("/", controllers.CreateSweet(sweetService, logg))
			r.Put("/{id}", controllers.UpdateSweet(sweetService, logg))
			r.Delete("/{id}", controllers.DeleteSweet(sweetService, logg))
			r.With(idempotent).Post("/{id}/restock", controllers.RestockSweet(sweetService, logg))
		})
	})

	return r
}
