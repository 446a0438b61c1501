package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jamrock-club/jamrock-backend/api/controllers"
	"github.com/jamrock-club/jamrock-backend/api/middleware"
	cartsvc "github.com/jamrock-club/jamrock-backend/internal/cart"
	paymentsvc "github.com/jamrock-club/jamrock-backend/internal/payments"
	productsvc "github.com/jamrock-club/jamrock-backend/internal/products"
	"github.com/jamrock-club/jamrock-backend/pkg/config"
	"github.com/jamrock-club/jamrock-backend/pkg/db"
	"github.com/jamrock-club/jamrock-backend/pkg/logger"
	"github.com/jamrock-club/jamrock-backend/pkg/metrics"
	pkgredis "github.com/jamrock-club/jamrock-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    pkgredis.IdempotencyStore
	Metrics  *metrics.HTTPMetrics
	Registry *prometheus.Registry
	Cart     cartsvc.Service
	Products productsvc.Service
	Payments paymentsvc.Service
}

// NewRouter assembles the storefront API. Catalog, health, and metrics are
// public; everything touching a cart requires a bearer token.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(deps.Logger),
		middleware.RequestID(deps.Logger),
		middleware.Logging(deps.Logger),
		middleware.Metrics(deps.Metrics),
		middleware.CORS(deps.Config.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(deps.Config))
		r.Get("/ready", controllers.HealthReady(deps.Config, deps.DB, deps.Logger))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Get("/products/getProducts", controllers.ProductList(deps.Products, deps.Logger))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(deps.Config.JWT, deps.Logger))
		r.Use(middleware.Idempotency(deps.Redis, deps.Logger))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/user/{userId}/last", controllers.CartFetchLast(deps.Cart, deps.Logger))
			r.Post("/addToCart", controllers.CartCreate(deps.Cart, deps.Logger))
			r.Put("/update/{cartId}", controllers.CartUpdate(deps.Cart, deps.Logger))
			r.Put("/checkout/{cartId}", controllers.CartCheckout(deps.Cart, deps.Logger))
			r.With(middleware.RequireStaff(deps.Logger)).Put("/status/{cartId}", controllers.CartAdvanceStatus(deps.Cart, deps.Logger))
		})

		r.Post("/payments/mercadopago", controllers.PaymentCreateLink(deps.Payments, deps.Logger))
	})

	return r
}
