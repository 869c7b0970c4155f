package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront/api/controllers"
	cartcontrollers "github.com/angelmondragon/storefront/api/controllers/cart"
	catalogcontrollers "github.com/angelmondragon/storefront/api/controllers/catalog"
	checkoutcontrollers "github.com/angelmondragon/storefront/api/controllers/checkout"
	ordercontrollers "github.com/angelmondragon/storefront/api/controllers/orders"
	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	checkoutsvc "github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/internal/orders"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/db"
	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/redis"
)

// NewRouter wires every storefront endpoint. redisClient may be nil, which
// disables idempotency replay and rate limiting. registry may be nil, which
// drops the /metrics endpoint.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	catalogService catalog.Service,
	cartService cart.Service,
	checkoutService checkoutsvc.Service,
	ordersService orders.Service,
) http.Handler {
	r := chi.NewRouter()

	var (
		idempotencyStore redis.IdempotencyStore
		rateStore        middleware.RateLimitStore
		redisPinger      controllers.Pinger
	)
	if redisClient != nil {
		idempotencyStore = redisClient
		rateStore = redisClient
		redisPinger = redisClient
	}

	var httpMetrics *middleware.HTTPMetrics
	if registry != nil {
		httpMetrics = middleware.NewHTTPMetrics(registry)
	}

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		httpMetrics.Handler,
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": dbP,
			"redis":    redisPinger,
		}))
	})

	if registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	cartLimit := middleware.RateLimit(middleware.CartRateLimitPolicy(cfg.RateLimit), rateStore, logg)
	checkoutLimit := middleware.RateLimit(middleware.CheckoutRateLimitPolicy(cfg.RateLimit), rateStore, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(cfg.Session, logg))
		r.Use(middleware.OptionalAuth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Get("/home", catalogcontrollers.Home(catalogService, logg))
		r.Get("/categories", catalogcontrollers.Categories(catalogService, logg))
		r.Get("/products", catalogcontrollers.List(catalogService, logg))
		r.Get("/products/{idOrSlug}", catalogcontrollers.Get(catalogService, logg))

		r.Get("/cart", cartcontrollers.Fetch(cartService, logg))
		r.With(cartLimit).Delete("/cart", cartcontrollers.Clear(cartService, logg))
		r.With(cartLimit).Post("/cart/items", cartcontrollers.AddItem(cartService, logg))
		r.With(cartLimit).Patch("/cart/items/{lineID}", cartcontrollers.UpdateItem(cartService, logg))
		r.With(cartLimit).Delete("/cart/items/{lineID}", cartcontrollers.RemoveItem(cartService, logg))

		r.Get("/checkout/preview", checkoutcontrollers.Preview(checkoutService, logg))
		r.With(checkoutLimit).Post("/checkout", checkoutcontrollers.Place(checkoutService, logg))

		r.With(middleware.RequireAccount(logg)).Get("/orders", ordercontrollers.List(ordersService, logg))
		r.Get("/orders/{orderNumber}", ordercontrollers.Get(ordersService, logg))

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.AccountRoleAdmin), logg))
			r.Patch("/orders/{orderNumber}/status", ordercontrollers.UpdateStatus(ordersService, logg))
			r.Post("/accounts/{accountID}/orders/detach", ordercontrollers.DetachAccount(ordersService, logg))
		})
	})

	return r
}
