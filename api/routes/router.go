package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fineshyttt/commerce-backend/api/controllers"
	"github.com/fineshyttt/commerce-backend/api/middleware"
	"github.com/fineshyttt/commerce-backend/internal/checkout"
	"github.com/fineshyttt/commerce-backend/internal/inventory"
	"github.com/fineshyttt/commerce-backend/internal/orders"
	"github.com/fineshyttt/commerce-backend/pkg/config"
	"github.com/fineshyttt/commerce-backend/pkg/logger"
	pkgredis "github.com/fineshyttt/commerce-backend/pkg/redis"
)

// RouterParams collects everything the HTTP surface needs.
type RouterParams struct {
	Config      *config.Config
	Logger      *logger.Logger
	Readiness   map[string]controllers.Pinger
	Idempotency pkgredis.IdempotencyStore
	Gatherer    prometheus.Gatherer
	Checkout    checkout.Service
	Orders      orders.Service
	Inventory   inventory.Service
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.Readiness))
	})

	if p.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(p.Idempotency, cfg.Checkout.IdempotencyTTL, logg))

		r.Get("/", controllers.ListOrders(p.Orders, logg))
		r.Post("/checkout", controllers.Checkout(p.Checkout, logg))
		r.Get("/{orderId}", controllers.OrderDetail(p.Orders, logg))
		r.Get("/{orderId}/history", controllers.OrderHistory(p.Orders, logg))
		r.Post("/{orderId}/cancel", controllers.CancelOrder(p.Orders, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireAdmin(logg))
		r.Use(middleware.Idempotency(p.Idempotency, cfg.Checkout.IdempotencyTTL, logg))

		r.Route("/orders/{orderId}", func(r chi.Router) {
			r.Get("/", controllers.OrderDetail(p.Orders, logg))
			r.Get("/history", controllers.OrderHistory(p.Orders, logg))
			r.Put("/status", controllers.AdminUpdateOrderStatus(p.Orders, logg))
		})
		r.Route("/inventory/{variantId}", func(r chi.Router) {
			r.Get("/", controllers.AdminGetStock(p.Inventory, logg))
			r.Put("/", controllers.AdminSetStock(p.Inventory, logg))
			r.Post("/restock", controllers.AdminRestock(p.Inventory, logg))
		})
	})

	return r
}
