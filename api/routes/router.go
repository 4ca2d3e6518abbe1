package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sidaputra/dapurlink-backend/api/controllers"
	"github.com/sidaputra/dapurlink-backend/api/middleware"
	"github.com/sidaputra/dapurlink-backend/internal/auth"
	"github.com/sidaputra/dapurlink-backend/internal/cart"
	checkoutsvc "github.com/sidaputra/dapurlink-backend/internal/checkout"
	"github.com/sidaputra/dapurlink-backend/internal/delivery"
	"github.com/sidaputra/dapurlink-backend/internal/fulfillment"
	"github.com/sidaputra/dapurlink-backend/internal/notifications"
	"github.com/sidaputra/dapurlink-backend/internal/orders"
	"github.com/sidaputra/dapurlink-backend/internal/products"
	"github.com/sidaputra/dapurlink-backend/internal/users"
	"github.com/sidaputra/dapurlink-backend/pkg/config"
	"github.com/sidaputra/dapurlink-backend/pkg/db"
	"github.com/sidaputra/dapurlink-backend/pkg/enums"
	"github.com/sidaputra/dapurlink-backend/pkg/logger"
	pkgredis "github.com/sidaputra/dapurlink-backend/pkg/redis"
	"github.com/sidaputra/dapurlink-backend/pkg/storage"
)

// Deps carries everything the HTTP surface needs. Nil optional deps
// (redis, metrics registry) degrade gracefully.
type Deps struct {
	Cfg    *config.Config
	Logger *logger.Logger

	DB      db.Pinger
	Redis   *pkgredis.Client
	Store   storage.Store
	Metrics *prometheus.Registry

	Auth          auth.Service
	Cart          cart.Service
	Checkout      checkoutsvc.Service
	Orders        orders.Service
	Fulfillment   fulfillment.Service
	Delivery      delivery.Service
	Products      products.Service
	Users         users.Service
	Notifications notifications.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Cfg
	logg := deps.Logger

	// Typed nils must not reach the interface-valued middleware params.
	var idemStore pkgredis.IdempotencyStore
	var limiter middleware.RateLimiterStore
	if deps.Redis != nil {
		idemStore = deps.Redis
		limiter = deps.Redis
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readinessChecks(deps)))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.LoginRateLimit(cfg.RateLimit, limiter, logg)).
			Post("/login", controllers.AuthLogin(deps.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		// Kitchen surface.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.ActorRoleDapur))
			r.Post("/cart/items", controllers.CartAdd(deps.Cart, logg))
			r.Delete("/cart/items/{itemId}", controllers.CartRemove(deps.Cart, logg))
			r.Get("/cart", controllers.CartView(deps.Cart, logg))
			r.Post("/checkout", controllers.CheckoutExecute(deps.Checkout, logg))
			r.Get("/orders", controllers.DapurOrdersList(deps.Orders, logg))
			r.Get("/orders/{orderId}", controllers.DapurOrderGet(deps.Orders, logg))
		})

		// Delivery confirmation is shared between the kitchen receiving the
		// goods and the vendor-side actor on site.
		r.With(middleware.RequireRole(logg, enums.ActorRoleDapur, enums.ActorRoleVendor, enums.ActorRoleDriver)).
			Post("/orders/{orderId}/confirm-delivery", controllers.DeliveryConfirm(deps.Delivery, logg))

		// Yayasan surface.
		r.Route("/yayasan", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.ActorRoleYayasan))
			r.Get("/orders/pending", controllers.YayasanPendingOrders(deps.Orders, logg))
			r.Get("/orders/{orderId}", controllers.YayasanOrderDetail(deps.Orders, logg))
			r.Post("/orders/{orderId}/approve", controllers.YayasanOrderApprove(deps.Orders, logg))
			r.Post("/orders/{orderId}/reject", controllers.YayasanOrderReject(deps.Orders, logg))
			r.Post("/orders/{orderId}/complete", controllers.YayasanOrderComplete(deps.Orders, logg))
			r.Get("/delivery-confirmations", controllers.YayasanDeliveryConfirmations(deps.Delivery, logg))
			r.Post("/members", controllers.YayasanMemberCreate(deps.Users, logg))
			r.Get("/members", controllers.YayasanMembersList(deps.Users, logg))
			r.Delete("/members/{userId}", controllers.YayasanMemberDeactivate(deps.Users, logg))
		})

		// Vendor surface, shared with drivers for the fulfillment flow.
		r.Route("/vendor", func(r chi.Router) {
			r.Use(middleware.RequireVendorContext(logg))
			r.Get("/orders", controllers.VendorOrdersList(deps.Fulfillment, logg))
			r.Post("/orders/{orderId}/status", controllers.VendorOrderStatus(deps.Fulfillment, logg))
			r.Post("/orders/{orderId}/shipment", controllers.VendorOrderShipment(deps.Fulfillment, logg))
			r.Post("/drivers", controllers.VendorDriverCreate(deps.Users, logg))

			// Catalog management stays vendor only.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.ActorRoleVendor))
				r.Get("/products", controllers.VendorProductsList(deps.Products, logg))
				r.Post("/products", controllers.VendorProductCreate(deps.Products, logg))
				r.Patch("/products/{productId}", controllers.VendorProductUpdate(deps.Products, logg))
				r.Delete("/products/{productId}", controllers.VendorProductDelete(deps.Products, logg))
			})
		})

		// Any authenticated role.
		r.Get("/market/products", controllers.MarketProducts(deps.Products, logg))
		r.Get("/market/products/{productId}", controllers.MarketProduct(deps.Products, logg))
		r.Get("/notifications", controllers.NotificationsList(deps.Notifications, logg))
		r.Post("/notifications/{notificationId}/read", controllers.NotificationRead(deps.Notifications, logg))
		r.Post("/notifications/read-all", controllers.NotificationsReadAll(deps.Notifications, logg))
	})

	return r
}

func readinessChecks(deps Deps) map[string]controllers.Pinger {
	checks := map[string]controllers.Pinger{}
	if deps.DB != nil {
		checks["database"] = deps.DB
	}
	if deps.Redis != nil {
		checks["redis"] = deps.Redis
	}
	if deps.Store != nil {
		checks["storage"] = deps.Store
	}
	return checks
}
