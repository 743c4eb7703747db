package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/farmdirect/farmdirect-backend/api/controllers"
	webhookcontrollers "github.com/farmdirect/farmdirect-backend/api/controllers/webhooks"
	"github.com/farmdirect/farmdirect-backend/api/middleware"
	cartsvc "github.com/farmdirect/farmdirect-backend/internal/cart"
	checkoutsvc "github.com/farmdirect/farmdirect-backend/internal/checkout"
	ordersvc "github.com/farmdirect/farmdirect-backend/internal/orders"
	paymentsvc "github.com/farmdirect/farmdirect-backend/internal/payments"
	"github.com/farmdirect/farmdirect-backend/internal/webhooks"
	"github.com/farmdirect/farmdirect-backend/pkg/config"
	"github.com/farmdirect/farmdirect-backend/pkg/db"
	"github.com/farmdirect/farmdirect-backend/pkg/logger"
	"github.com/farmdirect/farmdirect-backend/pkg/razorpay"
	"github.com/farmdirect/farmdirect-backend/pkg/redis"
	"github.com/farmdirect/farmdirect-backend/pkg/stripe"
)

// Services bundles everything the router wires into handlers.
type Services struct {
	Cart     cartsvc.Service
	Checkout checkoutsvc.Service
	Orders   ordersvc.Service
	Payments paymentsvc.Service

	RazorpayClient *razorpay.Client
	StripeClient   *stripe.Client

	RazorpayWebhook      webhookcontrollers.RazorpayWebhookService
	StripeWebhook        webhookcontrollers.StripeWebhookService
	RazorpayWebhookGuard *webhooks.IdempotencyGuard
	StripeWebhookGuard   *webhooks.IdempotencyGuard
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	registry *prometheus.Registry,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/razorpay", webhookcontrollers.RazorpayWebhook(svcs.RazorpayWebhook, svcs.RazorpayClient, svcs.RazorpayWebhookGuard, logg))
		r.Post("/stripe", webhookcontrollers.StripeWebhook(svcs.StripeWebhook, svcs.StripeClient, svcs.StripeWebhookGuard, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(svcs.Cart, logg))
			r.Post("/", controllers.CartAdd(svcs.Cart, logg))
			r.Patch("/{productId}", controllers.CartUpdate(svcs.Cart, logg))
			r.Delete("/{productId}", controllers.CartRemove(svcs.Cart, logg))
		})

		r.Post("/checkout", controllers.Checkout(svcs.Checkout, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(svcs.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(svcs.Orders, logg))
		})

		r.Route("/payments", func(r chi.Router) {
			r.Get("/config", controllers.PaymentConfig(svcs.StripeClient, svcs.RazorpayClient, logg))
			r.Post("/verify", controllers.PaymentVerify(svcs.Payments, logg))
			r.Get("/{orderId}/qr-code", controllers.PaymentQRCode(svcs.Payments, logg))
			r.Get("/{orderId}/status", controllers.PaymentStatus(svcs.Payments, logg))
		})
	})

	return r
}
