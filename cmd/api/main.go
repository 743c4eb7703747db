package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/farmdirect/farmdirect-backend/api/routes"
	"github.com/farmdirect/farmdirect-backend/internal/cart"
	"github.com/farmdirect/farmdirect-backend/internal/checkout"
	"github.com/farmdirect/farmdirect-backend/internal/orders"
	"github.com/farmdirect/farmdirect-backend/internal/payments"
	"github.com/farmdirect/farmdirect-backend/internal/products"
	"github.com/farmdirect/farmdirect-backend/internal/webhooks"
	razorpaywebhook "github.com/farmdirect/farmdirect-backend/internal/webhooks/razorpay"
	stripewebhook "github.com/farmdirect/farmdirect-backend/internal/webhooks/stripe"
	"github.com/farmdirect/farmdirect-backend/pkg/config"
	"github.com/farmdirect/farmdirect-backend/pkg/db"
	"github.com/farmdirect/farmdirect-backend/pkg/logger"
	"github.com/farmdirect/farmdirect-backend/pkg/metrics"
	"github.com/farmdirect/farmdirect-backend/pkg/migrate"
	"github.com/farmdirect/farmdirect-backend/pkg/razorpay"
	"github.com/farmdirect/farmdirect-backend/pkg/redis"
	"github.com/farmdirect/farmdirect-backend/pkg/stripe"
)

const webhookDedupTTL = 24 * time.Hour

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	paymentMetrics := metrics.NewPaymentMetrics(registry)

	razorpayClient, err := razorpay.NewClient(context.Background(), cfg.Razorpay, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create razorpay client", err)
		os.Exit(1)
	}
	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe client", err)
		os.Exit(1)
	}

	productsRepo := products.NewRepository(dbClient.DB())
	cartRepo := cart.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())

	cartService, err := cart.NewService(cartRepo, productsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}
	checkoutService, err := checkout.NewService(dbClient, cartService, cartRepo, ordersRepo, razorpayClient, stripeClient, logg, paymentMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}
	ordersService, err := orders.NewService(ordersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}
	paymentsService, err := payments.NewService(ordersRepo, razorpayClient, logg, paymentMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	razorpayWebhookService, err := razorpaywebhook.NewService(razorpaywebhook.ServiceParams{
		OrdersRepo: ordersRepo,
		Logger:     logg,
		Metrics:    paymentMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create razorpay webhook service", err)
		os.Exit(1)
	}
	stripeWebhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		OrdersRepo: ordersRepo,
		Logger:     logg,
		Metrics:    paymentMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe webhook service", err)
		os.Exit(1)
	}

	razorpayGuard, err := webhooks.NewIdempotencyGuard(redisClient, webhookDedupTTL, "razorpay")
	if err != nil {
		logg.Error(context.Background(), "failed to create razorpay idempotency guard", err)
		os.Exit(1)
	}
	stripeGuard, err := webhooks.NewIdempotencyGuard(redisClient, webhookDedupTTL, "stripe")
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe idempotency guard", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, registry, routes.Services{
			Cart:                 cartService,
			Checkout:             checkoutService,
			Orders:               ordersService,
			Payments:             paymentsService,
			RazorpayClient:       razorpayClient,
			StripeClient:         stripeClient,
			RazorpayWebhook:      razorpayWebhookService,
			StripeWebhook:        stripeWebhookService,
			RazorpayWebhookGuard: razorpayGuard,
			StripeWebhookGuard:   stripeGuard,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
