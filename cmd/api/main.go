package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/storefront-backend/api/routes"
	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/coupons"
	"github.com/angelmondragon/storefront-backend/internal/delivery"
	"github.com/angelmondragon/storefront-backend/internal/inventory"
	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/settlement"
	"github.com/angelmondragon/storefront-backend/internal/stores"
	"github.com/angelmondragon/storefront-backend/internal/users"
	razorpaywebhook "github.com/angelmondragon/storefront-backend/internal/webhooks/razorpay"
	stripewebhook "github.com/angelmondragon/storefront-backend/internal/webhooks/stripe"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/mailer"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/storefront-backend/pkg/razorpay"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/angelmondragon/storefront-backend/pkg/stripe"
)

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
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
		Console:     cfg.App.ConsoleLogs(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	orderMetrics := metrics.NewOrderMetrics(registry)

	conn := dbClient.DB()
	orderRepo := orders.NewRepository(conn)
	userRepo := users.NewRepository(conn)
	storeRepo := stores.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	ledger := inventory.NewLedger(conn)
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), logg)

	notifier, err := notifications.NewNotifier(mailer.New(cfg.SMTP, logg), logg)
	if err != nil {
		logg.Error(ctx, "failed to create notifier", err)
		os.Exit(1)
	}

	checkoutDeps := checkout.Deps{
		Tx:        dbClient,
		Orders:    orderRepo,
		Ledger:    ledger,
		Users:     userRepo,
		Addresses: address.NewRepository(conn),
		Coupons:   coupons.NewRepository(conn),
		Carts:     cartRepo,
		Outbox:    outboxSvc,
		Metrics:   orderMetrics,
		Logger:    logg,
	}
	routeDeps := routes.Deps{
		Config:   cfg,
		Logger:   logg,
		DB:       dbClient,
		Redis:    redisClient,
		Gatherer: registry,
	}

	var stripeClient *stripe.Client
	if cfg.Stripe.Enabled() {
		stripeClient, err = stripe.NewClient(ctx, cfg.Stripe, logg)
		if err != nil {
			logg.Error(ctx, "failed to create stripe client", err)
			os.Exit(1)
		}
		checkoutDeps.Stripe = stripeClient
	} else {
		logg.Warn(ctx, "stripe not configured; card checkout disabled")
	}

	var razorpayClient *razorpay.Client
	if cfg.Razorpay.Enabled() {
		razorpayClient, err = razorpay.NewClient(ctx, cfg.Razorpay, logg)
		if err != nil {
			logg.Error(ctx, "failed to create razorpay client", err)
			os.Exit(1)
		}
		checkoutDeps.Razorpay = razorpayClient
	} else {
		logg.Warn(ctx, "razorpay not configured; upi checkout disabled")
	}

	checkoutSvc, err := checkout.NewService(cfg.Checkout, checkoutDeps)
	if err != nil {
		logg.Error(ctx, "failed to create checkout service", err)
		os.Exit(1)
	}

	settlementSvc, err := settlement.NewService(settlement.Deps{
		Tx:       dbClient,
		Orders:   orderRepo,
		Carts:    cartRepo,
		Users:    userRepo,
		Outbox:   outboxSvc,
		Receipts: notifier,
		Metrics:  orderMetrics,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create settlement service", err)
		os.Exit(1)
	}

	deliverySvc, err := delivery.NewService(cfg.OTP, delivery.Deps{
		Tx:      dbClient,
		Orders:  orderRepo,
		Users:   userRepo,
		Stores:  storeRepo,
		Outbox:  outboxSvc,
		Mailer:  notifier,
		Limiter: redisClient,
		Metrics: orderMetrics,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create delivery service", err)
		os.Exit(1)
	}

	ordersSvc, err := orders.NewService(orderRepo, dbClient, outboxSvc, ledger, storeRepo,
		orders.WithDeliveryIssuer(deliverySvc),
		orders.WithMetrics(orderMetrics),
		orders.WithLogger(logg),
	)
	if err != nil {
		logg.Error(ctx, "failed to create orders service", err)
		os.Exit(1)
	}

	guard, err := idempotency.NewManager(redisClient, cfg.Outbox.IdempotencyTTL)
	if err != nil {
		logg.Error(ctx, "failed to create webhook idempotency manager", err)
		os.Exit(1)
	}

	routeDeps.Checkout = checkoutSvc
	routeDeps.Orders = ordersSvc
	routeDeps.Delivery = deliverySvc
	routeDeps.EventGuard = guard

	if stripeClient != nil {
		stripeWebhookSvc, err := stripewebhook.NewService(stripewebhook.ServiceParams{
			Settlement: settlementSvc,
			AppID:      cfg.Checkout.AppID,
			Metrics:    orderMetrics,
			Logger:     logg,
		})
		if err != nil {
			logg.Error(ctx, "failed to create stripe webhook service", err)
			os.Exit(1)
		}
		routeDeps.StripeSigner = stripeClient
		routeDeps.StripeWebhook = stripeWebhookSvc
	}

	if razorpayClient != nil {
		razorpayWebhookSvc, err := razorpaywebhook.NewService(razorpaywebhook.ServiceParams{
			Settlement: settlementSvc,
			Orders:     orderRepo,
			AppID:      cfg.Checkout.AppID,
			Metrics:    orderMetrics,
			Logger:     logg,
		})
		if err != nil {
			logg.Error(ctx, "failed to create razorpay webhook service", err)
			os.Exit(1)
		}
		routeDeps.RazorpaySigner = razorpayClient
		routeDeps.RazorpayWebhook = razorpayWebhookSvc
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(routeDeps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}
