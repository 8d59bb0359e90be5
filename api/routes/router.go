package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	ordercontrollers "github.com/angelmondragon/storefront-backend/api/controllers/orders"
	webhookcontrollers "github.com/angelmondragon/storefront-backend/api/controllers/webhooks"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/delivery"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

// RedisStore is the redis surface the HTTP layer needs.
type RedisStore interface {
	redis.IdempotencyStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Ping(ctx context.Context) error
}

type stripeSigner interface {
	SigningSecret() string
}

type razorpaySigner interface {
	WebhookSecret() string
}

// Deps are the services mounted by the API router. Gateway entries may be
// nil when that gateway is not configured; its webhook route is then absent.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Redis    RedisStore
	Gatherer prometheus.Gatherer

	Checkout checkout.Service
	Orders   orders.Service
	Delivery delivery.Service

	EventGuard      webhookcontrollers.EventGuard
	StripeSigner    stripeSigner
	StripeWebhook   webhookcontrollers.StripeWebhookService
	RazorpaySigner  razorpaySigner
	RazorpayWebhook webhookcontrollers.RazorpayWebhookService
}

// OTP endpoints are throttled per order on top of the per-order attempt cap.
var (
	otpVerifyPolicy = middleware.RateLimitPolicy{
		Name:   "otp-verify",
		Window: time.Minute,
		Rules: []middleware.RateRule{
			{Scope: "ip", Limit: 60, Key: middleware.ByClientIP},
			{Scope: "order", Limit: 10, Key: middleware.ByJSONField("orderId")},
		},
	}
	otpResendPolicy = middleware.RateLimitPolicy{
		Name:   "otp-resend",
		Window: time.Minute,
		Rules:  []middleware.RateRule{{Scope: "ip", Limit: 30, Key: middleware.ByClientIP}},
	}
)

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		chimw.RealIP,
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readinessChecks(deps), logg))
	})

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		if deps.StripeWebhook != nil && deps.StripeSigner != nil {
			r.Post("/stripe", webhookcontrollers.StripeWebhook(deps.StripeWebhook, deps.StripeSigner, deps.EventGuard, logg))
		}
		if deps.RazorpayWebhook != nil && deps.RazorpaySigner != nil {
			r.Post("/razorpay", webhookcontrollers.RazorpayWebhook(deps.RazorpayWebhook, deps.RazorpaySigner, deps.EventGuard, logg))
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Route("/api/v1/order", func(r chi.Router) {
			r.With(middleware.RequireRole(logg, enums.ActorRoleBuyer)).
				Post("/", ordercontrollers.PlaceOrder(deps.Checkout, logg))
			r.Post("/cancel", ordercontrollers.Cancel(deps.Orders, logg))
			r.With(middleware.RateLimit(otpResendPolicy, deps.Redis, logg)).
				Post("/resend-delivery-otp", ordercontrollers.ResendDeliveryOTP(deps.Delivery, logg))
			r.With(middleware.RateLimit(otpVerifyPolicy, deps.Redis, logg)).
				Post("/verify-delivery-otp", ordercontrollers.VerifyDeliveryOTP(deps.Delivery, logg))
			r.Get("/{orderId}", ordercontrollers.Get(deps.Orders, logg))
		})

		r.Route("/api/v1/store", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.ActorRoleSeller, enums.ActorRoleAdmin))
			r.Post("/order-status", ordercontrollers.UpdateStatus(deps.Orders, logg))
		})
	})

	return r
}

func readinessChecks(deps Deps) map[string]controllers.Pinger {
	checks := map[string]controllers.Pinger{}
	if deps.DB != nil {
		checks["db"] = deps.DB
	}
	if deps.Redis != nil {
		checks["redis"] = deps.Redis
	}
	return checks
}
