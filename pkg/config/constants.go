package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	OutboxSinkPubSub = "pubsub"
	OutboxSinkKafka  = "kafka"
)

const (
	EnvAppEnv   = "STOREFRONT_APP_ENV"
	EnvPort     = "STOREFRONT_APP_PORT"
	EnvLogLevel = "STOREFRONT_LOG_LEVEL"

	EnvDBDSN  = "STOREFRONT_DB_DSN"
	EnvDBHost = "STOREFRONT_DB_HOST"
	EnvDBUser = "STOREFRONT_DB_USER"
	EnvDBName = "STOREFRONT_DB_NAME"

	EnvRedisURL = "STOREFRONT_REDIS_URL"

	EnvJWTSecret  = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer  = "STOREFRONT_JWT_ISSUER"
	EnvJWTExpMins = "STOREFRONT_JWT_EXPIRATION_MINUTES"

	EnvShippingFeeCents = "STOREFRONT_CHECKOUT_SHIPPING_FEE_CENTS"
	EnvCheckoutAppID    = "STOREFRONT_CHECKOUT_APP_ID"

	EnvOTPTTL        = "STOREFRONT_OTP_TTL"
	EnvOTPMaxResends = "STOREFRONT_OTP_MAX_RESENDS"

	EnvOutboxSink   = "STOREFRONT_OUTBOX_SINK"
	EnvKafkaBrokers = "STOREFRONT_KAFKA_BROKERS"

	EnvCronUnpaidAfter = "STOREFRONT_CRON_UNPAID_AFTER"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
