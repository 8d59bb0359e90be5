package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Checkout     CheckoutConfig
	OTP          OTPConfig
	Stripe       StripeConfig
	Razorpay     RazorpayConfig
	SMTP         SMTPConfig
	Outbox       OutboxConfig
	PubSub       PubSubConfig
	Kafka        KafkaConfig
	GCP          GCPConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Outbox.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"STOREFRONT_LOG_FORMAT" default:"json"`

	// CORSOrigins is a comma separated allow list.
	CORSOrigins []string `envconfig:"STOREFRONT_CORS_ORIGINS" default:"http://localhost:3000"`
}

// ConsoleLogs reports whether logs should be human readable instead of JSON.
func (a AppConfig) ConsoleLogs() bool {
	return strings.EqualFold(strings.TrimSpace(a.LogFormat), "console")
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"STOREFRONT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"STOREFRONT_DB_DSN"`
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STOREFRONT_DB_HOST"`
	LegacyPort     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOREFRONT_DB_USER"`
	LegacyPassword string `envconfig:"STOREFRONT_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOREFRONT_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	// SlowQuery is the duration above which statements are logged at warn.
	SlowQuery time.Duration `envconfig:"STOREFRONT_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig describes the tokens minted by the identity provider. The API only
// verifies them.
type JWTConfig struct {
	Secret            string        `envconfig:"STOREFRONT_JWT_SECRET" required:"true"`
	Issuer            string        `envconfig:"STOREFRONT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int           `envconfig:"STOREFRONT_JWT_EXPIRATION_MINUTES" default:"60"`
	Leeway            time.Duration `envconfig:"STOREFRONT_JWT_LEEWAY" default:"30s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STOREFRONT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
}

type CheckoutConfig struct {
	ShippingFeeCents int64  `envconfig:"STOREFRONT_CHECKOUT_SHIPPING_FEE_CENTS" default:"5000"`
	Currency         string `envconfig:"STOREFRONT_CHECKOUT_CURRENCY" default:"inr"`
	AppID            string `envconfig:"STOREFRONT_CHECKOUT_APP_ID" default:"storefront"`
	SuccessURL       string `envconfig:"STOREFRONT_CHECKOUT_SUCCESS_URL" default:"http://localhost:3000/loading?nextUrl=orders"`
	CancelURL        string `envconfig:"STOREFRONT_CHECKOUT_CANCEL_URL" default:"http://localhost:3000/cart"`
}

type OTPConfig struct {
	Length           int           `envconfig:"STOREFRONT_OTP_LENGTH" default:"6"`
	TTL              time.Duration `envconfig:"STOREFRONT_OTP_TTL" default:"5m"`
	MaxResends       int           `envconfig:"STOREFRONT_OTP_MAX_RESENDS" default:"3"`
	MaxAttempts      int           `envconfig:"STOREFRONT_OTP_MAX_ATTEMPTS" default:"5"`
	ResendWindow     time.Duration `envconfig:"STOREFRONT_OTP_RESEND_WINDOW" default:"30s"`
	ArgonMemoryKB    int           `envconfig:"STOREFRONT_OTP_ARGON_MEMORY_KB" default:"19456"`
	ArgonTime        int           `envconfig:"STOREFRONT_OTP_ARGON_TIME" default:"2"`
	ArgonParallelism int           `envconfig:"STOREFRONT_OTP_ARGON_PARALLELISM" default:"1"`
	ArgonSaltLen     int           `envconfig:"STOREFRONT_OTP_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int           `envconfig:"STOREFRONT_OTP_ARGON_KEY_LEN" default:"32"`
}

type StripeConfig struct {
	APIKey string `envconfig:"STOREFRONT_STRIPE_API_KEY"`
	Secret string `envconfig:"STOREFRONT_STRIPE_SECRET"`
	Env    string `envconfig:"STOREFRONT_STRIPE_ENV" default:"test"`
}

// Enabled reports whether the Stripe credentials are configured.
func (s StripeConfig) Enabled() bool {
	return strings.TrimSpace(s.APIKey) != "" && strings.TrimSpace(s.Secret) != ""
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type RazorpayConfig struct {
	KeyID         string `envconfig:"STOREFRONT_RAZORPAY_KEY_ID"`
	KeySecret     string `envconfig:"STOREFRONT_RAZORPAY_KEY_SECRET"`
	WebhookSecret string `envconfig:"STOREFRONT_RAZORPAY_WEBHOOK_SECRET"`
}

// Enabled reports whether the Razorpay credentials are configured.
func (r RazorpayConfig) Enabled() bool {
	return strings.TrimSpace(r.KeyID) != "" && strings.TrimSpace(r.KeySecret) != ""
}

type SMTPConfig struct {
	Host     string `envconfig:"STOREFRONT_SMTP_HOST"`
	Port     int    `envconfig:"STOREFRONT_SMTP_PORT" default:"587"`
	Username string `envconfig:"STOREFRONT_SMTP_USERNAME"`
	Password string `envconfig:"STOREFRONT_SMTP_PASSWORD"`
	From     string `envconfig:"STOREFRONT_SMTP_FROM" default:"no-reply@storefront.local"`
	FromName string `envconfig:"STOREFRONT_SMTP_FROM_NAME" default:"Storefront"`
	TLS      bool   `envconfig:"STOREFRONT_SMTP_TLS" default:"true"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"STOREFRONT_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"STOREFRONT_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"STOREFRONT_OUTBOX_MAX_ATTEMPTS" default:"10"`
	Sink           string        `envconfig:"STOREFRONT_OUTBOX_SINK" default:"pubsub"`
	IdempotencyTTL time.Duration `envconfig:"STOREFRONT_OUTBOX_IDEMPOTENCY_TTL" default:"720h"`
}

func (o OutboxConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(o.Sink)) {
	case OutboxSinkPubSub, OutboxSinkKafka:
		return nil
	default:
		return fmt.Errorf("%s must be one of %q or %q", EnvOutboxSink, OutboxSinkPubSub, OutboxSinkKafka)
	}
}

// SinkName returns the normalized outbox sink.
func (o OutboxConfig) SinkName() string {
	return strings.ToLower(strings.TrimSpace(o.Sink))
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"STOREFRONT_PUBSUB_ORDERS_TOPIC" default:"sf-order-events"`
	OrdersSubscription string `envconfig:"STOREFRONT_PUBSUB_ORDERS_SUBSCRIPTION"`
}

type KafkaConfig struct {
	Brokers      []string      `envconfig:"STOREFRONT_KAFKA_BROKERS" default:"localhost:9092"`
	OrdersTopic  string        `envconfig:"STOREFRONT_KAFKA_ORDERS_TOPIC" default:"sf.order-events"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_KAFKA_WRITE_TIMEOUT" default:"10s"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"STOREFRONT_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"STOREFRONT_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"STOREFRONT_GOOGLE_APPLICATION_CREDENTIALS"`
}

type CronConfig struct {
	Interval          time.Duration `envconfig:"STOREFRONT_CRON_INTERVAL" default:"5m"`
	LockTTL           time.Duration `envconfig:"STOREFRONT_CRON_LOCK_TTL" default:"4m"`
	JobTimeout        time.Duration `envconfig:"STOREFRONT_CRON_JOB_TIMEOUT" default:"2m"`
	UnpaidAfter       time.Duration `envconfig:"STOREFRONT_CRON_UNPAID_AFTER" default:"24h"`
	RefundBatchSize   int           `envconfig:"STOREFRONT_CRON_REFUND_BATCH_SIZE" default:"25"`
	SweepBatchSize    int           `envconfig:"STOREFRONT_CRON_SWEEP_BATCH_SIZE" default:"200"`
	OutboxRetention   time.Duration `envconfig:"STOREFRONT_CRON_OUTBOX_RETENTION" default:"720h"`
	OutboxMinAttempts int           `envconfig:"STOREFRONT_CRON_OUTBOX_MIN_ATTEMPTS" default:"0"`
	OutboxBatchSize   int           `envconfig:"STOREFRONT_CRON_OUTBOX_BATCH_SIZE" default:"500"`
}

// IsSQLite reports whether the configured driver is the embedded sqlite one.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, "sqlite")
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
