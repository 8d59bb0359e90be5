package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v83"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const (
	testEnv = "test"
	liveEnv = "live"
)

// keyPrefixes lists the secret and restricted key prefixes each mode accepts.
var keyPrefixes = map[string][]string{
	testEnv: {"sk_test_", "rk_test_"},
	liveEnv: {"sk_live_", "rk_live_"},
}

var (
	errAPIKeyRequired = errors.New("stripe api key is required")
	errSecretRequired = errors.New("stripe webhook secret is required")
)

// Client creates card checkout sessions and refunds, and holds the secret
// used to verify webhook deliveries.
type Client struct {
	api           *stripe.Client
	environment   string
	signingSecret string
}

func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	secret := strings.TrimSpace(cfg.Secret)
	switch {
	case apiKey == "":
		return nil, errAPIKeyRequired
	case secret == "":
		return nil, errSecretRequired
	}

	env := cfg.Environment()
	if err := checkKeyMode(env, apiKey); err != nil {
		return nil, err
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "stripe_env", env), "stripe client initialized")
	}
	return &Client{
		api:           stripe.NewClient(apiKey),
		environment:   env,
		signingSecret: secret,
	}, nil
}

func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// SigningSecret returns the webhook endpoint secret (whsec_...).
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.signingSecret
}

// checkKeyMode rejects a live key in test mode and the reverse.
func checkKeyMode(env, key string) error {
	prefixes, ok := keyPrefixes[env]
	if !ok {
		return fmt.Errorf("stripe environment must be %q or %q, got %q", testEnv, liveEnv, env)
	}
	for _, p := range prefixes {
		if strings.HasPrefix(key, p) {
			return nil
		}
	}
	return fmt.Errorf("stripe %s mode requires a key starting with %s", env, strings.Join(prefixes, " or "))
}

func (c *Client) ready() error {
	if c == nil || c.api == nil {
		return errors.New("stripe client not initialized")
	}
	return nil
}
