package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

var errProjectIDRequired = errors.New("gcp project id is required")

// Client publishes order events to Pub/Sub. Publishers are created once per
// topic with message ordering on, so events sharing an ordering key arrive
// in commit order.
type Client struct {
	client    *pubsub.Client
	projectID string
	cfg       config.PubSubConfig

	mu         sync.Mutex
	publishers map[string]*pubsub.Publisher
}

// NewClient connects and checks that the orders topic (and subscription,
// when one is configured) exist.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(gcp.ProjectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}

	psClient, err := pubsub.NewClient(ctx, projectID, clientOptions(gcp)...)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	c := &Client{
		client:     psClient,
		projectID:  projectID,
		cfg:        cfg,
		publishers: map[string]*pubsub.Publisher{},
	}
	if err := c.Ping(ctx); err != nil {
		_ = psClient.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"project": projectID,
			"topic":   cfg.OrdersTopic,
		}), "pubsub client initialized")
	}
	return c, nil
}

// clientOptions prefers inline credentials, then a key file, then ADC.
func clientOptions(gcp config.GCPConfig) []option.ClientOption {
	if raw := strings.TrimSpace(gcp.CredentialsJSON); raw != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(raw))}
	}
	if path := strings.TrimSpace(gcp.ApplicationCredentials); path != "" {
		return []option.ClientOption{option.WithCredentialsFile(path)}
	}
	return nil
}

// Publisher returns the cached publisher for a topic id or resource name.
func (c *Client) Publisher(name string) *pubsub.Publisher {
	if c == nil || c.client == nil {
		return nil
	}
	full := resourceName(c.projectID, "topics", name)
	if full == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if pub, ok := c.publishers[full]; ok {
		return pub
	}
	pub := c.client.Publisher(full)
	pub.EnableMessageOrdering = true
	c.publishers[full] = pub
	return pub
}

// Ping checks the orders topic, plus the orders subscription when set.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errors.New("pubsub client not initialized")
	}
	if topic := resourceName(c.projectID, "topics", c.cfg.OrdersTopic); topic != "" {
		_, err := c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: topic})
		if err := describeLookupErr("topic", c.cfg.OrdersTopic, err); err != nil {
			return err
		}
	}
	if sub := resourceName(c.projectID, "subscriptions", c.cfg.OrdersSubscription); sub != "" {
		_, err := c.client.SubscriptionAdminClient.GetSubscription(ctx, &pubsubpb.GetSubscriptionRequest{Subscription: sub})
		if err := describeLookupErr("subscription", c.cfg.OrdersSubscription, err); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes and stops every publisher, then closes the connection.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	c.mu.Lock()
	for name, pub := range c.publishers {
		pub.Stop()
		delete(c.publishers, name)
	}
	c.mu.Unlock()
	return c.client.Close()
}

func describeLookupErr(kind, name string, err error) error {
	switch {
	case err == nil:
		return nil
	case status.Code(err) == codes.NotFound:
		return fmt.Errorf("pubsub %s %q does not exist", kind, name)
	default:
		return fmt.Errorf("checking pubsub %s %q: %w", kind, name, err)
	}
}

// resourceName expands a short id to projects/<p>/<collection>/<id>. Full
// resource names pass through.
func resourceName(projectID, collection, name string) string {
	n := strings.TrimSpace(name)
	if n == "" {
		return ""
	}
	if strings.HasPrefix(n, "projects/") && strings.Contains(n, "/"+collection+"/") {
		return n
	}
	if projectID = strings.TrimSpace(projectID); projectID == "" {
		return ""
	}
	return "projects/" + projectID + "/" + collection + "/" + n
}
