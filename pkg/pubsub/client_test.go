package pubsub

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

func TestResourceName(t *testing.T) {
	require.Equal(t, "projects/sf-prod/topics/sf-order-events", resourceName("sf-prod", "topics", "sf-order-events"))
	require.Equal(t, "projects/other/topics/x", resourceName("sf-prod", "topics", "projects/other/topics/x"))
	require.Equal(t, "projects/sf-prod/subscriptions/orders-sub", resourceName("sf-prod", "subscriptions", " orders-sub "))
	require.Empty(t, resourceName("sf-prod", "subscriptions", ""))
	require.Empty(t, resourceName("", "topics", "x"))
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	require.Nil(t, c.Publisher("x"))
	require.Error(t, c.Ping(nil))
	require.NoError(t, c.Close())
}

func TestDescribeLookupErr(t *testing.T) {
	require.NoError(t, describeLookupErr("topic", "t", nil))
	require.EqualError(t, describeLookupErr("topic", "t", status.Error(codes.NotFound, "gone")), `pubsub topic "t" does not exist`)
	require.ErrorContains(t, describeLookupErr("subscription", "s", errors.New("deadline")), "deadline")
}

func TestClientOptionsPreferInlineCredentials(t *testing.T) {
	require.Len(t, clientOptions(config.GCPConfig{CredentialsJSON: `{"type":"service_account"}`, ApplicationCredentials: "/tmp/key.json"}), 1)
	require.Len(t, clientOptions(config.GCPConfig{ApplicationCredentials: "/tmp/key.json"}), 1)
	require.Empty(t, clientOptions(config.GCPConfig{}))
}
