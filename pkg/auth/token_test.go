package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "storefront", ExpirationMinutes: 30}

func TestMintThenParseKeepsIdentity(t *testing.T) {
	now := time.Now().UTC()
	userID, storeID := uuid.New(), uuid.New()

	token, err := MintAccessToken(testJWT, now, AccessTokenPayload{UserID: userID, StoreID: &storeID, Role: enums.ActorRoleSeller, JTI: "jti-1"})
	require.NoError(t, err)

	claims, err := ParseAccessToken(testJWT, token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	require.NotNil(t, claims.StoreID)
	assert.Equal(t, storeID, *claims.StoreID)
	assert.Equal(t, enums.ActorRoleSeller, claims.Role)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, "jti-1", claims.ID)
	assert.WithinDuration(t, now.Add(30*time.Minute), claims.ExpiresAt.Time, time.Second)
}

func TestParseAccessTokenRejects(t *testing.T) {
	buyer := AccessTokenPayload{UserID: uuid.New(), Role: enums.ActorRoleBuyer}
	valid, err := MintAccessToken(testJWT, time.Now(), buyer)
	require.NoError(t, err)
	expired, err := MintAccessToken(testJWT, time.Now().Add(-time.Hour), buyer)
	require.NoError(t, err)

	otherIssuer := testJWT
	otherIssuer.Issuer = "someone-else"
	otherSecret := testJWT
	otherSecret.Secret = "rotated"

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, AccessTokenClaims{
		UserID:           buyer.UserID,
		Role:             buyer.Role,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: testJWT.Issuer, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	cases := []struct {
		name  string
		cfg   config.JWTConfig
		token string
		is    error
	}{
		{name: "wrong secret", cfg: otherSecret, token: valid, is: jwt.ErrTokenSignatureInvalid},
		{name: "expired", cfg: testJWT, token: expired, is: jwt.ErrTokenExpired},
		{name: "wrong issuer", cfg: otherIssuer, token: valid, is: jwt.ErrTokenInvalidIssuer},
		{name: "alg none", cfg: testJWT, token: noneAlg, is: jwt.ErrTokenSignatureInvalid},
		{name: "no secret", cfg: config.JWTConfig{Issuer: "storefront"}, token: valid, is: ErrSecretRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseAccessToken(tc.cfg, tc.token)
			require.ErrorIs(t, err, tc.is)
		})
	}
}

func TestParseAccessTokenHonoursLeeway(t *testing.T) {
	cfg := testJWT
	cfg.ExpirationMinutes = 1
	token, err := MintAccessToken(cfg, time.Now().Add(-70*time.Second), AccessTokenPayload{UserID: uuid.New(), Role: enums.ActorRoleBuyer})
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, token)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)

	cfg.Leeway = 30 * time.Second
	_, err = ParseAccessToken(cfg, token)
	require.NoError(t, err)
}

func TestMintAccessTokenValidatesPayload(t *testing.T) {
	cases := map[string]AccessTokenPayload{
		"missing user":      {Role: enums.ActorRoleBuyer},
		"unknown role":      {UserID: uuid.New(), Role: "owner"},
		"seller sans store": {UserID: uuid.New(), Role: enums.ActorRoleSeller},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := MintAccessToken(testJWT, time.Now(), p)
			require.Error(t, err)
		})
	}

	_, err := MintAccessToken(testJWT, time.Now(), cases["seller sans store"])
	require.ErrorIs(t, err, ErrStoreRequired)
}
