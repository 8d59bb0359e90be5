// Package auth verifies the HS256 access tokens issued by the identity
// provider. Minting exists for local tooling and tests that share the secret.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

var (
	ErrSecretRequired = errors.New("jwt secret is required")
	ErrStoreRequired  = errors.New("seller tokens require a store id")
)

// AccessTokenPayload is the identity a token asserts.
type AccessTokenPayload struct {
	UserID  uuid.UUID
	StoreID *uuid.UUID
	Role    enums.ActorRole
	// JTI defaults to a random uuid.
	JTI string
}

// AccessTokenClaims is the bearer token presented to the API.
type AccessTokenClaims struct {
	UserID  uuid.UUID       `json:"user_id"`
	StoreID *uuid.UUID      `json:"store_id,omitempty"`
	Role    enums.ActorRole `json:"role"`
	jwt.RegisteredClaims
}

func (p AccessTokenPayload) validate() error {
	switch {
	case p.UserID == uuid.Nil:
		return errors.New("user id is required")
	case !p.Role.IsValid():
		return fmt.Errorf("invalid actor role %q", p.Role)
	case p.Role == enums.ActorRoleSeller && p.StoreID == nil:
		return ErrStoreRequired
	}
	return nil
}

func MintAccessToken(cfg config.JWTConfig, now time.Time, p AccessTokenPayload) (string, error) {
	if cfg.Secret == "" {
		return "", ErrSecretRequired
	}
	if cfg.Issuer == "" || cfg.ExpirationMinutes <= 0 {
		return "", errors.New("jwt issuer and a positive expiration are required")
	}
	if err := p.validate(); err != nil {
		return "", err
	}
	if p.JTI == "" {
		p.JTI = uuid.NewString()
	}

	ttl := time.Duration(cfg.ExpirationMinutes) * time.Minute
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessTokenClaims{
		UserID:  p.UserID,
		StoreID: p.StoreID,
		Role:    p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        p.JTI,
			Issuer:    cfg.Issuer,
			Subject:   p.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken verifies signature, issuer and expiry, then checks the
// identity claims the API relies on.
func ParseAccessToken(cfg config.JWTConfig, raw string) (*AccessTokenClaims, error) {
	if cfg.Secret == "" {
		return nil, ErrSecretRequired
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.Leeway),
	)
	claims := new(AccessTokenClaims)
	if _, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(cfg.Secret), nil
	}); err != nil {
		return nil, err
	}

	payload := AccessTokenPayload{UserID: claims.UserID, StoreID: claims.StoreID, Role: claims.Role}
	if err := payload.validate(); err != nil {
		return nil, fmt.Errorf("token claims: %w", err)
	}
	return claims, nil
}
