package middleware

import "context"

// Identity is the authenticated caller as read from the access token.
// StoreID is empty for buyers.
type Identity struct {
	UserID  string
	Role    string
	StoreID string
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the zero Identity for unauthenticated contexts.
func IdentityFromContext(ctx context.Context) Identity {
	if ctx == nil {
		return Identity{}
	}
	id, _ := ctx.Value(identityKey{}).(Identity)
	return id
}

func UserIDFromContext(ctx context.Context) string  { return IdentityFromContext(ctx).UserID }
func RoleFromContext(ctx context.Context) string    { return IdentityFromContext(ctx).Role }
func StoreIDFromContext(ctx context.Context) string { return IdentityFromContext(ctx).StoreID }

func WithUserID(ctx context.Context, userID string) context.Context {
	id := IdentityFromContext(ctx)
	id.UserID = userID
	return WithIdentity(ctx, id)
}

func WithRole(ctx context.Context, role string) context.Context {
	id := IdentityFromContext(ctx)
	id.Role = role
	return WithIdentity(ctx, id)
}

func WithStoreID(ctx context.Context, storeID string) context.Context {
	id := IdentityFromContext(ctx)
	id.StoreID = storeID
	return WithIdentity(ctx, id)
}
