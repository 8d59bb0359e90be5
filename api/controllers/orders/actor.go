package orders

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	internalorders "github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// actorFromRequest rebuilds the caller identity seeded by the auth middleware.
func actorFromRequest(r *http.Request) (internalorders.Actor, error) {
	ctx := r.Context()
	userID, err := uuid.Parse(strings.TrimSpace(middleware.UserIDFromContext(ctx)))
	if err != nil {
		return internalorders.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	role, err := enums.ParseActorRole(middleware.RoleFromContext(ctx))
	if err != nil {
		return internalorders.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "role context missing")
	}
	actor := internalorders.Actor{UserID: userID, Role: role}
	if raw := strings.TrimSpace(middleware.StoreIDFromContext(ctx)); raw != "" {
		storeID, err := uuid.Parse(raw)
		if err != nil {
			return internalorders.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid store context")
		}
		actor.StoreID = &storeID
	}
	return actor, nil
}

func parseOrderID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id").
			WithDetails(map[string]any{"orderId": "must be a uuid"})
	}
	return id, nil
}
