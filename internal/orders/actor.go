package orders

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
)

// Actor is the authenticated caller of an order operation.
type Actor struct {
	UserID  uuid.UUID
	StoreID *uuid.UUID
	Role    enums.ActorRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == enums.ActorRoleAdmin
}

// Ref converts the actor for outbox envelopes.
func (a Actor) Ref() *outbox.ActorRef {
	if a.UserID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: a.UserID, StoreID: a.StoreID, Role: a.Role}
}

// SystemActor is used by webhooks and scheduled jobs.
var SystemActor = Actor{Role: enums.ActorRoleSystem}
