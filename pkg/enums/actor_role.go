package enums

// ActorRole is the role claim carried by access tokens.
type ActorRole string

const (
	ActorRoleBuyer  ActorRole = "buyer"
	ActorRoleSeller ActorRole = "seller"
	ActorRoleAdmin  ActorRole = "admin"
	// ActorRoleSystem is used by workers acting without a user.
	ActorRoleSystem ActorRole = "system"
)

var actorRoles = []ActorRole{ActorRoleBuyer, ActorRoleSeller, ActorRoleAdmin, ActorRoleSystem}

func (r ActorRole) String() string { return string(r) }

func (r ActorRole) IsValid() bool { return member(actorRoles, r) }

func ParseActorRole(value string) (ActorRole, error) {
	return parse(actorRoles, "actor role", value)
}
