// Package authz decides whether a principal may perform an action on an item.
// Decide is pure: it never loads or mutates anything.
package authz

import "github.com/geocoder89/lostfound/internal/domain/user"

type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

type Decision bool

const (
	Deny  Decision = false
	Allow Decision = true
)

// Principal is the verified identity behind a request.
type Principal struct {
	ID   int64
	Role string
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == user.RoleAdmin
}

// Resource is what the engine needs to know about an item: its owner.
type Resource struct {
	OwnerID int64
}

// Decide applies the rules in order; anything that does not match an allow rule is denied.
// A nil principal means the request is unauthenticated.
func Decide(action Action, principal *Principal, resource *Resource) Decision {
	switch action {
	case ActionRead:
		return Allow

	case ActionCreate:
		return Decision(principal != nil)

	case ActionUpdate:
		if principal == nil {
			return Deny
		}
		if principal.IsAdmin() {
			return Allow
		}
		return Decision(resource != nil && resource.OwnerID == principal.ID)

	case ActionDelete:
		return Decision(principal.IsAdmin())

	default:
		return Deny
	}
}
