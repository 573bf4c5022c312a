package models

import "github.com/google/uuid"

// Role is the caller's role as verified by the upstream gateway. The engine
// trusts it; authentication itself happens outside this service.
type Role string

const (
	// RoleAgent is an ordinary booking agent, subject to the monthly
	// issuance cap.
	RoleAgent Role = "agent"
	// RoleAdminAgent is a booking agent exempt from the monthly cap.
	RoleAdminAgent Role = "admin_agent"
	// RoleOperator is platform staff; may suspend, cancel and edit cards.
	RoleOperator Role = "operator"
)

// Actor is the verified caller identity supplied by the transport layer.
type Actor struct {
	ID   uuid.UUID `json:"id"`
	Role Role      `json:"role"`
}

func (a Actor) IsOperator() bool {
	return a.Role == RoleOperator
}

// IsAdminAgent reports whether the monthly issuance limit applies to this
// actor. Operators issue on behalf of the platform and are never capped.
func (a Actor) IsAdminAgent() bool {
	return a.Role == RoleAdminAgent || a.Role == RoleOperator
}

func ValidRole(r Role) bool {
	switch r {
	case RoleAgent, RoleAdminAgent, RoleOperator:
		return true
	default:
		return false
	}
}
