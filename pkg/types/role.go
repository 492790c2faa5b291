package types

// Role is the single enumerated user variant. Payable roles carry a billing
// plan in config; admin and marketing never hold a subscription.
type Role string

const (
	RoleAgent           Role = "agent"
	RoleServiceProvider Role = "service_provider"
	RoleAdmin           Role = "admin"
	RoleMarketing       Role = "marketing"
)

// ParseRole normalizes the role strings accepted on the wire. The legacy
// frontend sends both "service" and "service-provider" for the same role.
func ParseRole(s string) (Role, bool) {
	switch s {
	case "agent":
		return RoleAgent, true
	case "service", "service-provider", "service_provider":
		return RoleServiceProvider, true
	case "admin":
		return RoleAdmin, true
	case "marketing":
		return RoleMarketing, true
	default:
		return "", false
	}
}

// Payable reports whether the role is gated behind a paid subscription.
func (r Role) Payable() bool {
	return r == RoleAgent || r == RoleServiceProvider
}
