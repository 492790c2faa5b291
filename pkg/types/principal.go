package types

// Principal is the decoded request identity. It replaces ad-hoc boolean role
// flags on the request context; callers switch on Role instead.
type Principal struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}
