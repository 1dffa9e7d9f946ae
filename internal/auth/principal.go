package auth

import "strings"

// Principal is the authenticated actor materialized once per request from
// session claims. Only the active role governs authorization decisions;
// the full held set exists so the client can switch roles.
type Principal struct {
	UserID         string
	OrganizationID string
	Roles          []string
	ActiveRole     string
}

// PrincipalFromClaims builds a Principal from validated claims.
func PrincipalFromClaims(claims *Claims) Principal {
	return Principal{
		UserID:         claims.Subject,
		OrganizationID: claims.OrganizationID,
		Roles:          claims.Roles,
		ActiveRole:     claims.ActiveRole,
	}
}

// HoldsRole reports whether role is in the principal's held set,
// regardless of which role is currently active.
func (p Principal) HoldsRole(role string) bool {
	role = strings.TrimSpace(strings.ToLower(role))
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}
