package verifier

import "strings"

// DefaultRoleAddresses are the generic mailbox names treated as role
// addresses when no override is configured.
var DefaultRoleAddresses = []string{"admin", "info", "support", "contact", "sales"}

// NewRoleSet builds the role-address lookup set from a list of local parts.
// Empty input falls back to DefaultRoleAddresses.
func NewRoleSet(roles []string) map[string]struct{} {
	if len(roles) == 0 {
		roles = DefaultRoleAddresses
	}

	set := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		role = strings.ToLower(strings.TrimSpace(role))
		if role != "" {
			set[role] = struct{}{}
		}
	}
	return set
}
