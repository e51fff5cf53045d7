package domain

import "strings"

// Role is a member's role inside one organization.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleMember  Role = "MEMBER"
)

// Roles lists every role from highest to lowest rank.
var Roles = []Role{RoleAdmin, RoleManager, RoleMember}

var roleRank = map[Role]int{
	RoleAdmin:   3,
	RoleManager: 2,
	RoleMember:  1,
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// ParseRole accepts a role name in any case.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	return r, r.Valid()
}

// HasRole reports whether actual is exactly one of allowed.
func HasRole(actual Role, allowed ...Role) bool {
	for _, r := range allowed {
		if r == actual {
			return true
		}
	}
	return false
}

// HasAtLeastRole reports whether actual ranks at or above minimum.
// Unknown roles rank below every known role.
func HasAtLeastRole(actual, minimum Role) bool {
	return roleRank[actual] >= roleRank[minimum] && roleRank[actual] > 0
}
