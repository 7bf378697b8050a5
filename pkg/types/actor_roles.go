package types

import "strings"

const (
	// ActorRoleSystemAdmin represents site-wide administrators with unrestricted access.
	ActorRoleSystemAdmin = "system_admin"
	// ActorRoleCompanyAdmin represents administrators scoped to a company.
	ActorRoleCompanyAdmin = "company_admin"
	// ActorRoleSafetyManager represents the safety officers who author and review plans.
	ActorRoleSafetyManager = "safety_manager"
	// ActorRoleSupport represents support agents limited to read-only scopes.
	ActorRoleSupport = "support"
)

// RoleName normalizes the actor role for comparisons.
func (a ActorRef) RoleName() string {
	return normalizeRole(a.Type)
}

// IsRole reports whether the actor matches the provided role.
func (a ActorRef) IsRole(role string) bool {
	role = normalizeRole(role)
	if role == "" {
		return a.RoleName() == ""
	}
	return a.RoleName() == role
}

// IsSupport reports whether the actor should be treated as a support agent.
func (a ActorRef) IsSupport() bool {
	return a.IsRole(ActorRoleSupport)
}

// IsCompanyAdmin reports whether the actor is scoped as a company administrator.
func (a ActorRef) IsCompanyAdmin() bool {
	return a.IsRole(ActorRoleCompanyAdmin)
}

// IsSystemAdmin reports whether the actor is a global/system administrator.
func (a ActorRef) IsSystemAdmin() bool {
	return a.IsRole(ActorRoleSystemAdmin)
}

func normalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}
