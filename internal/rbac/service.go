package rbac

import (
	"sort"
	"strings"

	"github.com/denimstock/denimstock/internal/shared"
)

// Service resolves role names into permission sets. Roles are fixed so the
// table is built once at construction.
type Service struct {
	grants map[string][]string
}

// NewService constructs a Service with the built-in role table.
func NewService() *Service {
	staff := shared.StaffScopes()
	admin := append(append([]string{}, staff...), shared.AdminScopes()...)
	owner := append(append([]string{}, admin...), shared.OwnerScopes()...)
	return &Service{grants: map[string][]string{
		shared.RoleStaff: staff,
		shared.RoleHR:    admin,
		shared.RoleOwner: owner,
	}}
}

// EffectivePermissions returns the permissions granted to role. Unknown roles
// hold nothing.
func (s *Service) EffectivePermissions(role string) []string {
	perms := s.grants[strings.ToLower(strings.TrimSpace(role))]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// IsAdmin reports whether role carries the administrative scopes.
func (s *Service) IsAdmin(role string) bool {
	return hasAllPermissions(s.EffectivePermissions(role), shared.AdminScopes())
}

// ListPermissions returns the permission catalogue.
func (s *Service) ListPermissions() []Permission {
	out := make([]Permission, len(catalogue))
	copy(out, catalogue)
	return out
}

// ListGrants returns every role with its permissions, ordered by role name.
func (s *Service) ListGrants() []RoleGrant {
	grants := make([]RoleGrant, 0, len(s.grants))
	for role := range s.grants {
		perms := s.EffectivePermissions(role)
		sort.Strings(perms)
		grants = append(grants, RoleGrant{Role: role, Permissions: perms})
	}
	sort.Slice(grants, func(i, j int) bool { return grants[i].Role < grants[j].Role })
	return grants
}

// ValidRole reports whether role is one of the built-in roles.
func ValidRole(role string) bool {
	switch role {
	case shared.RoleOwner, shared.RoleHR, shared.RoleStaff:
		return true
	}
	return false
}
