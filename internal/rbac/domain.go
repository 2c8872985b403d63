package rbac

import "time"

// PermissionMap is a two-level resource → action → granted mapping. Absence
// of a resource or action means denied, never implicit allow.
type PermissionMap map[string]map[string]bool

// Role represents a named permission grouping assigned to employees.
type Role struct {
	ID          int64
	Name        string
	Permissions PermissionMap
	IsSuperUser bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Clone returns a deep copy of the permission map. Updates always operate on
// a copy and swap the whole map so concurrent readers never observe a
// partially-written state.
func (p PermissionMap) Clone() PermissionMap {
	out := make(PermissionMap, len(p))
	for resource, actions := range p {
		cloned := make(map[string]bool, len(actions))
		for action, granted := range actions {
			cloned[action] = granted
		}
		out[resource] = cloned
	}
	return out
}

// Built-in role names seeded at provisioning time.
const (
	RoleOwner      = "Owner"
	RoleAdmin      = "Admin"
	RoleManager    = "Manager"
	RoleTechnician = "Technician"
	RoleCashier    = "Cashier"
)
