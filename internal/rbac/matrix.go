package rbac

import (
	"strings"

	"github.com/fixpoint-pos/fixpoint/internal/apperr"
)

// HasPermission reports whether the role grants the given resource/action
// capability. Superuser roles are allowed unconditionally; everything else is
// a flat two-level lookup with default-deny on any missing key.
func HasPermission(role *Role, resource, action string) bool {
	if role == nil {
		return false
	}
	if role.IsSuperUser {
		return true
	}
	actions, ok := role.Permissions[resource]
	if !ok {
		return false
	}
	return actions[action]
}

// UpdatePermissions returns a new permission map with the single grant
// applied. The input map is never mutated; callers persist the result and
// swap the role's map reference in one step.
func UpdatePermissions(current PermissionMap, resource, action string, granted bool) (PermissionMap, error) {
	if strings.TrimSpace(resource) == "" {
		return nil, apperr.MalformedArgument("resource")
	}
	if strings.TrimSpace(action) == "" {
		return nil, apperr.MalformedArgument("action")
	}
	next := current.Clone()
	actions, ok := next[resource]
	if !ok {
		actions = make(map[string]bool, 1)
		next[resource] = actions
	}
	actions[action] = granted
	return next, nil
}
