package auth

import "github.com/Abhishekkatale/CRM-Musitech/internal/domain"

// HasPermission evaluates whether a role with the given permission map
// may perform an action on a module. Pure function, no I/O.
//
// Admins and clients are unconditionally allowed. Subusers are allowed
// only if the module grants the exact action or the per-module "admin"
// wildcard. Everything else, including an unrecognized role or a nil
// permission map where one is required, is denied.
func HasPermission(role domain.Role, perms domain.PermissionMap, module, action string) bool {
	switch role {
	case domain.RoleAdmin:
		return true
	case domain.RoleClient:
		return true
	case domain.RoleSubuser:
		if perms == nil {
			return false
		}
		return perms.Allows(module, action)
	}
	return false
}
