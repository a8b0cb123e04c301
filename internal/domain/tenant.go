package domain

import "time"

// PermissionMap maps a module name to the actions granted on it.
// The "admin" action on a module grants every action on that module.
type PermissionMap map[string][]string

// PermissionAdmin is the per-module wildcard action.
const PermissionAdmin = "admin"

// Allows reports whether the map grants the action on the module.
// An absent module grants nothing.
func (p PermissionMap) Allows(module, action string) bool {
	actions, ok := p[module]
	if !ok {
		return false
	}
	for _, a := range actions {
		if a == action || a == PermissionAdmin {
			return true
		}
	}
	return false
}

// ClientRecord is the tenant workspace owned by a client-role profile.
type ClientRecord struct {
	ID           string
	ProfileID    string
	CompanyName  string
	ContactEmail string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SubuserRecord is a delegated account inside a client workspace.
type SubuserRecord struct {
	ID          string
	ProfileID   string
	ClientID    string
	RoleName    string
	Permissions PermissionMap
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Tenant holds the role-conditional tenant record for the current
// profile: the client row for role=client, the subuser row for
// role=subuser, neither for role=admin.
type Tenant struct {
	Client  *ClientRecord
	Subuser *SubuserRecord
}

// Matches reports whether the populated variant agrees with the role.
func (t Tenant) Matches(role Role) bool {
	switch role {
	case RoleAdmin:
		return t.Client == nil && t.Subuser == nil
	case RoleClient:
		return t.Client != nil && t.Subuser == nil
	case RoleSubuser:
		return t.Subuser != nil && t.Client == nil
	}
	return false
}
