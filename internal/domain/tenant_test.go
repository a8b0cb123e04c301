package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPermissionMapAllows(t *testing.T) {
	perms := PermissionMap{
		"leads":   {"read"},
		"reports": {PermissionAdmin},
	}

	assert.True(t, perms.Allows("leads", "read"))
	assert.False(t, perms.Allows("leads", "write"))
	assert.True(t, perms.Allows("reports", "write"))
	assert.False(t, perms.Allows("campaigns", "read"))
}

func TestTenantMatches(t *testing.T) {
	client := &ClientRecord{ID: "c1"}
	subuser := &SubuserRecord{ID: "s1"}

	tests := []struct {
		name   string
		tenant Tenant
		role   Role
		want   bool
	}{
		{"admin with no tenant", Tenant{}, RoleAdmin, true},
		{"admin with client record", Tenant{Client: client}, RoleAdmin, false},
		{"client with client record", Tenant{Client: client}, RoleClient, true},
		{"client missing record", Tenant{}, RoleClient, false},
		{"client with subuser record", Tenant{Subuser: subuser}, RoleClient, false},
		{"subuser with subuser record", Tenant{Subuser: subuser}, RoleSubuser, true},
		{"subuser missing record", Tenant{}, RoleSubuser, false},
		{"unknown role", Tenant{}, Role("owner"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.tenant.Matches(tt.role))
		})
	}
}
