package dto

import "time"

// SignInRequest payload for login.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileResponse is the UI-facing profile shape.
type ProfileResponse struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	FullName  string     `json:"full_name"`
	Role      string     `json:"role"`
	Status    string     `json:"status"`
	LastLogin *time.Time `json:"last_login_at,omitempty"`
}

// TenantResponse carries the role-conditional tenant record.
type TenantResponse struct {
	Client  *ClientResponse  `json:"client,omitempty"`
	Subuser *SubuserResponse `json:"subuser,omitempty"`
}

// ClientResponse is the UI-facing client workspace shape.
type ClientResponse struct {
	ID          string `json:"id"`
	CompanyName string `json:"company_name"`
}

// SubuserResponse is the UI-facing subuser shape.
type SubuserResponse struct {
	ID          string              `json:"id"`
	ClientID    string              `json:"client_id"`
	RoleName    string              `json:"role_name"`
	Permissions map[string][]string `json:"permissions"`
}

// SessionStateResponse mirrors the controller's observable state.
type SessionStateResponse struct {
	SignedIn  bool             `json:"signed_in"`
	Loading   bool             `json:"loading"`
	ExpiresAt *time.Time       `json:"expires_at,omitempty"`
	Profile   *ProfileResponse `json:"profile,omitempty"`
	Tenant    *TenantResponse  `json:"tenant,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// UpdateStatusRequest changes a profile's lifecycle status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// PermissionCheckResponse answers a module/action query.
type PermissionCheckResponse struct {
	Module  string `json:"module"`
	Action  string `json:"action"`
	Allowed bool   `json:"allowed"`
}
