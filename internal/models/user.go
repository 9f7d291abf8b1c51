package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleUser         UserRole = "USER"
	RoleLegalAdmin   UserRole = "LEGAL_ADMIN"
	RoleFacultyAdmin UserRole = "FACULTY_ADMIN"
	RoleSenateAdmin  UserRole = "SENATE_ADMIN"
	RoleUGCAdmin     UserRole = "UGC_ADMIN"
	RoleSuperAdmin   UserRole = "SUPER_ADMIN"
)

// AdminRoles lists every role allowed to act on the approval workflow.
func AdminRoles() []UserRole {
	return []UserRole{RoleLegalAdmin, RoleFacultyAdmin, RoleSenateAdmin, RoleUGCAdmin, RoleSuperAdmin}
}

// IsAdmin reports whether the role may view the full MOU register.
func (r UserRole) IsAdmin() bool {
	switch r {
	case RoleLegalAdmin, RoleFacultyAdmin, RoleSenateAdmin, RoleUGCAdmin, RoleSuperAdmin:
		return true
	default:
		return false
	}
}

// Valid reports whether the role belongs to the closed enumeration.
func (r UserRole) Valid() bool {
	return r == RoleUser || r.IsAdmin()
}

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Name         string     `db:"name" json:"name"`
	Role         UserRole   `db:"role" json:"role"`
	Department   *string    `db:"department" json:"department,omitempty"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
