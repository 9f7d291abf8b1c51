package dto

import "github.com/uni-iro/mou-registry-api/internal/models"

// SignupRequest payload for public self-registration. New accounts always
// receive the USER role.
type SignupRequest struct {
	Name       string  `json:"name" validate:"required"`
	Email      string  `json:"email" validate:"required,email"`
	Password   string  `json:"password" validate:"required,min=6"`
	Department *string `json:"department"`
}

// RegisterAdminRequest payload for provisioning a domain admin. The account
// is created without a usable password; the admin claims credentials through
// the set-password flow.
type RegisterAdminRequest struct {
	Name       string          `json:"name" validate:"required"`
	Email      string          `json:"email" validate:"required,email"`
	Role       models.UserRole `json:"role" validate:"required"`
	Department *string         `json:"department"`
}

// RegisterSuperAdminRequest payload for the one-time super admin bootstrap.
type RegisterSuperAdminRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// UpdateProfileRequest payload for updating the caller's own profile.
type UpdateProfileRequest struct {
	Name       string  `json:"name" validate:"required"`
	Department *string `json:"department"`
}
