package role

import (
	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/db/models"
	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/rbac"
)

type createInput struct {
	Name        string                     `json:"name" validate:"required,min=1,max=100"`
	Description string                     `json:"description" validate:"max=255"`
	Permissions map[string]map[string]bool `json:"permissions"`
}

type updateInput struct {
	Name        *string                     `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string                     `json:"description" validate:"omitempty,max=255"`
	Permissions *map[string]map[string]bool `json:"permissions"`
}

type duplicateInput struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"max=255"`
}

type assignmentInput struct {
	UserID uint64 `json:"user_id" validate:"required"`
}

type roleResponse struct {
	ID          uint                          `json:"id"`
	Name        string                        `json:"name"`
	Description string                        `json:"description"`
	IsSystem    bool                          `json:"is_system"`
	Permissions rbac.Matrix                   `json:"permissions"`
	Granted     map[rbac.Module][]rbac.Action `json:"granted"`
}

type userResponse struct {
	ID        uint64 `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	Active    bool   `json:"active"`
	Superuser bool   `json:"superuser"`
}

func newRoleResponse(r *models.Role) roleResponse {
	return roleResponse{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		IsSystem:    r.IsSystem,
		Permissions: r.Permissions,
		Granted:     r.Permissions.Describe(),
	}
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName(),
		Active:    u.Active,
		Superuser: u.Superuser,
	}
}
