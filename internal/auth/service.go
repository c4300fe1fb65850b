package auth

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/db/controller/role"
	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/db/models"
	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/rbac"
)

// Service provides authentication and authorization functionality.
type Service struct {
	db *gorm.DB
}

// NewService creates a new auth service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Permission names one cell of the permission matrix.
type Permission struct {
	Module rbac.Module
	Action rbac.Action
}

// HasPermission checks whether a user may perform an action on a module.
// Superusers are always allowed. Otherwise the decision is the logical OR
// across all roles held by the user; a user without roles is denied
// everything. An unknown user yields false, not an error.
func (s *Service) HasPermission(userID uint64, module rbac.Module, action rbac.Action) (bool, error) {
	var user models.User

	err := s.db.First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to load user: %w", err)
	}

	if user.Superuser {
		return true, nil
	}

	roles, err := role.RolesForUser(s.db, userID)
	if err != nil {
		return false, fmt.Errorf("failed to load user roles: %w", err)
	}

	for _, r := range roles {
		if r.Permissions.Has(module, action) {
			return true, nil
		}
	}

	return false, nil
}

// HasAnyPermission checks if a user has at least one of the given permissions.
func (s *Service) HasAnyPermission(userID uint64, permissions []Permission) (bool, error) {
	for _, perm := range permissions {
		has, err := s.HasPermission(userID, perm.Module, perm.Action)
		if err != nil {
			return false, err
		}

		if has {
			return true, nil
		}
	}

	return false, nil
}

// HasAllPermissions checks if a user has all of the given permissions.
func (s *Service) HasAllPermissions(userID uint64, permissions []Permission) (bool, error) {
	for _, perm := range permissions {
		has, err := s.HasPermission(userID, perm.Module, perm.Action)
		if err != nil {
			return false, err
		}

		if !has {
			return false, nil
		}
	}

	return true, nil
}

// UserPermissions returns the consolidated permission matrix of a user along
// with the names of the roles it was computed from. For a superuser the
// matrix has every grant set, regardless of assigned roles.
func (s *Service) UserPermissions(userID uint64) (rbac.Matrix, []string, error) {
	var user models.User

	err := s.db.First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrUserNotFound
	}

	if err != nil {
		return nil, nil, fmt.Errorf("failed to load user: %w", err)
	}

	roles, err := role.RolesForUser(s.db, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load user roles: %w", err)
	}

	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}

	if user.Superuser {
		return rbac.AllGranted(), names, nil
	}

	consolidated := rbac.New()
	for _, r := range roles {
		consolidated = consolidated.Union(r.Permissions)
	}

	return consolidated, names, nil
}
