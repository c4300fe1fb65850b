// Package role provides CRUD and assignment operations for roles.
// All role mutations funnel through this package, which enforces the RBAC
// invariants exactly once: case-insensitive name uniqueness, system-role
// delete protection, pair-unique assignments and the last-system-role guard.
package role

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/db/models"
	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/rbac"
)

const (
	lowerNameQuery         = "LOWER(name) = LOWER(?)"
	lowerNameExcludedQuery = "LOWER(name) = LOWER(?) AND id <> ?"
	userRolePairQuery      = "user_id = ? AND role_id = ?"
)

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrRoleNotFound is returned when a role does not exist.
	ErrRoleNotFound = errors.New("role not found")
	// ErrUserNotFound is returned when a user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrNameEmpty is returned when attempting to create or rename a role with an empty name.
	ErrNameEmpty = errors.New("role name cannot be empty")
	// ErrDuplicateName is returned when a role with the same name already exists.
	// Name comparison is case-insensitive.
	ErrDuplicateName = errors.New("role with this name already exists")
	// ErrProtectedRole is returned when attempting to delete a system role.
	ErrProtectedRole = errors.New("system role cannot be deleted")
	// ErrAlreadyAssigned is returned when the user already holds the role.
	ErrAlreadyAssigned = errors.New("user already has this role assigned")
	// ErrNotAssigned is returned when revoking a role the user does not hold.
	ErrNotAssigned = errors.New("user does not have this role assigned")
	// ErrLastSystemRole is returned when revoking would leave the user without
	// any system role. A user granted a baseline role must always retain one.
	ErrLastSystemRole = errors.New("cannot revoke the user's last system role")
)

// Get retrieves a role by name (case-insensitive).
func Get(db *gorm.DB, name string) (*models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if name == "" {
		return nil, ErrNameEmpty
	}

	var r models.Role
	result := db.Where(lowerNameQuery, name).First(&r)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, result.Error
	}

	return &r, nil
}

// GetByID retrieves a role by its ID.
func GetByID(db *gorm.DB, id uint) (*models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var r models.Role
	result := db.First(&r, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, result.Error
	}

	return &r, nil
}

// GetAll retrieves all roles ordered by name.
func GetAll(db *gorm.DB) ([]models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var roles []models.Role
	result := db.Order("name").Find(&roles)
	if result.Error != nil {
		return nil, result.Error
	}

	return roles, nil
}

// Create creates a new role. The permission matrix is normalized before it is
// stored. Roles created through the API are never system roles; isSystem is
// only set by the bootstrap.
func Create(db *gorm.DB, name, description string, matrix rbac.Matrix, isSystem bool) (*models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameEmpty
	}

	var count int64
	if err := db.Model(&models.Role{}).Where(lowerNameQuery, name).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrDuplicateName
	}

	r := &models.Role{
		Name:        name,
		Description: description,
		Permissions: matrix.Normalized(),
		IsSystem:    isSystem,
	}

	result := db.Create(r)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateName
		}
		return nil, result.Error
	}

	return r, nil
}

// Patch describes a partial role update. Nil fields are left unchanged.
// IsSystem is deliberately absent: the flag is set once at creation and is
// immutable through the edit path.
type Patch struct {
	Name        *string
	Description *string
	Permissions *rbac.Matrix
}

// Update applies a partial update to a role. A new name is re-checked for
// case-insensitive uniqueness against all other roles; a new permission
// matrix is re-normalized before it is stored.
func Update(db *gorm.DB, id uint, patch Patch) (*models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	r, err := GetByID(db, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, ErrNameEmpty
		}

		var count int64
		if err = db.Model(&models.Role{}).Where(lowerNameExcludedQuery, name, r.ID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, ErrDuplicateName
		}

		r.Name = name
	}

	if patch.Description != nil {
		r.Description = *patch.Description
	}

	if patch.Permissions != nil {
		r.Permissions = patch.Permissions.Normalized()
	}

	result := db.Save(r)
	if result.Error != nil {
		return nil, result.Error
	}

	return r, nil
}

// Delete removes a role and all of its assignments. System roles cannot be
// deleted; attempting to do so fails with ErrProtectedRole and leaves the
// role and its assignments intact.
func Delete(db *gorm.DB, id uint) error {
	if db == nil {
		return ErrDBNil
	}

	r, err := GetByID(db, id)
	if err != nil {
		return err
	}

	if r.IsSystem {
		return ErrProtectedRole
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", r.ID).Delete(&models.UserRole{}).Error; err != nil {
			return err
		}

		return tx.Delete(r).Error
	})
}

// Duplicate creates a non-system copy of an existing role's permission matrix
// under a new name. The new name is checked for case-insensitive uniqueness.
func Duplicate(db *gorm.DB, sourceID uint, newName, description string) (*models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	source, err := GetByID(db, sourceID)
	if err != nil {
		return nil, err
	}

	if description == "" {
		description = "Copy of " + source.Name
	}

	return Create(db, newName, description, source.Permissions, false)
}

// Assign grants a role to a user. The (user, role) pair is unique; assigning
// a role the user already holds fails with ErrAlreadyAssigned. Concurrent
// duplicate attempts are resolved by the unique index on the pair: the loser
// of the race receives ErrAlreadyAssigned instead of creating a duplicate.
func Assign(db *gorm.DB, userID uint64, roleID uint) (*models.UserRole, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if _, err := GetByID(db, roleID); err != nil {
		return nil, err
	}

	var count int64
	if err := db.Model(&models.UserRole{}).Where(userRolePairQuery, userID, roleID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrAlreadyAssigned
	}

	assignment := &models.UserRole{
		UserID: userID,
		RoleID: roleID,
	}

	result := db.Create(assignment)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyAssigned
		}
		return nil, result.Error
	}

	return assignment, nil
}

// Revoke removes a role from a user. Revoking a system role is refused with
// ErrLastSystemRole when it would leave the user without any system role.
func Revoke(db *gorm.DB, userID uint64, roleID uint) error {
	if db == nil {
		return ErrDBNil
	}

	r, err := GetByID(db, roleID)
	if err != nil {
		return err
	}

	var assignment models.UserRole
	result := db.Where(userRolePairQuery, userID, roleID).First(&assignment)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return ErrNotAssigned
		}
		return result.Error
	}

	if r.IsSystem {
		var otherSystemRoles int64
		err = db.Model(&models.UserRole{}).
			Joins("JOIN roles ON roles.id = user_roles.role_id").
			Where("user_roles.user_id = ? AND roles.is_system = ? AND user_roles.id <> ?",
				userID, true, assignment.ID).
			Count(&otherSystemRoles).Error
		if err != nil {
			return err
		}

		if otherSystemRoles == 0 {
			return ErrLastSystemRole
		}
	}

	return db.Delete(&assignment).Error
}

// RolesForUser retrieves all roles assigned to a user.
func RolesForUser(db *gorm.DB, userID uint64) ([]models.Role, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var roles []models.Role
	err := db.Table("roles").
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Order("roles.name").
		Find(&roles).Error
	if err != nil {
		return nil, err
	}

	return roles, nil
}

// UsersWithRole retrieves all users holding the given role.
func UsersWithRole(db *gorm.DB, roleID uint) ([]models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var users []models.User
	err := db.Table("users").
		Joins("JOIN user_roles ON user_roles.user_id = users.id").
		Where("user_roles.role_id = ?", roleID).
		Order("users.username").
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	return users, nil
}
