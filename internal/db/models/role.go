package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/rbac"
)

// Role represents a role in the role-based access control (RBAC) system.
// A role carries a complete module x action permission matrix and can be
// assigned to any number of users. The built-in roles "Administrator",
// "Member" and "Operator" are flagged as system roles and cannot be deleted.
type Role struct {
	// ID is the unique identifier for the role.
	ID uint `gorm:"primaryKey"`
	// Name is the unique name of the role. Uniqueness is case-insensitive
	// and enforced by the role controller.
	Name string `gorm:"unique;size:100;not null"`
	// Description provides a human-readable description of the role's purpose.
	Description string `gorm:"size:255"`
	// Permissions is the normalized permission matrix, stored as JSON.
	Permissions rbac.Matrix `gorm:"serializer:json"`
	// IsSystem indicates a built-in role that cannot be deleted. It is set
	// once at bootstrap and never changed through the role edit path.
	IsSystem bool `gorm:"default:false"`
	// CreatedAt is the timestamp when the role was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the role was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Role model.
// This overrides GORM's default pluralized table naming.
func (Role) TableName() string {
	return "roles"
}

// BeforeSave normalizes the permission matrix so a role never persists a
// partial matrix, regardless of which write path produced it.
func (r *Role) BeforeSave(_ *gorm.DB) error {
	r.Permissions = r.Permissions.Normalized()
	return nil
}

// AfterFind normalizes the permission matrix on the read path. Rows written
// before a module joined the closed set are filled with no grants.
func (r *Role) AfterFind(_ *gorm.DB) error {
	r.Permissions = r.Permissions.Normalized()
	return nil
}
