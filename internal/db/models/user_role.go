package models

import "time"

// UserRole represents the many-to-many relationship between users and roles.
// A user cannot hold the same role twice: the (user_id, role_id) pair carries
// a uniqueness constraint, which also makes concurrent duplicate assignment
// attempts race-safe at the database level. Rows are removed when either side
// is deleted (CASCADE).
type UserRole struct {
	// ID is the unique identifier for the assignment.
	ID uint64 `gorm:"primaryKey"`
	// UserID is the ID of the user in this assignment.
	UserID uint64 `gorm:"column:user_id;not null;uniqueIndex:idx_user_role"`
	// RoleID is the ID of the role in this assignment.
	RoleID uint `gorm:"column:role_id;not null;uniqueIndex:idx_user_role"`
	// User is the associated user (loaded via foreign key).
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	// Role is the associated role (loaded via foreign key).
	Role Role `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE"`
	// CreatedAt is the timestamp when the role was assigned (managed by GORM).
	CreatedAt time.Time
}

// TableName specifies the database table name for the UserRole model.
// This overrides GORM's default pluralized table naming.
func (UserRole) TableName() string {
	return "user_roles"
}
