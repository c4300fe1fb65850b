package models

import "time"

// AuditAction classifies an audit log entry.
type AuditAction string

const (
	// AuditActionCreate records the creation of a row.
	AuditActionCreate AuditAction = "CREATE"
	// AuditActionUpdate records the modification of a row.
	AuditActionUpdate AuditAction = "UPDATE"
	// AuditActionDelete records the deletion of a row.
	AuditActionDelete AuditAction = "DELETE"
	// AuditActionLogin records a successful login.
	AuditActionLogin AuditAction = "LOGIN"
	// AuditActionLogout records a logout.
	AuditActionLogout AuditAction = "LOGOUT"
)

// AuditEntry is one row of the audit log. Every mutating operation on roles
// and assignments, and every login/logout, is recorded with the acting user,
// the affected table and row, and free-form JSON details.
type AuditEntry struct {
	// ID is the unique identifier for the entry.
	ID uint64 `gorm:"primaryKey"`
	// UserID is the acting user, nil for anonymous events such as failed logins.
	UserID *uint64 `gorm:"index"`
	// User is the associated user (loaded via foreign key).
	User *User `gorm:"foreignKey:UserID"`
	// Action is the kind of operation performed.
	Action AuditAction `gorm:"type:varchar(20);not null;index"`
	// AffectedTable is the database table the operation touched.
	AffectedTable string `gorm:"size:100;not null;index"`
	// RecordID is the primary key of the affected row, 0 when not applicable.
	RecordID uint64
	// Details holds operation-specific context as JSON.
	Details map[string]any `gorm:"serializer:json"`
	// IPAddress is the client address the request originated from.
	IPAddress string `gorm:"size:45"`
	// UserAgent is the client's User-Agent header.
	UserAgent string `gorm:"size:255"`
	// CreatedAt is the timestamp of the event (managed by GORM).
	CreatedAt time.Time `gorm:"index"`
}

// TableName specifies the database table name for the AuditEntry model.
// This overrides GORM's default pluralized table naming.
func (AuditEntry) TableName() string {
	return "audit_log"
}
