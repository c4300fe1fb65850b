// Package audit provides write and query operations for the audit log.
// Role mutations, assignments and auth events are recorded here so that
// administrative activity stays reconstructible.
package audit

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/AgroCoop-Admin/AgroCoop-Admin/internal/db/models"
)

const (
	// DefaultPageSize for listing audit entries.
	DefaultPageSize = 50
	// MaxPageSize clamps the page size upper bound.
	MaxPageSize = 200
)

// ErrDBNil is returned when the database connection is nil.
var ErrDBNil = errors.New("database connection is nil")

// Record persists one audit entry.
func Record(db *gorm.DB, entry *models.AuditEntry) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Create(entry).Error
}

// Filter narrows an audit log listing. Zero values mean "no filter".
type Filter struct {
	UserID        *uint64
	Action        models.AuditAction
	AffectedTable string
	From          *time.Time
	To            *time.Time
	Page          int
	PageSize      int
}

// List returns a page of audit entries, newest first, and the total count of
// entries matching the filter.
func List(db *gorm.DB, filter Filter) ([]models.AuditEntry, int64, error) {
	if db == nil {
		return nil, 0, ErrDBNil
	}

	tx := db.Model(&models.AuditEntry{})

	if filter.UserID != nil {
		tx = tx.Where("user_id = ?", *filter.UserID)
	}

	if filter.Action != "" {
		tx = tx.Where("action = ?", filter.Action)
	}

	if filter.AffectedTable != "" {
		tx = tx.Where("affected_table = ?", filter.AffectedTable)
	}

	if filter.From != nil {
		tx = tx.Where("created_at >= ?", *filter.From)
	}

	if filter.To != nil {
		tx = tx.Where("created_at <= ?", *filter.To)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}

	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}

	var entries []models.AuditEntry
	err := tx.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
