package postgres

import (
	"time"

	"github.com/kiranvarmap/qms/internal/audit"
	"gorm.io/gorm"
)

// AuditRepository persists worker audit entries.
type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Record(entry *audit.Entry) error {
	if entry.ProcessedAt.IsZero() {
		entry.ProcessedAt = time.Now()
	}
	entry.CreatedAt = time.Now()
	return r.db.Create(entry).Error
}

// Recent returns the newest entries, capped at limit.
func (r *AuditRepository) Recent(limit int) ([]*audit.Entry, error) {
	var entries []*audit.Entry
	err := r.db.Order("created_at DESC").Limit(limit).Find(&entries).Error
	return entries, err
}
