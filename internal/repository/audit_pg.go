package repository

import (
	"context"
	"time"

	"github.com/GoPolymarket/clawdash/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresAuditRepo struct {
	db *gorm.DB
}

func NewPostgresAuditRepo(db *gorm.DB) (*PostgresAuditRepo, error) {
	if err := db.AutoMigrate(&model.AuditLog{}); err != nil {
		return nil, err
	}
	return &PostgresAuditRepo{db: db}, nil
}

func (r *PostgresAuditRepo) Insert(ctx context.Context, entry *model.AuditLog) error {
	if entry == nil {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(entry).Error
}

func (r *PostgresAuditRepo) List(ctx context.Context, ownerID string, limit int, from, to *time.Time) ([]*model.AuditLog, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	q := r.db.WithContext(ctx).Model(&model.AuditLog{})
	if ownerID != "" {
		q = q.Where("owner_id = ?", ownerID)
	}
	if from != nil {
		q = q.Where("created_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("created_at <= ?", *to)
	}

	records := make([]*model.AuditLog, 0, limit)
	if err := q.Order("created_at DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, err
	}
	for _, rec := range records {
		if rec.Context == nil {
			rec.Context = map[string]interface{}{}
		}
	}
	return records, nil
}

// Cleanup deletes entries older than the retention window.
func (r *PostgresAuditRepo) Cleanup(ctx context.Context, olderThan time.Duration) error {
	if olderThan <= 0 {
		return nil
	}
	cutoff := time.Now().UTC().Add(-olderThan)
	return r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&model.AuditLog{}).Error
}
