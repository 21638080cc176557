package repository

import (
	"context"

	"github.com/Artistkw3d/Pos-Offline-sub000/internal/model"

	"gorm.io/gorm"
)

// AuditRepository persists action-log rows. Writes arrive from the worker
// pool, never from the request path.
type AuditRepository interface {
	Create(ctx context.Context, entry *model.ActionLog) error
	List(ctx context.Context, actionType string, limit int) ([]model.ActionLog, error)
}

type auditRepo struct{ db *gorm.DB }

func NewAuditRepository(db *gorm.DB) AuditRepository { return &auditRepo{db: db} }

func (r *auditRepo) Create(ctx context.Context, entry *model.ActionLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditRepo) List(ctx context.Context, actionType string, limit int) ([]model.ActionLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := r.db.WithContext(ctx).Model(&model.ActionLog{})
	if actionType != "" {
		q = q.Where("action_type = ?", actionType)
	}
	var entries []model.ActionLog
	err := q.Order("created_at DESC").Limit(limit).Find(&entries).Error
	return entries, err
}
