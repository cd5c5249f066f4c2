package repository

import (
	"context"

	"gorm.io/gorm"

	"fieldops/backend/internal/model"
)

// RecurrenceRepository 重复规则数据访问接口
type RecurrenceRepository interface {
	Create(ctx context.Context, rec *model.Recurrence) error
	GetByID(ctx context.Context, tenantID, id string) (*model.Recurrence, error)
}

// ── Recurrence Repository 实现 ──

type recurrenceRepo struct {
	db *gorm.DB
}

func NewRecurrenceRepo(db *gorm.DB) RecurrenceRepository {
	return &recurrenceRepo{db: db}
}

func (r *recurrenceRepo) Create(ctx context.Context, rec *model.Recurrence) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *recurrenceRepo) GetByID(ctx context.Context, tenantID, id string) (*model.Recurrence, error) {
	var rec model.Recurrence
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND recurrence_id = ?", tenantID, id).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
