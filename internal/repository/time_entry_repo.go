package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"fieldops/backend/internal/model"
	pkgerrors "fieldops/backend/pkg/errors"
)

// TimeEntryRepository 工时记录数据访问接口
type TimeEntryRepository interface {
	Create(ctx context.Context, entry *model.TimeEntry) error
	GetByID(ctx context.Context, tenantID, id string) (*model.TimeEntry, error)
	// GetRunningByUser 查询用户当前运行中的计时器（无则返回 gorm.ErrRecordNotFound）
	GetRunningByUser(ctx context.Context, userID string) (*model.TimeEntry, error)
	ListByJob(ctx context.Context, tenantID, jobID string) ([]model.TimeEntry, error)
	ListByUserRange(ctx context.Context, tenantID, userID string, from, to time.Time, offset, limit int) ([]model.TimeEntry, int64, error)
	Update(ctx context.Context, entry *model.TimeEntry) error
	Delete(ctx context.Context, tenantID, id string, deletedBy string) error
}

// ── TimeEntry Repository 实现 ──

type timeEntryRepo struct {
	db *gorm.DB
}

func NewTimeEntryRepo(db *gorm.DB) TimeEntryRepository {
	return &timeEntryRepo{db: db}
}

func (r *timeEntryRepo) Create(ctx context.Context, entry *model.TimeEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *timeEntryRepo) GetByID(ctx context.Context, tenantID, id string) (*model.TimeEntry, error) {
	var entry model.TimeEntry
	err := r.db.WithContext(ctx).
		Preload("Job").
		Where("tenant_id = ? AND time_entry_id = ?", tenantID, id).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *timeEntryRepo) GetRunningByUser(ctx context.Context, userID string) (*model.TimeEntry, error) {
	var entry model.TimeEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND ended_at IS NULL", userID).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *timeEntryRepo) ListByJob(ctx context.Context, tenantID, jobID string) ([]model.TimeEntry, error) {
	var entries []model.TimeEntry
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("tenant_id = ? AND job_id = ?", tenantID, jobID).
		Order("started_at ASC").
		Find(&entries).Error
	return entries, err
}

func (r *timeEntryRepo) ListByUserRange(ctx context.Context, tenantID, userID string, from, to time.Time, offset, limit int) ([]model.TimeEntry, int64, error) {
	var entries []model.TimeEntry
	var total int64

	db := r.db.WithContext(ctx).Model(&model.TimeEntry{}).
		Where("tenant_id = ? AND user_id = ? AND started_at >= ? AND started_at < ?",
			tenantID, userID, from, to)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("Job").
		Offset(offset).Limit(limit).
		Order("started_at DESC").
		Find(&entries).Error
	return entries, total, err
}

func (r *timeEntryRepo) Update(ctx context.Context, entry *model.TimeEntry) error {
	oldVersion := entry.Version
	result := r.db.WithContext(ctx).
		Model(entry).
		Where("time_entry_id = ? AND version = ?", entry.TimeEntryID, oldVersion).
		Updates(map[string]interface{}{
			"job_id":     entry.JobID,
			"started_at": entry.StartedAt,
			"ended_at":   entry.EndedAt,
			"minutes":    entry.Minutes,
			"note":       entry.Note,
			"updated_by": entry.UpdatedBy,
			"version":    oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	entry.Version = oldVersion + 1
	return nil
}

func (r *timeEntryRepo) Delete(ctx context.Context, tenantID, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.TimeEntry{}).
		Where("tenant_id = ? AND time_entry_id = ?", tenantID, id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
