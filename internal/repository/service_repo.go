package repository

import (
	"context"

	"gorm.io/gorm"

	"fieldops/backend/internal/model"
	pkgerrors "fieldops/backend/pkg/errors"
)

// ServiceRepository 服务项目数据访问接口
type ServiceRepository interface {
	Create(ctx context.Context, svc *model.Service) error
	GetByID(ctx context.Context, tenantID, id string) (*model.Service, error)
	// GetActiveByID 公开预约入口按 ID 查询启用中的服务（不限租户）
	GetActiveByID(ctx context.Context, id string) (*model.Service, error)
	List(ctx context.Context, tenantID string, includeInactive bool) ([]model.Service, error)
	Update(ctx context.Context, svc *model.Service) error
	// ReplaceWorkingHours 整体替换服务的营业时间窗口
	ReplaceWorkingHours(ctx context.Context, serviceID string, hours []model.WorkingHour) error
	Delete(ctx context.Context, tenantID, id string, deletedBy string) error
}

// ── Service Repository 实现 ──

type serviceRepo struct {
	db *gorm.DB
}

func NewServiceRepo(db *gorm.DB) ServiceRepository {
	return &serviceRepo{db: db}
}

func (r *serviceRepo) Create(ctx context.Context, svc *model.Service) error {
	return r.db.WithContext(ctx).Create(svc).Error
}

func (r *serviceRepo) GetByID(ctx context.Context, tenantID, id string) (*model.Service, error) {
	var svc model.Service
	err := r.db.WithContext(ctx).
		Preload("WorkingHours").
		Where("tenant_id = ? AND service_id = ?", tenantID, id).
		First(&svc).Error
	if err != nil {
		return nil, err
	}
	return &svc, nil
}

func (r *serviceRepo) GetActiveByID(ctx context.Context, id string) (*model.Service, error) {
	var svc model.Service
	err := r.db.WithContext(ctx).
		Preload("WorkingHours").
		Where("service_id = ? AND is_active = TRUE", id).
		First(&svc).Error
	if err != nil {
		return nil, err
	}
	return &svc, nil
}

func (r *serviceRepo) List(ctx context.Context, tenantID string, includeInactive bool) ([]model.Service, error) {
	var services []model.Service
	db := r.db.WithContext(ctx).
		Preload("WorkingHours").
		Where("tenant_id = ?", tenantID)
	if !includeInactive {
		db = db.Where("is_active = TRUE")
	}
	err := db.Order("name ASC").Find(&services).Error
	return services, err
}

func (r *serviceRepo) Update(ctx context.Context, svc *model.Service) error {
	oldVersion := svc.Version
	result := r.db.WithContext(ctx).
		Model(svc).
		Where("service_id = ? AND version = ?", svc.ServiceID, oldVersion).
		Updates(map[string]interface{}{
			"name":                 svc.Name,
			"description":          svc.Description,
			"duration_min":         svc.DurationMin,
			"price_cents":          svc.PriceCents,
			"buffer_min":           svc.BufferMin,
			"is_active":            svc.IsActive,
			"require_confirmation": svc.RequireConfirmation,
			"updated_by":           svc.UpdatedBy,
			"version":              oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	svc.Version = oldVersion + 1
	return nil
}

func (r *serviceRepo) ReplaceWorkingHours(ctx context.Context, serviceID string, hours []model.WorkingHour) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("service_id = ?", serviceID).Delete(&model.WorkingHour{}).Error; err != nil {
			return err
		}
		if len(hours) == 0 {
			return nil
		}
		for i := range hours {
			hours[i].ServiceID = serviceID
		}
		return tx.Create(&hours).Error
	})
}

func (r *serviceRepo) Delete(ctx context.Context, tenantID, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Service{}).
		Where("tenant_id = ? AND service_id = ?", tenantID, id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
