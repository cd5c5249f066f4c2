package repository

import (
	"context"

	"gorm.io/gorm"

	"fieldops/backend/internal/model"
	pkgerrors "fieldops/backend/pkg/errors"
)

// TenantRepository 租户数据访问接口
type TenantRepository interface {
	// CreateWithOwner 在同一事务中创建租户与所有者账号
	CreateWithOwner(ctx context.Context, tenant *model.Tenant, owner *model.User) error
	GetByID(ctx context.Context, id string) (*model.Tenant, error)
	GetByFeedToken(ctx context.Context, token string) (*model.Tenant, error)
	Update(ctx context.Context, tenant *model.Tenant) error
}

// ── Tenant Repository 实现 ──

type tenantRepo struct {
	db *gorm.DB
}

func NewTenantRepo(db *gorm.DB) TenantRepository {
	return &tenantRepo{db: db}
}

func (r *tenantRepo) CreateWithOwner(ctx context.Context, tenant *model.Tenant, owner *model.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(tenant).Error; err != nil {
			return err
		}
		owner.TenantID = tenant.TenantID
		return tx.Create(owner).Error
	})
}

func (r *tenantRepo) GetByID(ctx context.Context, id string) (*model.Tenant, error) {
	var tenant model.Tenant
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", id).
		First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *tenantRepo) GetByFeedToken(ctx context.Context, token string) (*model.Tenant, error) {
	var tenant model.Tenant
	err := r.db.WithContext(ctx).
		Where("feed_token = ?", token).
		First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *tenantRepo) Update(ctx context.Context, tenant *model.Tenant) error {
	oldVersion := tenant.Version
	result := r.db.WithContext(ctx).
		Model(tenant).
		Where("tenant_id = ? AND version = ?", tenant.TenantID, oldVersion).
		Updates(map[string]interface{}{
			"name":       tenant.Name,
			"email":      tenant.Email,
			"phone":      tenant.Phone,
			"timezone":   tenant.Timezone,
			"updated_by": tenant.UpdatedBy,
			"version":    oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	tenant.Version = oldVersion + 1
	return nil
}
