package repository

import (
	"context"

	"gorm.io/gorm"

	"fieldops/backend/internal/model"
	pkgerrors "fieldops/backend/pkg/errors"
)

// ContactRepository 联系人数据访问接口
type ContactRepository interface {
	Create(ctx context.Context, contact *model.Contact) error
	GetByID(ctx context.Context, tenantID, id string) (*model.Contact, error)
	GetByEmail(ctx context.Context, tenantID, email string) (*model.Contact, error)
	List(ctx context.Context, tenantID, q string, offset, limit int) ([]model.Contact, int64, error)
	Update(ctx context.Context, contact *model.Contact) error
	Archive(ctx context.Context, tenantID, id string, deletedBy string) error
}

// ── Contact Repository 实现 ──

type contactRepo struct {
	db *gorm.DB
}

func NewContactRepo(db *gorm.DB) ContactRepository {
	return &contactRepo{db: db}
}

func (r *contactRepo) Create(ctx context.Context, contact *model.Contact) error {
	return r.db.WithContext(ctx).Create(contact).Error
}

func (r *contactRepo) GetByID(ctx context.Context, tenantID, id string) (*model.Contact, error) {
	var contact model.Contact
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND contact_id = ?", tenantID, id).
		First(&contact).Error
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

func (r *contactRepo) GetByEmail(ctx context.Context, tenantID, email string) (*model.Contact, error) {
	var contact model.Contact
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND email = ?", tenantID, email).
		Order("created_at ASC").
		First(&contact).Error
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

func (r *contactRepo) List(ctx context.Context, tenantID, q string, offset, limit int) ([]model.Contact, int64, error) {
	var contacts []model.Contact
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Contact{}).
		Where("tenant_id = ?", tenantID)

	if q != "" {
		like := "%" + q + "%"
		db = db.Where("name ILIKE ? OR email ILIKE ? OR phone ILIKE ?", like, like, like)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Offset(offset).Limit(limit).
		Order("name ASC").
		Find(&contacts).Error
	return contacts, total, err
}

func (r *contactRepo) Update(ctx context.Context, contact *model.Contact) error {
	oldVersion := contact.Version
	result := r.db.WithContext(ctx).
		Model(contact).
		Where("contact_id = ? AND version = ?", contact.ContactID, oldVersion).
		Updates(map[string]interface{}{
			"name":       contact.Name,
			"email":      contact.Email,
			"phone":      contact.Phone,
			"address":    contact.Address,
			"notes":      contact.Notes,
			"updated_by": contact.UpdatedBy,
			"version":    oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	contact.Version = oldVersion + 1
	return nil
}

func (r *contactRepo) Archive(ctx context.Context, tenantID, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Contact{}).
		Where("tenant_id = ? AND contact_id = ?", tenantID, id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
