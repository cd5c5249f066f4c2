package repository

import (
	"context"

	"gorm.io/gorm"

	"fieldops/backend/internal/model"
	pkgerrors "fieldops/backend/pkg/errors"
)

// QuoteRepository 报价单数据访问接口
type QuoteRepository interface {
	// Create 在同一事务中创建报价单与明细行
	Create(ctx context.Context, quote *model.Quote, items []model.QuoteLineItem) error
	GetByID(ctx context.Context, tenantID, id string) (*model.Quote, error)
	List(ctx context.Context, tenantID, status string, offset, limit int) ([]model.Quote, int64, error)
	Update(ctx context.Context, quote *model.Quote) error
	ReplaceLineItems(ctx context.Context, quoteID string, items []model.QuoteLineItem) error
	Delete(ctx context.Context, tenantID, id string, deletedBy string) error
}

// ── Quote Repository 实现 ──

type quoteRepo struct {
	db *gorm.DB
}

func NewQuoteRepo(db *gorm.DB) QuoteRepository {
	return &quoteRepo{db: db}
}

func (r *quoteRepo) Create(ctx context.Context, quote *model.Quote, items []model.QuoteLineItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(quote).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		for i := range items {
			items[i].QuoteID = quote.QuoteID
		}
		return tx.Create(&items).Error
	})
}

func (r *quoteRepo) GetByID(ctx context.Context, tenantID, id string) (*model.Quote, error) {
	var quote model.Quote
	err := r.db.WithContext(ctx).
		Preload("Contact").
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Where("tenant_id = ? AND quote_id = ?", tenantID, id).
		First(&quote).Error
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

func (r *quoteRepo) List(ctx context.Context, tenantID, status string, offset, limit int) ([]model.Quote, int64, error) {
	var quotes []model.Quote
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Quote{}).
		Where("tenant_id = ?", tenantID)
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("Contact").
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&quotes).Error
	return quotes, total, err
}

func (r *quoteRepo) Update(ctx context.Context, quote *model.Quote) error {
	oldVersion := quote.Version
	result := r.db.WithContext(ctx).
		Model(quote).
		Where("quote_id = ? AND version = ?", quote.QuoteID, oldVersion).
		Updates(map[string]interface{}{
			"title":       quote.Title,
			"status":      quote.Status,
			"total_cents": quote.TotalCents,
			"valid_until": quote.ValidUntil,
			"updated_by":  quote.UpdatedBy,
			"version":     oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	quote.Version = oldVersion + 1
	return nil
}

func (r *quoteRepo) ReplaceLineItems(ctx context.Context, quoteID string, items []model.QuoteLineItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quote_id = ?", quoteID).Delete(&model.QuoteLineItem{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		for i := range items {
			items[i].QuoteID = quoteID
		}
		return tx.Create(&items).Error
	})
}

func (r *quoteRepo) Delete(ctx context.Context, tenantID, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Quote{}).
		Where("tenant_id = ? AND quote_id = ?", tenantID, id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
