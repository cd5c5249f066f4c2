package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"fieldops/backend/internal/dto"
	"fieldops/backend/internal/model"
	"fieldops/backend/internal/repository"
)

// ── 联系人模块业务错误 ──

var (
	ErrContactNotFound = errors.New("联系人不存在")
)

// ContactService 联系人业务接口
type ContactService interface {
	Create(ctx context.Context, tenantID string, req *dto.CreateContactRequest, callerID string) (*dto.ContactResponse, error)
	GetByID(ctx context.Context, tenantID, id string) (*dto.ContactResponse, error)
	List(ctx context.Context, tenantID string, req *dto.ContactListRequest) ([]dto.ContactResponse, int64, error)
	Update(ctx context.Context, tenantID, id string, req *dto.UpdateContactRequest, callerID string) (*dto.ContactResponse, error)
	Archive(ctx context.Context, tenantID, id string, callerID string) error
}

type contactService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewContactService 创建 ContactService 实例
func NewContactService(repo *repository.Repository, logger *zap.Logger) ContactService {
	return &contactService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *contactService) Create(ctx context.Context, tenantID string, req *dto.CreateContactRequest, callerID string) (*dto.ContactResponse, error) {
	contact := &model.Contact{
		TenantID: tenantID,
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
		Notes:    req.Notes,
	}
	contact.CreatedBy = &callerID
	contact.UpdatedBy = &callerID

	if err := s.repo.Contact.Create(ctx, contact); err != nil {
		s.logger.Error("创建联系人失败", zap.Error(err))
		return nil, err
	}

	return s.toContactResponse(contact), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *contactService) GetByID(ctx context.Context, tenantID, id string) (*dto.ContactResponse, error) {
	contact, err := s.repo.Contact.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContactNotFound
		}
		s.logger.Error("查询联系人失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return s.toContactResponse(contact), nil
}

// ────────────────────── List ──────────────────────

func (s *contactService) List(ctx context.Context, tenantID string, req *dto.ContactListRequest) ([]dto.ContactResponse, int64, error) {
	contacts, total, err := s.repo.Contact.List(ctx, tenantID, req.Q, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出联系人失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ContactResponse, 0, len(contacts))
	for i := range contacts {
		result = append(result, *s.toContactResponse(&contacts[i]))
	}
	return result, total, nil
}

// ────────────────────── Update ──────────────────────

func (s *contactService) Update(ctx context.Context, tenantID, id string, req *dto.UpdateContactRequest, callerID string) (*dto.ContactResponse, error) {
	contact, err := s.repo.Contact.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContactNotFound
		}
		s.logger.Error("查询联系人失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	if req.Name != nil {
		contact.Name = *req.Name
	}
	if req.Email != nil {
		contact.Email = *req.Email
	}
	if req.Phone != nil {
		contact.Phone = *req.Phone
	}
	if req.Address != nil {
		contact.Address = *req.Address
	}
	if req.Notes != nil {
		contact.Notes = *req.Notes
	}
	contact.UpdatedBy = &callerID

	if err := s.repo.Contact.Update(ctx, contact); err != nil {
		s.logger.Error("更新联系人失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return s.toContactResponse(contact), nil
}

// ────────────────────── Archive ──────────────────────

func (s *contactService) Archive(ctx context.Context, tenantID, id string, callerID string) error {
	if _, err := s.repo.Contact.GetByID(ctx, tenantID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrContactNotFound
		}
		s.logger.Error("查询联系人失败", zap.String("id", id), zap.Error(err))
		return err
	}

	if err := s.repo.Contact.Archive(ctx, tenantID, id, callerID); err != nil {
		s.logger.Error("归档联系人失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

func (s *contactService) toContactResponse(c *model.Contact) *dto.ContactResponse {
	return &dto.ContactResponse{
		ID:        c.ContactID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   c.Address,
		Notes:     c.Notes,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
		UpdatedAt: c.UpdatedAt.Format(time.RFC3339),
	}
}
