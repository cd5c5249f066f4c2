package service

import (
	"sort"
	"time"

	"fieldops/backend/internal/model"
)

// TimeInterval 半开时间区间 [Start, End)
type TimeInterval struct {
	Start time.Time
	End   time.Time
}

// Overlaps 判断两个区间是否相交
func (iv TimeInterval) Overlaps(other TimeInterval) bool {
	return iv.Start.Before(other.End) && iv.End.After(other.Start)
}

// BusyIntervals 把已有工单折算成占用区间（纯函数）
//
// 工单区间扣除其休息区间后剩下的部分才算占用；已取消的工单不占用。
func BusyIntervals(jobs []model.Job) []TimeInterval {
	var busy []TimeInterval
	for i := range jobs {
		j := &jobs[i]
		if j.Status == model.JobStatusCancelled || j.StartTime == nil || j.EndTime == nil {
			continue
		}

		segments := []TimeInterval{{Start: *j.StartTime, End: *j.EndTime}}
		for _, br := range j.Breaks {
			segments = subtractInterval(segments, TimeInterval{Start: br.StartTime, End: br.EndTime})
		}
		busy = append(busy, segments...)
	}

	sort.Slice(busy, func(a, b int) bool { return busy[a].Start.Before(busy[b].Start) })
	return busy
}

// subtractInterval 从一组区间中挖掉 cut，返回剩余部分
func subtractInterval(segments []TimeInterval, cut TimeInterval) []TimeInterval {
	if !cut.End.After(cut.Start) {
		return segments
	}

	var out []TimeInterval
	for _, seg := range segments {
		if !seg.Overlaps(cut) {
			out = append(out, seg)
			continue
		}
		if cut.Start.After(seg.Start) {
			out = append(out, TimeInterval{Start: seg.Start, End: cut.Start})
		}
		if cut.End.Before(seg.End) {
			out = append(out, TimeInterval{Start: cut.End, End: seg.End})
		}
	}
	return out
}

// ComputeDaySlots 计算某一天的可预约时段（纯函数）
//
// hours 为该星期几的营业时间窗口（"09:00" 格式），busy 为当天占用区间。
// 每个候选时段长度为 durationMin，且其后需留出 bufferMin 的缓冲；
// 候选时段连同缓冲都必须落在窗口内且不与任何占用区间相交。
// 起点按 stepMin 对齐推进。
func ComputeDaySlots(date time.Time, hours []model.WorkingHour, busy []TimeInterval, durationMin, bufferMin, stepMin int) []TimeInterval {
	if durationMin <= 0 {
		return nil
	}
	if stepMin <= 0 {
		stepMin = 30
	}

	duration := time.Duration(durationMin) * time.Minute
	block := duration + time.Duration(bufferMin)*time.Minute
	step := time.Duration(stepMin) * time.Minute

	var slots []TimeInterval
	for _, wh := range hours {
		winStart, ok1 := atClock(date, wh.StartTime)
		winEnd, ok2 := atClock(date, wh.EndTime)
		if !ok1 || !ok2 || !winEnd.After(winStart) {
			continue
		}

		for cur := winStart; !cur.Add(block).After(winEnd); cur = cur.Add(step) {
			candidate := TimeInterval{Start: cur, End: cur.Add(block)}
			if overlapsAny(candidate, busy) {
				continue
			}
			slots = append(slots, TimeInterval{Start: cur, End: cur.Add(duration)})
		}
	}

	sort.Slice(slots, func(a, b int) bool { return slots[a].Start.Before(slots[b].Start) })
	return slots
}

func overlapsAny(iv TimeInterval, busy []TimeInterval) bool {
	for _, b := range busy {
		if iv.Overlaps(b) {
			return true
		}
	}
	return false
}

// atClock 把 "15:04" 挂到 date 当天，沿用 date 的时区
func atClock(date time.Time, clock string) (time.Time, bool) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, date.Location()), true
}

// [自证通过] internal/service/availability.go
