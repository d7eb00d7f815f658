/*
 * @module service/scheduler/next_fire
 * @description 下次触发时间计算，按调度频率描述符推算触发时刻
 * @architecture 纯函数计算层
 * @documentReference dev_docs/etl_requirements.md
 * @stateFlow 频率描述符 + 参考时刻 -> 下次触发时刻
 * @rules once的过期startDate立即触发；weekly多天取最近的(星期,时刻)组合，等距时取较小星期值；monthly短月钳制到月末
 * @refs scheduler.go
 */

package scheduler

import (
	"fmt"
	"sort"
	"time"

	"etl-service/service/meta"
	"etl-service/service/models"
)

// ComputeNextFire 计算从from时刻起的下次触发时间
func ComputeNextFire(schedule *models.Schedule, from time.Time) (time.Time, error) {
	if schedule == nil {
		return time.Time{}, fmt.Errorf("调度配置不能为空")
	}
	if err := schedule.Validate(); err != nil {
		return time.Time{}, err
	}

	switch schedule.Frequency {
	case meta.ScheduleFrequencyOnce:
		// 过期的startDate立即触发
		if schedule.StartDate.Before(from) {
			return from, nil
		}
		return schedule.StartDate, nil

	case meta.ScheduleFrequencyHourly:
		return from.Add(time.Hour), nil

	case meta.ScheduleFrequencyDaily:
		hour, minute := mustParseTimeOfDay(schedule.TimeOfDay)
		next := time.Date(from.Year(), from.Month(), from.Day(), hour, minute, 0, 0, from.Location())
		if !next.After(from) {
			next = next.AddDate(0, 0, 1)
		}
		return next, nil

	case meta.ScheduleFrequencyWeekly:
		return nextWeeklyFire(schedule, from), nil

	case meta.ScheduleFrequencyMonthly:
		return nextMonthlyFire(schedule, from), nil

	default:
		return time.Time{}, fmt.Errorf("无效的调度频率: %s", schedule.Frequency)
	}
}

// nextWeeklyFire 计算每周调度的下次触发时间
// 候选为daysOfWeek中每一天的timeOfDay时刻，取未来最近者；
// 星期值升序遍历，等距候选取较小的星期值，保证确定性
func nextWeeklyFire(schedule *models.Schedule, from time.Time) time.Time {
	hour, minute := mustParseTimeOfDay(schedule.TimeOfDay)

	days := make([]int, len(schedule.DaysOfWeek))
	copy(days, schedule.DaysOfWeek)
	sort.Ints(days)

	var best time.Time
	for _, day := range days {
		// 本周该星期的触发时刻
		offset := (day - int(from.Weekday()) + 7) % 7
		candidate := time.Date(from.Year(), from.Month(), from.Day(), hour, minute, 0, 0, from.Location()).
			AddDate(0, 0, offset)
		if !candidate.After(from) {
			candidate = candidate.AddDate(0, 0, 7)
		}

		if best.IsZero() || candidate.Before(best) {
			best = candidate
		}
	}

	return best
}

// nextMonthlyFire 计算每月调度的下次触发时间
// 触发日取startDate的日，目标月更短时钳制到月末
func nextMonthlyFire(schedule *models.Schedule, from time.Time) time.Time {
	hour, minute := mustParseTimeOfDay(schedule.TimeOfDay)
	targetDay := schedule.StartDate.Day()
	if targetDay == 0 {
		targetDay = 1
	}

	year, month := from.Year(), from.Month()
	for i := 0; i < 13; i++ {
		day := clampDayOfMonth(year, month, targetDay)
		candidate := time.Date(year, month, day, hour, minute, 0, 0, from.Location())
		if candidate.After(from) {
			return candidate
		}

		month++
		if month > time.December {
			month = time.January
			year++
		}
	}

	// 13个月内必有候选，此处不可达
	return time.Time{}
}

// clampDayOfMonth 将目标日钳制到该月最后一个有效日
func clampDayOfMonth(year int, month time.Month, day int) int {
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > lastDay {
		return lastDay
	}
	return day
}

// mustParseTimeOfDay 解析 15:04 格式的时刻，调用前已由Validate保证格式合法
func mustParseTimeOfDay(timeOfDay string) (hour, minute int) {
	if timeOfDay == "" {
		return 0, 0
	}
	t, err := time.Parse("15:04", timeOfDay)
	if err != nil {
		return 0, 0
	}
	return t.Hour(), t.Minute()
}
