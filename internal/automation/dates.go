package automation

import (
	"math"
	"time"
)

// DayDifference 返回两个日期之间的整天数差，忽略时刻部分。
// to 在 from 之后第 N 个日历日时返回 N，之前则返回负数。
// 使用 ceil 吸收夏令时导致的 23/25 小时日。
func DayDifference(from, to time.Time) int {
	f := truncateToDay(from)
	t := truncateToDay(to)
	return int(math.Ceil(t.Sub(f).Hours() / 24))
}

func truncateToDay(v time.Time) time.Time {
	return time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, v.Location())
}
