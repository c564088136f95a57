package report

import (
	"math"
	"time"
)

const dateLayout = "2006-01-02"

// dailyAverage 计算首末记录日期（含两端）之间的日均距离。
// 跨度不足一天按一天算；没有记录时为0。
func dailyAverage(totalMeters int64, count int64, firstDate, lastDate string) float64 {
	if count == 0 || firstDate == "" || lastDate == "" {
		return 0
	}
	first, err := time.Parse(dateLayout, firstDate)
	if err != nil {
		return 0
	}
	last, err := time.Parse(dateLayout, lastDate)
	if err != nil {
		return 0
	}

	days := int(last.Sub(first).Hours()/24) + 1
	if days < 1 {
		days = 1
	}
	return float64(totalMeters) / float64(days)
}

// estimateCompletion 按当前日均距离线性外推达成年度目标的日期。
// 日均为0（或目标已达成）时没有可外推的日期，返回nil。
func estimateCompletion(totalMeters int64, avg float64, goalMeters int64) *string {
	if avg <= 0 {
		return nil
	}
	remaining := goalMeters - totalMeters
	if remaining <= 0 {
		return nil
	}

	daysRemaining := int(math.Ceil(float64(remaining) / avg))
	completion := time.Now().AddDate(0, 0, daysRemaining).Format(dateLayout)
	return &completion
}

// percentage 计算目标完成度，封顶100。
func percentage(totalMeters int64, goalMeters int64) float64 {
	if goalMeters <= 0 {
		return 0
	}
	p := float64(totalMeters) / float64(goalMeters) * 100
	if p > 100 {
		return 100
	}
	return p
}
