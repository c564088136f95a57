package report

import (
	"fmt"
	"math"
	"time"

	"github.com/SlpAus/million-meters-backend/internal/platform/config"
	"github.com/SlpAus/million-meters-backend/internal/platform/database"
	"github.com/SlpAus/million-meters-backend/internal/user"
)

// Stats 是一个用户在某个范围内的进度汇总
type Stats struct {
	TotalMeters         int64
	Percentage          float64
	DailyAverage        int64
	EstimatedCompletion *string
}

// entryAggregate 对应进度表聚合查询的一行
type entryAggregate struct {
	Count     int64   `gorm:"column:count"`
	Total     int64   `gorm:"column:total"`
	FirstDate *string `gorm:"column:first_date"`
	LastDate  *string `gorm:"column:last_date"`
}

// buildStats 把聚合行换算成对外的进度汇总
func buildStats(agg entryAggregate) Stats {
	goal := config.Cfg.Goal.AnnualMeters

	first, last := "", ""
	if agg.FirstDate != nil {
		first = *agg.FirstDate
	}
	if agg.LastDate != nil {
		last = *agg.LastDate
	}

	avg := dailyAverage(agg.Total, agg.Count, first, last)
	return Stats{
		TotalMeters:         agg.Total,
		Percentage:          percentage(agg.Total, goal),
		DailyAverage:        int64(math.Round(avg)),
		EstimatedCompletion: estimateCompletion(agg.Total, avg, goal),
	}
}

// UserStats 汇总一个用户的全部进度（不限年份）。
func UserStats(userID string) (Stats, error) {
	var agg entryAggregate
	err := database.DB.Raw(
		`SELECT COUNT(*) AS count, COALESCE(SUM(meters), 0) AS total,
			MIN(entry_date) AS first_date, MAX(entry_date) AS last_date
		FROM progress_entries WHERE user_id = ?`, userID).Scan(&agg).Error
	if err != nil {
		return Stats{}, fmt.Errorf("汇总用户进度失败: %w", err)
	}
	return buildStats(agg), nil
}

// UserYearStats 汇总一个用户在某一年内的进度。
func UserYearStats(userID string, year int) (Stats, error) {
	var agg entryAggregate
	err := database.DB.Raw(
		`SELECT COUNT(*) AS count, COALESCE(SUM(meters), 0) AS total,
			MIN(entry_date) AS first_date, MAX(entry_date) AS last_date
		FROM progress_entries WHERE user_id = ? AND strftime('%Y', entry_date) = ?`,
		userID, fmt.Sprintf("%d", year)).Scan(&agg).Error
	if err != nil {
		return Stats{}, fmt.Errorf("汇总用户年度进度失败: %w", err)
	}
	return buildStats(agg), nil
}

// AvailableYears 返回一个用户有记录的年份，从新到旧。
func AvailableYears(userID string) ([]int, error) {
	var years []int
	err := database.DB.Raw(
		`SELECT DISTINCT CAST(strftime('%Y', entry_date) AS INTEGER) AS year
		FROM progress_entries WHERE user_id = ? ORDER BY year DESC`, userID).Scan(&years).Error
	if err != nil {
		return nil, fmt.Errorf("查询记录年份失败: %w", err)
	}
	return years, nil
}

// LeaderboardRow 是排行榜上的一行
type LeaderboardRow struct {
	User  user.User
	Stats Stats
}

// leaderboardAggregate 对应排行榜聚合查询的一行：用户字段加进度聚合
type leaderboardAggregate struct {
	ID        string  `gorm:"column:id"`
	Name      string  `gorm:"column:name"`
	Sport     string  `gorm:"column:sport"`
	Count     int64   `gorm:"column:count"`
	Total     int64   `gorm:"column:total"`
	FirstDate *string `gorm:"column:first_date"`
	LastDate  *string `gorm:"column:last_date"`
}

// Leaderboard 汇总所有用户在当年的进度，按总距离从高到低排序。
// 一条按用户分组的聚合查询完成，不逐个用户查询。
func Leaderboard() ([]LeaderboardRow, error) {
	currentYear := fmt.Sprintf("%d", time.Now().Year())

	var aggs []leaderboardAggregate
	err := database.DB.Raw(
		`SELECT u.id, u.name, u.sport,
			COUNT(p.id) AS count, COALESCE(SUM(p.meters), 0) AS total,
			MIN(p.entry_date) AS first_date, MAX(p.entry_date) AS last_date
		FROM users u
		LEFT JOIN progress_entries p
			ON p.user_id = u.id AND strftime('%Y', p.entry_date) = ?
		GROUP BY u.id
		ORDER BY total DESC, u.name`, currentYear).Scan(&aggs).Error
	if err != nil {
		return nil, fmt.Errorf("生成排行榜失败: %w", err)
	}

	rows := make([]LeaderboardRow, 0, len(aggs))
	for _, agg := range aggs {
		rows = append(rows, LeaderboardRow{
			User: user.User{ID: agg.ID, Name: agg.Name, Sport: agg.Sport},
			Stats: buildStats(entryAggregate{
				Count:     agg.Count,
				Total:     agg.Total,
				FirstDate: agg.FirstDate,
				LastDate:  agg.LastDate,
			}),
		})
	}
	return rows, nil
}
