package entry

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/SlpAus/million-meters-backend/internal/platform/database"
	"github.com/SlpAus/million-meters-backend/internal/user"
	"github.com/SlpAus/million-meters-backend/pkg/timezone"
	"gorm.io/gorm"
)

var (
	// ErrNotFound 表示记录不存在
	ErrNotFound = errors.New("进度记录不存在")
	// ErrForbidden 表示记录属于别的用户
	ErrForbidden = errors.New("无权操作这条记录")
	// ErrInvalidMeters 表示距离不是正数
	ErrInvalidMeters = errors.New("距离必须是正数")
	// ErrMissingDate 表示缺少日期
	ErrMissingDate = errors.New("缺少日期")
)

// recentLimit 是进度页展示的最近记录条数上限
const recentLimit = 50

// normalizeInput 把一次提交的距离/日期/时间整理成可入库的值。
// 距离四舍五入为整数米；时间缺省为正午；时刻由时区换算得出。
func normalizeInput(metersValue float64, dateStr, timeStr string) (int64, string, string, error) {
	meters := int64(math.Round(metersValue))
	if meters <= 0 {
		return 0, "", "", ErrInvalidMeters
	}
	if strings.TrimSpace(dateStr) == "" {
		return 0, "", "", ErrMissingDate
	}
	if timeStr == "" {
		timeStr = "12:00"
	}
	instant, err := timezone.Normalize(dateStr, timeStr)
	if err != nil {
		return 0, "", "", err
	}
	return meters, timeStr, instant, nil
}

// YearEntryCount 统计一个用户在某一年内的记录条数。
func YearEntryCount(userID string, year int) (int64, error) {
	var count int64
	err := database.DB.Model(&ProgressEntry{}).
		Where("user_id = ? AND strftime('%Y', entry_date) = ?", userID, fmt.Sprintf("%d", year)).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("统计年度记录数失败: %w", err)
	}
	return count, nil
}

// entryYear 从 YYYY-MM-DD 中取出年份
func entryYear(dateStr string) int {
	var year int
	fmt.Sscanf(dateStr, "%4d", &year)
	return year
}

// Create 为一个用户新增进度记录。
// 若这是该记录所在年份的第一条，且提交时带了运动项目，则顺带更新用户的项目。
func Create(userID string, metersValue float64, dateStr, timeStr, sport string) (*ProgressEntry, error) {
	meters, entryTime, instant, err := normalizeInput(metersValue, dateStr, timeStr)
	if err != nil {
		return nil, err
	}

	if sport != "" {
		count, err := YearEntryCount(userID, entryYear(dateStr))
		if err != nil {
			return nil, err
		}
		if count == 0 {
			if err := user.UpdateSport(userID, sport); err != nil {
				return nil, fmt.Errorf("更新运动项目失败: %w", err)
			}
		}
	}

	e := &ProgressEntry{
		UserID:         userID,
		Meters:         meters,
		EntryDate:      DateString(dateStr),
		EntryTime:      &entryTime,
		EntryTimestamp: InstantString(instant),
	}
	if err := database.DB.Create(e).Error; err != nil {
		return nil, fmt.Errorf("无法保存进度记录: %w", err)
	}
	return e, nil
}

// getOwned 取出一条记录并确认其归属。
func getOwned(userID string, id int64) (*ProgressEntry, error) {
	var e ProgressEntry
	if err := database.DB.First(&e, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("查询进度记录失败: %w", err)
	}
	if e.UserID != userID {
		return nil, ErrForbidden
	}
	return &e, nil
}

// Update 修改一条属于该用户的记录，并重新换算存储时刻。
func Update(userID string, id int64, metersValue float64, dateStr, timeStr string) error {
	if _, err := getOwned(userID, id); err != nil {
		return err
	}

	meters, entryTime, instant, err := normalizeInput(metersValue, dateStr, timeStr)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{
		"meters":          meters,
		"entry_date":      dateStr,
		"entry_time":      entryTime,
		"entry_timestamp": instant,
	}
	if err := database.DB.Model(&ProgressEntry{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("无法更新进度记录: %w", err)
	}
	return nil
}

// Delete 删除一条属于该用户的记录。
func Delete(userID string, id int64) error {
	if _, err := getOwned(userID, id); err != nil {
		return err
	}
	if err := database.DB.Delete(&ProgressEntry{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("无法删除进度记录: %w", err)
	}
	return nil
}

// ListRecent 返回一个用户最近的记录，按存储时刻和创建时间倒序。
func ListRecent(userID string) ([]ProgressEntry, error) {
	var entries []ProgressEntry
	err := database.DB.
		Where("user_id = ?", userID).
		Order("entry_timestamp DESC, created_at DESC").
		Limit(recentLimit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("查询进度记录失败: %w", err)
	}
	return entries, nil
}

// ListYear 返回一个用户某一年的全部记录，按存储时刻和创建时间倒序。
func ListYear(userID string, year int) ([]ProgressEntry, error) {
	var entries []ProgressEntry
	err := database.DB.
		Where("user_id = ? AND strftime('%Y', entry_date) = ?", userID, fmt.Sprintf("%d", year)).
		Order("entry_timestamp DESC, created_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("查询年度进度记录失败: %w", err)
	}
	return entries, nil
}
