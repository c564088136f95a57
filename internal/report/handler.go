package report

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/SlpAus/million-meters-backend/internal/entry"
	"github.com/SlpAus/million-meters-backend/internal/session"
	"github.com/SlpAus/million-meters-backend/internal/user"
	"github.com/SlpAus/million-meters-backend/pkg/timezone"
	"github.com/gin-gonic/gin"
)

// --- API响应模型 ---

type EntryResponse struct {
	ID        int64   `json:"id"`
	Meters    int64   `json:"meters"`
	Date      string  `json:"date"`
	Time      *string `json:"time"`
	Timestamp string  `json:"timestamp"`
	CreatedAt string  `json:"createdAt"`
}

type StatsResponse struct {
	TotalMeters         int64   `json:"totalMeters"`
	Percentage          float64 `json:"percentage"`
	DailyAverage        int64   `json:"dailyAverage"`
	EstimatedCompletion *string `json:"estimatedCompletion"`
}

type LeaderboardEntryResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Sport string `json:"sport"`
	StatsResponse
}

type ProgressPageResponse struct {
	User               gin.H           `json:"user"`
	Entries            []EntryResponse `json:"entries"`
	StatsResponse
	IsFirstEntryOfYear bool `json:"isFirstEntryOfYear"`
}

type UserReportResponse struct {
	User           gin.H           `json:"user"`
	Entries        []EntryResponse `json:"entries"`
	StatsResponse
	SelectedYear   int   `json:"selectedYear"`
	AvailableYears []int `json:"availableYears"`
}

func formatEntry(e entry.ProgressEntry) EntryResponse {
	return EntryResponse{
		ID:        e.ID,
		Meters:    e.Meters,
		Date:      string(e.EntryDate),
		Time:      e.EntryTime,
		Timestamp: string(e.EntryTimestamp),
		CreatedAt: e.CreatedAt.UTC().Format(timezone.InstantLayout),
	}
}

func formatStats(s Stats) StatsResponse {
	return StatsResponse{
		TotalMeters:         s.TotalMeters,
		Percentage:          s.Percentage,
		DailyAverage:        s.DailyAverage,
		EstimatedCompletion: s.EstimatedCompletion,
	}
}

// GetLeaderboard 返回当年所有用户的排行榜。
func GetLeaderboard(c *gin.Context) {
	rows, err := Leaderboard()
	if err != nil {
		fmt.Printf("生成排行榜失败: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	resp := make([]LeaderboardEntryResponse, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, LeaderboardEntryResponse{
			ID:            row.User.ID,
			Name:          row.User.Name,
			Sport:         row.User.Sport,
			StatsResponse: formatStats(row.Stats),
		})
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": resp})
}

// GetProgress 返回当前用户的进度页数据：
// 最近的记录、全程汇总，以及当年是否还没有任何记录。
func GetProgress(c *gin.Context) {
	userID, _ := session.CurrentUserID(c)

	u, err := user.GetByID(userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	entries, err := entry.ListRecent(userID)
	if err != nil {
		fmt.Printf("查询进度记录失败: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	stats, err := UserStats(userID)
	if err != nil {
		fmt.Printf("汇总进度失败: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	yearCount, err := entry.YearEntryCount(userID, time.Now().Year())
	if err != nil {
		fmt.Printf("统计年度记录失败: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	formatted := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		formatted = append(formatted, formatEntry(e))
	}

	c.JSON(http.StatusOK, ProgressPageResponse{
		User:               gin.H{"id": u.ID, "name": u.Name, "email": u.Email, "sport": u.Sport},
		Entries:            formatted,
		StatsResponse:      formatStats(stats),
		IsFirstEntryOfYear: yearCount == 0,
	})
}

// GetUserReport 返回任意用户的公开年度报告。
// 未指定年份时默认当年。
func GetUserReport(c *gin.Context) {
	userID := c.Param("id")

	selectedYear := time.Now().Year()
	if yearParam := c.Query("year"); yearParam != "" {
		if y, err := strconv.Atoi(yearParam); err == nil {
			selectedYear = y
		}
	}

	u, err := user.GetByID(userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	entries, err := entry.ListYear(userID, selectedYear)
	if err != nil {
		fmt.Printf("查询年度记录失败: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	stats, err := UserYearStats(userID, selectedYear)
	if err != nil {
		fmt.Printf("汇总年度进度失败: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	years, err := AvailableYears(userID)
	if err != nil {
		fmt.Printf("查询记录年份失败: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	formatted := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		formatted = append(formatted, formatEntry(e))
	}

	c.JSON(http.StatusOK, UserReportResponse{
		User:           gin.H{"id": u.ID, "name": u.Name, "sport": u.Sport},
		Entries:        formatted,
		StatsResponse:  formatStats(stats),
		SelectedYear:   selectedYear,
		AvailableYears: years,
	})
}
