package report

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/SlpAus/million-meters-backend/internal/platform/config"
	"github.com/SlpAus/million-meters-backend/internal/platform/database"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) {
	t.Helper()

	config.Cfg = &config.Config{}
	config.Cfg.Goal.AnnualMeters = 1000000

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.MigrateSchema(db))

	database.DB = db
}

func seedUser(t *testing.T, id, name string) {
	t.Helper()
	err := database.DB.Exec(
		"INSERT INTO users (id, name, email, sport) VALUES (?, ?, ?, 'Swimming')",
		id, name, id+"@example.com").Error
	require.NoError(t, err)
}

func seedEntry(t *testing.T, userID string, meters int64, date string) {
	t.Helper()
	err := database.DB.Exec(
		"INSERT INTO progress_entries (user_id, meters, entry_date, entry_timestamp) VALUES (?, ?, ?, ?)",
		userID, meters, date, date+"T17:00:00.000Z").Error
	require.NoError(t, err)
}

func TestUserStats(t *testing.T) {
	setupTestDB(t)
	seedUser(t, "u1", "Alice")

	// 10天跨度共50000米 → 日均5000
	seedEntry(t, "u1", 20000, "2024-01-01")
	seedEntry(t, "u1", 30000, "2024-01-10")

	stats, err := UserStats("u1")
	require.NoError(t, err)
	require.EqualValues(t, 50000, stats.TotalMeters)
	require.EqualValues(t, 5000, stats.DailyAverage)
	require.InDelta(t, 5.0, stats.Percentage, 0.001)
	require.NotNil(t, stats.EstimatedCompletion)
}

func TestUserStatsEmpty(t *testing.T) {
	setupTestDB(t)
	seedUser(t, "u1", "Alice")

	stats, err := UserStats("u1")
	require.NoError(t, err)
	require.Zero(t, stats.TotalMeters)
	require.Zero(t, stats.DailyAverage)
	require.Zero(t, stats.Percentage)
	require.Nil(t, stats.EstimatedCompletion)
}

func TestUserYearStatsFiltersByYear(t *testing.T) {
	setupTestDB(t)
	seedUser(t, "u1", "Alice")

	seedEntry(t, "u1", 10000, "2023-12-31")
	seedEntry(t, "u1", 20000, "2024-01-01")
	seedEntry(t, "u1", 30000, "2024-06-15")

	stats, err := UserYearStats("u1", 2024)
	require.NoError(t, err)
	require.EqualValues(t, 50000, stats.TotalMeters)

	stats, err = UserYearStats("u1", 2023)
	require.NoError(t, err)
	require.EqualValues(t, 10000, stats.TotalMeters)
}

func TestAvailableYears(t *testing.T) {
	setupTestDB(t)
	seedUser(t, "u1", "Alice")

	seedEntry(t, "u1", 1000, "2022-05-01")
	seedEntry(t, "u1", 1000, "2024-01-01")
	seedEntry(t, "u1", 1000, "2024-06-15")

	years, err := AvailableYears("u1")
	require.NoError(t, err)
	require.Equal(t, []int{2024, 2022}, years)
}

func TestLeaderboardSortedByCurrentYearTotal(t *testing.T) {
	setupTestDB(t)
	seedUser(t, "u1", "Alice")
	seedUser(t, "u2", "Bob")
	seedUser(t, "u3", "Carol")

	year := time.Now().Year()
	today := fmt.Sprintf("%d-01-15", year)
	seedEntry(t, "u1", 5000, today)
	seedEntry(t, "u2", 20000, today)
	// 往年的距离不计入当年排行
	seedEntry(t, "u3", 99999, fmt.Sprintf("%d-06-01", year-1))

	rows, err := Leaderboard()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "Bob", rows[0].User.Name)
	require.Equal(t, "Alice", rows[1].User.Name)
	require.Equal(t, "Carol", rows[2].User.Name)
	require.Zero(t, rows[2].Stats.TotalMeters)
}
