package entry

import (
	"path/filepath"
	"testing"

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

	stmts := []string{
		"INSERT INTO users (id, name, email, sport) VALUES ('u1', 'Alice', 'alice@example.com', 'Other')",
		"INSERT INTO users (id, name, email, sport) VALUES ('u2', 'Bob', 'bob@example.com', 'Rowing')",
	}
	for _, stmt := range stmts {
		require.NoError(t, db.Exec(stmt).Error)
	}

	database.DB = db
}

func userSport(t *testing.T, id string) string {
	t.Helper()
	var sport string
	require.NoError(t, database.DB.Raw("SELECT sport FROM users WHERE id = ?", id).Scan(&sport).Error)
	return sport
}

func TestCreateEntry(t *testing.T) {
	setupTestDB(t)

	e, err := Create("u1", 2000.4, "2024-01-15", "09:00", "")
	require.NoError(t, err)
	require.NotZero(t, e.ID)
	require.EqualValues(t, 2000, e.Meters)
	require.EqualValues(t, "2024-01-15", e.EntryDate)
	require.NotNil(t, e.EntryTime)
	require.Equal(t, "09:00", *e.EntryTime)
	require.EqualValues(t, "2024-01-15T14:00:00.000Z", e.EntryTimestamp)
}

func TestCreateEntryDefaultsToNoon(t *testing.T) {
	setupTestDB(t)

	e, err := Create("u1", 1000, "2024-01-15", "", "")
	require.NoError(t, err)
	require.Equal(t, "12:00", *e.EntryTime)
	require.EqualValues(t, "2024-01-15T17:00:00.000Z", e.EntryTimestamp)
}

func TestCreateEntryRejectsBadInput(t *testing.T) {
	setupTestDB(t)

	_, err := Create("u1", 0, "2024-01-15", "", "")
	require.ErrorIs(t, err, ErrInvalidMeters)

	_, err = Create("u1", -50, "2024-01-15", "", "")
	require.ErrorIs(t, err, ErrInvalidMeters)

	// 0.4米四舍五入后不足1米
	_, err = Create("u1", 0.4, "2024-01-15", "", "")
	require.ErrorIs(t, err, ErrInvalidMeters)

	_, err = Create("u1", 1000, "", "", "")
	require.ErrorIs(t, err, ErrMissingDate)

	_, err = Create("u1", 1000, "15/01/2024", "", "")
	require.Error(t, err)
}

func TestCreateEntryUpdatesSportOnFirstOfYear(t *testing.T) {
	setupTestDB(t)

	// 年度第一条带项目的记录改写用户的项目
	_, err := Create("u1", 1000, "2024-01-15", "", "Swimming")
	require.NoError(t, err)
	require.Equal(t, "Swimming", userSport(t, "u1"))

	// 同一年的后续记录不再改写
	_, err = Create("u1", 1000, "2024-06-01", "", "Cycling")
	require.NoError(t, err)
	require.Equal(t, "Swimming", userSport(t, "u1"))

	// 新的一年重新改写
	_, err = Create("u1", 1000, "2025-01-02", "", "Cycling")
	require.NoError(t, err)
	require.Equal(t, "Cycling", userSport(t, "u1"))
}

func TestCreateEntryWithoutSportKeepsUser(t *testing.T) {
	setupTestDB(t)

	_, err := Create("u2", 1000, "2024-01-15", "", "")
	require.NoError(t, err)
	require.Equal(t, "Rowing", userSport(t, "u2"))
}

func TestUpdateEntry(t *testing.T) {
	setupTestDB(t)

	e, err := Create("u1", 1000, "2024-01-15", "09:00", "")
	require.NoError(t, err)

	require.NoError(t, Update("u1", e.ID, 2500, "2024-07-01", "18:30"))

	updated, err := getOwned("u1", e.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2500, updated.Meters)
	require.EqualValues(t, "2024-07-01", updated.EntryDate)
	require.Equal(t, "18:30", *updated.EntryTime)
	// 时刻随日期和时间重新换算（7月为EDT）
	require.EqualValues(t, "2024-07-01T22:30:00.000Z", updated.EntryTimestamp)
}

func TestUpdateEntryOwnership(t *testing.T) {
	setupTestDB(t)

	e, err := Create("u1", 1000, "2024-01-15", "", "")
	require.NoError(t, err)

	require.ErrorIs(t, Update("u2", e.ID, 2000, "2024-01-16", ""), ErrForbidden)
	require.ErrorIs(t, Update("u1", 99999, 2000, "2024-01-16", ""), ErrNotFound)
}

func TestDeleteEntry(t *testing.T) {
	setupTestDB(t)

	e, err := Create("u1", 1000, "2024-01-15", "", "")
	require.NoError(t, err)

	require.ErrorIs(t, Delete("u2", e.ID), ErrForbidden)
	require.NoError(t, Delete("u1", e.ID))
	require.ErrorIs(t, Delete("u1", e.ID), ErrNotFound)
}

func TestListRecentOrder(t *testing.T) {
	setupTestDB(t)

	_, err := Create("u1", 1000, "2024-01-10", "08:00", "")
	require.NoError(t, err)
	_, err = Create("u1", 2000, "2024-01-12", "08:00", "")
	require.NoError(t, err)
	_, err = Create("u1", 3000, "2024-01-11", "08:00", "")
	require.NoError(t, err)
	// 别人的记录不应出现
	_, err = Create("u2", 9000, "2024-01-13", "08:00", "")
	require.NoError(t, err)

	entries, err := ListRecent("u1")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.EqualValues(t, "2024-01-12", entries[0].EntryDate)
	require.EqualValues(t, "2024-01-11", entries[1].EntryDate)
	require.EqualValues(t, "2024-01-10", entries[2].EntryDate)
}

func TestEntryReadBackKeepsTextForms(t *testing.T) {
	setupTestDB(t)

	_, err := Create("u1", 1000, "2024-07-01", "09:30", "")
	require.NoError(t, err)

	// 从数据库读回：DATE/DATETIME列被驱动解析成time.Time，
	// 必须还原为 YYYY-MM-DD 和毫秒精度的UTC时刻文本
	entries, err := ListRecent("u1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.EqualValues(t, "2024-07-01", entries[0].EntryDate)
	require.EqualValues(t, "2024-07-01T13:30:00.000Z", entries[0].EntryTimestamp)
}

func TestListYearAndCount(t *testing.T) {
	setupTestDB(t)

	_, err := Create("u1", 1000, "2023-12-31", "", "")
	require.NoError(t, err)
	_, err = Create("u1", 2000, "2024-01-01", "", "")
	require.NoError(t, err)
	_, err = Create("u1", 3000, "2024-06-15", "", "")
	require.NoError(t, err)

	entries, err := ListYear("u1", 2024)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	count, err := YearEntryCount("u1", 2023)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	count, err = YearEntryCount("u1", 2025)
	require.NoError(t, err)
	require.Zero(t, count)
}
