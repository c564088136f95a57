package user

import (
	"path/filepath"
	"testing"

	"github.com/SlpAus/million-meters-backend/internal/platform/config"
	"github.com/SlpAus/million-meters-backend/internal/platform/database"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) {
	t.Helper()

	config.Cfg = &config.Config{}
	// 测试里用最低代价因子，散列速度快一个数量级
	config.Cfg.Auth.BcryptCost = bcrypt.MinCost

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.MigrateSchema(db))

	database.DB = db
}

func TestNewUserID(t *testing.T) {
	id1, err := NewUserID()
	require.NoError(t, err)
	id2, err := NewUserID()
	require.NoError(t, err)

	require.Len(t, id1, 36)
	require.NotEqual(t, id1, id2)
}

func TestCreateWithPassword(t *testing.T) {
	setupTestDB(t)

	u, err := CreateWithPassword("Alice", "alice@example.com", "secret123", "Swimming")
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	require.Equal(t, "Swimming", u.Sport)
	require.NotNil(t, u.PasswordHash)
	// 散列后的密码不等于明文
	require.NotEqual(t, "secret123", *u.PasswordHash)

	fetched, err := GetByID(u.ID)
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", fetched.Email)
}

func TestCreateWithPasswordDuplicateEmail(t *testing.T) {
	setupTestDB(t)

	_, err := CreateWithPassword("Alice", "alice@example.com", "secret123", "Swimming")
	require.NoError(t, err)

	_, err = CreateWithPassword("Alice2", "alice@example.com", "other456", "Rowing")
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestGetByIDNotFound(t *testing.T) {
	setupTestDB(t)

	_, err := GetByID("no-such-user")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAuthenticateByEmail(t *testing.T) {
	setupTestDB(t)

	created, err := CreateWithPassword("Alice", "alice@example.com", "secret123", "Swimming")
	require.NoError(t, err)

	u, err := AuthenticateByEmail("alice@example.com", "secret123")
	require.NoError(t, err)
	require.Equal(t, created.ID, u.ID)

	_, err = AuthenticateByEmail("alice@example.com", "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = AuthenticateByEmail("nobody@example.com", "secret123")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateGoogleOnlyAccount(t *testing.T) {
	setupTestDB(t)

	// 只通过Google注册过的账号没有密码散列
	_, _, err := FindOrCreateByGoogle("g-123", "alice@example.com", "Alice")
	require.NoError(t, err)

	_, err = AuthenticateByEmail("alice@example.com", "anything")
	require.ErrorIs(t, err, ErrNoPassword)
}

func TestFindOrCreateByGoogleCreatesNewUser(t *testing.T) {
	setupTestDB(t)

	u, needsProfile, err := FindOrCreateByGoogle("g-123", "alice@example.com", "Alice")
	require.NoError(t, err)
	require.True(t, needsProfile)
	require.Equal(t, "Other", u.Sport)
	require.NotNil(t, u.GoogleID)
	require.Equal(t, "g-123", *u.GoogleID)

	// 再次登录命中同一个用户
	again, needsProfile2, err := FindOrCreateByGoogle("g-123", "alice@example.com", "Alice")
	require.NoError(t, err)
	require.True(t, needsProfile2)
	require.Equal(t, u.ID, again.ID)
}

func TestFindOrCreateByGoogleBindsExistingEmail(t *testing.T) {
	setupTestDB(t)

	created, err := CreateWithPassword("Alice", "alice@example.com", "secret123", "Swimming")
	require.NoError(t, err)

	// 同邮箱的老账号被就地绑定，而不是新建
	u, needsProfile, err := FindOrCreateByGoogle("g-123", "alice@example.com", "Alice G")
	require.NoError(t, err)
	require.Equal(t, created.ID, u.ID)
	// 老账号已有运动项目，无需补全资料
	require.False(t, needsProfile)

	// 绑定后密码登录依然可用
	_, err = AuthenticateByEmail("alice@example.com", "secret123")
	require.NoError(t, err)
}

func TestCompleteProfile(t *testing.T) {
	setupTestDB(t)

	u, _, err := FindOrCreateByGoogle("g-123", "alice@example.com", "Alice")
	require.NoError(t, err)

	require.NoError(t, CompleteProfile(u.ID, "Alice Smith", "Swimming"))

	updated, err := GetByID(u.ID)
	require.NoError(t, err)
	require.Equal(t, "Alice Smith", updated.Name)
	require.Equal(t, "Swimming", updated.Sport)

	// 资料补全后再登录不再要求补全
	_, needsProfile, err := FindOrCreateByGoogle("g-123", "alice@example.com", "Alice")
	require.NoError(t, err)
	require.False(t, needsProfile)
}

func TestUpdateNameAndSport(t *testing.T) {
	setupTestDB(t)

	u, err := CreateWithPassword("Alice", "alice@example.com", "secret123", "Swimming")
	require.NoError(t, err)

	require.NoError(t, UpdateName(u.ID, "Alicia"))
	require.NoError(t, UpdateSport(u.ID, "Cycling"))

	updated, err := GetByID(u.ID)
	require.NoError(t, err)
	require.Equal(t, "Alicia", updated.Name)
	require.Equal(t, "Cycling", updated.Sport)
}

func TestDeleteAccountRemovesAllData(t *testing.T) {
	setupTestDB(t)

	u, err := CreateWithPassword("Alice", "alice@example.com", "secret123", "Swimming")
	require.NoError(t, err)

	stmts := []string{
		"INSERT INTO sessions (id, user_id, expires_at) VALUES ('sess-1', '" + u.ID + "', 9999999999)",
		"INSERT INTO progress_entries (user_id, meters, entry_date, entry_timestamp) VALUES ('" + u.ID + "', 1000, '2024-01-15', '2024-01-15T17:00:00.000Z')",
	}
	for _, stmt := range stmts {
		require.NoError(t, database.DB.Exec(stmt).Error)
	}

	require.NoError(t, DeleteAccount(u.ID))

	_, err = GetByID(u.ID)
	require.ErrorIs(t, err, ErrNotFound)

	var sessions, entries int64
	require.NoError(t, database.DB.Raw("SELECT COUNT(*) FROM sessions WHERE user_id = ?", u.ID).Scan(&sessions).Error)
	require.NoError(t, database.DB.Raw("SELECT COUNT(*) FROM progress_entries WHERE user_id = ?", u.ID).Scan(&entries).Error)
	require.Zero(t, sessions)
	require.Zero(t, entries)
}
