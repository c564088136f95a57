package database

import (
	"fmt"
	"strings"

	"github.com/SlpAus/million-meters-backend/pkg/timezone"
	"gorm.io/gorm"
)

// 本文件实现启动期的结构迁移：通过探查磁盘上的实际结构（而不是版本号），
// 把任意一种历史形态的库收敛到当前形态。除用户ID类型转换外，
// 所有步骤都是尽力而为：失败只记录日志，不阻止启动。

// baseSchema 是当前形态的基础建表语句。
// 对全新的库，执行后即为最终形态；对历史库，后续各步骤负责补齐差异。
const baseSchema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT UNIQUE NOT NULL,
	sport TEXT NOT NULL,
	password_hash TEXT,
	google_id TEXT UNIQUE,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	expires_at INTEGER NOT NULL,
	FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS progress_entries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id TEXT NOT NULL,
	meters INTEGER NOT NULL,
	entry_date DATE NOT NULL,
	entry_time TIME,
	entry_timestamp DATETIME NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (user_id) REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id);
CREATE INDEX IF NOT EXISTS idx_progress_user_id ON progress_entries(user_id);
CREATE INDEX IF NOT EXISTS idx_progress_entry_date ON progress_entries(entry_date);
`

// tableColumn 对应 PRAGMA table_info 返回的一行
type tableColumn struct {
	CID       int     `gorm:"column:cid"`
	Name      string  `gorm:"column:name"`
	Type      string  `gorm:"column:type"`
	NotNull   int     `gorm:"column:notnull"`
	DfltValue *string `gorm:"column:dflt_value"`
	PK        int     `gorm:"column:pk"`
}

// tableColumns 查询一张表的实际列清单
func tableColumns(db *gorm.DB, table string) ([]tableColumn, error) {
	var cols []tableColumn
	if err := db.Raw(fmt.Sprintf("PRAGMA table_info(%s)", table)).Scan(&cols).Error; err != nil {
		return nil, fmt.Errorf("无法读取%s表的列信息: %w", table, err)
	}
	return cols, nil
}

func hasColumn(cols []tableColumn, name string) bool {
	for _, col := range cols {
		if col.Name == name {
			return true
		}
	}
	return false
}

func columnType(cols []tableColumn, name string) string {
	for _, col := range cols {
		if col.Name == name {
			return col.Type
		}
	}
	return ""
}

// tableDefinition 返回sqlite_master中保存的建表语句原文
func tableDefinition(db *gorm.DB, table string) (string, error) {
	var sql string
	err := db.Raw("SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&sql).Error
	if err != nil {
		return "", fmt.Errorf("无法读取%s表的定义: %w", table, err)
	}
	return sql, nil
}

// MigrateSchema 是结构迁移的总入口，在任何请求被处理之前由启动流程调用一次。
// 返回非nil错误意味着库处于不可修复的状态，调用方应当中止启动。
func MigrateSchema(db *gorm.DB) error {
	fmt.Println("开始检查并迁移数据库结构...")

	// 0. 基础建表：对全新的库一步到位，对历史库无副作用
	if err := db.Exec(baseSchema).Error; err != nil {
		return fmt.Errorf("无法创建基础表结构: %w", err)
	}

	// 1. 为历史库补充password_hash列（尽力而为）
	ensurePasswordHashColumn(db)

	// 2. 为历史库补充google_id列和对应的部分唯一索引（尽力而为）
	ensureGoogleIDColumn(db)

	// 3. 用户ID从整数到文本的转换。这是唯一允许中止启动的步骤：
	//    转换中断会破坏三张表之间的引用完整性
	if err := migrateUserIDToText(db); err != nil {
		return err
	}

	// 4. 移除旧版的每日唯一约束，允许每人每天多条记录（尽力而为）
	//    依赖第3步的文本ID，必须排在其后
	ensureMultipleEntriesPerDay(db)

	fmt.Println("数据库结构迁移完成。")
	return nil
}

// ensurePasswordHashColumn 在users表缺少password_hash列时补充它。
// 先查询实际列清单再决定动作，不依赖解析失败信息来判断列是否已存在。
func ensurePasswordHashColumn(db *gorm.DB) {
	cols, err := tableColumns(db, "users")
	if err != nil {
		fmt.Printf("警告: 检查password_hash列失败: %v\n", err)
		return
	}
	if hasColumn(cols, "password_hash") {
		return
	}

	if err := db.Exec("ALTER TABLE users ADD COLUMN password_hash TEXT").Error; err != nil {
		// 列已存在不算失败
		if !strings.Contains(err.Error(), "duplicate column") {
			fmt.Printf("警告: 添加password_hash列失败: %v\n", err)
		}
	}
}

// ensureGoogleIDColumn 在users表缺少google_id列时补充它。
// SQLite不允许直接为既有表添加UNIQUE列，所以列本身不带约束，
// 唯一性由只覆盖非空值的部分唯一索引保证。列和索引在同一个事务中创建，
// 避免出现列已可写而索引尚未建立的窗口。
func ensureGoogleIDColumn(db *gorm.DB) {
	const indexSQL = "CREATE UNIQUE INDEX IF NOT EXISTS idx_users_google_id ON users(google_id) WHERE google_id IS NOT NULL"

	cols, err := tableColumns(db, "users")
	if err != nil {
		fmt.Printf("警告: 检查google_id列失败: %v\n", err)
		return
	}

	if hasColumn(cols, "google_id") {
		// 列已就位时仅确保索引存在，自愈早期版本留下的缺口
		if err := db.Exec(indexSQL).Error; err != nil {
			fmt.Printf("警告: 创建google_id唯一索引失败: %v\n", err)
		}
		return
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("ALTER TABLE users ADD COLUMN google_id TEXT").Error; err != nil {
			return err
		}
		return tx.Exec(indexSQL).Error
	})
	if err != nil {
		fmt.Printf("警告: 添加google_id列失败: %v\n", err)
	}
}

// migrateUserIDToText 检查users.id的实际类型，必要时把三张表整体迁移到文本ID。
// 整个重建（建影子表、复制、删旧表、改名、重建索引）在单个事务中完成，
// 任何一步失败都会整体回滚并上抛错误。
func migrateUserIDToText(db *gorm.DB) error {
	cols, err := tableColumns(db, "users")
	if err != nil {
		// 探查失败按尽力而为处理：没有证据表明需要转换
		fmt.Printf("警告: 检查用户ID类型失败: %v\n", err)
		return nil
	}
	if !strings.EqualFold(columnType(cols, "id"), "INTEGER") {
		return nil
	}

	fmt.Println("检测到整数类型的用户ID，开始向文本ID迁移...")

	err = db.Transaction(func(tx *gorm.DB) error {
		// 历史库可能还没有entry_time/entry_timestamp列，先补齐再整表复制
		if err := backfillEntryColumns(tx); err != nil {
			return err
		}

		stmts := []string{
			`CREATE TABLE users_new (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				email TEXT UNIQUE NOT NULL,
				sport TEXT NOT NULL,
				password_hash TEXT,
				google_id TEXT,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)`,
			`INSERT INTO users_new (id, name, email, sport, password_hash, google_id, created_at)
				SELECT CAST(id AS TEXT), name, email, sport, password_hash, google_id, created_at FROM users`,
			`CREATE TABLE sessions_new (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				expires_at INTEGER NOT NULL,
				FOREIGN KEY (user_id) REFERENCES users_new(id) ON DELETE CASCADE
			)`,
			`INSERT INTO sessions_new (id, user_id, expires_at)
				SELECT id, CAST(user_id AS TEXT), expires_at FROM sessions`,
			`CREATE TABLE progress_entries_new (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id TEXT NOT NULL,
				meters INTEGER NOT NULL,
				entry_date DATE NOT NULL,
				entry_time TIME,
				entry_timestamp DATETIME NOT NULL,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				FOREIGN KEY (user_id) REFERENCES users_new(id)
			)`,
			`INSERT INTO progress_entries_new (id, user_id, meters, entry_date, entry_time, entry_timestamp, created_at)
				SELECT id, CAST(user_id AS TEXT), meters, entry_date, entry_time, entry_timestamp, created_at FROM progress_entries`,
			`DROP TABLE progress_entries`,
			`DROP TABLE sessions`,
			`DROP TABLE users`,
			`ALTER TABLE users_new RENAME TO users`,
			`ALTER TABLE sessions_new RENAME TO sessions`,
			`ALTER TABLE progress_entries_new RENAME TO progress_entries`,
			`CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id)`,
			`CREATE INDEX IF NOT EXISTS idx_progress_user_id ON progress_entries(user_id)`,
			`CREATE INDEX IF NOT EXISTS idx_progress_entry_date ON progress_entries(entry_date)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_google_id ON users(google_id) WHERE google_id IS NOT NULL`,
		}
		for _, stmt := range stmts {
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("用户ID类型迁移失败，所有改动已回滚: %w", err)
	}

	fmt.Println("用户ID类型迁移完成。")
	return nil
}

// ensureMultipleEntriesPerDay 检查progress_entries是否还带着旧版的
// UNIQUE(user_id, entry_date)约束。带约束时整表重建去掉它；
// 不带约束时只需保证时间列齐全并补算缺失的时刻。
func ensureMultipleEntriesPerDay(db *gorm.DB) {
	def, err := tableDefinition(db, "progress_entries")
	if err != nil {
		fmt.Printf("警告: 检查progress_entries表定义失败: %v\n", err)
		return
	}

	if !strings.Contains(def, "UNIQUE(user_id, entry_date)") {
		// 约束已不存在，补齐时间列即可
		if err := backfillEntryColumns(db); err != nil {
			fmt.Printf("警告: 补齐progress_entries时间列失败: %v\n", err)
		}
		return
	}

	fmt.Println("检测到每日唯一约束，开始重建progress_entries表...")

	// 复制前先把历史行的时间列补齐，保证新表的NOT NULL约束成立
	if err := backfillEntryColumns(db); err != nil {
		fmt.Printf("警告: 重建前补齐时间列失败: %v\n", err)
		return
	}

	stmts := []string{
		// 清掉上次中断可能残留的半成品
		`DROP TABLE IF EXISTS progress_entries_new`,
		`CREATE TABLE progress_entries_new (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			meters INTEGER NOT NULL,
			entry_date DATE NOT NULL,
			entry_time TIME,
			entry_timestamp DATETIME NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id)
		)`,
		`INSERT INTO progress_entries_new (id, user_id, meters, entry_date, entry_time, entry_timestamp, created_at)
			SELECT id, user_id, meters, entry_date, entry_time, entry_timestamp, created_at FROM progress_entries`,
		`DROP TABLE progress_entries`,
		`ALTER TABLE progress_entries_new RENAME TO progress_entries`,
		`CREATE INDEX IF NOT EXISTS idx_progress_user_id ON progress_entries(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_progress_entry_date ON progress_entries(entry_date)`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			fmt.Printf("警告: 重建progress_entries表失败: %v\n", err)
			return
		}
	}

	fmt.Println("progress_entries表重建完成，每日可记录多条。")
}

// backfillEntryColumns 确保progress_entries具有entry_time和entry_timestamp两列，
// 并为缺少时刻的历史行补算：墙上时间缺省为当地正午，
// 时刻经时区换算得到。幂等，可在事务内外复用。
func backfillEntryColumns(db *gorm.DB) error {
	cols, err := tableColumns(db, "progress_entries")
	if err != nil {
		return err
	}

	if !hasColumn(cols, "entry_time") {
		if err := db.Exec("ALTER TABLE progress_entries ADD COLUMN entry_time TIME").Error; err != nil {
			if !strings.Contains(err.Error(), "duplicate column") {
				return fmt.Errorf("无法添加entry_time列: %w", err)
			}
		}
	}
	if !hasColumn(cols, "entry_timestamp") {
		if err := db.Exec("ALTER TABLE progress_entries ADD COLUMN entry_timestamp DATETIME").Error; err != nil {
			if !strings.Contains(err.Error(), "duplicate column") {
				return fmt.Errorf("无法添加entry_timestamp列: %w", err)
			}
		}
	}

	// 时刻必须经过时区换算，无法在一条SQL里完成，逐行补算。
	// 日期经strftime取出：裸读DATE列会被SQLite驱动解析成time.Time，拿不到原始文本
	type legacyRow struct {
		ID        int64
		EntryDate string
	}
	var rows []legacyRow
	if err := db.Raw("SELECT id, strftime('%Y-%m-%d', entry_date) AS entry_date FROM progress_entries WHERE entry_timestamp IS NULL").Scan(&rows).Error; err != nil {
		return fmt.Errorf("无法读取缺少时刻的历史条目: %w", err)
	}

	for _, row := range rows {
		instant, err := timezone.Normalize(row.EntryDate, "12:00")
		if err != nil {
			return fmt.Errorf("无法为条目 %d 补算时刻: %w", row.ID, err)
		}
		err = db.Exec("UPDATE progress_entries SET entry_time = '12:00', entry_timestamp = ? WHERE id = ?", instant, row.ID).Error
		if err != nil {
			return fmt.Errorf("无法回填条目 %d: %w", row.ID, err)
		}
	}

	if len(rows) > 0 {
		fmt.Printf("已为 %d 条历史记录补算时刻。\n", len(rows))
	}
	return nil
}
