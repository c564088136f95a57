package entry

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/SlpAus/million-meters-backend/pkg/timezone"
)

// DateString 是DATE列的文本视图 YYYY-MM-DD。
// SQLite驱动会把声明为DATE的列解析成time.Time读出，
// Scan把两种形态都收敛回存储时的文本；写入时原样落库。
type DateString string

func (d *DateString) Scan(value interface{}) error {
	switch v := value.(type) {
	case time.Time:
		*d = DateString(v.Format(timezone.DateLayout))
	case string:
		*d = DateString(v)
	case []byte:
		*d = DateString(v)
	case nil:
		*d = ""
	default:
		return fmt.Errorf("无法把 %T 读取为日期文本", value)
	}
	return nil
}

func (d DateString) Value() (driver.Value, error) {
	return string(d), nil
}

// InstantString 是DATETIME列的文本视图，即时区换算输出的UTC时刻。
// 同样需要把驱动解析出的time.Time还原成毫秒精度的存储文本。
type InstantString string

func (i *InstantString) Scan(value interface{}) error {
	switch v := value.(type) {
	case time.Time:
		*i = InstantString(v.UTC().Format(timezone.InstantLayout))
	case string:
		*i = InstantString(v)
	case []byte:
		*i = InstantString(v)
	case nil:
		*i = ""
	default:
		return fmt.Errorf("无法把 %T 读取为时刻文本", value)
	}
	return nil
}

func (i InstantString) Value() (driver.Value, error) {
	return string(i), nil
}

// ProgressEntry 定义了一条进度记录在SQLite数据库中的持久化模型。
// 表结构由平台层的结构迁移负责，这里只做映射，不参与建表。
type ProgressEntry struct {
	// ID 是自增主键。
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`

	// UserID 是这条记录所属的用户。
	UserID string `gorm:"column:user_id"`

	// Meters 是本次记录的距离（米），恒为正数。
	Meters int64 `gorm:"column:meters"`

	// EntryDate 是东部时间的日历日期 YYYY-MM-DD。
	EntryDate DateString `gorm:"column:entry_date"`

	// EntryTime 是可选的东部时间墙上时间 HH:MM。
	EntryTime *string `gorm:"column:entry_time"`

	// EntryTimestamp 是由日期+时间经时区换算得到的UTC存储时刻。
	EntryTimestamp InstantString `gorm:"column:entry_timestamp"`

	CreatedAt time.Time `gorm:"column:created_at"`
}

// TableName 绑定到结构迁移收敛出的progress_entries表
func (ProgressEntry) TableName() string {
	return "progress_entries"
}
