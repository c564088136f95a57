package user

import (
	"time"
)

// User 定义了用户在SQLite数据库中的持久化模型。
// 表结构由平台层的结构迁移负责，这里只做映射，不参与建表。
type User struct {
	// ID 是用户的主键，一个不透明的文本标识，创建后不可变更。
	ID string `gorm:"column:id;primaryKey"`

	// Name 是展示用的名字。
	Name string `gorm:"column:name"`

	// Email 全局唯一，用于密码登录和Google账号的归并。
	Email string `gorm:"column:email"`

	// Sport 是用户当年的运动项目。
	Sport string `gorm:"column:sport"`

	// PasswordHash 是可选的密码散列。只用Google登录的用户没有密码。
	PasswordHash *string `gorm:"column:password_hash"`

	// GoogleID 是可选的Google账号标识，存在时全局唯一。
	GoogleID *string `gorm:"column:google_id"`

	CreatedAt time.Time `gorm:"column:created_at"`
}

// TableName 绑定到结构迁移收敛出的users表
func (User) TableName() string {
	return "users"
}
