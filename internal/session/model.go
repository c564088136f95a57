package session

// Session 定义了会话在SQLite数据库中的持久化模型。
// 表结构由平台层的结构迁移负责，这里只做映射，不参与建表。
type Session struct {
	// ID 是会话的不透明标识，来自客户端Cookie。
	ID string `gorm:"column:id;primaryKey"`

	// UserID 是会话所属用户的ID，用户删除时级联删除会话。
	UserID string `gorm:"column:user_id"`

	// ExpiresAt 是会话过期时刻的Unix秒。
	ExpiresAt int64 `gorm:"column:expires_at"`
}

// TableName 绑定到结构迁移收敛出的sessions表
func (Session) TableName() string {
	return "sessions"
}
