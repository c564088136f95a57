package startup

import (
	"fmt"

	"github.com/SlpAus/million-meters-backend/internal/platform/database"
)

// InitializeApplication 是应用首次启动时执行的总入口
func InitializeApplication() error {
	fmt.Println("开始应用首次初始化...")

	if err := database.MigrateSchema(database.DB); err != nil {
		return fmt.Errorf("数据库结构迁移失败: %w", err)
	}

	fmt.Println("应用初始化完成！")
	return nil
}
