package database

import (
	"context"
	"fmt"

	"github.com/SlpAus/million-meters-backend/internal/platform/config"
	"github.com/redis/go-redis/v9"
)

// RDB 是一个全局的Redis客户端实例，只承载登录频率限制的滑动窗口，
// 不存放任何权威数据。
var RDB *redis.Client

// Ctx 是一个全局的上下文，用于Redis操作
var Ctx = context.Background()

// InitRedis 初始化与Redis数据库的连接
func InitRedis(cfg config.RedisConfig) {
	// 使用从配置文件加载的参数创建客户端
	RDB = redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 使用Ping命令来测试连接是否成功
	_, err := RDB.Ping(Ctx).Result()
	if err != nil {
		// Redis只服务于频率限制，连不上时降级运行而不是拒绝启动
		fmt.Printf("警告: 无法连接到Redis，登录频率限制将被跳过: %v\n", err)
		RDB = nil
		return
	}

	fmt.Println("Redis 连接成功！")
}
