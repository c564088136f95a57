package auth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/SlpAus/million-meters-backend/internal/platform/config"
	"github.com/SlpAus/million-meters-backend/internal/platform/database"
	"github.com/redis/go-redis/v9"
)

// loginAttemptKeyPrefix 是Redis中登录尝试有序集合的键名前缀
const loginAttemptKeyPrefix = "login_attempts:"

// generateAttemptID 根据给定的时间生成一个16字节的、抗冲突的成员ID。
// 结构: [ 8字节纳秒时间戳 (Big Endian) | 8字节随机数 ]
func generateAttemptID(t time.Time) (string, error) {
	b := make([]byte, 16)
	binary.BigEndian.PutUint64(b[0:8], uint64(t.UnixNano()))
	if _, err := rand.Read(b[8:16]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// allowLoginAttempt 在Redis中为一个IP原子地记录一次登录尝试，
// 并判断其在滑动窗口内的总次数是否超限。
// Redis只承载这个滑动窗口，不是权威数据：任何Redis故障都按放行处理，只记录日志。
func allowLoginAttempt(ip string) bool {
	if database.RDB == nil || ip == "" {
		return true
	}

	cfg := config.Cfg.Auth.Login
	window := time.Duration(cfg.WindowMinutes) * time.Minute
	key := loginAttemptKeyPrefix + ip
	now := time.Now()

	memberID, err := generateAttemptID(now)
	if err != nil {
		fmt.Printf("警告: 生成登录尝试ID失败，跳过频率检查: %v\n", err)
		return true
	}

	// 1. 计算窗口起点，作为清理的边界
	minScore := float64(now.Add(-window).UnixMicro())

	// 2. 使用Redis事务(TxPipeline)保证清理、记录、计数的原子性
	pipe := database.RDB.TxPipeline()
	pipe.ZRemRangeByScore(database.Ctx, key, "-inf", fmt.Sprintf("(%f", minScore))
	pipe.ZAdd(database.Ctx, key, redis.Z{Score: float64(now.UnixMicro()), Member: memberID})
	// 过期时间比窗口稍长，作为缓冲
	pipe.Expire(database.Ctx, key, window+time.Minute)
	countCmd := pipe.ZCard(database.Ctx, key)

	if _, err := pipe.Exec(database.Ctx); err != nil {
		fmt.Printf("警告: 登录频率检查失败，放行本次请求: %v\n", err)
		return true
	}

	count, err := countCmd.Result()
	if err != nil {
		fmt.Printf("警告: 获取登录尝试计数失败，放行本次请求: %v\n", err)
		return true
	}

	return count <= cfg.MaxAttempts
}
