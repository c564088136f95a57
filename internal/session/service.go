package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/SlpAus/million-meters-backend/internal/platform/config"
	"github.com/SlpAus/million-meters-backend/internal/platform/database"
	"gorm.io/gorm"
)

// generateSessionID 生成一个密码学安全的24字节随机会话ID，
// 使用URL安全的Base64编码，没有padding。
func generateSessionID() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("无法生成会话ID: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// ttl 返回配置中的会话有效时长
func ttl() time.Duration {
	return time.Duration(config.Cfg.Auth.SessionTTLHours) * time.Hour
}

// CreateSession 为指定用户创建一个新会话并持久化。
func CreateSession(userID string) (*Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:        id,
		UserID:    userID,
		ExpiresAt: time.Now().Add(ttl()).Unix(),
	}
	if err := database.DB.Create(s).Error; err != nil {
		return nil, fmt.Errorf("无法创建会话: %w", err)
	}
	return s, nil
}

// ValidateSession 校验一个会话ID并返回其所属用户。
// 过期的会话会被当场删除；剩余有效期不足一半时自动顺延到完整时长。
func ValidateSession(id string) (string, bool) {
	if id == "" {
		return "", false
	}

	var s Session
	err := database.DB.First(&s, "id = ?", id).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			fmt.Printf("查询会话时出错: %v\n", err)
		}
		return "", false
	}

	now := time.Now()
	if now.Unix() >= s.ExpiresAt {
		// 过期会话当场清理，失败只影响下一次清理
		if err := database.DB.Delete(&Session{}, "id = ?", id).Error; err != nil {
			fmt.Printf("删除过期会话失败: %v\n", err)
		}
		return "", false
	}

	// 滑动续期
	if time.Until(time.Unix(s.ExpiresAt, 0)) < ttl()/2 {
		newExpiry := now.Add(ttl()).Unix()
		if err := database.DB.Model(&Session{}).Where("id = ?", id).Update("expires_at", newExpiry).Error; err != nil {
			fmt.Printf("顺延会话有效期失败: %v\n", err)
		}
	}

	return s.UserID, true
}

// InvalidateSession 删除一个会话（登出）。
func InvalidateSession(id string) error {
	if id == "" {
		return nil
	}
	return database.DB.Delete(&Session{}, "id = ?", id).Error
}

// InvalidateUserSessions 删除一个用户的全部会话。
func InvalidateUserSessions(userID string) error {
	return database.DB.Delete(&Session{}, "user_id = ?", userID).Error
}

// DeleteExpired 清理所有已过期的会话，返回删除的行数。
func DeleteExpired() (int64, error) {
	result := database.DB.Delete(&Session{}, "expires_at < ?", time.Now().Unix())
	if result.Error != nil {
		return 0, fmt.Errorf("清理过期会话失败: %w", result.Error)
	}
	return result.RowsAffected, nil
}
