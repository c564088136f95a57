package user

import (
	"errors"
	"fmt"
	"strings"

	"github.com/SlpAus/million-meters-backend/internal/platform/config"
	"github.com/SlpAus/million-meters-backend/internal/platform/database"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	// ErrEmailTaken 表示该邮箱已有账号
	ErrEmailTaken = errors.New("邮箱已被注册")
	// ErrInvalidCredentials 表示邮箱或密码不正确
	ErrInvalidCredentials = errors.New("邮箱或密码不正确")
	// ErrNoPassword 表示该账号只用Google登录，没有设置过密码
	ErrNoPassword = errors.New("该账号尚未设置密码")
	// ErrNotFound 表示用户不存在
	ErrNotFound = errors.New("用户不存在")
)

// NewUserID 生成一个新的不透明用户ID。
func NewUserID() (string, error) {
	newUUID, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("无法生成UUID v7: %w", err)
	}
	return newUUID.String(), nil
}

// GetByID 按主键查找用户。
func GetByID(id string) (*User, error) {
	var u User
	if err := database.DB.First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	return &u, nil
}

// CreateWithPassword 用邮箱+密码注册一个新用户。
func CreateWithPassword(name, email, password, sport string) (*User, error) {
	// 先查重，给出友好的错误；真正的唯一性由email的UNIQUE约束兜底
	var existing User
	err := database.DB.Select("id").First(&existing, "email = ?", email).Error
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("查询邮箱占用失败: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), config.Cfg.Auth.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("无法散列密码: %w", err)
	}

	id, err := NewUserID()
	if err != nil {
		return nil, err
	}

	hashStr := string(hash)
	u := &User{
		ID:           id,
		Name:         name,
		Email:        email,
		Sport:        sport,
		PasswordHash: &hashStr,
	}
	if err := database.DB.Create(u).Error; err != nil {
		// 并发注册时可能绕过上面的查重，落在UNIQUE约束上
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("无法创建用户: %w", err)
	}
	return u, nil
}

// AuthenticateByEmail 校验邮箱+密码组合，成功时返回用户。
func AuthenticateByEmail(email, password string) (*User, error) {
	var u User
	err := database.DB.First(&u, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}

	// 存量用户可能只通过Google登录过，没有密码
	if u.PasswordHash == nil || *u.PasswordHash == "" {
		return nil, ErrNoPassword
	}

	if bcrypt.CompareHashAndPassword([]byte(*u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return &u, nil
}

// FindOrCreateByGoogle 按Google账号标识定位用户：
// 已绑定的直接返回；同邮箱的老账号就地绑定；都没有则创建新用户。
// 新用户的运动项目先置为"Other"，由资料补全页改写。
// 第二个返回值表示该用户是否还需要补全资料。
func FindOrCreateByGoogle(googleID, email, name string) (*User, bool, error) {
	var u User
	err := database.DB.First(&u, "google_id = ?", googleID).Error
	if err == nil {
		return &u, u.Sport == "Other", nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("按Google账号查询用户失败: %w", err)
	}

	// 老账号绑定：邮箱相同则视为同一个人
	err = database.DB.First(&u, "email = ?", email).Error
	if err == nil {
		if err := database.DB.Model(&User{}).Where("id = ?", u.ID).Update("google_id", googleID).Error; err != nil {
			return nil, false, fmt.Errorf("无法绑定Google账号: %w", err)
		}
		u.GoogleID = &googleID
		return &u, u.Sport == "Other", nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("按邮箱查询用户失败: %w", err)
	}

	id, err := NewUserID()
	if err != nil {
		return nil, false, err
	}
	u = User{
		ID:       id,
		Name:     name,
		Email:    email,
		Sport:    "Other",
		GoogleID: &googleID,
	}
	if err := database.DB.Create(&u).Error; err != nil {
		return nil, false, fmt.Errorf("无法创建Google用户: %w", err)
	}
	return &u, true, nil
}

// UpdateName 修改用户的展示名。
func UpdateName(id, name string) error {
	return database.DB.Model(&User{}).Where("id = ?", id).Update("name", name).Error
}

// UpdateSport 修改用户的运动项目。
func UpdateSport(id, sport string) error {
	return database.DB.Model(&User{}).Where("id = ?", id).Update("sport", sport).Error
}

// CompleteProfile 一次性写入Google新用户补全的名字和运动项目。
func CompleteProfile(id, name, sport string) error {
	updates := map[string]interface{}{"name": name, "sport": sport}
	return database.DB.Model(&User{}).Where("id = ?", id).Updates(updates).Error
}

// DeleteAccount 在单个事务中删除用户及其全部数据。
// 进度条目没有级联外键，必须显式删除；会话虽有级联，也显式删掉以免依赖连接参数。
func DeleteAccount(id string) error {
	return database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM progress_entries WHERE user_id = ?", id).Error; err != nil {
			return fmt.Errorf("无法删除进度条目: %w", err)
		}
		if err := tx.Exec("DELETE FROM sessions WHERE user_id = ?", id).Error; err != nil {
			return fmt.Errorf("无法删除会话: %w", err)
		}
		if err := tx.Exec("DELETE FROM users WHERE id = ?", id).Error; err != nil {
			return fmt.Errorf("无法删除用户: %w", err)
		}
		return nil
	})
}
