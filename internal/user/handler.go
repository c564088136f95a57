package user

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/SlpAus/million-meters-backend/internal/session"
	"github.com/SlpAus/million-meters-backend/pkg/timezone"
	"github.com/gin-gonic/gin"
)

// --- API响应模型 ---

type ProfileResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Sport     string `json:"sport"`
	HasGoogle bool   `json:"hasGoogle"`
	CreatedAt string `json:"createdAt"`
}

// GetProfile 返回当前登录用户的资料。
func GetProfile(c *gin.Context) {
	userID, _ := session.CurrentUserID(c)

	u, err := GetByID(userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	c.JSON(http.StatusOK, ProfileResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Sport:     u.Sport,
		HasGoogle: u.GoogleID != nil && *u.GoogleID != "",
		CreatedAt: u.CreatedAt.UTC().Format(timezone.InstantLayout),
	})
}

// UpdateNameHandler 修改当前用户的展示名。
func UpdateNameHandler(c *gin.Context) {
	userID, _ := session.CurrentUserID(c)

	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name is required and cannot be empty"})
		return
	}

	if err := UpdateName(userID, name); err != nil {
		fmt.Printf("修改用户名失败: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// UpdateSportHandler 修改当前用户的运动项目。
func UpdateSportHandler(c *gin.Context) {
	userID, _ := session.CurrentUserID(c)

	var req struct {
		Sport string `json:"sport"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	sport := strings.TrimSpace(req.Sport)
	if sport == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Sport is required"})
		return
	}

	if err := UpdateSport(userID, sport); err != nil {
		fmt.Printf("修改运动项目失败: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CompleteProfileHandler 供Google新用户补全名字和运动项目。
func CompleteProfileHandler(c *gin.Context) {
	userID, _ := session.CurrentUserID(c)

	var req struct {
		Name  string `json:"name"`
		Sport string `json:"sport"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	name := strings.TrimSpace(req.Name)
	sport := strings.TrimSpace(req.Sport)
	if name == "" || sport == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name and sport are required"})
		return
	}

	if err := CompleteProfile(userID, name, sport); err != nil {
		fmt.Printf("补全资料失败: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeleteAccountHandler 删除当前用户的账号和全部数据。
// 先提交数据库事务，再清理Cookie：Cookie清理失败不影响删除结果。
func DeleteAccountHandler(c *gin.Context) {
	userID, _ := session.CurrentUserID(c)

	if err := DeleteAccount(userID); err != nil {
		fmt.Printf("删除账号失败: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	session.ClearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}
