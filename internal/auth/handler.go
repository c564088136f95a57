package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/SlpAus/million-meters-backend/internal/session"
	"github.com/SlpAus/million-meters-backend/internal/user"
	"github.com/gin-gonic/gin"
)

// --- 请求模型 ---

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Sport    string `json:"sport"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// issueSession 为一个用户建立会话并下发Cookie。
func issueSession(c *gin.Context, userID string) error {
	s, err := session.CreateSession(userID)
	if err != nil {
		return err
	}
	session.SetSessionCookie(c, s.ID)
	return nil
}

// SignupHandler 处理邮箱+密码注册。
func SignupHandler(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Sport = strings.TrimSpace(req.Sport)

	if req.Name == "" || req.Email == "" || req.Password == "" || req.Sport == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}
	if len(req.Password) < 6 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 6 characters"})
		return
	}

	u, err := user.CreateWithPassword(req.Name, req.Email, req.Password, req.Sport)
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
			return
		}
		fmt.Printf("注册失败: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	if err := issueSession(c, u.ID); err != nil {
		fmt.Printf("注册后建立会话失败: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "userId": u.ID})
}

// LoginHandler 处理邮箱+密码登录，带按IP的频率限制。
// 对客户端只区分429和401，不泄露账号是否存在。
func LoginHandler(c *gin.Context) {
	if !allowLoginAttempt(c.ClientIP()) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many login attempts, try again later"})
		return
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing email or password"})
		return
	}

	u, err := user.AuthenticateByEmail(strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrNoPassword):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Please sign up with a password first"})
		case errors.Is(err, user.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		default:
			fmt.Printf("登录失败: %v\n", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		}
		return
	}

	if err := issueSession(c, u.ID); err != nil {
		fmt.Printf("登录后建立会话失败: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "userId": u.ID})
}

// LogoutHandler 销毁当前会话并清除Cookie。没有会话时也返回成功。
func LogoutHandler(c *gin.Context) {
	sessionID, err := c.Cookie(session.CookieName)
	if err == nil && sessionID != "" {
		if err := session.InvalidateSession(sessionID); err != nil {
			fmt.Printf("销毁会话失败: %v\n", err)
		}
	}
	session.ClearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}
