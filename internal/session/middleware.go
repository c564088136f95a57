package session

import (
	"net/http"

	"github.com/SlpAus/million-meters-backend/internal/platform/config"
	"github.com/gin-gonic/gin"
)

const (
	// CookieName 是承载会话ID的Cookie名
	CookieName = "session"
	// UserIDKey 是Gin上下文中当前用户ID的键名
	UserIDKey = "userID"
)

// cookieSecure 只在release模式下要求HTTPS传输Cookie
func cookieSecure() bool {
	return config.Cfg.Server.Mode == "release"
}

// SetSessionCookie 把会话ID写入客户端Cookie。
func SetSessionCookie(c *gin.Context, id string) {
	maxAge := config.Cfg.Auth.SessionTTLHours * 60 * 60
	c.SetCookie(CookieName, id, maxAge, "/", "", cookieSecure(), true)
}

// ClearSessionCookie 让客户端的会话Cookie立即失效。
func ClearSessionCookie(c *gin.Context) {
	c.SetCookie(CookieName, "", -1, "/", "", cookieSecure(), true)
}

// LoadUserMiddleware 读取会话Cookie，校验后把用户ID放入Gin上下文。
// 没有会话或会话无效时不拦截请求，只是不设置用户ID。
func LoadUserMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(CookieName)
		if err == nil {
			if userID, ok := ValidateSession(sessionID); ok {
				c.Set(UserIDKey, userID)
			}
		}
		c.Next()
	}
}

// RequireAuthMiddleware 在LoadUserMiddleware之后使用，拦截所有未认证的请求。
func RequireAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(UserIDKey); !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		c.Next()
	}
}

// CurrentUserID 从Gin上下文中取出当前用户ID。
func CurrentUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get(UserIDKey)
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
