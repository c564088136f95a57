package auth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/SlpAus/million-meters-backend/internal/platform/config"
	"github.com/SlpAus/million-meters-backend/internal/user"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	stateCookieName    = "google_oauth_state"
	verifierCookieName = "google_oauth_code_verifier"
	// oauthCookieMaxAge 限制一次OAuth往返必须在十分钟内完成
	oauthCookieMaxAge = 10 * 60

	userinfoEndpoint = "https://openidconnect.googleapis.com/v1/userinfo"
)

// googleUserInfo 是Google userinfo端点返回的字段子集
type googleUserInfo struct {
	Sub   string `json:"sub"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// oauthConfig 按当前配置构造Google的OAuth客户端配置。
func oauthConfig() *oauth2.Config {
	g := config.Cfg.Auth.Google
	return &oauth2.Config{
		ClientID:     g.ClientID,
		ClientSecret: g.ClientSecret,
		RedirectURL:  g.RedirectURL,
		Endpoint:     google.Endpoint,
		Scopes:       []string{"openid", "https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
	}
}

// generateState 生成CSRF防护用的随机state。
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GoogleLoginHandler 发起Google授权码+PKCE流程。
// state和code verifier写入短时效的HttpOnly Cookie，回调时核对。
func GoogleLoginHandler(c *gin.Context) {
	cfg := oauthConfig()
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Google OAuth is not configured"})
		return
	}

	state, err := generateState()
	if err != nil {
		fmt.Printf("生成OAuth state失败: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	verifier := oauth2.GenerateVerifier()

	secure := config.Cfg.Server.Mode == "release"
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookieName, state, oauthCookieMaxAge, "/", "", secure, true)
	c.SetCookie(verifierCookieName, verifier, oauthCookieMaxAge, "/", "", secure, true)

	url := cfg.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	c.Redirect(http.StatusFound, url)
}

// GoogleCallbackHandler 完成授权码交换并让用户登录。
// 匹配顺序：已绑定的Google账号、同邮箱的老账号、全新用户。
// 新用户（或运动项目尚未选择的用户）被引导到资料补全页。
func GoogleCallbackHandler(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")
	storedState, stateErr := c.Cookie(stateCookieName)
	verifier, verifierErr := c.Cookie(verifierCookieName)

	if code == "" || state == "" || stateErr != nil || state != storedState || verifierErr != nil {
		c.Redirect(http.StatusFound, "/login?error=invalid_request")
		return
	}

	cfg := oauthConfig()
	token, err := cfg.Exchange(c.Request.Context(), code, oauth2.VerifierOption(verifier))
	if err != nil {
		fmt.Printf("Google授权码交换失败: %v\n", err)
		c.Redirect(http.StatusFound, "/login?error=server_error")
		return
	}

	// 用拿到的token获取用户身份
	client := cfg.Client(c.Request.Context(), token)
	resp, err := client.Get(userinfoEndpoint)
	if err != nil {
		fmt.Printf("获取Google用户信息失败: %v\n", err)
		c.Redirect(http.StatusFound, "/login?error=server_error")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Google用户信息接口返回 %d\n", resp.StatusCode)
		c.Redirect(http.StatusFound, "/login?error=server_error")
		return
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		fmt.Printf("解析Google用户信息失败: %v\n", err)
		c.Redirect(http.StatusFound, "/login?error=server_error")
		return
	}

	u, needsProfile, err := user.FindOrCreateByGoogle(info.Sub, info.Email, info.Name)
	if err != nil {
		fmt.Printf("Google登录定位用户失败: %v\n", err)
		c.Redirect(http.StatusFound, "/login?error=server_error")
		return
	}

	if err := issueSession(c, u.ID); err != nil {
		fmt.Printf("Google登录建立会话失败: %v\n", err)
		c.Redirect(http.StatusFound, "/login?error=server_error")
		return
	}

	// 一次性Cookie用完即清
	secure := config.Cfg.Server.Mode == "release"
	c.SetCookie(stateCookieName, "", -1, "/", "", secure, true)
	c.SetCookie(verifierCookieName, "", -1, "/", "", secure, true)

	if needsProfile {
		c.Redirect(http.StatusFound, "/profile/complete")
		return
	}
	c.Redirect(http.StatusFound, "/progress")
}
