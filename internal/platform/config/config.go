package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Cfg 是一个全局变量，用于存储所有应用程序的配置
var Cfg *Config

// Config 结构体定义了应用程序的所有配置项
// 它与 config.yaml 文件的结构完全对应
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Goal     GoalConfig     `mapstructure:"goal"`
}

// ServerConfig 定义了服务器相关的配置
type ServerConfig struct {
	Mode    string     `mapstructure:"mode"`
	Address string     `mapstructure:"address"`
	Cors    CorsConfig `mapstructure:"cors"`
}

// CorsConfig 定义了CORS相关的配置
type CorsConfig struct {
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

// DatabaseConfig 定义了数据库和缓存相关的配置
type DatabaseConfig struct {
	Sqlite SqliteConfig `mapstructure:"sqlite"`
	Redis  RedisConfig  `mapstructure:"redis"`
}

// SqliteConfig 定义了SQLite的配置
type SqliteConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig 定义了Redis的配置
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig 定义了认证相关的配置
type AuthConfig struct {
	// SessionTTLHours 是会话的有效时长（小时）
	SessionTTLHours int `mapstructure:"sessionTTLHours"`
	// BcryptCost 是密码散列的代价因子
	BcryptCost int                `mapstructure:"bcryptCost"`
	Login      LoginLimiterConfig `mapstructure:"login"`
	Google     GoogleConfig       `mapstructure:"google"`
}

// LoginLimiterConfig 定义了登录频率限制的配置
type LoginLimiterConfig struct {
	WindowMinutes int   `mapstructure:"windowMinutes"`
	MaxAttempts   int64 `mapstructure:"maxAttempts"`
}

// GoogleConfig 定义了Google OAuth的配置
type GoogleConfig struct {
	ClientID     string `mapstructure:"clientId"`
	ClientSecret string `mapstructure:"clientSecret"`
	RedirectURL  string `mapstructure:"redirectUrl"`
}

// GoalConfig 定义了年度目标的配置
type GoalConfig struct {
	// AnnualMeters 是每位用户的年度目标距离（米）
	AnnualMeters int64 `mapstructure:"annualMeters"`
}

// LoadConfig 函数负责查找、加载和解析配置文件
// 它会在指定的路径中查找名为 config.yaml 的文件
func LoadConfig() (*Config, error) {
	v := viper.New()

	// 1. 设置配置文件名和类型
	v.SetConfigName("config") // 文件名 (不带扩展名)
	v.SetConfigType("yaml")   // 文件类型

	// 2. 添加配置文件搜索路径
	v.AddConfigPath("./config") // `config/config.yaml`
	v.AddConfigPath(".")        // `./config.yaml` (如果在根目录)

	// 3. 缺省值，保证最小配置也能启动
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("database.sqlite.path", "progress.db")
	v.SetDefault("auth.sessionTTLHours", 30*24)
	v.SetDefault("auth.bcryptCost", 10)
	v.SetDefault("auth.login.windowMinutes", 15)
	v.SetDefault("auth.login.maxAttempts", 10)
	v.SetDefault("goal.annualMeters", 1000000)

	// 4. 设置环境变量支持
	// 允许通过环境变量覆盖配置，例如 AUTH_GOOGLE_CLIENTID=...
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 5. 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		// 找不到配置文件时退回到缺省值+环境变量，其它错误照常上抛
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	// 6. 将配置反序列化到结构体中
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// 7. 将加载的配置赋值给全局变量
	Cfg = &cfg

	return Cfg, nil
}
