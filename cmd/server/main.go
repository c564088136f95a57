package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/SlpAus/million-meters-backend/api"
	"github.com/SlpAus/million-meters-backend/internal/platform/config"
	"github.com/SlpAus/million-meters-backend/internal/platform/database"
	"github.com/SlpAus/million-meters-backend/internal/platform/shutdown"
	"github.com/SlpAus/million-meters-backend/internal/platform/startup"
	"github.com/SlpAus/million-meters-backend/internal/session"
	"github.com/SlpAus/million-meters-backend/pkg/lifecycle"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 加载配置并初始化存储
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("配置加载失败，无法启动: %v", err))
	}
	database.InitDB(cfg.Database.Sqlite)
	database.InitRedis(cfg.Database.Redis)

	// 2. 执行应用首次启动初始化流程（含数据库结构迁移）
	if err := startup.InitializeApplication(); err != nil {
		panic(fmt.Sprintf("应用初始化失败，无法启动: %v", err))
	}

	// 3. 创建两阶段停机的生命周期管理器
	gracefulManager := lifecycle.NewManager()
	forcefulManager := lifecycle.NewManager()

	// 4. 启动后台的过期会话清理器
	cleanupHandle, err := gracefulManager.NewServiceHandle("session-cleanup")
	if err != nil {
		panic(fmt.Sprintf("注册后台服务失败: %v", err))
	}
	session.StartCleanupWorker(cleanupHandle)

	gin.SetMode(cfg.Server.Mode)
	r := gin.Default()

	allowedOrigins := cfg.Server.Cors.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:5173"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api.SetupRoutes(r)

	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	go func() {
		fmt.Printf("服务器已准备就绪，开始监听 %s\n", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic("Failed to start server: " + err.Error())
		}
	}()

	// 5. 阻塞等待停机信号，并编排优雅停机
	coordinator := shutdown.NewCoordinator(gracefulManager, forcefulManager)
	coordinator.ListenForSignalsAndShutdown(server)
}
