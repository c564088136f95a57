package api

import (
	"github.com/SlpAus/million-meters-backend/internal/auth"
	"github.com/SlpAus/million-meters-backend/internal/entry"
	"github.com/SlpAus/million-meters-backend/internal/report"
	"github.com/SlpAus/million-meters-backend/internal/session"
	"github.com/SlpAus/million-meters-backend/internal/user"
	"github.com/gin-gonic/gin"
)

// SetupRoutes 注册项目的所有API路由
func SetupRoutes(router *gin.Engine) {
	// Google登录的跳转入口不在/api下，与回调地址保持同级
	router.GET("/login/google", auth.GoogleLoginHandler)
	router.GET("/login/google/callback", auth.GoogleCallbackHandler)

	api := router.Group("/api")
	api.Use(session.LoadUserMiddleware())
	{
		// 注册与登录相关的路由
		api.POST("/signup", auth.SignupHandler)
		api.POST("/login", auth.LoginHandler)
		api.POST("/logout", auth.LogoutHandler)

		// 公开的报告路由
		api.GET("/leaderboard", report.GetLeaderboard)
		api.GET("/users/:id/report", report.GetUserReport)

		// 需要登录的路由组
		authed := api.Group("")
		authed.Use(session.RequireAuthMiddleware())
		{
			authed.GET("/progress", report.GetProgress)

			entryRoutes := authed.Group("/entries")
			{
				entryRoutes.POST("", entry.CreateEntryHandler)
				entryRoutes.PUT("/:id", entry.UpdateEntryHandler)
				entryRoutes.DELETE("/:id", entry.DeleteEntryHandler)
			}

			profileRoutes := authed.Group("/profile")
			{
				profileRoutes.GET("", user.GetProfile)
				profileRoutes.PUT("/name", user.UpdateNameHandler)
				profileRoutes.PUT("/sport", user.UpdateSportHandler)
				profileRoutes.PUT("/complete", user.CompleteProfileHandler)
				profileRoutes.DELETE("", user.DeleteAccountHandler)
			}
		}
	}
}
