package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"studytimer/backend/internal/handler"
	"studytimer/backend/internal/middleware"
	"studytimer/backend/internal/service"
)

func New(
	authService *service.AuthService,
	authHandler *handler.AuthHandler,
	sessionHandler *handler.SessionHandler,
	statsHandler *handler.StatsHandler,
	adminHandler *handler.AdminHandler,
	corsOrigins []string,
) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery(), middleware.CORS(corsOrigins))

	// Keep-alive probe for free-tier hosts.
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.GET("/me", middleware.Auth(authService), authHandler.Me)

	api.GET("/phase", sessionHandler.Phase)

	communities := api.Group("/communities/:id")
	communities.POST("/join", sessionHandler.Join)
	communities.POST("/leave", sessionHandler.Leave)
	communities.GET("/active", sessionHandler.Active)
	communities.GET("/leaderboard", statsHandler.Leaderboard)
	communities.GET("/stats/:memberId", statsHandler.MemberStats)
	communities.GET("/streaks", statsHandler.TopStreaks)
	communities.GET("/streaks/:memberId", statsHandler.MemberStreak)

	admin := api.Group("/admin/communities/:id")
	admin.Use(middleware.Auth(authService))
	admin.POST("/maintenance", adminHandler.ToggleMaintenance)
	admin.POST("/clear", adminHandler.ClearStats)

	return engine
}
