package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/pachinko/internal/api/handlers"
	"github.com/playmatatu/pachinko/internal/config"
	"github.com/playmatatu/pachinko/internal/game"
	"github.com/playmatatu/pachinko/internal/middleware"
	"github.com/playmatatu/pachinko/internal/ws"
	"github.com/redis/go-redis/v9"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, db *sqlx.DB, rdb *redis.Client, cfg *config.Config, mgr *game.SessionManager, wsh *ws.Handler) {
	router.Use(middleware.CORSMiddleware(cfg))

	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		log.Println("[DEV MODE] no-cache headers enabled for all routes")
	}

	router.GET("/health", handlers.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)
		v1.GET("/ready", handlers.ReadinessCheck(db, rdb))
		v1.GET("/config", handlers.GetConfig(cfg, mgr.Board()))
		v1.GET("/leaderboard", handlers.GetLeaderboard(mgr.Leaderboard()))

		v1.GET("/player/:id/history", handlers.GetPlayerHistory(mgr.Store()))
		v1.POST("/auth/guest", handlers.GuestLogin(mgr.Store(), cfg))

		// the websocket authenticates with ?pt=<jwt> since browsers cannot set headers on upgrade
		v1.GET("/sessions/:token/ws", middleware.WebSocketCORSCheck(cfg), handlers.HandleSessionWebSocket(wsh))

		authed := v1.Group("")
		authed.Use(handlers.AuthMiddleware(cfg))
		{
			authed.GET("/me", handlers.GetMyProfile(mgr.Store()))
			authed.GET("/me/history", handlers.GetMyHistory(mgr.Store()))

			sessions := authed.Group("/sessions")
			{
				sessions.POST("", handlers.CreateSession(mgr, wsh.Renderer))
				sessions.GET("/:token", handlers.GetSession(mgr))
				sessions.GET("/:token/history", handlers.GetSessionHistory(mgr))
				sessions.POST("/:token/:action", handlers.SessionInput(mgr))
				sessions.DELETE("/:token", handlers.EndSession(mgr))
			}
		}

		adm := v1.Group("/admin")
		adm.Use(handlers.AdminMiddleware(db))
		{
			adm.GET("/sessions", handlers.GetAdminSessions(mgr))
			adm.DELETE("/sessions/:token", handlers.AdminEndSession(db, mgr))
			adm.DELETE("/leaderboard", handlers.AdminResetLeaderboard(db, mgr.Leaderboard()))
			adm.GET("/audit", handlers.GetAdminAuditLogs(db))
			adm.GET("/config", handlers.GetAdminRuntimeConfig(db))
			adm.PUT("/config/:key", handlers.UpdateAdminRuntimeConfig(db, cfg, mgr))
		}
	}
}
