package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/pachinko/internal/admin"
	"github.com/playmatatu/pachinko/internal/config"
	"github.com/playmatatu/pachinko/internal/game"
)

// AdminMiddleware validates X-Admin-Phone and X-Admin-Token against admin_accounts
func AdminMiddleware(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "admin requires a database"})
			return
		}

		phone := c.GetHeader("X-Admin-Phone")
		token := c.GetHeader("X-Admin-Token")
		if phone == "" || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}

		acc, err := admin.ValidateAdminPhoneAndToken(db, phone, token, c.ClientIP())
		if err != nil {
			admin.LogAdminAction(db, phone, c.ClientIP(), c.FullPath(), "auth", nil, false)
			status := http.StatusUnauthorized
			if errors.Is(err, admin.ErrIPNotAllowed) {
				status = http.StatusForbidden
			} else if !errors.Is(err, admin.ErrAccountNotFound) && !errors.Is(err, admin.ErrInvalidToken) {
				status = http.StatusInternalServerError
			}
			c.AbortWithStatusJSON(status, gin.H{"error": "Invalid admin credentials"})
			return
		}

		c.Set("admin_phone", acc.Phone)
		c.Next()
	}
}

// GetAdminSessions lists the sessions running on this instance
func GetAdminSessions(mgr *game.SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessions := mgr.ActiveSessions()
		c.JSON(http.StatusOK, gin.H{"sessions": sessions, "total": len(sessions)})
	}
}

// AdminEndSession force-ends a session
func AdminEndSession(db *sqlx.DB, mgr *game.SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminPhone := c.GetString("admin_phone")
		token := c.Param("token")

		err := mgr.EndSession(token, game.ReasonAdmin)
		admin.LogAdminAction(db, adminPhone, c.ClientIP(), c.FullPath(), "end_session", map[string]interface{}{"session_token": token}, err == nil)
		if err != nil {
			respondSessionError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// AdminResetLeaderboard clears the leaderboard
func AdminResetLeaderboard(db *sqlx.DB, lb *game.Leaderboard) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminPhone := c.GetString("admin_phone")

		err := lb.Reset(c.Request.Context())
		admin.LogAdminAction(db, adminPhone, c.ClientIP(), c.FullPath(), "reset_leaderboard", nil, err == nil)
		if err != nil {
			if errors.Is(err, game.ErrLeaderboardUnavailable) {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
				return
			}
			log.Printf("[ADMIN] leaderboard reset failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset leaderboard"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// GetAdminAuditLogs returns paginated audit log entries
func GetAdminAuditLogs(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		phone := c.DefaultQuery("admin_phone", "")
		limit := queryLimit(c, 25, 200)
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		if offset < 0 {
			offset = 0
		}

		logs, err := admin.GetAdminAuditLogs(db, phone, limit, offset)
		if err != nil {
			log.Printf("[ADMIN] Failed to fetch audit logs: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch audit logs"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"logs": logs, "limit": limit, "offset": offset})
	}
}

// GetAdminRuntimeConfig returns all runtime config entries
func GetAdminRuntimeConfig(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		configs, err := admin.GetAllRuntimeConfig(db)
		if err != nil {
			log.Printf("[ADMIN] Failed to fetch runtime config: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch config"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"configs": configs})
	}
}

// UpdateAdminRuntimeConfig updates a single runtime config value
func UpdateAdminRuntimeConfig(db *sqlx.DB, cfg *config.Config, mgr *game.SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminPhone := c.GetString("admin_phone")
		key := c.Param("key")

		var req struct {
			Value string `json:"value" binding:"required"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Value is required"})
			return
		}

		details := map[string]interface{}{"key": key, "value": req.Value}
		if err := admin.UpdateRuntimeConfigValue(db, key, req.Value, adminPhone); err != nil {
			log.Printf("[ADMIN] Failed to update config %s: %v", key, err)
			admin.LogAdminAction(db, adminPhone, c.ClientIP(), c.FullPath(), "update_config", details, false)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		// Re-apply runtime config to in-memory config
		if err := admin.ApplyRuntimeConfigToConfig(db, cfg); err != nil {
			log.Printf("[ADMIN] Warning: failed to apply runtime config: %v", err)
		}
		mgr.ApplyConfig()

		admin.LogAdminAction(db, adminPhone, c.ClientIP(), c.FullPath(), "update_config", details, true)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
