package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/pachinko/internal/auth"
	"github.com/playmatatu/pachinko/internal/config"
	"github.com/playmatatu/pachinko/internal/game"
)

// GuestLogin creates or resumes a guest player by display name and issues a bearer JWT.
// An empty display name gets a generated one.
func GuestLogin(store *game.Store, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			DisplayName string `json:"display_name"`
		}
		if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		name := req.DisplayName
		if strings.TrimSpace(name) == "" {
			name = generateDisplayName()
		}
		name, ok := normalizeDisplayName(name)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "display name must be 1-32 characters"})
			return
		}

		player, err := store.EnsureGuestPlayer(c.Request.Context(), name)
		if err != nil {
			log.Printf("[AUTH] guest login failed for %q: %v", name, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create player"})
			return
		}

		token, expiresAt, err := auth.IssueToken(cfg.JWTSecret, auth.Identity{PlayerID: player.ID, DisplayName: player.DisplayName}, auth.TokenTTL)
		if err != nil {
			log.Printf("[AUTH] failed to sign token for player %d: %v", player.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token":      token,
			"expires_at": expiresAt.Format(time.RFC3339),
			"player":     player,
		})
	}
}

// AuthMiddleware validates bearer JWT and sets player_id and display_name in context
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		id, err := auth.ParseToken(cfg.JWTSecret, strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set("player_id", id.PlayerID)
		c.Set("display_name", id.DisplayName)
		c.Next()
	}
}
