package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/pachinko/internal/game"
)

// GetLeaderboard returns the best final scores, highest first.
func GetLeaderboard(lb *game.Leaderboard) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := lb.Top(c.Request.Context(), queryLimit(c, 10, 100))
		if err != nil {
			if errors.Is(err, game.ErrLeaderboardUnavailable) {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
				return
			}
			log.Printf("[REDIS] leaderboard read failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read leaderboard"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"entries": entries})
	}
}
