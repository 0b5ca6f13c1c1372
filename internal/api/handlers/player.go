package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/pachinko/internal/game"
	"github.com/playmatatu/pachinko/internal/pachinko"
)

// GetMyProfile returns the authenticated player's stats.
func GetMyProfile(store *game.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		player, err := store.GetPlayer(c.Request.Context(), currentPlayerID(c))
		if err != nil {
			if errors.Is(err, game.ErrPlayerNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load player"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"player": player})
	}
}

// GetMyHistory returns the authenticated player's completed sessions, newest first.
func GetMyHistory(store *game.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		writeHistory(c, store, currentPlayerID(c))
	}
}

// GetPlayerHistory returns any player's completed sessions, newest first.
func GetPlayerHistory(store *game.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID, err := strconv.Atoi(c.Param("id"))
		if err != nil || playerID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid player id"})
			return
		}
		writeHistory(c, store, playerID)
	}
}

func writeHistory(c *gin.Context, store *game.Store, playerID int) {
	rows, err := store.PlayerHistory(c.Request.Context(), playerID, queryLimit(c, 20, 100))
	if err != nil {
		log.Printf("[DB] history for player %d failed: %v", playerID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}

	type sessionResp struct {
		SessionToken  string                `json:"session_token"`
		TotalBalls    int                   `json:"total_balls"`
		FinalScore    int                   `json:"final_score"`
		MaxMultiplier int                   `json:"max_multiplier"`
		Captures      int                   `json:"captures"`
		Misses        int                   `json:"misses"`
		Status        string                `json:"status"`
		CompletedAt   string                `json:"completed_at,omitempty"`
		Balls         []pachinko.Resolution `json:"balls"`
	}
	resp := make([]sessionResp, 0, len(rows))
	for _, r := range rows {
		s := sessionResp{
			SessionToken:  r.SessionToken,
			TotalBalls:    r.TotalBalls,
			FinalScore:    r.FinalScore,
			MaxMultiplier: r.MaxMultiplier,
			Captures:      r.Captures,
			Misses:        r.Misses,
			Status:        r.Status,
		}
		if r.CompletedAt.Valid {
			s.CompletedAt = r.CompletedAt.Time.UTC().Format("2006-01-02T15:04:05Z")
		}
		if len(r.History) > 0 {
			if err := json.Unmarshal(r.History, &s.Balls); err != nil {
				log.Printf("[DB] bad history json for session %s: %v", r.SessionToken, err)
			}
		}
		resp = append(resp, s)
	}
	c.JSON(http.StatusOK, gin.H{"sessions": resp})
}
