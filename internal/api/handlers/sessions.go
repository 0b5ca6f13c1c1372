package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/pachinko/internal/game"
	"github.com/playmatatu/pachinko/internal/pachinko"
)

// CreateSession starts a new pachinko session for the authenticated player. When
// balls is given the session is configured straight away.
func CreateSession(mgr *game.SessionManager, render game.RendererFactory) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Balls int `json:"balls"`
		}
		if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if req.Balls != 0 && !pachinko.ValidBallCount(req.Balls) {
			c.JSON(http.StatusBadRequest, gin.H{"error": pachinko.ErrInvalidBallCount.Error(), "allowed": pachinko.AllowedBallCounts})
			return
		}

		playerID := currentPlayerID(c)
		as, err := mgr.CreateSession(c.Request.Context(), playerID, c.GetString("display_name"), render)
		if err != nil {
			if errors.Is(err, game.ErrSessionActive) {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			log.Printf("[PACHINKO] create session failed for player %d: %v", playerID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
			return
		}

		if req.Balls != 0 {
			if err := mgr.Configure(as.Token, req.Balls); err != nil {
				log.Printf("[PACHINKO] configure failed for new session %s: %v", as.Token, err)
			}
		}

		snap, err := mgr.Snapshot(c.Request.Context(), as.Token)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read session"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"session_token": as.Token,
			"ws_path":       "/api/v1/sessions/" + as.Token + "/ws",
			"snapshot":      snap,
		})
	}
}

// GetSession returns the current snapshot of a session, live or cached.
func GetSession(mgr *game.SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := mgr.Snapshot(c.Request.Context(), c.Param("token"))
		if err != nil {
			respondSessionError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"snapshot": snap})
	}
}

// GetSessionHistory returns the per-ball resolutions of a session.
func GetSessionHistory(mgr *game.SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		history, err := mgr.History(c.Param("token"))
		if err != nil {
			respondSessionError(c, err)
			return
		}
		if history == nil {
			history = []pachinko.Resolution{}
		}
		c.JSON(http.StatusOK, gin.H{"history": history})
	}
}

// SessionInput applies configure, press or release to a session the caller owns.
func SessionInput(mgr *game.SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Param("token")
		if !ownsSession(c, mgr, token) {
			return
		}

		var err error
		switch c.Param("action") {
		case "configure":
			var req struct {
				Balls int `json:"balls" binding:"required"`
			}
			if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "balls required"})
				return
			}
			err = mgr.Configure(token, req.Balls)
		case "press":
			err = mgr.Press(token)
		case "release":
			err = mgr.Release(token)
		default:
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown action"})
			return
		}
		if err != nil {
			respondSessionError(c, err)
			return
		}
		mgr.Touch(token)

		snap, err := mgr.Snapshot(c.Request.Context(), token)
		if err != nil {
			respondSessionError(c, err)
			return
		}
		snap.Board = nil
		c.JSON(http.StatusOK, gin.H{"snapshot": snap})
	}
}

// EndSession lets a player abandon their own session.
func EndSession(mgr *game.SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Param("token")
		if !ownsSession(c, mgr, token) {
			return
		}
		if err := mgr.EndSession(token, game.ReasonPlayer); err != nil {
			respondSessionError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

func ownsSession(c *gin.Context, mgr *game.SessionManager, token string) bool {
	as, err := mgr.Get(token)
	if err != nil {
		respondSessionError(c, err)
		return false
	}
	if as.PlayerID != currentPlayerID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your session"})
		return false
	}
	return true
}

// respondSessionError maps session and input errors to HTTP statuses. Rejected
// inputs are conflicts: the session is left unchanged.
func respondSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, game.ErrSessionNotFound), errors.Is(err, pachinko.ErrLoopStopped):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	case errors.Is(err, pachinko.ErrInvalidBallCount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "allowed": pachinko.AllowedBallCounts})
	case errors.Is(err, pachinko.ErrNotConfiguring),
		errors.Is(err, pachinko.ErrNotReady),
		errors.Is(err, pachinko.ErrBallInFlight),
		errors.Is(err, pachinko.ErrNoBallsLeft),
		errors.Is(err, pachinko.ErrSessionFinished):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Printf("[PACHINKO] session request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
