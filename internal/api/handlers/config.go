package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/pachinko/internal/config"
	"github.com/playmatatu/pachinko/internal/pachinko"
)

// GetConfig returns the values a client needs to draw the board and drive a session
func GetConfig(cfg *config.Config, board *pachinko.Board) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"allowed_ball_counts":   pachinko.AllowedBallCounts,
			"board":                 board,
			"tick_ms":               float64(pachinko.TickDuration) / float64(time.Millisecond),
			"power_step":            pachinko.PowerStep,
			"max_power":             pachinko.MaxPower,
			"finish_delay_ticks":    pachinko.FinishDelayTicks,
			"frame_rate_hz":         cfg.FrameRateHz,
			"snapshot_every_frames": cfg.SnapshotEveryFrames,
		})
	}
}
