package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

var startTime = time.Now()

const version = "1.0.0"

// HealthCheck returns server health status
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "pachinko-api",
		"version": version,
		"uptime":  time.Since(startTime).String(),
	})
}

// ReadinessCheck reports whether the optional backing stores answer. A store that was
// never configured is reported as "disabled" and does not fail readiness.
func ReadinessCheck(db *sqlx.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		deps := gin.H{"postgres": "disabled", "redis": "disabled"}
		if db != nil {
			deps["postgres"] = "ok"
			if err := db.PingContext(ctx); err != nil {
				deps["postgres"] = err.Error()
				status = http.StatusServiceUnavailable
			}
		}
		if rdb != nil {
			deps["redis"] = "ok"
			if err := rdb.Ping(ctx).Err(); err != nil {
				deps["redis"] = err.Error()
				status = http.StatusServiceUnavailable
			}
		}
		c.JSON(status, gin.H{"ready": status == http.StatusOK, "dependencies": deps})
	}
}
