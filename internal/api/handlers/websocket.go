package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/playmatatu/pachinko/internal/ws"
)

// HandleSessionWebSocket streams a session's frames and accepts its inputs
func HandleSessionWebSocket(h *ws.Handler) gin.HandlerFunc {
	return h.HandleWebSocket
}
