package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/playmatatu/pachinko/internal/auth"
	"github.com/playmatatu/pachinko/internal/config"
	"github.com/playmatatu/pachinko/internal/game"
	"github.com/playmatatu/pachinko/internal/pachinko"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origins are checked by middleware.WebSocketCORSCheck
	},
}

type ConfigureData struct {
	Balls int `json:"balls"`
}

// Handler serves the session WebSocket and renders sessions into its hub.
type Handler struct {
	hub *Hub
	mgr *game.SessionManager
	cfg *config.Config
}

func NewHandler(hub *Hub, mgr *game.SessionManager, cfg *config.Config) *Handler {
	return &Handler{hub: hub, mgr: mgr, cfg: cfg}
}

func (h *Handler) Hub() *Hub { return h.hub }

// Renderer is a game.RendererFactory streaming the session into its room.
func (h *Handler) Renderer(token string) pachinko.Renderer {
	return NewHubRenderer(h.hub, token, h.cfg.SnapshotEveryFrames)
}

// HandleWebSocket upgrades /api/v1/sessions/:token/ws. The session owner controls the game;
// any other authenticated player joins as a spectator.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	token := c.Param("token")
	playerToken := c.Query("pt")
	if token == "" || playerToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token and pt required"})
		return
	}

	id, err := auth.ParseToken(h.cfg.JWTSecret, playerToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid player token"})
		return
	}

	as, err := h.mgr.Get(token)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] Upgrade error: %v", err)
		return
	}

	client := newClient(h.hub, conn, id.PlayerID, token, as.PlayerID != id.PlayerID)
	if !h.hub.Register(client) {
		conn.Close()
		return
	}

	go client.writePump()

	if snap, err := as.Loop.Snapshot(); err == nil {
		client.sendJSON(snapshotMessage(snap))
	}
	if !client.spectator {
		h.mgr.Touch(token)
	}

	go client.readPump(h.handleMessage)
}

func (h *Handler) handleMessage(c *Client, msg WSMessage) {
	switch msg.Type {
	case "get_state":
		snap, err := h.mgr.Snapshot(context.Background(), c.sessionToken)
		if err != nil {
			c.sendError(errorCode(err), err.Error())
			return
		}
		c.sendJSON(snapshotMessage(snap))

	case "get_history":
		history, err := h.mgr.History(c.sessionToken)
		if err != nil {
			c.sendError(errorCode(err), err.Error())
			return
		}
		c.sendJSON(map[string]interface{}{
			"type":    "history",
			"history": history,
		})

	case "configure", "press", "release":
		if c.spectator {
			c.sendError("SPECTATOR", "spectators cannot control this session")
			return
		}
		h.mgr.Touch(c.sessionToken)

		var err error
		switch msg.Type {
		case "configure":
			var data ConfigureData
			if jerr := json.Unmarshal(msg.Data, &data); jerr != nil {
				c.sendError("BAD_MESSAGE", "invalid configure data")
				return
			}
			err = h.mgr.Configure(c.sessionToken, data.Balls)
		case "press":
			err = h.mgr.Press(c.sessionToken)
		case "release":
			err = h.mgr.Release(c.sessionToken)
		}
		if err != nil {
			c.sendError(errorCode(err), err.Error())
		}

	default:
		c.sendError("BAD_MESSAGE", "unknown message type")
	}
}

// errorCode maps a rejected input to a stable code for clients.
func errorCode(err error) string {
	switch {
	case errors.Is(err, pachinko.ErrInvalidBallCount):
		return "INVALID_BALL_COUNT"
	case errors.Is(err, pachinko.ErrNotConfiguring):
		return "ALREADY_CONFIGURED"
	case errors.Is(err, pachinko.ErrNotReady):
		return "NOT_READY"
	case errors.Is(err, pachinko.ErrBallInFlight):
		return "BALL_IN_FLIGHT"
	case errors.Is(err, pachinko.ErrNoBallsLeft):
		return "NO_BALLS_LEFT"
	case errors.Is(err, pachinko.ErrSessionFinished):
		return "SESSION_FINISHED"
	case errors.Is(err, game.ErrSessionNotFound), errors.Is(err, pachinko.ErrLoopStopped):
		return "SESSION_NOT_FOUND"
	default:
		return "INTERNAL"
	}
}
