package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/playmatatu/pachinko/internal/game"
	"github.com/redis/go-redis/v9"
)

var rdbClient *redis.Client

func SetRedisClient(r *redis.Client) {
	rdbClient = r
}

// DeliverEvent forwards a session lifecycle event to the session's room. An abandoned
// session's room is closed once the event is queued.
func DeliverEvent(hub *Hub, ev game.Event) {
	log.Printf("[WS] event %s for session %s (room_size=%d)", ev.Type, ev.SessionToken, hub.RoomSize(ev.SessionToken))
	hub.BroadcastToSession(ev.SessionToken, map[string]interface{}{
		"type":  ev.Type,
		"event": ev,
	})
	if ev.Type == game.EventSessionAbandoned {
		hub.CloseRoom(ev.SessionToken)
	}
}

// StartSessionEventSubscriber relays session_events published by any instance to the
// rooms on this one.
func StartSessionEventSubscriber(ctx context.Context, hub *Hub) {
	if rdbClient == nil {
		log.Println("[WS] Redis client not set; session event subscriber not started")
		return
	}

	pubsub := rdbClient.Subscribe(ctx, game.SessionEventsChannel)
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		log.Printf("[WS] %s subscriber started", game.SessionEventsChannel)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev game.Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					log.Printf("[WS] invalid event payload: %v", err)
					continue
				}
				DeliverEvent(hub, ev)
			}
		}
	}()
}
