package game

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionEventsChannel is the Redis pubsub channel for session lifecycle events.
const SessionEventsChannel = "session_events"

const (
	EventSessionFinished  = "session_finished"
	EventSessionAbandoned = "session_abandoned"
)

// Event is published when a session finishes or is torn down before finishing.
type Event struct {
	Type         string `json:"type"`
	SessionToken string `json:"session_token"`
	PlayerID     int    `json:"player_id"`
	DisplayName  string `json:"display_name,omitempty"`
	FinalScore   int    `json:"final_score"`
	TotalBalls   int    `json:"total_balls"`
	Reason       string `json:"reason,omitempty"`
	At           string `json:"at"`
}

func newEvent(typ string, rec SessionRecord, reason string) Event {
	return Event{
		Type:         typ,
		SessionToken: rec.Token,
		PlayerID:     rec.PlayerID,
		DisplayName:  rec.DisplayName,
		FinalScore:   rec.FinalScore,
		TotalBalls:   rec.TotalBalls,
		Reason:       reason,
		At:           time.Now().UTC().Format(time.RFC3339),
	}
}

// publishEvent sends ev on SessionEventsChannel. When Redis is missing or the publish
// fails, local delivers it in-process instead.
func publishEvent(ctx context.Context, rdb *redis.Client, ev Event, local func(Event)) {
	if rdb != nil {
		b, err := json.Marshal(ev)
		if err == nil {
			n, perr := rdb.Publish(ctx, SessionEventsChannel, b).Result()
			if perr == nil {
				log.Printf("[REDIS] published %s: session=%s subscribers=%d", ev.Type, ev.SessionToken, n)
				return
			}
			err = perr
		}
		log.Printf("[REDIS] publish %s failed for session %s: %v", ev.Type, ev.SessionToken, err)
	}
	if local != nil {
		local(ev)
	}
}
