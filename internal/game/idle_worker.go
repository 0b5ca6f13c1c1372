package game

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const idleSessionsKey = "idle_sessions"

// IdleTracker schedules an abandon deadline per session in a Redis sorted set.
// Every websocket message pushes the deadline out.
type IdleTracker struct {
	rdb     *redis.Client
	timeout atomic.Int64
}

func NewIdleTracker(rdb *redis.Client, timeout time.Duration) *IdleTracker {
	it := &IdleTracker{rdb: rdb}
	it.SetTimeout(timeout)
	return it
}

func (it *IdleTracker) SetTimeout(timeout time.Duration) { it.timeout.Store(int64(timeout)) }

// Touch records activity for token.
func (it *IdleTracker) Touch(ctx context.Context, token string) {
	timeout := time.Duration(it.timeout.Load())
	if it.rdb == nil || timeout <= 0 {
		return
	}
	deadline := time.Now().Add(timeout).Unix()
	if err := it.rdb.ZAdd(ctx, idleSessionsKey, redis.Z{Score: float64(deadline), Member: token}).Err(); err != nil {
		log.Printf("[IDLE] failed to touch session %s: %v", token, err)
	}
}

// Forget stops tracking token.
func (it *IdleTracker) Forget(ctx context.Context, token string) {
	if it.rdb == nil {
		return
	}
	it.rdb.ZRem(ctx, idleSessionsKey, token)
}

// Expired pops every session whose deadline is at or before now. ZREM makes the pop
// race-safe across instances: only the instance that removed a member returns it.
func (it *IdleTracker) Expired(ctx context.Context, now time.Time) ([]string, error) {
	if it.rdb == nil {
		return nil, nil
	}
	members, err := it.rdb.ZRangeByScore(ctx, idleSessionsKey, &redis.ZRangeBy{Min: "-inf", Max: fmt.Sprintf("%d", now.Unix())}).Result()
	if err != nil {
		return nil, err
	}
	var expired []string
	for _, m := range members {
		if removed, _ := it.rdb.ZRem(ctx, idleSessionsKey, m).Result(); removed > 0 {
			expired = append(expired, m)
		}
	}
	return expired, nil
}

// StartIdleWorker abandons sessions that saw no websocket activity within the idle timeout.
func StartIdleWorker(ctx context.Context, mgr *SessionManager, pollInterval time.Duration) {
	if mgr == nil || mgr.idle.rdb == nil {
		log.Println("[IDLE] Redis or manager missing; idle worker not started")
		return
	}
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}

	log.Println("[IDLE] Idle worker started")
	go func() {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Println("[IDLE] Idle worker stopping")
				return
			case now := <-ticker.C:
				tokens, err := mgr.idle.Expired(ctx, now)
				if err != nil {
					log.Printf("[IDLE] Failed to fetch idle sessions: %v", err)
					continue
				}
				for _, token := range tokens {
					if err := mgr.EndSession(token, ReasonIdle); err != nil {
						// owned by another instance or already gone
						log.Printf("[IDLE] skipping session %s: %v", token, err)
						continue
					}
					log.Printf("[IDLE] Abandoned session %s after inactivity", token)
				}
			}
		}
	}()
}
