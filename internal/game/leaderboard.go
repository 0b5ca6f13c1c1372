package game

import (
	"context"
	"errors"
	"log"
	"strconv"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
)

const (
	leaderboardKey      = "pachinko:leaderboard"
	leaderboardNamesKey = "pachinko:leaderboard:names"
)

var ErrLeaderboardUnavailable = errors.New("leaderboard unavailable")

// LeaderboardEntry is one ranked player.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	PlayerID    int    `json:"player_id"`
	DisplayName string `json:"display_name"`
	Score       int    `json:"score"`
}

// Leaderboard keeps each player's best score in a Redis sorted set, trimmed to size.
type Leaderboard struct {
	rdb  *redis.Client
	size atomic.Int64
}

func NewLeaderboard(rdb *redis.Client, size int) *Leaderboard {
	lb := &Leaderboard{rdb: rdb}
	lb.SetSize(size)
	return lb
}

// SetSize changes how many players are kept. Non-positive sizes fall back to 100.
func (lb *Leaderboard) SetSize(size int) {
	if size <= 0 {
		size = 100
	}
	lb.size.Store(int64(size))
}

// Submit records score for the player if it beats their previous best.
func (lb *Leaderboard) Submit(ctx context.Context, playerID int, displayName string, score int) error {
	if lb.rdb == nil {
		return ErrLeaderboardUnavailable
	}
	member := strconv.Itoa(playerID)

	pipe := lb.rdb.TxPipeline()
	pipe.ZAddGT(ctx, leaderboardKey, redis.Z{Score: float64(score), Member: member})
	pipe.HSet(ctx, leaderboardNamesKey, member, displayName)
	// keep only the top lb.size members
	pipe.ZRemRangeByRank(ctx, leaderboardKey, 0, -lb.size.Load()-1)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[LEADERBOARD] submit failed: player=%d score=%d err=%v", playerID, score, err)
		return err
	}
	log.Printf("[LEADERBOARD] submitted player=%d score=%d", playerID, score)
	return nil
}

// Top returns up to limit entries, best first.
func (lb *Leaderboard) Top(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if lb.rdb == nil {
		return nil, ErrLeaderboardUnavailable
	}
	if size := int(lb.size.Load()); limit <= 0 || limit > size {
		limit = size
	}

	zs, err := lb.rdb.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(zs) == 0 {
		return []LeaderboardEntry{}, nil
	}

	members := make([]string, len(zs))
	for i, z := range zs {
		members[i], _ = z.Member.(string)
	}
	names, err := lb.rdb.HMGet(ctx, leaderboardNamesKey, members...).Result()
	if err != nil {
		log.Printf("[LEADERBOARD] name lookup failed: %v", err)
		names = make([]interface{}, len(members))
	}

	return buildEntries(zs, names), nil
}

func buildEntries(zs []redis.Z, names []interface{}) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(zs))
	for i, z := range zs {
		member, _ := z.Member.(string)
		id, err := strconv.Atoi(member)
		if err != nil {
			continue
		}
		var name string
		if i < len(names) {
			name, _ = names[i].(string)
		}
		entries = append(entries, LeaderboardEntry{
			Rank:        len(entries) + 1,
			PlayerID:    id,
			DisplayName: name,
			Score:       int(z.Score),
		})
	}
	return entries
}

// Reset removes every entry.
func (lb *Leaderboard) Reset(ctx context.Context) error {
	if lb.rdb == nil {
		return ErrLeaderboardUnavailable
	}
	return lb.rdb.Del(ctx, leaderboardKey, leaderboardNamesKey).Err()
}
