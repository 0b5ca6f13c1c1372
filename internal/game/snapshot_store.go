package game

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/playmatatu/pachinko/internal/pachinko"
	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

var ErrSnapshotNotFound = errors.New("snapshot not found")

// CachedSession is the msgpack record kept in Redis for a live session, so any
// instance can answer a state query.
type CachedSession struct {
	Token       string                `msgpack:"token"`
	PlayerID    int                   `msgpack:"player_id"`
	DisplayName string                `msgpack:"display_name"`
	Snapshot    pachinko.Snapshot     `msgpack:"snapshot"`
	History     []pachinko.Resolution `msgpack:"history"`
	UpdatedAt   int64                 `msgpack:"updated_at"`
}

// EncodeCachedSession drops the board (it is the same for every session) and encodes.
func EncodeCachedSession(cs CachedSession) ([]byte, error) {
	cs.Snapshot.Board = nil
	return msgpack.Marshal(&cs)
}

func DecodeCachedSession(data []byte) (*CachedSession, error) {
	var cs CachedSession
	if err := msgpack.Unmarshal(data, &cs); err != nil {
		return nil, fmt.Errorf("decode cached session: %w", err)
	}
	return &cs, nil
}

// SnapshotStore caches session snapshots under session:<token> with a TTL.
type SnapshotStore struct {
	rdb *redis.Client
	ttl atomic.Int64
}

func NewSnapshotStore(rdb *redis.Client, ttl time.Duration) *SnapshotStore {
	st := &SnapshotStore{rdb: rdb}
	st.SetTTL(ttl)
	return st
}

func (s *SnapshotStore) SetTTL(ttl time.Duration) { s.ttl.Store(int64(ttl)) }

func snapshotKey(token string) string {
	return "session:" + token
}

func (s *SnapshotStore) Save(ctx context.Context, cs CachedSession) error {
	if s.rdb == nil {
		return nil
	}
	cs.UpdatedAt = time.Now().Unix()
	data, err := EncodeCachedSession(cs)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, snapshotKey(cs.Token), data, time.Duration(s.ttl.Load())).Err()
}

func (s *SnapshotStore) Load(ctx context.Context, token string) (*CachedSession, error) {
	if s.rdb == nil {
		return nil, ErrSnapshotNotFound
	}
	data, err := s.rdb.Get(ctx, snapshotKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	return DecodeCachedSession(data)
}

func (s *SnapshotStore) Delete(ctx context.Context, token string) error {
	if s.rdb == nil {
		return nil
	}
	return s.rdb.Del(ctx, snapshotKey(token)).Err()
}
