package game

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/playmatatu/pachinko/internal/pachinko"
)

// Final status of a persisted session.
const (
	StatusFinished  = "FINISHED"
	StatusAbandoned = "ABANDONED"
)

// SessionRecord summarizes a session for persistence and events.
type SessionRecord struct {
	Token         string
	PlayerID      int
	DisplayName   string
	TotalBalls    int
	FinalScore    int
	MaxMultiplier int
	Captures      int
	Misses        int
	Status        string
	History       []pachinko.Resolution
}

func summarize(token string, playerID int, displayName string, sc pachinko.Scorer, status string) SessionRecord {
	rec := SessionRecord{
		Token:         token,
		PlayerID:      playerID,
		DisplayName:   displayName,
		TotalBalls:    sc.TotalBalls,
		FinalScore:    sc.Score,
		MaxMultiplier: sc.Multiplier,
		Status:        status,
		History:       sc.History,
	}
	for _, r := range sc.History {
		if r.Multiplier > rec.MaxMultiplier {
			rec.MaxMultiplier = r.Multiplier
		}
		if r.Outcome == pachinko.OutcomeCapture.String() {
			rec.Captures++
		} else {
			rec.Misses++
		}
	}
	return rec
}

// onFinished runs on the session's loop goroutine, so it reads the session directly
// and leaves all I/O to a separate goroutine.
func (m *SessionManager) onFinished(as *ActiveSession, finalScore int) {
	as.finished.Store(true)
	rec := summarize(as.Token, as.PlayerID, as.DisplayName, as.session.Scorer(), StatusFinished)
	log.Printf("[PACHINKO] Session %s finished: player=%d score=%d balls=%d", as.Token, as.PlayerID, finalScore, rec.TotalBalls)

	m.reports.Add(1)
	go func() {
		defer m.reports.Done()
		m.report(rec, "")
	}()
}

// onOutcome runs on the loop goroutine after every resolved ball.
func (m *SessionManager) onOutcome(as *ActiveSession, out pachinko.Outcome) {
	if out.Kind == pachinko.OutcomeCapture {
		log.Printf("[PACHINKO] Session %s captured in bucket %d (%d)", as.Token, out.Bucket.ID, out.Bucket.Score)
	} else {
		log.Printf("[PACHINKO] Session %s missed", as.Token)
	}
	if m.rdb == nil || as.Finished() {
		return
	}
	cs := CachedSession{
		Token:       as.Token,
		PlayerID:    as.PlayerID,
		DisplayName: as.DisplayName,
		Snapshot:    as.session.Snapshot(),
		History:     as.session.History(),
	}
	go m.saveCache(cs)
}

// refreshCache stores the current snapshot in Redis. It must not be called from
// the loop goroutine.
func (m *SessionManager) refreshCache(as *ActiveSession) {
	if m.rdb == nil {
		return
	}
	snap, err := as.Loop.Snapshot()
	if err != nil {
		return
	}
	hist, _ := as.Loop.History()
	go m.saveCache(CachedSession{
		Token:       as.Token,
		PlayerID:    as.PlayerID,
		DisplayName: as.DisplayName,
		Snapshot:    snap,
		History:     hist,
	})
}

func (m *SessionManager) saveCache(cs CachedSession) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.snapshots.Save(ctx, cs); err != nil {
		log.Printf("[REDIS] Failed to cache session %s: %v", cs.Token, err)
	}
}

// report persists rec, updates the leaderboard for finished sessions, drops the
// cached snapshot and publishes the matching event.
func (m *SessionManager) report(rec SessionRecord, reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := m.store.CompleteSession(ctx, rec); err != nil {
		log.Printf("[DB] Failed to complete session %s: %v", rec.Token, err)
	}

	typ := EventSessionAbandoned
	if rec.Status == StatusFinished {
		typ = EventSessionFinished
		err := m.leaderboard.Submit(ctx, rec.PlayerID, rec.DisplayName, rec.FinalScore)
		if err != nil && !errors.Is(err, ErrLeaderboardUnavailable) {
			log.Printf("[LEADERBOARD] Failed to submit session %s: %v", rec.Token, err)
		}
	}

	if err := m.snapshots.Delete(ctx, rec.Token); err != nil {
		log.Printf("[REDIS] Failed to drop cached session %s: %v", rec.Token, err)
	}
	m.idle.Forget(ctx, rec.Token)

	m.mu.RLock()
	local := m.onEvent
	m.mu.RUnlock()
	publishEvent(ctx, m.rdb, newEvent(typ, rec, reason), local)
}
