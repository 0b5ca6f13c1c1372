package game

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/pachinko/internal/config"
	"github.com/playmatatu/pachinko/internal/pachinko"
	"github.com/redis/go-redis/v9"
)

// Why a session was torn down.
const (
	ReasonPlayer   = "player"
	ReasonIdle     = "idle"
	ReasonExpired  = "expired"
	ReasonAdmin    = "admin"
	ReasonReplaced = "replaced"
	ReasonShutdown = "shutdown"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionActive   = errors.New("player already has an active session")
)

// RendererFactory builds the renderer for a new session once its token is known.
type RendererFactory func(token string) pachinko.Renderer

// ActiveSession is one running game owned by this instance.
type ActiveSession struct {
	Token       string
	PlayerID    int
	DisplayName string
	CreatedAt   time.Time
	Loop        *pachinko.Loop

	session    *pachinko.Session
	cancel     context.CancelFunc
	lastActive atomic.Int64
	finished   atomic.Bool
}

// Finished reports whether the session reached its terminal state.
func (as *ActiveSession) Finished() bool {
	return as.finished.Load()
}

func (as *ActiveSession) LastActive() time.Time {
	return time.Unix(0, as.lastActive.Load())
}

func (as *ActiveSession) touch() {
	as.lastActive.Store(time.Now().UnixNano())
}

// SessionInfo is the admin view of an active session.
type SessionInfo struct {
	Token       string    `json:"session_token"`
	PlayerID    int       `json:"player_id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	LastActive  time.Time `json:"last_active"`
	Finished    bool      `json:"finished"`
}

// SessionManager owns every active session on this instance and reports finished
// ones to PostgreSQL and Redis. All storage is optional.
type SessionManager struct {
	sessions map[string]*ActiveSession // keyed by session token
	byPlayer map[int]string            // player ID -> session token

	cfg           *config.Config
	board         *pachinko.Board
	frameInterval time.Duration

	rdb         *redis.Client
	store       *Store
	leaderboard *Leaderboard
	snapshots   *SnapshotStore
	idle        *IdleTracker

	onEvent func(Event)
	reports sync.WaitGroup
	mu      sync.RWMutex
}

var (
	// Global session manager instance
	Manager *SessionManager
)

// InitializeManager initializes the global session manager
func InitializeManager(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) *SessionManager {
	Manager = NewSessionManager(db, rdb, cfg)
	return Manager
}

// NewSessionManager creates a manager. db and rdb may be nil.
func NewSessionManager(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) *SessionManager {
	frame := pachinko.TickDuration
	if cfg.FrameRateHz > 0 {
		frame = time.Second / time.Duration(cfg.FrameRateHz)
	}
	return &SessionManager{
		sessions:      make(map[string]*ActiveSession),
		byPlayer:      make(map[int]string),
		cfg:           cfg,
		board:         pachinko.MustDefaultBoard(),
		frameInterval: frame,
		rdb:           rdb,
		store:         NewStore(db),
		leaderboard:   NewLeaderboard(rdb, cfg.LeaderboardSize),
		snapshots:     NewSnapshotStore(rdb, time.Duration(cfg.SessionTTLMinutes)*time.Minute),
		idle:          NewIdleTracker(rdb, time.Duration(cfg.IdleTimeoutSeconds)*time.Second),
	}
}

// SetEventListener registers in-process delivery of session events, used when Redis
// pubsub is unavailable.
func (m *SessionManager) SetEventListener(fn func(Event)) {
	m.mu.Lock()
	m.onEvent = fn
	m.mu.Unlock()
}

// ApplyConfig pushes the tunables of the manager's config into its stores. Call it
// after runtime overrides change the config.
func (m *SessionManager) ApplyConfig() {
	m.leaderboard.SetSize(m.cfg.LeaderboardSize)
	m.snapshots.SetTTL(time.Duration(m.cfg.SessionTTLMinutes) * time.Minute)
	m.idle.SetTimeout(time.Duration(m.cfg.IdleTimeoutSeconds) * time.Second)
}

func (m *SessionManager) Board() *pachinko.Board { return m.board }
func (m *SessionManager) Store() *Store { return m.store }
func (m *SessionManager) Leaderboard() *Leaderboard { return m.leaderboard }

// generateToken generates a secure random token
func generateToken(length int) string {
	bytes := make([]byte, length)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// CreateSession starts a new game for the player. A player with an unfinished
// session gets ErrSessionActive; a finished one is replaced.
func (m *SessionManager) CreateSession(ctx context.Context, playerID int, displayName string, render RendererFactory) (*ActiveSession, error) {
	m.mu.RLock()
	oldToken, has := m.byPlayer[playerID]
	old := m.sessions[oldToken]
	m.mu.RUnlock()
	if has && old != nil {
		if !old.Finished() {
			return nil, ErrSessionActive
		}
		m.EndSession(oldToken, ReasonReplaced)
	}

	as := m.newActiveSession(playerID, displayName, render)
	if err := m.launch(ctx, as); err != nil {
		return nil, err
	}

	log.Printf("[PACHINKO] Session %s created for player %d (%s)", as.Token, playerID, displayName)
	return as, nil
}

func (m *SessionManager) newActiveSession(playerID int, displayName string, render RendererFactory) *ActiveSession {
	as := &ActiveSession{
		Token:       generateToken(16),
		PlayerID:    playerID,
		DisplayName: displayName,
		CreatedAt:   time.Now(),
	}
	as.touch()
	as.session = pachinko.NewSession(m.board, func(score int) {
		m.onFinished(as, score)
	})

	var r pachinko.Renderer
	if render != nil {
		r = render(as.Token)
	}
	as.Loop = pachinko.NewLoop(as.session, pachinko.LoopConfig{
		FrameInterval: m.frameInterval,
		Renderer:      r,
		OnOutcome: func(out pachinko.Outcome) {
			m.onOutcome(as, out)
		},
	})
	return as
}

func (m *SessionManager) launch(ctx context.Context, as *ActiveSession) error {
	m.mu.Lock()
	if tok, ok := m.byPlayer[as.PlayerID]; ok {
		if cur := m.sessions[tok]; cur != nil && !cur.Finished() {
			m.mu.Unlock()
			return ErrSessionActive
		}
	}
	loopCtx, cancel := context.WithCancel(context.Background())
	as.cancel = cancel
	if err := as.Loop.Start(loopCtx); err != nil {
		m.mu.Unlock()
		cancel()
		return err
	}
	m.sessions[as.Token] = as
	m.byPlayer[as.PlayerID] = as.Token
	m.mu.Unlock()

	m.store.InsertSession(ctx, as.Token, as.PlayerID)
	m.idle.Touch(ctx, as.Token)
	m.refreshCache(as)
	return nil
}

// Get returns a session owned by this instance.
func (m *SessionManager) Get(token string) (*ActiveSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	as, ok := m.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return as, nil
}

// Touch records player activity on a session.
func (m *SessionManager) Touch(token string) {
	as, err := m.Get(token)
	if err != nil {
		return
	}
	as.touch()
	m.idle.Touch(context.Background(), token)
}

// Configure, Press and Release forward player input to the session's loop.

func (m *SessionManager) Configure(token string, balls int) error {
	as, err := m.Get(token)
	if err != nil {
		return err
	}
	if err := as.Loop.Configure(balls); err != nil {
		return err
	}
	m.refreshCache(as)
	return nil
}

func (m *SessionManager) Press(token string) error {
	as, err := m.Get(token)
	if err != nil {
		return err
	}
	return as.Loop.Press()
}

func (m *SessionManager) Release(token string) error {
	as, err := m.Get(token)
	if err != nil {
		return err
	}
	if err := as.Loop.Release(); err != nil {
		return err
	}
	m.refreshCache(as)
	return nil
}

// Snapshot returns the live snapshot of a local session, or the cached one of a
// session owned by another instance.
func (m *SessionManager) Snapshot(ctx context.Context, token string) (pachinko.Snapshot, error) {
	if as, err := m.Get(token); err == nil {
		return as.Loop.Snapshot()
	}
	cs, err := m.snapshots.Load(ctx, token)
	if err != nil {
		if errors.Is(err, ErrSnapshotNotFound) {
			return pachinko.Snapshot{}, ErrSessionNotFound
		}
		return pachinko.Snapshot{}, err
	}
	snap := cs.Snapshot
	snap.Board = m.board
	return snap, nil
}

// History returns the per-ball resolutions of a local session.
func (m *SessionManager) History(token string) ([]pachinko.Resolution, error) {
	as, err := m.Get(token)
	if err != nil {
		return nil, err
	}
	return as.Loop.History()
}

// EndSession stops a session's loop and forgets it. A session whose last ball already
// resolved is finished; any other unfinished session is recorded as abandoned.
func (m *SessionManager) EndSession(token, reason string) error {
	m.mu.Lock()
	as, ok := m.sessions[token]
	if !ok {
		m.mu.Unlock()
		return ErrSessionNotFound
	}
	delete(m.sessions, token)
	if m.byPlayer[as.PlayerID] == token {
		delete(m.byPlayer, as.PlayerID)
	}
	m.mu.Unlock()

	as.cancel()
	as.Loop.Stop()

	// the loop has exited, so the session can be read directly. A teardown inside the
	// finish delay still completes the game.
	if !as.Finished() && as.session.FinishNow() {
		log.Printf("[PACHINKO] Session %s finished during teardown (%s)", token, reason)
	}

	if as.Finished() {
		m.idle.Forget(context.Background(), token)
		log.Printf("[PACHINKO] Session %s closed (%s)", token, reason)
		return nil
	}

	rec := summarize(as.Token, as.PlayerID, as.DisplayName, as.session.Scorer(), StatusAbandoned)
	m.reports.Add(1)
	go func() {
		defer m.reports.Done()
		m.report(rec, reason)
	}()
	log.Printf("[PACHINKO] Session %s abandoned (%s) at score %d", token, reason, rec.FinalScore)
	return nil
}

// Reap ends every session with no activity for olderThan and returns how many it ended.
func (m *SessionManager) Reap(olderThan time.Duration) int {
	cutoff := time.Now().Add(-olderThan)
	var stale []string
	m.mu.RLock()
	for token, as := range m.sessions {
		if as.LastActive().Before(cutoff) {
			stale = append(stale, token)
		}
	}
	m.mu.RUnlock()

	n := 0
	for _, token := range stale {
		if m.EndSession(token, ReasonExpired) == nil {
			n++
		}
	}
	return n
}

// StartReaper periodically reaps sessions idle for longer than the session TTL.
func (m *SessionManager) StartReaper(ctx context.Context, interval time.Duration) {
	if m.cfg.SessionTTLMinutes <= 0 {
		log.Println("[PACHINKO] Session TTL disabled; reaper not started")
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				// re-read so runtime overrides apply
				ttl := time.Duration(m.cfg.SessionTTLMinutes) * time.Minute
				if ttl <= 0 {
					continue
				}
				if n := m.Reap(ttl); n > 0 {
					log.Printf("[PACHINKO] Reaped %d expired sessions", n)
				}
			}
		}
	}()
}

// ActiveSessions lists local sessions, oldest first.
func (m *SessionManager) ActiveSessions() []SessionInfo {
	m.mu.RLock()
	infos := make([]SessionInfo, 0, len(m.sessions))
	for _, as := range m.sessions {
		infos = append(infos, SessionInfo{
			Token:       as.Token,
			PlayerID:    as.PlayerID,
			DisplayName: as.DisplayName,
			CreatedAt:   as.CreatedAt,
			LastActive:  as.LastActive(),
			Finished:    as.Finished(),
		})
	}
	m.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

// Shutdown ends every session and waits for pending reports.
func (m *SessionManager) Shutdown() {
	m.mu.RLock()
	tokens := make([]string, 0, len(m.sessions))
	for token := range m.sessions {
		tokens = append(tokens, token)
	}
	m.mu.RUnlock()

	for _, token := range tokens {
		m.EndSession(token, ReasonShutdown)
	}
	m.WaitReports()
}

// WaitReports blocks until every in-flight report has been written.
func (m *SessionManager) WaitReports() {
	m.reports.Wait()
}
