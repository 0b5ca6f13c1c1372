package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/pachinko/internal/models"
)

var ErrPlayerNotFound = errors.New("player not found")

// Store persists players and finished sessions in PostgreSQL. With no database it
// keeps guest players in memory and drops session records, so the server can run
// stand-alone.
type Store struct {
	db *sqlx.DB

	mu     sync.Mutex
	guests map[string]*models.Player
	nextID int
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db, guests: make(map[string]*models.Player)}
}

// EnsureGuestPlayer returns the player with displayName, creating it if needed.
func (s *Store) EnsureGuestPlayer(ctx context.Context, displayName string) (*models.Player, error) {
	if s.db == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		if p, ok := s.guests[displayName]; ok {
			return p, nil
		}
		s.nextID++
		p := &models.Player{ID: s.nextID, DisplayName: displayName}
		s.guests[displayName] = p
		return p, nil
	}

	var p models.Player
	err := s.db.GetContext(ctx, &p, `
		INSERT INTO players (display_name, created_at, last_active)
		VALUES ($1, NOW(), NOW())
		ON CONFLICT (display_name) DO UPDATE SET last_active = NOW()
		RETURNING id, display_name, total_sessions, best_score, total_score, created_at, last_active
	`, displayName)
	if err != nil {
		return nil, fmt.Errorf("upsert player: %w", err)
	}
	return &p, nil
}

// GetPlayer loads a player by id.
func (s *Store) GetPlayer(ctx context.Context, playerID int) (*models.Player, error) {
	if s.db == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, p := range s.guests {
			if p.ID == playerID {
				return p, nil
			}
		}
		return nil, ErrPlayerNotFound
	}

	var p models.Player
	err := s.db.GetContext(ctx, &p, `SELECT id, display_name, total_sessions, best_score, total_score, created_at, last_active FROM players WHERE id=$1`, playerID)
	if err != nil {
		return nil, ErrPlayerNotFound
	}
	return &p, nil
}

// InsertSession records a freshly created session.
func (s *Store) InsertSession(ctx context.Context, token string, playerID int) {
	if s.db == nil {
		return
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO pachinko_sessions (session_token, player_id, status, created_at) VALUES ($1, $2, 'CONFIGURING', NOW())`, token, playerID)
	if err != nil {
		log.Printf("[DB] Failed to insert session %s: %v", token, err)
	}
}

// CompleteSession writes the final record. Player stats are only bumped for
// sessions that actually finished.
func (s *Store) CompleteSession(ctx context.Context, rec SessionRecord) error {
	if s.db == nil {
		return nil
	}
	history, err := json.Marshal(rec.History)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE pachinko_sessions
		SET total_balls=$2, final_score=$3, max_multiplier=$4, captures=$5, misses=$6,
			status=$7, history=$8::jsonb, completed_at=NOW()
		WHERE session_token=$1
	`, rec.Token, rec.TotalBalls, rec.FinalScore, rec.MaxMultiplier, rec.Captures, rec.Misses, rec.Status, string(history))
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}

	if rec.Status == StatusFinished {
		_, err = tx.ExecContext(ctx, `
			UPDATE players
			SET total_sessions = total_sessions + 1,
				total_score = total_score + $2,
				best_score = GREATEST(best_score, $2),
				last_active = NOW()
			WHERE id=$1
		`, rec.PlayerID, rec.FinalScore)
		if err != nil {
			return fmt.Errorf("update player stats: %w", err)
		}
	}

	return tx.Commit()
}

// PlayerHistory returns the most recent completed sessions of a player.
func (s *Store) PlayerHistory(ctx context.Context, playerID, limit int) ([]models.PachinkoSession, error) {
	if s.db == nil {
		return []models.PachinkoSession{}, nil
	}
	var rows []models.PachinkoSession
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, session_token, player_id, total_balls, final_score, max_multiplier,
			captures, misses, status, history, created_at, completed_at
		FROM pachinko_sessions
		WHERE player_id=$1 AND completed_at IS NOT NULL
		ORDER BY completed_at DESC
		LIMIT $2
	`, playerID, limit)
	return rows, err
}
