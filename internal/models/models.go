package models

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// Player is a guest identity keyed by display name.
type Player struct {
	ID            int          `db:"id" json:"id"`
	DisplayName   string       `db:"display_name" json:"display_name"`
	TotalSessions int          `db:"total_sessions" json:"total_sessions"`
	BestScore     int          `db:"best_score" json:"best_score"`
	TotalScore    int64        `db:"total_score" json:"total_score"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	LastActive    sql.NullTime `db:"last_active" json:"last_active,omitempty"`
}

// PachinkoSession is the persisted record of one game, written when it finishes or is abandoned.
type PachinkoSession struct {
	ID            int          `db:"id" json:"id"`
	SessionToken  string       `db:"session_token" json:"session_token"`
	PlayerID      int          `db:"player_id" json:"player_id"`
	TotalBalls    int          `db:"total_balls" json:"total_balls"`
	FinalScore    int          `db:"final_score" json:"final_score"`
	MaxMultiplier int          `db:"max_multiplier" json:"max_multiplier"`
	Captures      int          `db:"captures" json:"captures"`
	Misses        int          `db:"misses" json:"misses"`
	Status        string       `db:"status" json:"status"`
	History       []byte       `db:"history" json:"-"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	CompletedAt   sql.NullTime `db:"completed_at" json:"completed_at,omitempty"`
}

// AdminAccount represents an operator allowed to use the admin routes
type AdminAccount struct {
	Phone       string         `db:"phone" json:"phone"`
	DisplayName string         `db:"display_name" json:"display_name"`
	TokenHash   string         `db:"token_hash" json:"-"`
	Roles       pq.StringArray `db:"roles" json:"roles"`
	AllowedIPs  pq.StringArray `db:"allowed_ips" json:"allowed_ips"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// AdminAudit is one row of the admin audit log
type AdminAudit struct {
	ID         int            `db:"id" json:"id"`
	AdminPhone sql.NullString `db:"admin_phone" json:"admin_phone"`
	IP         sql.NullString `db:"ip" json:"ip"`
	Route      sql.NullString `db:"route" json:"route"`
	Action     sql.NullString `db:"action" json:"action"`
	Details    []byte         `db:"details" json:"details"`
	Success    bool           `db:"success" json:"success"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}
