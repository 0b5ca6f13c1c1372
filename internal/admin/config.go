package admin

import (
	"fmt"
	"log"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/pachinko/internal/config"
)

// RuntimeConfig is an operator override stored in the runtime_config table.
type RuntimeConfig struct {
	Key         string `db:"key" json:"key"`
	Value       string `db:"value" json:"value"`
	ValueType   string `db:"value_type" json:"value_type"`
	Description string `db:"description" json:"description"`
	UpdatedBy   string `db:"updated_by" json:"updated_by"`
	UpdatedAt   string `db:"updated_at" json:"updated_at"`
}

// GetAllRuntimeConfig returns all runtime config entries
func GetAllRuntimeConfig(db *sqlx.DB) ([]RuntimeConfig, error) {
	var configs []RuntimeConfig
	err := db.Select(&configs, `
		SELECT key, value, value_type, description, updated_by,
			to_char(updated_at, 'YYYY-MM-DD"T"HH24:MI:SS"Z"') AS updated_at
		FROM runtime_config
		ORDER BY key
	`)
	return configs, err
}

// UpdateRuntimeConfigValue validates value against the key's type and stores it
func UpdateRuntimeConfigValue(db *sqlx.DB, key, value, adminPhone string) error {
	var valueType string
	if err := db.Get(&valueType, `SELECT value_type FROM runtime_config WHERE key=$1`, key); err != nil {
		return fmt.Errorf("config key not found: %s", key)
	}
	if err := ValidateValue(valueType, value); err != nil {
		return err
	}

	_, err := db.Exec(`UPDATE runtime_config SET value=$1, updated_by=$2, updated_at=NOW() WHERE key=$3`, value, adminPhone, key)
	return err
}

// ValidateValue checks that value parses as valueType ("int" or "bool"; anything else is free text).
func ValidateValue(valueType, value string) error {
	switch valueType {
	case "int":
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("invalid integer value: %s", value)
		}
	case "bool":
		if value != "true" && value != "false" {
			return fmt.Errorf("invalid boolean value: %s (must be 'true' or 'false')", value)
		}
	}
	return nil
}

// ApplyRuntimeConfigToConfig loads runtime config from DB and applies overrides to cfg
func ApplyRuntimeConfigToConfig(db *sqlx.DB, cfg *config.Config) error {
	configs, err := GetAllRuntimeConfig(db)
	if err != nil {
		return err
	}

	applied := 0
	for _, c := range configs {
		if ApplyValue(cfg, c.Key, c.Value) {
			applied++
		}
	}

	log.Printf("[CONFIG] Applied %d of %d runtime config overrides from database", applied, len(configs))
	return nil
}

// ApplyValue sets one known key on cfg. Unknown keys and non-positive values are ignored.
func ApplyValue(cfg *config.Config, key, value string) bool {
	v, err := strconv.Atoi(value)
	if err != nil || v <= 0 {
		return false
	}
	switch key {
	case "snapshot_every_frames":
		cfg.SnapshotEveryFrames = v
	case "idle_timeout_seconds":
		cfg.IdleTimeoutSeconds = v
	case "leaderboard_size":
		cfg.LeaderboardSize = v
	case "session_ttl_minutes":
		cfg.SessionTTLMinutes = v
	default:
		return false
	}
	return true
}
