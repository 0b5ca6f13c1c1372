package admin

import (
	"testing"

	"github.com/playmatatu/pachinko/internal/config"
	"github.com/playmatatu/pachinko/internal/models"
	"golang.org/x/crypto/bcrypt"
)

func TestVerifyAdminToken(t *testing.T) {
	hash, err := HashToken("s3cret", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashToken: %v", err)
	}
	if !VerifyAdminToken(hash, "s3cret") {
		t.Error("correct token rejected")
	}
	if VerifyAdminToken(hash, "wrong") {
		t.Error("wrong token accepted")
	}
	if VerifyAdminToken("not-a-hash", "s3cret") {
		t.Error("malformed hash accepted")
	}
}

func TestIPAllowed(t *testing.T) {
	open := &models.AdminAccount{}
	if !IPAllowed(open, "10.0.0.1") {
		t.Error("empty allow list should admit any ip")
	}
	restricted := &models.AdminAccount{AllowedIPs: []string{"127.0.0.1"}}
	if !IPAllowed(restricted, "127.0.0.1") {
		t.Error("listed ip rejected")
	}
	if IPAllowed(restricted, "10.0.0.1") {
		t.Error("unlisted ip admitted")
	}
}

func TestValidateValue(t *testing.T) {
	if err := ValidateValue("int", "12"); err != nil {
		t.Errorf("int 12: %v", err)
	}
	if err := ValidateValue("int", "twelve"); err == nil {
		t.Error("int twelve accepted")
	}
	if err := ValidateValue("bool", "yes"); err == nil {
		t.Error("bool yes accepted")
	}
	if err := ValidateValue("string", "anything"); err != nil {
		t.Errorf("string: %v", err)
	}
}

func TestApplyValue(t *testing.T) {
	cfg := &config.Config{SnapshotEveryFrames: 2, LeaderboardSize: 100}

	if !ApplyValue(cfg, "snapshot_every_frames", "4") || cfg.SnapshotEveryFrames != 4 {
		t.Errorf("snapshot_every_frames not applied: %d", cfg.SnapshotEveryFrames)
	}
	if !ApplyValue(cfg, "idle_timeout_seconds", "90") || cfg.IdleTimeoutSeconds != 90 {
		t.Errorf("idle_timeout_seconds not applied: %d", cfg.IdleTimeoutSeconds)
	}
	if ApplyValue(cfg, "leaderboard_size", "0") || cfg.LeaderboardSize != 100 {
		t.Errorf("non-positive value applied: %d", cfg.LeaderboardSize)
	}
	if ApplyValue(cfg, "unknown_key", "5") {
		t.Error("unknown key reported as applied")
	}
}

func TestLogAdminActionWithoutDB(t *testing.T) {
	if err := LogAdminAction(nil, "256700000000", "127.0.0.1", "/x", "noop", nil, true); err != nil {
		t.Errorf("LogAdminAction(nil db) = %v", err)
	}
}
