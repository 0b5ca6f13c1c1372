package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL    string
	MigrateOnStart bool

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Simulation
	FrameRateHz         int
	SnapshotEveryFrames int

	// Sessions
	SessionTTLMinutes      int
	IdleTimeoutSeconds     int
	IdleWorkerPollInterval int
	LeaderboardSize        int

	// Security
	JWTSecret string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		Environment: getEnv("APP_ENV", "development"),

		DatabaseURL:    getEnv("DATABASE_URL", "postgres://localhost:5432/pachinko?sslmode=disable"),
		MigrateOnStart: getEnv("MIGRATE_ON_START", "false") == "true",

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		FrameRateHz:         getEnvInt("FRAME_RATE_HZ", 60),
		SnapshotEveryFrames: getEnvInt("SNAPSHOT_EVERY_FRAMES", 2),

		SessionTTLMinutes:      getEnvInt("SESSION_TTL_MINUTES", 60),
		IdleTimeoutSeconds:     getEnvInt("IDLE_TIMEOUT_SECONDS", 300),
		IdleWorkerPollInterval: getEnvInt("IDLE_WORKER_POLL_SECONDS", 10),
		LeaderboardSize:        getEnvInt("LEADERBOARD_SIZE", 100),

		JWTSecret: getEnv("JWT_SECRET", "change-me-in-production"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
