package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr                  string
	DBPath                string
	LogLevel              string
	ExamAutosaveInterval  time.Duration
	StudyAutosaveInterval time.Duration
	SyncEndpoint          string
	SyncRetryAttempts     int
	SyncQueueSize         int
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:                  envOr("ADDR", ":8080"),
		DBPath:                envOr("DB_PATH", "studycore.db"),
		LogLevel:              envOr("LOG_LEVEL", "INFO"),
		ExamAutosaveInterval:  envDurationOr("EXAM_AUTOSAVE_INTERVAL", 120*time.Second),
		StudyAutosaveInterval: envDurationOr("STUDY_AUTOSAVE_INTERVAL", 30*time.Second),
		SyncEndpoint:          envOr("SYNC_ENDPOINT", ""),
		SyncRetryAttempts:     envIntOr("SYNC_RETRY_ATTEMPTS", 5),
		SyncQueueSize:         envIntOr("SYNC_QUEUE_SIZE", 64),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("invalid value for %s=%q, using default %s", key, v, def)
	}
	return def
}
