package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/rhinontech/rhinontech-platform-sub002/internal/infrastructure/database"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/constants"
)

// Config is the process configuration read from the environment
type Config struct {
	Port               string
	Database           database.Config
	RedisURL           string
	LockTTL            time.Duration
	LockWait           time.Duration
	JWTSecret          string
	MaxConflictRetries int
	SweepSchedule      string
	QualifiedRule      string
	LogLevel           string
	LogFormat          string
	GinMode            string
}

// Load reads an optional .env file and then the environment
func Load() *Config {
	// A missing .env is fine; real deployments set the environment directly
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current environment only
func FromEnv() *Config {
	return &Config{
		Port: getEnv("PORT", "3001"),
		Database: database.Config{
			Driver:     strings.ToLower(getEnv("DB_DRIVER", string(database.DialectSQLite))),
			Host:       getEnv("DB_HOST", "127.0.0.1"),
			Port:       getEnv("DB_PORT", "4000"),
			User:       getEnv("DB_USER", "root"),
			Password:   os.Getenv("DB_PASSWORD"),
			Name:       getEnv("DB_NAME", "pipeline_engine"),
			SQLitePath: getEnv("SQLITE_PATH", "data/pipeline.db"),
		},
		RedisURL:           os.Getenv("REDIS_URL"),
		LockTTL:            getDuration("LOCK_TTL", constants.DefaultLockTTL),
		LockWait:           getDuration("LOCK_WAIT", constants.DefaultLockWait),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		MaxConflictRetries: getInt("MAX_CONFLICT_RETRIES", constants.DefaultMaxRetries),
		SweepSchedule:      getEnvAllowEmpty("SWEEP_SCHEDULE", constants.DefaultSweepSchedule),
		QualifiedRule:      getEnv("QUALIFIED_STAGE_RULE", constants.DefaultConversionRule),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
		GinMode:            os.Getenv("GIN_MODE"),
	}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// getEnvAllowEmpty distinguishes "unset" from "set to empty"
func getEnvAllowEmpty(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
