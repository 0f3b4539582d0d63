package config

import (
	"os"
	"strconv"
	"strings"
)

// Config centralizes runtime settings for the API and workers.
type Config struct {
	Port string

	AuthToken string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisStream   string
	RedisDLQ      string
	RedisGroup    string
	RedisConsumer string

	YouTubeAPIKey    string
	YouTubeBaseURL   string
	YouTubeTimeoutMS int
	YouTubeRPS       float64
	YouTubeBurst     int

	ClassifierBaseURL   string
	ClassifierToken     string
	ClassifierTimeoutMS int

	RateLimitRPS   float64
	RateLimitBurst int

	CORSAllowedOrigins []string

	WorkerEnabled     bool
	WorkerConcurrency int

	SnapshotEnabled         bool
	SnapshotIntervalMinutes int

	StatsCacheTTLSeconds int
}

func Load() Config {
	return Config{
		Port: getEnv("PORT", "8080"),

		AuthToken: getEnv("API_AUTH_TOKEN", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisStream:   getEnv("REDIS_STREAM", "cp_comment_jobs"),
		RedisDLQ:      getEnv("REDIS_DLQ_STREAM", "cp_comment_jobs_dlq"),
		RedisGroup:    getEnv("REDIS_GROUP", "cp_workers"),
		RedisConsumer: getEnv("REDIS_CONSUMER", "worker-1"),

		YouTubeAPIKey:    getEnv("YOUTUBE_API_KEY", ""),
		YouTubeBaseURL:   getEnv("YOUTUBE_BASE_URL", "https://www.googleapis.com/youtube/v3"),
		YouTubeTimeoutMS: getEnvInt("YOUTUBE_TIMEOUT_MS", 10000),
		YouTubeRPS:       getEnvFloat("YOUTUBE_RPS", 8),
		YouTubeBurst:     getEnvInt("YOUTUBE_BURST", 16),

		ClassifierBaseURL:   getEnv("CLASSIFIER_BASE_URL", ""),
		ClassifierToken:     getEnv("CLASSIFIER_TOKEN", ""),
		ClassifierTimeoutMS: getEnvInt("CLASSIFIER_TIMEOUT_MS", 60000),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 40),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		WorkerEnabled:     getEnvBool("WORKER_ENABLED", true),
		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 3),

		SnapshotEnabled:         getEnvBool("SNAPSHOT_ENABLED", true),
		SnapshotIntervalMinutes: getEnvInt("SNAPSHOT_INTERVAL_MINUTES", 360),

		StatsCacheTTLSeconds: getEnvInt("STATS_CACHE_TTL_SECONDS", 300),
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return fallback
	}
	return result
}
