package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string

	// RedisURL enables the cache layer; empty runs without caching.
	RedisURL string

	// TelegramHost is the upstream web preview host.
	TelegramHost string

	PreviewCacheTTL time.Duration
	FeedCacheTTL    time.Duration
	FetchTimeout    time.Duration

	AIAPIURL string
	AIAPIKey string
	AIModel  string

	LogLevel string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080"
	}

	telegramHost := os.Getenv("TELEGRAM_HOST")
	if telegramHost == "" {
		telegramHost = "t.me"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	return &Config{
		ServerPort: serverPort,

		RedisURL: os.Getenv("REDIS_URL"),

		TelegramHost: telegramHost,

		PreviewCacheTTL: durationEnv("PREVIEW_CACHE_TTL", 3600*time.Second),
		FeedCacheTTL:    durationEnv("FEED_CACHE_TTL", 60*time.Second),
		FetchTimeout:    durationEnv("FETCH_TIMEOUT", 15*time.Second),

		AIAPIURL: os.Getenv("AI_API_URL"),
		AIAPIKey: os.Getenv("AI_API_KEY"),
		AIModel:  os.Getenv("AI_MODEL"),

		LogLevel: logLevel,
	}, nil
}

// durationEnv reads a whole-seconds env value, falling back on absent or
// non-positive input.
func durationEnv(key string, fallback time.Duration) time.Duration {
	seconds, err := strconv.Atoi(os.Getenv(key))
	if err != nil || seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}
