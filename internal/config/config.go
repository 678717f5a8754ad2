// internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config is read once from the environment at startup. A .env file in the working
// directory is picked up by godotenv/autoload in main before Load runs.
type Config struct {
	Port     string
	LogLevel string

	DatabaseURL string
	PGUser      string
	PGPassword  string
	PGHost      string
	PGPort      string
	PGDatabase  string

	RedisAddr          string
	RedisDB            int
	HistorianQueueName string
	HistorianBatchSize int
	HistorianFlush     time.Duration

	AnswerReveal    time.Duration
	ResultCacheTTL  time.Duration
	PersistAttempts int
}

func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		PGUser:      getEnv("POSTGRES_USER", "postgres"),
		PGPassword:  os.Getenv("POSTGRES_PASSWORD"),
		PGHost:      getEnv("PG_HOST", "localhost"),
		PGPort:      getEnv("PG_PORT", "5432"),
		PGDatabase:  getEnv("PG_DATABASE", "flashcard_frenzy"),

		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		HistorianQueueName: getEnv("HISTORIAN_QUEUE_NAME", "flashcard_room_actions"),
		HistorianBatchSize: getEnvInt("HISTORIAN_BATCH_SIZE", 20),
		HistorianFlush:     time.Duration(getEnvInt("HISTORIAN_FLUSH_MS", 500)) * time.Millisecond,

		AnswerReveal:    time.Duration(getEnvInt("ANSWER_REVEAL_MS", 3000)) * time.Millisecond,
		ResultCacheTTL:  time.Duration(getEnvInt("RESULT_CACHE_TTL_SEC", 600)) * time.Second,
		PersistAttempts: getEnvInt("PERSIST_ATTEMPTS", 3),
	}
}

// PostgresURL returns DATABASE_URL when set, else a URL assembled from the PG_* variables.
func (c *Config) PostgresURL() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.PGUser, c.PGPassword),
		Host:     fmt.Sprintf("%s:%s", c.PGHost, c.PGPort),
		Path:     "/" + c.PGDatabase,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// getEnv reads an environment variable or returns a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt parses an environment variable as an integer, else returns a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
