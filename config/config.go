// Package config reads process settings from the environment, after loading
// an optional .env file.
package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	MongoURI      string
	MongoDB       string
	RedisAddr     string
	RedisPassword string
	JWTSecret     string
	JWTTTL        time.Duration
	UploadDir     string
	SeedFile      string
	RateLimit     float64
	RateBurst     int
	StoreTimeout  time.Duration
	LogLevel      string
}

// Load reads .env (if present) into the environment without overriding
// variables already set, then builds the Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return FromEnv(), nil
}

// FromEnv builds the Config from the current environment.
func FromEnv() *Config {
	return &Config{
		Port:          getenv("PORT", "10000"),
		MongoURI:      getenv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDB:       getenv("MONGODB_DB", "recipebox"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		JWTTTL:        time.Duration(getInt("JWT_TTL_HOURS", 24)) * time.Hour,
		UploadDir:     getenv("UPLOAD_DIR", "./static/uploads"),
		SeedFile:      getenv("SEED_FILE", "data/seed.json"),
		RateLimit:     getFloat("RATE_LIMIT", 10),
		RateBurst:     getInt("RATE_BURST", 20),
		StoreTimeout:  getDuration("STORE_TIMEOUT", 10*time.Second),
		LogLevel:      getenv("LOG_LEVEL", "info"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("ignoring invalid setting", "key", key, "value", v)
		return def
	}
	return n
}

func getFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		slog.Warn("ignoring invalid setting", "key", key, "value", v)
		return def
	}
	return f
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("ignoring invalid setting", "key", key, "value", v)
		return def
	}
	return d
}
