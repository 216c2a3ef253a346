package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIBaseURL string

	SessionPath string

	HTTPTimeout time.Duration

	LogLevel string
}

func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	return Config{
		APIBaseURL:  EnvDefault("BLOG_API_URL", "http://localhost:8080/api"),
		SessionPath: EnvDefault("PLUME_SESSION_PATH", defaultSessionPath()),
		HTTPTimeout: time.Duration(EnvIntDefault("HTTP_TIMEOUT_SECONDS", 20)) * time.Second,
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),
	}
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "plume-session.db"
	}
	return dir + "/plume/session.db"
}

func EnvDefault(key, def string) string {
	if os.Getenv(key) != "" {
		return os.Getenv(key)
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
