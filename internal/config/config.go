package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DSN           string
	JWTSecret     string
	AppPort       string
	RedisAddr     string
	RedisPassword string
	SubmitLimit   int
	SubmitWindow  time.Duration
	AdminEmail    string
	AdminPassword string
}

func Load() Config {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ .env file not found, using system environment variables")
	} else {
		log.Println("✅ .env file loaded successfully!")
	}

	cfg := Config{
		DSN:           os.Getenv("GATEWAY_DSN"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		AppPort:       os.Getenv("APP_PORT"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret-only"
	}
	if cfg.AppPort == "" {
		cfg.AppPort = "8080"
	}
	if cfg.AdminEmail == "" {
		cfg.AdminEmail = "admin@example.com"
	}
	if cfg.AdminPassword == "" {
		cfg.AdminPassword = "admin123" // change after first login
	}

	cfg.SubmitLimit = 30
	if v := os.Getenv("SUBMIT_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SubmitLimit = n
		}
	}
	cfg.SubmitWindow = time.Minute
	if v := os.Getenv("SUBMIT_RATE_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.SubmitWindow = d
		}
	}

	return cfg
}
