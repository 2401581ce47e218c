package config

import (
	"os"
	"strconv"
)

type Config struct {
	AppPort        string
	DBDSN          string
	JWTSecret      string
	JWTExpiresMin  int
	ClientURL      string
	RedisAddr      string
	WebhookSecret  string
	GoogleClientID string
	GoogleSecret   string
	GoogleRedirect string
}

func Load() Config {
	// 1440 = token valid for one day
	expires, _ := strconv.Atoi(get("JWT_EXPIRES_MIN", "1440"))
	return Config{
		AppPort:        get("APP_PORT", "8080"),
		DBDSN:          must("DB_DSN"),
		JWTSecret:      must("JWT_SECRET"),
		JWTExpiresMin:  expires,
		ClientURL:      get("CLIENT_URL", "http://localhost:3000"),
		RedisAddr:      get("REDIS_ADDR", "localhost:6379"),
		WebhookSecret:  get("GATEWAY_WEBHOOK_SECRET", ""),
		GoogleClientID: get("GOOGLE_CLIENT_ID", ""),
		GoogleSecret:   get("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirect: get("GOOGLE_REDIRECT_URL", ""),
	}
}

func get(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
