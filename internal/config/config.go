package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Session backends accepted by SESSION_BACKEND.
const (
	SessionBackendRedis  = "redis"
	SessionBackendMemory = "memory"
)

// Config holds all application configuration.
type Config struct {
	ServerPort string
	GinMode    string
	LogLevel   string
	LogFormat  string

	// StoreURL is the base URL of the remote document store, e.g.
	// https://<project>-default-rtdb.firebaseio.com. No trailing slash needed.
	StoreURL       string
	StoreAuthToken string
	// StoreTimeout of zero leaves remote calls bounded only by the caller's context.
	StoreTimeout time.Duration

	// RosterRefresh reloads the roster cache periodically. Zero disables it.
	RosterRefresh time.Duration

	FirebaseAPIKey          string
	FirebaseProjectID       string
	FirebaseCredentialsFile string

	SessionBackend string
	RedisURL       string
	JWTSecret      string
	JWTExpiry      time.Duration

	// AllowedOrigins controls HTTP CORS and WebSocket origin validation.
	// Empty slice means all origins are permitted (dev default).
	AllowedOrigins []string
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:              getEnv("SERVER_PORT", "8080"),
		GinMode:                 getEnv("GIN_MODE", "debug"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		LogFormat:               getEnv("LOG_FORMAT", "pretty"),
		StoreURL:                strings.TrimRight(getEnv("STORE_URL", "http://localhost:9000"), "/"),
		StoreAuthToken:          getEnv("STORE_AUTH_TOKEN", ""),
		StoreTimeout:            time.Duration(getEnvInt("STORE_TIMEOUT_SECONDS", 0)) * time.Second,
		RosterRefresh:           time.Duration(getEnvInt("ROSTER_REFRESH_SECONDS", 0)) * time.Second,
		FirebaseAPIKey:          getEnv("FIREBASE_API_KEY", ""),
		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseCredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
		SessionBackend:          getEnv("SESSION_BACKEND", SessionBackendRedis),
		RedisURL:                getEnv("REDIS_URL", "redis://localhost:6379/0"),
		JWTSecret:               getEnv("JWT_SECRET", "change-this-to-a-secure-random-string"),
		JWTExpiry:               time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 12)) * time.Hour,
		AllowedOrigins:          parseOrigins(getEnv("ALLOWED_ORIGINS", "")),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// parseOrigins splits a comma-separated origins string into a trimmed slice.
// Returns nil (allow-all) if the input is empty.
func parseOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
