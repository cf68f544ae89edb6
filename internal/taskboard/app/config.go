package app

import (
	"os"
	"strconv"
	"time"

	"github.com/taskboardhq/taskboard/pkg/jwtx"
)

type Config struct {
	Issuer    string // Optional: issuer claim for tokens (default: taskboard)
	JWTSecret string // Required: HMAC secret for signing tokens (min 32 bytes)

	AdminEmail    string // Optional: seed an admin account with this email on startup
	AdminPassword string // Optional: password for the seeded admin account
	AdminName     string // Optional: display name for the seeded admin (default: Administrator)

	AccessTTL  time.Duration // Optional: access token lifetime (default: 15m)
	RefreshTTL time.Duration // Optional: refresh token lifetime (default: 168h)

	DatabaseFile  string // Optional: path to SQLite database file (default: ./taskboard.db)
	PepperFile    string // Optional: path to file containing pepper for password hashing (default: ./pepper)
	UploadDir     string // Optional: directory for attachment storage (default: ./uploads)
	UploadBaseURL string // Optional: public URL prefix for attachments (default: /uploads)
	MaxUploadSize int64  // Optional: per-request upload cap in bytes (default: 10 MiB)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		Issuer:    getEnvOrDefault("TASKBOARD_ISSUER", "taskboard"),
		JWTSecret: os.Getenv("TASKBOARD_JWT_SECRET"),

		AdminEmail:    os.Getenv("TASKBOARD_ADMIN_EMAIL"),
		AdminPassword: os.Getenv("TASKBOARD_ADMIN_PASSWORD"),
		AdminName:     getEnvOrDefault("TASKBOARD_ADMIN_NAME", "Administrator"),

		AccessTTL:  getEnvDurationOrDefault("TASKBOARD_ACCESS_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL: getEnvDurationOrDefault("TASKBOARD_REFRESH_TTL", jwtx.DefaultRefreshTokenTTL),

		DatabaseFile:  getEnvOrDefault("TASKBOARD_DATABASE_FILE", "taskboard.db"),
		PepperFile:    getEnvOrDefault("TASKBOARD_PEPPER_FILE", "pepper"),
		UploadDir:     getEnvOrDefault("TASKBOARD_UPLOAD_DIR", "uploads"),
		UploadBaseURL: getEnvOrDefault("TASKBOARD_UPLOAD_BASE_URL", "/uploads"),
		MaxUploadSize: getEnvInt64OrDefault("TASKBOARD_MAX_UPLOAD_SIZE", 10<<20),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are taken as minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
