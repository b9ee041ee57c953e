package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds runtime configuration for the contactbook API service.
// It is constructed once at process startup and passed into the components
// that need it; business logic never reads the environment directly.
type Config struct {
	Environment   string
	Addr          string
	DatabaseURL   string
	MigrationsDir string

	JWTSecret       string
	SessionTokenTTL time.Duration

	PublicBaseURL string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	MailQueue    int

	AvatarDir      string
	AvatarURLPath  string
	AvatarMaxBytes int64
}

// Load constructs a Config from environment variables.
func Load() Config {
	return Config{
		Environment:     GetString("APP_ENV", "development"),
		Addr:            GetString("API_ADDR", ":3000"),
		DatabaseURL:     GetString("DATABASE_URL", "postgres://contactbook:contactbook@db:5432/contactbook?sslmode=disable"),
		MigrationsDir:   GetString("DB_MIGRATIONS_DIR", "db/migrations"),
		JWTSecret:       GetString("JWT_SECRET", "supersecuresecret"),
		SessionTokenTTL: time.Duration(GetInt("SESSION_TOKEN_TTL_HOURS", 23)) * time.Hour,
		PublicBaseURL:   GetString("PUBLIC_BASE_URL", "http://localhost:3000"),
		SMTPHost:        GetString("SMTP_HOST", "smtp.ukr.net"),
		SMTPPort:        GetInt("SMTP_PORT", 465),
		SMTPUsername:    GetString("SMTP_USERNAME", ""),
		SMTPPassword:    GetString("SMTP_PASSWORD", ""),
		SMTPFrom:        GetString("SMTP_FROM", ""),
		MailQueue:       GetInt("MAIL_QUEUE_SIZE", 64),
		AvatarDir:       GetString("AVATAR_DIR", "public/avatars"),
		AvatarURLPath:   GetString("AVATAR_URL_PATH", "/avatars"),
		AvatarMaxBytes:  int64(GetInt("AVATAR_MAX_BYTES", 5*1024*1024)),
	}
}

// GetString retrieves an environment variable or returns a fallback when unset.
func GetString(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// GetInt retrieves an environment variable as integer or returns fallback.
func GetInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			log.Printf("invalid value for %s: %v", key, err)
			return fallback
		}
		return parsed
	}
	return fallback
}

// GetBool retrieves an environment variable as bool or returns fallback.
func GetBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			log.Printf("invalid value for %s: %v", key, err)
			return fallback
		}
		return parsed
	}
	return fallback
}
