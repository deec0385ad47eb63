package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	YouTube    YouTubeConfig
	Transcript TranscriptConfig
	AI         AIConfig
	Email      EmailConfig
	Pipeline   PipelineConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
	BaseURL            string // public base URL used in review-edit deep links
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT signing and validation settings.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// YouTubeConfig holds channel monitoring settings.
type YouTubeConfig struct {
	APIKey       string
	ChannelID    string
	APIBaseURL   string
	PollInterval time.Duration
}

// TranscriptConfig holds the transcript-fetch service settings.
type TranscriptConfig struct {
	BaseURL  string
	Language string
}

// AIConfig defines how to contact the generation service (OpenAI-compatible).
type AIConfig struct {
	Endpoint string
	Model    string
	APIKey   string
}

// EmailConfig for SMTP notification delivery.
type EmailConfig struct {
	FromAddress string
	FromName    string
	SMTPHost    string
	SMTPPort    int
	SMTPUser    string
	SMTPPass    string
	UseTLS      bool
	Recipient   string
}

// PipelineConfig holds the stage retry policy.
type PipelineConfig struct {
	MaxAttempts int
	RetryDelay  time.Duration
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	readTimeout, _ := strconv.Atoi(getEnv("READ_TIMEOUT_SEC", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("WRITE_TIMEOUT_SEC", "30"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	jwtExpire, _ := strconv.Atoi(getEnv("JWT_EXPIRE_HOURS", "24"))

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        readTimeout,
			WriteTimeout:       writeTimeout,
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
			BaseURL:            getEnv("BASE_URL", "http://localhost:8080"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "vidscribe"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours: jwtExpire,
		},
		YouTube: YouTubeConfig{
			APIKey:       getEnv("YOUTUBE_API_KEY", ""),
			ChannelID:    getEnv("YOUTUBE_CHANNEL_ID", ""),
			APIBaseURL:   getEnv("YOUTUBE_API_BASE_URL", "https://www.googleapis.com/youtube/v3"),
			PollInterval: time.Duration(getEnvInt("YOUTUBE_POLL_INTERVAL_MINUTES", 60)) * time.Minute,
		},
		Transcript: TranscriptConfig{
			BaseURL:  getEnv("TRANSCRIPT_API_BASE_URL", "http://localhost:8090"),
			Language: getEnv("TRANSCRIPT_LANGUAGE", "en"),
		},
		AI: AIConfig{
			Endpoint: getEnv("AI_ENDPOINT", "https://api.openai.com/v1/chat/completions"),
			Model:    getEnv("AI_MODEL_NAME", "gpt-4"),
			APIKey:   getEnv("AI_API_KEY", ""),
		},
		Email: EmailConfig{
			FromAddress: getEnv("EMAIL_FROM_ADDRESS", "noreply@example.com"),
			FromName:    getEnv("EMAIL_FROM_NAME", "Vidscribe"),
			SMTPHost:    getEnv("SMTP_HOST", ""),
			SMTPPort:    getEnvInt("SMTP_PORT", 587),
			SMTPUser:    getEnv("SMTP_USER", ""),
			SMTPPass:    getEnv("SMTP_PASS", ""),
			UseTLS:      strings.EqualFold(getEnv("SMTP_USE_TLS", "true"), "true"),
			Recipient:   getEnv("NOTIFICATION_EMAIL", ""),
		},
		Pipeline: PipelineConfig{
			MaxAttempts: getEnvInt("PIPELINE_MAX_ATTEMPTS", 3),
			RetryDelay:  time.Duration(getEnvInt("PIPELINE_RETRY_DELAY_MINUTES", 5)) * time.Minute,
		},
	}
	return cfg, nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
