package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ecocropai/ecocrop-backend/internal/logger"
)

type Config struct {
	Port        string
	CORSOrigins []string
	Auth        AuthConfig
	AI          AIConfig
	DB          DBConfig
	Logger      LoggerConfig
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type AIConfig struct {
	Provider     string // "gemini" or "openai"
	GeminiAPIKey string
	GeminiModel  string
	OpenAIAPIKey string
	OpenAIModel  string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type LoggerConfig struct {
	Level      logger.LogLevel
	OutputPath string
	Format     string
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return logger.LevelDebug
	case "info":
		return logger.LevelInfo
	case "warn", "warning":
		return logger.LevelWarn
	case "error":
		return logger.LevelError
	default:
		return logger.LevelInfo
	}
}

func Load() (*Config, error) {
	ttlHours, err := strconv.Atoi(getEnvOrDefault("TOKEN_TTL_HOURS", "168"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL_HOURS: %w", err)
	}

	provider := strings.ToLower(getEnvOrDefault("AI_PROVIDER", "gemini"))
	if provider != "gemini" && provider != "openai" {
		return nil, fmt.Errorf("unsupported AI_PROVIDER %q", provider)
	}

	return &Config{
		Port:        getEnvOrDefault("PORT", "8080"),
		CORSOrigins: strings.Split(getEnvOrDefault("CORS_ORIGINS", "*"), ","),
		Auth: AuthConfig{
			JWTSecret: getEnvOrDefault("JWT_SECRET", "default_secret_key"),
			TokenTTL:  time.Duration(ttlHours) * time.Hour,
		},
		AI: AIConfig{
			Provider:     provider,
			GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
			GeminiModel:  getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
			OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
			OpenAIModel:  getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		},
		DB: DBConfig{
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getEnvOrDefault("DB_PORT", "5432"),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrDefault("DB_NAME", "ecocrop"),
		},
		Logger: LoggerConfig{
			Level:      parseLogLevel(getEnvOrDefault("LOG_LEVEL", "info")),
			OutputPath: getEnvOrDefault("LOG_OUTPUT", "stdout"),
			Format:     getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}, nil
}
