package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Ai        AIConfig
	RateLimit RateLimitConfig
	Status    StatusConfig
	Events    EventsConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	StatusLogFilePath  string
	CorsAllowedOrigins string
	RedisURL           string
}

type AIConfig struct {
	LLMProvider   string // "openai" (any OpenAI-compatible endpoint) or "ollama"
	APIKey        string
	BaseURL       string
	OllamaBaseURL string
	DefaultModel  string
	Timeout       time.Duration
}

type RateLimitConfig struct {
	Max    int
	Window time.Duration
}

type StatusConfig struct {
	HeartbeatInterval time.Duration
}

type EventsConfig struct {
	Topic string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			StatusLogFilePath:  getEnv("STATUS_LOG_FILE_PATH", "logs/status.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			RedisURL:           getEnv("REDIS_URL", ""),
		},
		Ai: AIConfig{
			LLMProvider:   getEnv("LLM_PROVIDER", "openai"),
			APIKey:        getEnv("AIMLAPI_KEY", ""),
			BaseURL:       getEnv("LLM_BASE_URL", "https://api.aimlapi.com/v1"),
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			DefaultModel:  getEnv("DEFAULT_MODEL", "gpt-4o-mini"),
			Timeout:       getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
		},
		RateLimit: RateLimitConfig{
			Max:    getEnvAsInt("RATE_LIMIT_MAX", 20),
			Window: getEnvAsDuration("RATE_LIMIT_WINDOW", 60*time.Second),
		},
		Status: StatusConfig{
			HeartbeatInterval: getEnvAsDuration("STATUS_HEARTBEAT_INTERVAL", 30*time.Second),
		},
		Events: EventsConfig{
			Topic: getEnv("EVENTS_TOPIC", "chat.events"),
		},
	}
}

// Validate reports configuration that must stop the process at startup.
func (c *Config) Validate() error {
	if c.Ai.LLMProvider == "openai" && c.Ai.APIKey == "" {
		return errors.New("AIMLAPI_KEY environment variable is required")
	}
	if c.Ai.DefaultModel == "" {
		return errors.New("DEFAULT_MODEL must not be empty")
	}
	if c.RateLimit.Max <= 0 || c.RateLimit.Window <= 0 {
		return errors.New("RATE_LIMIT_MAX and RATE_LIMIT_WINDOW must be positive")
	}
	if c.Status.HeartbeatInterval <= 0 {
		return errors.New("STATUS_HEARTBEAT_INTERVAL must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
