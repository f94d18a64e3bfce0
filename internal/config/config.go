package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Session   SessionConfig
	Knowledge KnowledgeConfig
	Delivery  DeliveryConfig
	Tracing   TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	DeliveryLogPath    string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	// Connection is optional; transcripts are not stored when it is empty.
	Connection string
}

type SessionConfig struct {
	TokenSecret string
	TTL         time.Duration
}

type KnowledgeConfig struct {
	// DefaultSource is a file path or http(s) URL loaded once at startup.
	DefaultSource string
	UploadLimitMB int
	// ReloadKey guards POST /knowledge/v1/reload; empty disables the route.
	ReloadKey string
}

type DeliveryConfig struct {
	FirstDelay time.Duration
	StepDelay  time.Duration
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
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
			DeliveryLogPath:    getEnv("DELIVERY_LOG_FILE_PATH", "logs/delivery.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Session: SessionConfig{
			TokenSecret: getEnv("SESSION_TOKEN_SECRET", "change-me"),
			TTL:         getEnvAsDuration("SESSION_TTL", time.Hour),
		},
		Knowledge: KnowledgeConfig{
			DefaultSource: getEnv("KNOWLEDGE_DEFAULT_SOURCE", "data.xlsx"),
			UploadLimitMB: getEnvAsInt("KNOWLEDGE_UPLOAD_LIMIT_MB", 10),
			ReloadKey:     getEnv("KNOWLEDGE_RELOAD_KEY", ""),
		},
		Delivery: DeliveryConfig{
			FirstDelay: getEnvAsDuration("DELIVERY_FIRST_DELAY", 600*time.Millisecond),
			StepDelay:  getEnvAsDuration("DELIVERY_STEP_DELAY", 1500*time.Millisecond),
		},
		Tracing: TracingConfig{
			Enabled:     getEnv("OTEL_ENABLED", "false") == "true",
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "ai-learning-coach-be"),
		},
	}
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

// getEnvAsDuration accepts Go durations ("1500ms", "2s") or bare milliseconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if d, err := time.ParseDuration(strValue); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	log.Printf("Warn: invalid duration %s=%q, using %s", key, strValue, fallback)
	return fallback
}
