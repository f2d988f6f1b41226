package infrastructures

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	AppPort        string
	LogLevel       string
	DatabaseDriver string // "postgres" or "sqlite"
	DatabaseURL    string
	RedisAddress   string
	RedisPassword  string
	RedisKeyPrefix string

	RetryMaxAttempts     uint
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration

	RedemptionCodeTTL time.Duration
	SweepInterval     time.Duration
}

var Config *AppConfig

func LoadConfig() *AppConfig {
	godotenv.Load()

	Config = &AppConfig{
		AppPort:        getEnv("APP_PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DatabaseDriver: getEnv("DATABASE_DRIVER", "postgres"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisAddress:   getEnv("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisKeyPrefix: getEnv("REDIS_KEY_PREFIX", "loyalty"),

		RetryMaxAttempts:     uint(getEnvInt("RETRY_MAX_ATTEMPTS", 8)),
		RetryInitialInterval: getEnvDuration("RETRY_INITIAL_INTERVAL", 5*time.Millisecond),
		RetryMaxInterval:     getEnvDuration("RETRY_MAX_INTERVAL", 200*time.Millisecond),

		RedemptionCodeTTL: getEnvDuration("REDEMPTION_CODE_TTL", 30*24*time.Hour),
		SweepInterval:     getEnvDuration("SWEEP_INTERVAL", 5*time.Minute),
	}

	return Config
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}
