package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config holds the process configuration, loaded once at startup.
type Config struct {
	Environment     string
	LogLevel        string
	Port            string
	StoreConfig     string // JSON store configuration, empty means in-memory
	DefaultCurrency string
	RPSLimit        float64
	RPSBurst        int
}

// Load reads configuration from the environment, with .env as a fallback
// for local development.
func Load(logger *zap.Logger) *Config {
	if err := godotenv.Load(); err == nil {
		logger.Info("loaded environment from .env file")
	}

	return &Config{
		Environment:     getEnv("ENVIRONMENT", "development"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		Port:            getEnv("PORT", "8080"),
		StoreConfig:     getEnv("STORE_CONFIG", ""),
		DefaultCurrency: getEnv("DEFAULT_CURRENCY", "JPY"),
		RPSLimit:        getFloatEnv(logger, "RPS_LIMIT", 50),
		RPSBurst:        getIntEnv(logger, "RPS_BURST", 100),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(logger *zap.Logger, key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		logger.Warn("invalid integer in environment, using default",
			zap.String("key", key), zap.String("value", value))
		return defaultValue
	}
	return n
}

func getFloatEnv(logger *zap.Logger, key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		logger.Warn("invalid float in environment, using default",
			zap.String("key", key), zap.String("value", value))
		return defaultValue
	}
	return f
}
