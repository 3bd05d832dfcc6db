package config

import (
	"os"
	"strconv"
	"time"

	"kassa/internal/cache"
	"kassa/internal/database"
	"kassa/internal/external"
	"kassa/internal/messaging"
)

// Config содержит конфигурацию приложения
type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration

	Database database.Config
	NATS     messaging.Config
	Redis    cache.Config
	Payment  external.PaymentConfig
	Purchase PurchaseConfig
}

// PurchaseConfig управляет политиками оркестратора покупок
type PurchaseConfig struct {
	// ReleaseHoldOnGatewayFailure releases a placed hold immediately when the
	// gateway call itself fails. When false the hold lapses on its own.
	ReleaseHoldOnGatewayFailure bool
	DefaultHoldMinutes          int
	SweepInterval               time.Duration
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8081"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "kassa"),
			Password:           getEnv("DB_PASSWORD", "kassa123"),
			DBName:             getEnv("DB_NAME", "kassa"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 100),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		NATS: messaging.Config{
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "kassa"),
			ClientID:  getEnv("NATS_CLIENT_ID", "kassa-api"),
		},

		Redis: cache.Config{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},

		Payment: external.PaymentConfig{
			BaseURL: getEnv("PAYMENT_GATEWAY_URL", "http://localhost:9090"),
			Timeout: time.Duration(getEnvInt("PAYMENT_TIMEOUT_SEC", 30)) * time.Second,
		},

		Purchase: PurchaseConfig{
			ReleaseHoldOnGatewayFailure: getEnv("RELEASE_HOLD_ON_GATEWAY_FAILURE", "false") == "true",
			DefaultHoldMinutes:          getEnvInt("HOLD_DURATION_MIN", 15),
			SweepInterval:               time.Duration(getEnvInt("HOLD_SWEEP_INTERVAL_SEC", 30)) * time.Second,
		},
	}
}

// EnvHoldDuration resolves the temporary hold duration from the environment on
// every call, so the setting can change without a restart.
type EnvHoldDuration struct {
	DefaultMinutes int
}

func (p EnvHoldDuration) HoldDuration() time.Duration {
	return time.Duration(getEnvInt("HOLD_DURATION_MIN", p.DefaultMinutes)) * time.Minute
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает целочисленное значение переменной окружения
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
