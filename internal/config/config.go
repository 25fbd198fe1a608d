package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	Version  string
	LogLevel string

	DatabaseURL              string
	DatabasePoolMinSize      int
	DatabasePoolMaxSize      int
	DatabasePoolResetSession bool

	AppID          string
	AppPassword    string
	AppCertificate string
	AppPrivateKey  string
	AppType        string
	AppTenantID    string

	TeamsServiceURL string
	TeamsTimeout    time.Duration

	RedisAddr     string
	RedisPassword string
	TokenCacheTTL time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "3980"),
		Env:      getEnv("ENV", "development"),
		Version:  getEnv("VERSION", "v0.0.0-dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL:              getEnv("DATABASE_URL", ""),
		DatabasePoolMinSize:      getEnvAsInt("DATABASE_POOL_MIN_SIZE", 1),
		DatabasePoolMaxSize:      getEnvAsInt("DATABASE_POOL_MAX_SIZE", 10),
		DatabasePoolResetSession: getEnvAsBool("DATABASE_POOL_RESET_SESSION", false),

		AppID:          getEnv("MICROSOFT_APP_ID", ""),
		AppPassword:    getEnv("MICROSOFT_APP_PASSWORD", ""),
		AppCertificate: getEnv("MICROSOFT_APP_CERTIFICATE", ""),
		AppPrivateKey:  getEnv("MICROSOFT_APP_PRIVATEKEY", ""),
		AppType:        getEnv("MICROSOFT_APP_TYPE", "MultiTenant"),
		AppTenantID:    getEnv("MICROSOFT_APP_TENANT_ID", ""),

		TeamsServiceURL: getEnv("TEAMS_SERVICE_URL", ""),
		TeamsTimeout:    getEnvAsDuration("TEAMS_HTTP_TIMEOUT", 15*time.Second),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		TokenCacheTTL: getEnvAsDuration("TOKEN_CACHE_TTL", 5*time.Minute),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
