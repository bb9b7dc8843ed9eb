// Package config loads application configuration from environment
// variables and supports runtime overrides for tunables via a watched
// JSON file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// AWS configuration
	AWSRegion     string
	DynamoDBTable string
	StatusIndex   string
	EventBusName  string

	// Storage backend selection: "dynamodb" or "memory"
	StoreBackend string

	// Collaborator service endpoints. Empty endpoints select the
	// in-memory fakes, for local development.
	BanServiceURL  string
	UserServiceURL string
	CodeServiceURL string

	// Undo window bounds in seconds
	MinWindowSeconds int
	MaxWindowSeconds int

	// Sweeper tick interval
	SweepInterval time.Duration

	// Effect retry policy
	EffectMaxRetries int
	EffectBaseDelay  time.Duration

	// Authentication
	JWTSecret string
	JWTIssuer string

	// Logging and features
	LogLevel      string
	EnableMetrics bool
	EnableCORS    bool

	// Optional JSON file holding runtime overrides
	OverridesFile string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		DynamoDBTable: getEnv("TABLE_NAME", "modops-operations"),
		StatusIndex:   getEnv("STATUS_INDEX_NAME", "StatusIndex"),
		EventBusName:  getEnv("EVENT_BUS_NAME", "modops-audit"),
		StoreBackend:  getEnv("STORE_BACKEND", "memory"),

		BanServiceURL:  getEnv("BAN_SERVICE_URL", ""),
		UserServiceURL: getEnv("USER_SERVICE_URL", ""),
		CodeServiceURL: getEnv("CODE_SERVICE_URL", ""),

		MinWindowSeconds: getEnvInt("MIN_WINDOW_SECONDS", 10),
		MaxWindowSeconds: getEnvInt("MAX_WINDOW_SECONDS", 300),
		SweepInterval:    getEnvDuration("SWEEP_INTERVAL", time.Second),

		EffectMaxRetries: getEnvInt("EFFECT_MAX_RETRIES", 3),
		EffectBaseDelay:  getEnvDuration("EFFECT_BASE_DELAY", 100*time.Millisecond),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "modops-backend"),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableMetrics: getEnvBool("ENABLE_METRICS", true),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),

		OverridesFile: getEnv("CONFIG_OVERRIDES_FILE", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present and coherent
func (c *Config) Validate() error {
	if c.MinWindowSeconds <= 0 || c.MaxWindowSeconds < c.MinWindowSeconds {
		return fmt.Errorf("invalid undo window bounds: min=%d max=%d", c.MinWindowSeconds, c.MaxWindowSeconds)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive")
	}
	if c.StoreBackend != "dynamodb" && c.StoreBackend != "memory" {
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	if c.Environment == "production" {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.StoreBackend != "dynamodb" {
			return fmt.Errorf("STORE_BACKEND must be dynamodb in production")
		}
		if c.DynamoDBTable == "" {
			return fmt.Errorf("TABLE_NAME is required")
		}
		if c.EventBusName == "" {
			return fmt.Errorf("EVENT_BUS_NAME is required")
		}
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration environment variable with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
