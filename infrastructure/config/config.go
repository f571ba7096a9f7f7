// Package config loads service configuration from the environment and
// watches the dynamic tuning file for runtime changes.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// ModelID names the model this instance serves
	ModelID string

	// Cold store configuration
	ColdStore     string // "dynamodb" or "memory"
	AWSRegion     string
	SnapshotTable string
	EventBusName  string

	// Retrieval stores
	EpisodeDBPath       string
	CacheCapacity       int
	SimilarityThreshold float64

	// Change notifier
	ObserverQueueSize int

	// Dynamic tuning file (optional)
	DynamicConfigPath string

	// Logging and features
	LogLevel      string
	EnableTracing bool
	OTLPEndpoint  string
	EnableCORS    bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		ModelID:       getEnv("MODEL_ID", "default"),

		ColdStore:     getEnv("COLD_STORE", "memory"),
		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		SnapshotTable: getEnv("SNAPSHOT_TABLE", "archgraph-snapshots"),
		EventBusName:  getEnv("EVENT_BUS_NAME", ""),

		EpisodeDBPath:       getEnv("EPISODE_DB_PATH", "episodes.db"),
		CacheCapacity:       getEnvInt("CACHE_CAPACITY", 512),
		SimilarityThreshold: getEnvFloat("SIMILARITY_THRESHOLD", 0.85),

		ObserverQueueSize: getEnvInt("OBSERVER_QUEUE_SIZE", 256),

		DynamicConfigPath: getEnv("DYNAMIC_CONFIG_PATH", ""),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableTracing: getEnvBool("ENABLE_TRACING", false),
		OTLPEndpoint:  getEnv("OTLP_ENDPOINT", "localhost:4317"),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.ColdStore {
	case "dynamodb", "memory":
	default:
		return fmt.Errorf("COLD_STORE must be 'dynamodb' or 'memory', got %q", c.ColdStore)
	}
	if c.ColdStore == "dynamodb" && c.SnapshotTable == "" {
		return fmt.Errorf("SNAPSHOT_TABLE is required when COLD_STORE=dynamodb")
	}
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("SIMILARITY_THRESHOLD must be in (0, 1], got %v", c.SimilarityThreshold)
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

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
