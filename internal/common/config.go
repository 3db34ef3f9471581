package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Storage  StorageConfig
	Gemini   GeminiConfig
	Pipeline PipelineConfig
}

// DatabaseConfig holds document-store configuration
type DatabaseConfig struct {
	URI         string
	Database    string
	DialTimeout time.Duration
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	HTTPAddr string
}

// StorageConfig holds object-storage configuration
type StorageConfig struct {
	Bucket string
}

// GeminiConfig holds extraction-model configuration
type GeminiConfig struct {
	ProjectID string
	Region    string
	Model     string
	Timeout   time.Duration
}

// PipelineConfig holds batch-pipeline configuration
type PipelineConfig struct {
	Workers    int
	TempDir    string
	ReportsDir string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			URI:         getEnv("MONGO_URI", ""),
			Database:    getEnv("MONGO_DB", "invoices"),
			DialTimeout: getEnvAsDuration("MONGO_DIAL_TIMEOUT", 5*time.Second),
		},
		Server: ServerConfig{
			HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		},
		Storage: StorageConfig{
			Bucket: getEnv("STORAGE_BUCKET", ""),
		},
		Gemini: GeminiConfig{
			ProjectID: getEnv("GCP_PROJECT_ID", ""),
			Region:    getEnv("VERTEX_AI_REGION", "us-central1"),
			Model:     getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			Timeout:   getEnvAsDuration("GEMINI_TIMEOUT", 90*time.Second),
		},
		Pipeline: PipelineConfig{
			Workers:    getEnvAsInt("PIPELINE_WORKERS", 4),
			TempDir:    getEnv("PIPELINE_TEMP_DIR", "./temp"),
			ReportsDir: getEnv("PIPELINE_REPORTS_DIR", "./reports"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// ValidateConfig validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.URI == "" {
		return NewAppError("CONFIG_ERROR", "MONGO_URI is required", ErrInvalidInput)
	}
	if c.Storage.Bucket == "" {
		return NewAppError("CONFIG_ERROR", "STORAGE_BUCKET is required", ErrInvalidInput)
	}
	if c.Gemini.ProjectID == "" {
		return NewAppError("CONFIG_ERROR", "GCP_PROJECT_ID is required", ErrInvalidInput)
	}
	if c.Pipeline.Workers < 1 {
		return NewAppError("CONFIG_ERROR", "PIPELINE_WORKERS must be at least 1", ErrInvalidInput)
	}
	return nil
}
