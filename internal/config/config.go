package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

type Config struct {
	Port                   int
	APIToken               string // empty disables bearer auth
	ModelPath              string
	ModelConfigPath        string // optional network description for frameworks that need one
	DataDirectory          string // class labels are the sorted subdirectory names
	ImageSize              int
	LowConfidenceThreshold float64
	DatabasePath           string
	ExportDirectory        string
	UploadDirectory        string
	MaxUploadMB            int64
	LogDirectory           string
	Timezone               string
	Location               *time.Location
	RetentionDays          int // 0 disables the scheduled purge
	RetentionSchedule      string
}

// Load reads configuration from an optional .env file and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("INFO: could not load .env file: %v", err)
	}

	cfg := &Config{
		Port:                   getEnvAsInt("PORT", 5000),
		APIToken:               getEnv("API_TOKEN", ""),
		ModelPath:              getEnv("MODEL_PATH", filepath.Join(".", "models", "weather_classifier.onnx")),
		ModelConfigPath:        getEnv("MODEL_CONFIG", ""),
		DataDirectory:          getEnv("DATA_DIR", filepath.Join(".", "data", "train")),
		ImageSize:              getEnvAsInt("IMAGE_SIZE", 224),
		LowConfidenceThreshold: getEnvAsFloat("LOW_CONFIDENCE_THRESHOLD", 0.4),
		DatabasePath:           getEnv("DB_PATH", filepath.Join(".", "data", "analysis_history.db")),
		ExportDirectory:        getEnv("EXPORT_DIR", filepath.Join(".", "exports")),
		UploadDirectory:        getEnv("UPLOAD_DIR", filepath.Join(os.TempDir(), "weather-uploads")),
		MaxUploadMB:            getEnvAsInt64("MAX_UPLOAD_MB", 16),
		LogDirectory:           getEnv("LOG_DIR", filepath.Join(".", "logs")),
		Timezone:               getEnv("TIMEZONE", "Local"),
		RetentionDays:          getEnvAsInt("RETENTION_DAYS", 0),
		RetentionSchedule:      getEnv("RETENTION_SCHEDULE", "0 3 * * *"),
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT: %d", c.Port)
	}
	if c.ImageSize <= 0 {
		return fmt.Errorf("invalid IMAGE_SIZE: %d", c.ImageSize)
	}
	if c.LowConfidenceThreshold < 0 || c.LowConfidenceThreshold > 1 {
		return fmt.Errorf("LOW_CONFIDENCE_THRESHOLD must be within [0, 1], got %v", c.LowConfidenceThreshold)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid MAX_UPLOAD_MB: %d", c.MaxUploadMB)
	}
	if c.RetentionDays < 0 {
		return fmt.Errorf("RETENTION_DAYS must not be negative, got %d", c.RetentionDays)
	}
	if c.RetentionDays > 0 {
		if _, err := cron.ParseStandard(c.RetentionSchedule); err != nil {
			return fmt.Errorf("invalid RETENTION_SCHEDULE %q: %w", c.RetentionSchedule, err)
		}
	}
	if c.DatabasePath == "" {
		return errors.New("DB_PATH must not be empty")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
