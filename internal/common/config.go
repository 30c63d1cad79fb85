package common

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	OCR      OCRConfig
	MRZ      MRZConfig
}

// DatabaseConfig holds job-history database configuration
type DatabaseConfig struct {
	DSN             string
	MaxConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// OCRConfig holds OCR engine configuration
type OCRConfig struct {
	Engine      string // "native" (linked tesseract) or "exec" (tesseract binary)
	Tesseract   string // binary path for the exec engine
	Language    string
	TessdataDir string
	EngineMode  int // tesseract OEM, exec engine only
}

// MRZConfig holds MRZ reader configuration
type MRZConfig struct {
	Command string // command line for the MRZ reader, image path appended
	Timeout time.Duration
}

// Engine kinds for OCRConfig.Engine.
const (
	OCREngineNative = "native"
	OCREngineExec   = "exec"
)

// LoadConfig loads configuration from environment variables.
// A .env file in the working directory is applied first when present.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		OCR: OCRConfig{
			Engine:      getEnv("PASSPORT_OCR_ENGINE", OCREngineNative),
			Tesseract:   getEnv("TESSERACT_PATH", "tesseract"),
			Language:    getEnv("PASSPORT_OCR_LANG", "eng"),
			TessdataDir: getEnv("TESSDATA_PREFIX", ""),
			EngineMode:  getEnvAsInt("PASSPORT_OCR_OEM", 3),
		},
		MRZ: MRZConfig{
			Command: getEnv("PASSPORT_MRZ_CMD", "mrz --json"),
			Timeout: getEnvAsDuration("PASSPORT_MRZ_TIMEOUT", 60*time.Second),
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

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	switch c.OCR.Engine {
	case OCREngineNative, OCREngineExec:
	default:
		return NewAppError("CONFIG_ERROR", "PASSPORT_OCR_ENGINE must be \"native\" or \"exec\"", ErrInvalidInput)
	}
	if c.OCR.Engine == OCREngineExec && c.OCR.Tesseract == "" {
		return NewAppError("CONFIG_ERROR", "TESSERACT_PATH is required for the exec engine", ErrInvalidInput)
	}
	if c.MRZ.Command == "" {
		return NewAppError("CONFIG_ERROR", "PASSPORT_MRZ_CMD is required", ErrInvalidInput)
	}
	return nil
}
