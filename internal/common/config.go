package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Store     StoreConfig
	Server    ServerConfig
	Extractor ExtractorConfig
	AI        AIConfig
}

// StoreConfig holds template store configuration
type StoreConfig struct {
	Path        string
	BusyTimeout time.Duration
	PingTimeout time.Duration
}

// ServerConfig holds daemon-related configuration
type ServerConfig struct {
	GRPCAddr   string
	WatchRoots []string
	OutputDir  string
}

// ExtractorConfig holds extraction thresholds and pattern overrides
type ExtractorConfig struct {
	MinConfidence float64
	PatternFile   string // optional YAML overriding the built-in field patterns
	VendorScanMax int    // how many leading lines to scan for a vendor name
}

// AIConfig holds AI collaborator configuration
type AIConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
	Timeout     time.Duration
	MaxAttempts int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Path:        getEnv("TEMPLATE_DB_PATH", "invoice_templates.db"),
			BusyTimeout: getEnvAsDuration("TEMPLATE_DB_BUSY_TIMEOUT", 5*time.Second),
			PingTimeout: getEnvAsDuration("TEMPLATE_DB_PING_TIMEOUT", 3*time.Second),
		},
		Server: ServerConfig{
			GRPCAddr:   getEnv("GRPC_ADDR", ":8080"),
			WatchRoots: splitList(getEnv("WATCH_ROOTS", "")),
			OutputDir:  getEnv("OUTPUT_DIR", ""),
		},
		Extractor: ExtractorConfig{
			MinConfidence: getEnvAsFloat64("MIN_CONFIDENCE", 0.60),
			PatternFile:   getEnv("FIELD_PATTERN_FILE", ""),
			VendorScanMax: getEnvAsInt("VENDOR_SCAN_MAX", 5),
		},
		AI: AIConfig{
			BaseURL:     getEnv("AI_API_BASE_URL", "https://api.openai.com/v1"),
			APIKey:      getEnv("AI_API_KEY", ""),
			Model:       getEnv("AI_MODEL_NAME", "gpt-4o-mini"),
			Temperature: getEnvAsFloat32("AI_TEMPERATURE", 0.1),
			Timeout:     getEnvAsDuration("AI_TIMEOUT", 120*time.Second),
			MaxAttempts: getEnvAsInt("AI_MAX_ATTEMPTS", 3),
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

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
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

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Store.Path == "" {
		return NewAppError("CONFIG_ERROR", "TEMPLATE_DB_PATH is required", ErrInvalidInput)
	}
	if c.Extractor.MinConfidence <= 0 || c.Extractor.MinConfidence > 1 {
		return NewAppError("CONFIG_ERROR", "MIN_CONFIDENCE must be in (0,1]", ErrInvalidInput)
	}
	return nil
}
