package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	KV       KVConfig
	LLM      LLMConfig
	Pipeline PipelineConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr            string
	MaxUploadBytes  int64
	ShutdownTimeout time.Duration
}

// StorageConfig holds object-store configuration
type StorageConfig struct {
	Bucket         string
	Region         string
	Endpoint       string
	ForcePathStyle bool
}

// KVConfig holds key-value store configuration. When DSN is set the Postgres
// store is used, otherwise the SQLite store at Path.
type KVConfig struct {
	DSN             string
	Path            string
	MaxConns        int32
	MaxConnLifetime time.Duration
	DialTimeout     time.Duration
}

// LLMConfig holds language-model endpoint configuration
type LLMConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	VisionModel string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	RatePerSec  float64
}

// PipelineConfig holds thresholds and behavior flags for the pipeline.
// The truncation budget and default mime are deliberate permissiveness,
// configuration rather than contract.
type PipelineConfig struct {
	Workers          int
	QueueDepth       int
	ConvertDPI       int
	MaxImageDim      int
	JDTruncateRunes  int
	DefaultImageMime string
	RetryAttempts    int
	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            getEnv("HTTP_ADDR", ":8080"),
			MaxUploadBytes:  getEnvAsInt64("MAX_UPLOAD_BYTES", 20<<20),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Storage: StorageConfig{
			Bucket:         getEnv("S3_BUCKET", ""),
			Region:         getEnv("S3_REGION", ""),
			Endpoint:       getEnv("S3_ENDPOINT", ""),
			ForcePathStyle: getEnvAsBool("S3_FORCE_PATH_STYLE", false),
		},
		KV: KVConfig{
			DSN:             getEnv("KV_DB_URL", ""),
			Path:            getEnv("KV_SQLITE_PATH", "./analyzer.db"),
			MaxConns:        getEnvAsInt32("KV_MAX_CONNS", 10),
			MaxConnLifetime: getEnvAsDuration("KV_MAX_CONN_LIFETIME", 30*time.Minute),
			DialTimeout:     getEnvAsDuration("KV_DIAL_TIMEOUT", 3*time.Second),
		},
		LLM: LLMConfig{
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			VisionModel: getEnv("OPENAI_VISION_MODEL", "gpt-4o-mini"),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			MaxTokens:   getEnvAsInt("OPENAI_MAX_TOKENS", 2048),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
			RatePerSec:  getEnvAsFloat64("OPENAI_RATE_PER_SEC", 2),
		},
		Pipeline: PipelineConfig{
			Workers:          getEnvAsInt("PIPELINE_WORKERS", 4),
			QueueDepth:       getEnvAsInt("PIPELINE_QUEUE_DEPTH", 64),
			ConvertDPI:       getEnvAsInt("CONVERT_DPI", 150),
			MaxImageDim:      getEnvAsInt("CONVERT_MAX_DIM", 2000),
			JDTruncateRunes:  getEnvAsInt("JD_TRUNCATE_RUNES", 4000),
			DefaultImageMime: getEnv("DEFAULT_IMAGE_MIME", "image/png"),
			RetryAttempts:    getEnvAsInt("RETRY_ATTEMPTS", 3),
			RetryBaseDelay:   getEnvAsDuration("RETRY_BASE_DELAY", 500*time.Millisecond),
			RetryMaxDelay:    getEnvAsDuration("RETRY_MAX_DELAY", 8*time.Second),
		},
	}
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	if c.Storage.Bucket == "" {
		return NewAppError("CONFIG_ERROR", "S3_BUCKET is required", ErrInvalidInput)
	}
	if c.Server.Addr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	return nil
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

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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
