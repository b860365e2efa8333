package common

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	Storage    StorageConfig
	Cleanup    CleanupConfig
	Extraction ExtractionConfig
	LLM        LLMConfig
	Watch      WatchConfig
	Log        LogConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string // "sqlite" or "postgres"
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr    string
	GRPCAddr    string
	MaxUploadMB int
}

// StorageConfig holds the directories uploads and generated files live in.
type StorageConfig struct {
	UploadDir   string
	OutputDir   string
	AuditLogDir string
}

// CleanupConfig controls the expired-output sweeper.
type CleanupConfig struct {
	Expiry   time.Duration
	Interval time.Duration
}

// ExtractionConfig selects the entity extraction path.
type ExtractionConfig struct {
	UseGPT      bool
	PromptsFile string
	Pdftotext   string
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Model           string
	APIKey          string
	BaseURL         string
	Temperature     float32
	Timeout         time.Duration
	MaxPromptTokens int
}

// WatchConfig enables the drop-folder watcher in the daemon.
type WatchConfig struct {
	Dir      string
	Debounce time.Duration
	Workers  int
}

// LogConfig controls the slog handler and optional rotating file.
type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return WrapError(err, "load "+path)
	}
	return nil
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:           strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
			DSN:              getEnv("DB_URL", "file:extractions.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			HTTPAddr:    getEnv("HTTP_ADDR", ":8000"),
			GRPCAddr:    getEnv("GRPC_ADDR", ":8080"),
			MaxUploadMB: getEnvAsInt("MAX_UPLOAD_MB", 32),
		},
		Storage: StorageConfig{
			UploadDir:   getEnv("UPLOAD_DIR", "./uploads"),
			OutputDir:   getEnv("OUTPUT_DIR", "./outputs"),
			AuditLogDir: getEnv("AUDIT_LOG_DIR", "./logs"),
		},
		Cleanup: CleanupConfig{
			Expiry:   getEnvAsDuration("CLEANUP_EXPIRY", time.Hour),
			Interval: getEnvAsDuration("CLEANUP_INTERVAL", 10*time.Minute),
		},
		Extraction: ExtractionConfig{
			UseGPT:      getEnvAsBool("USE_GPT_EXTRACTION", false),
			PromptsFile: getEnv("PROMPTS_FILE", ""),
			Pdftotext:   getEnv("PDFTOTEXT_BIN", "pdftotext"),
		},
		LLM: LLMConfig{
			Model:           getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:          getEnv("OPENAI_API_KEY", ""),
			BaseURL:         getEnv("OPENAI_BASE_URL", ""),
			Temperature:     getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:         getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
			MaxPromptTokens: getEnvAsInt("OPENAI_MAX_PROMPT_TOKENS", 3000),
		},
		Watch: WatchConfig{
			Dir:      getEnv("WATCH_DIR", ""),
			Debounce: getEnvAsDuration("WATCH_DEBOUNCE", 2*time.Second),
			Workers:  getEnvAsInt("WATCH_WORKERS", 2),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			File:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  getEnvAsInt("LOG_MAX_SIZE_MB", 50),
			MaxBackups: getEnvAsInt("LOG_MAX_BACKUPS", 5),
			MaxAgeDays: getEnvAsInt("LOG_MAX_AGE_DAYS", 14),
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

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsBool accepts true/false, 1/0, yes/no and on/off.
func getEnvAsBool(key string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return defaultValue
	}
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
		return NewAppError(CodeConfig, "DB_DRIVER must be sqlite or postgres", ErrInvalidInput)
	}
	if c.Database.DSN == "" {
		return NewAppError(CodeConfig, "DB_URL is required", ErrInvalidInput)
	}
	if c.Extraction.UseGPT && c.LLM.APIKey == "" {
		return NewAppError(CodeConfig, "OPENAI_API_KEY is required when USE_GPT_EXTRACTION is on", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError(CodeConfig, "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Storage.OutputDir == "" {
		return NewAppError(CodeConfig, "OUTPUT_DIR is required", ErrInvalidInput)
	}
	if c.Cleanup.Interval <= 0 || c.Cleanup.Expiry <= 0 {
		return NewAppError(CodeConfig, "CLEANUP_EXPIRY and CLEANUP_INTERVAL must be positive", ErrInvalidInput)
	}
	return nil
}
