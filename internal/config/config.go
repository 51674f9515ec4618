package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultListen             = ":8000"
	DefaultAppName            = "Surgery Billing Analytics"
	DefaultUploadDir          = "uploads"
	DefaultMaxUploadSize      = 50 << 20
	DefaultRateLimit          = 120
	DefaultStatementTimeout   = 60 * time.Second
	DefaultBatchSize          = 500
	DefaultMissingPaymentDays = 180
)

var defaultCORSOrigins = []string{"http://localhost:5173", "http://localhost:3000"}

// Config holds all runtime configuration for the billingdash binary.
type Config struct {
	DSN        string
	LogFormat  string // "text" or "json"
	ConfigPath string

	// import / plan / export
	FilePath string
	OutPath  string

	Listen           string
	AppName          string
	Debug            bool
	CORSOrigins      []string
	UploadDir        string
	MaxUploadSize    int64
	RateLimit        int // requests per minute per client IP
	StatementTimeout time.Duration
	BatchSize        int

	MissingPaymentDays int
}

// Default returns a Config populated with the built-in defaults.
func Default() Config {
	return Config{
		LogFormat:          "text",
		Listen:             DefaultListen,
		AppName:            DefaultAppName,
		CORSOrigins:        append([]string(nil), defaultCORSOrigins...),
		UploadDir:          DefaultUploadDir,
		MaxUploadSize:      DefaultMaxUploadSize,
		RateLimit:          DefaultRateLimit,
		StatementTimeout:   DefaultStatementTimeout,
		BatchSize:          DefaultBatchSize,
		MissingPaymentDays: DefaultMissingPaymentDays,
	}
}

// LoadEnv loads an optional .env file from the working directory, then
// overlays any variables set in the process environment.
func (c *Config) LoadEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	c.DSN = getEnv("DATABASE_URL", c.DSN)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	c.Listen = getEnv("LISTEN_ADDR", c.Listen)
	c.AppName = getEnv("APP_NAME", c.AppName)
	c.Debug = getEnvAsBool("DEBUG", c.Debug)
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.CORSOrigins = splitList(v)
	}
	c.UploadDir = getEnv("UPLOAD_DIR", c.UploadDir)
	c.MaxUploadSize = getEnvAsInt64("MAX_UPLOAD_SIZE", c.MaxUploadSize)
	c.RateLimit = int(getEnvAsInt64("RATE_LIMIT", int64(c.RateLimit)))
	c.StatementTimeout = getEnvAsDuration("STATEMENT_TIMEOUT", c.StatementTimeout)
	c.BatchSize = int(getEnvAsInt64("BATCH_SIZE", int64(c.BatchSize)))
	return nil
}

// yamlConfig is the on-disk YAML structure. Absent keys leave the current
// value untouched.
type yamlConfig struct {
	MissingPaymentDays *int     `yaml:"missing_payment_days"`
	BatchSize          *int     `yaml:"batch_size"`
	UploadDir          *string  `yaml:"upload_dir"`
	CORSOrigins        []string `yaml:"cors_origins"`
}

// LoadFromFile reads a YAML config file and merges its values into Config.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if yc.MissingPaymentDays != nil {
		c.MissingPaymentDays = *yc.MissingPaymentDays
	}
	if yc.BatchSize != nil {
		c.BatchSize = *yc.BatchSize
	}
	if yc.UploadDir != nil {
		c.UploadDir = *yc.UploadDir
	}
	if len(yc.CORSOrigins) > 0 {
		c.CORSOrigins = yc.CORSOrigins
	}
	return c.Validate()
}

// Validate checks field ranges and returns an error if the config is invalid.
func (c *Config) Validate() error {
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", c.LogFormat)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("max upload size must be positive, got %d", c.MaxUploadSize)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit must not be negative, got %d", c.RateLimit)
	}
	if c.MissingPaymentDays < 0 {
		return fmt.Errorf("missing_payment_days must not be negative, got %d", c.MissingPaymentDays)
	}
	return nil
}

// ValidateFile checks that --file names a readable file.
func (c *Config) ValidateFile() error {
	if c.FilePath == "" {
		return fmt.Errorf("--file is required")
	}
	if _, err := os.Stat(c.FilePath); err != nil {
		return fmt.Errorf("file not accessible: %w", err)
	}
	return nil
}

// ValidateWithDSN checks the config and the DSN field.
func (c *Config) ValidateWithDSN() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.DSN == "" {
		return fmt.Errorf("--dsn or DATABASE_URL is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration accepts Go durations ("90s") or a bare number of seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(valueStr); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
