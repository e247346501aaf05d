package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/dgallion1/docrank/internal/relevance"
)

type Config struct {
	Port string `toml:"port"`

	// Auth
	APIKey string `toml:"api_key"`

	LogLevel string `toml:"log_level"`

	// Worker pool
	WorkerCount          int `toml:"worker_count"`
	MaxQueueSize         int `toml:"max_queue_size"`
	MaxConcurrentExtract int `toml:"max_concurrent_extract"`

	// Upload limits
	MaxUploadBytes     int64 `toml:"max_upload_bytes"`
	MaxFilesPerRequest int   `toml:"max_files_per_request"`

	// Job state
	JobTTL time.Duration `toml:"-"`

	// PDF
	PDFFallbackPdftotext bool `toml:"pdf_fallback_pdftotext"`

	// Analysis
	TopN              int               `toml:"top_n"`
	Weights           relevance.Weights `toml:"weights"`
	AutoDetectPersona bool              `toml:"auto_detect_persona"`

	// Batch directories
	InputDir  string `toml:"input_dir"`
	OutputDir string `toml:"output_dir"`
}

// fileConfig is the on-disk shape; durations are written as strings like "90m".
type fileConfig struct {
	Config
	JobTTL string `toml:"job_ttl"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Port:                 "8090",
		LogLevel:             "info",
		WorkerCount:          4,
		MaxQueueSize:         100,
		MaxConcurrentExtract: 5,
		MaxUploadBytes:       52428800, // 50MB
		MaxFilesPerRequest:   20,
		JobTTL:               1 * time.Hour,
		PDFFallbackPdftotext: true,
		TopN:                 5,
		Weights:              relevance.DefaultWeights(),
		AutoDetectPersona:    true,
		InputDir:             "input",
		OutputDir:            "output",
	}
}

// Load layers defaults, the optional TOML file named by DOCRANK_CONFIG, a .env
// file in the working directory, and finally the process environment.
func Load() (Config, error) {
	// godotenv never overrides variables that are already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Defaults()
	if path := os.Getenv("DOCRANK_CONFIG"); path != "" {
		var err error
		if cfg, err = LoadFile(path, cfg); err != nil {
			return Config{}, err
		}
	}
	cfg = cfg.fromEnv()
	return cfg.withFallbacks(), nil
}

// LoadFile overlays the TOML file at path onto base.
func LoadFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read config %s: %w", path, err)
	}
	fc := fileConfig{Config: base}
	if err := toml.Unmarshal(data, &fc); err != nil {
		return base, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg := fc.Config
	if fc.JobTTL != "" {
		d, err := time.ParseDuration(fc.JobTTL)
		if err != nil {
			return base, fmt.Errorf("parse config %s: job_ttl: %w", path, err)
		}
		cfg.JobTTL = d
	}
	return cfg, nil
}

func (c Config) fromEnv() Config {
	c.Port = envOr("PORT", c.Port)
	c.APIKey = envOr("DOCRANK_API_KEY", c.APIKey)
	c.LogLevel = envOr("LOG_LEVEL", c.LogLevel)

	c.WorkerCount = envInt("WORKER_COUNT", c.WorkerCount)
	c.MaxQueueSize = envInt("MAX_QUEUE_SIZE", c.MaxQueueSize)
	c.MaxConcurrentExtract = envInt("MAX_CONCURRENT_EXTRACT", c.MaxConcurrentExtract)

	c.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", c.MaxUploadBytes)
	c.MaxFilesPerRequest = envInt("MAX_FILES_PER_REQUEST", c.MaxFilesPerRequest)

	c.JobTTL = envDuration("JOB_TTL", c.JobTTL)
	c.PDFFallbackPdftotext = envBool("PDF_FALLBACK_PDFTOTEXT", c.PDFFallbackPdftotext)

	c.TopN = envInt("TOP_N", c.TopN)
	c.Weights.Semantic = envFloat("WEIGHT_SEMANTIC", c.Weights.Semantic)
	c.Weights.Persona = envFloat("WEIGHT_PERSONA", c.Weights.Persona)
	c.Weights.Action = envFloat("WEIGHT_ACTION", c.Weights.Action)
	c.Weights.CrossDoc = envFloat("WEIGHT_CROSS_DOC", c.Weights.CrossDoc)
	c.AutoDetectPersona = envBool("AUTO_DETECT_PERSONA", c.AutoDetectPersona)

	c.InputDir = envOr("INPUT_DIR", c.InputDir)
	c.OutputDir = envOr("OUTPUT_DIR", c.OutputDir)
	return c
}

// withFallbacks replaces non-positive sizing knobs with their defaults.
func (c Config) withFallbacks() Config {
	d := Defaults()
	if c.WorkerCount <= 0 {
		c.WorkerCount = d.WorkerCount
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = d.MaxQueueSize
	}
	if c.MaxConcurrentExtract <= 0 {
		c.MaxConcurrentExtract = d.MaxConcurrentExtract
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = d.MaxUploadBytes
	}
	if c.MaxFilesPerRequest <= 0 {
		c.MaxFilesPerRequest = d.MaxFilesPerRequest
	}
	if c.JobTTL <= 0 {
		c.JobTTL = d.JobTTL
	}
	return c
}

// Validate checks settings shared by every command.
func (c Config) Validate() error {
	if c.TopN < 1 {
		return fmt.Errorf("TOP_N must be at least 1, got %d", c.TopN)
	}
	if err := c.Weights.Validate(); err != nil {
		return fmt.Errorf("weights: %w", err)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ValidateServer checks settings needed to run the HTTP API.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("DOCRANK_API_KEY is required")
	}
	return nil
}

// ParseLevel maps debug|info|warn|error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return lvl, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
