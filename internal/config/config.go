// Package config provides configuration loading and validation for the harvester CLI.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds every setting the harvester needs. It is constructed once at
// process start and passed read-only into component constructors.
type Config struct {
	// ERP system
	BaseURL  string `validate:"required,url"`
	Username string `validate:"required"`
	Password string `validate:"required"`

	// Session
	UseBrowser     bool
	Headless       bool
	SessionTimeout time.Duration `validate:"gt=0"`

	// Paths
	ResumesDir  string `validate:"required"`
	MetadataDir string `validate:"required"`
	ResultsDir  string `validate:"required"`
	LogsDir     string `validate:"required"`

	// Retrieval behavior
	PageLoadTimeout time.Duration `validate:"gt=0"`
	DownloadTimeout time.Duration `validate:"gt=0"`
	MaxRetries      int           `validate:"min=1"`
	RetryDelay      time.Duration `validate:"min=0"`

	// Request pacing, protects the origin server.
	RequestDelay time.Duration `validate:"min=0"`
	PageDelay    time.Duration `validate:"min=0"`

	// Pagination
	ItemsPerPage int `validate:"min=1"`
	MaxPages     int `validate:"min=0"`

	// Identifier offsets per entity kind. These are empirical constants
	// observed in the ERP deployment and must stay overridable.
	CandidateOffset int64
	CaseOffset      int64
	ClientOffset    int64

	// Directory sharding
	ShardUnit int64 `validate:"min=1"`

	// Logging
	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=text json"`
}

// Load builds a Config from environment variables, applying defaults for
// anything unset. Call godotenv.Load before this if a .env file is in play.
func Load() (*Config, error) {
	cfg := &Config{
		BaseURL:  getEnv("ERP_BASE_URL", "http://erp.hrcap.com"),
		Username: os.Getenv("ERP_USERNAME"),
		Password: os.Getenv("ERP_PASSWORD"),

		UseBrowser:     getEnvBool("USE_BROWSER", false),
		Headless:       getEnvBool("HEADLESS", true),
		SessionTimeout: getEnvDuration("SESSION_TIMEOUT", 30*time.Minute),

		ResumesDir:  getEnv("RESUMES_DIR", "./resumes"),
		MetadataDir: getEnv("METADATA_DIR", "./metadata"),
		ResultsDir:  getEnv("RESULTS_DIR", "./results"),
		LogsDir:     getEnv("LOGS_DIR", "./logs"),

		PageLoadTimeout: getEnvDuration("PAGE_LOAD_TIMEOUT", 30*time.Second),
		DownloadTimeout: getEnvDuration("DOWNLOAD_TIMEOUT", 60*time.Second),
		MaxRetries:      getEnvInt("MAX_RETRIES", 3),
		RetryDelay:      getEnvDuration("RETRY_DELAY", 5*time.Second),

		RequestDelay: getEnvDuration("REQUEST_DELAY", 2*time.Second),
		PageDelay:    getEnvDuration("PAGE_DELAY", 3*time.Second),

		ItemsPerPage: getEnvInt("ITEMS_PER_PAGE", 20),
		MaxPages:     getEnvInt("MAX_PAGES", 0),

		CandidateOffset: getEnvInt64("CANDIDATE_ID_OFFSET", 979174),
		CaseOffset:      getEnvInt64("CASE_ID_OFFSET", 0),
		ClientOffset:    getEnvInt64("CLIENT_ID_OFFSET", 0),

		ShardUnit: getEnvInt64("SHARD_UNIT", 1000),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	return cfg, nil
}

// Validate checks the configuration. Credentials are required because the
// harvester cannot do anything without an authenticated session.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			e := errs[0]
			return fmt.Errorf("config error: field %s failed %q validation", e.Field(), e.Tag())
		}
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// CreateDirectories materializes the output directory tree.
func (c *Config) CreateDirectories() error {
	for _, dir := range []string{c.ResumesDir, c.MetadataDir, c.ResultsDir, c.LogsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

// getEnvDuration accepts either a Go duration string ("30s") or a bare
// number of seconds, matching how the legacy deployment configured delays.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return fallback
}
