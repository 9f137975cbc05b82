package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg, _ := Load()
	cfg.Username = "user"
	cfg.Password = "secret"
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://erp.hrcap.com", cfg.BaseURL)
	assert.Equal(t, 30*time.Minute, cfg.SessionTimeout)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.RequestDelay)
	assert.Equal(t, 3*time.Second, cfg.PageDelay)
	assert.Equal(t, int64(1000), cfg.ShardUnit)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ERP_BASE_URL", "https://erp.example.com")
	t.Setenv("MAX_RETRIES", "5")
	t.Setenv("CANDIDATE_ID_OFFSET", "5000")
	t.Setenv("REQUEST_DELAY", "1.5")
	t.Setenv("SESSION_TIMEOUT", "10m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://erp.example.com", cfg.BaseURL)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, int64(5000), cfg.CandidateOffset)
	assert.Equal(t, 1500*time.Millisecond, cfg.RequestDelay)
	assert.Equal(t, 10*time.Minute, cfg.SessionTimeout)
}

func TestValidate_MissingCredentials(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	cfg.Username = ""
	cfg.Password = ""

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config error")
}

func TestValidate_OK(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidate_BadLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.LogLevel = "loud"
	require.Error(t, cfg.Validate())
}

func TestCreateDirectories(t *testing.T) {
	cfg := validConfig()
	base := t.TempDir()
	cfg.ResumesDir = base + "/resumes"
	cfg.MetadataDir = base + "/metadata"
	cfg.ResultsDir = base + "/results"
	cfg.LogsDir = base + "/logs"

	require.NoError(t, cfg.CreateDirectories())
	// Idempotent.
	require.NoError(t, cfg.CreateDirectories())
}
