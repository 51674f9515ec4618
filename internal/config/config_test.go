package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, ":8000", c.Listen)
	assert.Equal(t, "Surgery Billing Analytics", c.AppName)
	assert.Equal(t, int64(50<<20), c.MaxUploadSize)
	assert.Equal(t, 500, c.BatchSize)
	assert.Equal(t, 180, c.MissingPaymentDays)
	assert.Equal(t, 60*time.Second, c.StatementTimeout)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, c.CORSOrigins)
	assert.NoError(t, c.Validate())
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u@localhost/billing")
	t.Setenv("LISTEN_ADDR", ":9000")
	t.Setenv("DEBUG", "true")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("MAX_UPLOAD_SIZE", "1024")
	t.Setenv("STATEMENT_TIMEOUT", "15")
	t.Setenv("BATCH_SIZE", "not-a-number")

	c := Default()
	require.NoError(t, c.LoadEnv())

	assert.Equal(t, "postgres://u@localhost/billing", c.DSN)
	assert.Equal(t, ":9000", c.Listen)
	assert.True(t, c.Debug)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.CORSOrigins)
	assert.Equal(t, int64(1024), c.MaxUploadSize)
	assert.Equal(t, 15*time.Second, c.StatementTimeout)
	assert.Equal(t, 500, c.BatchSize, "unparseable values keep the default")
}

func TestLoadFromFile_Valid(t *testing.T) {
	path := writeConfig(t, "missing_payment_days: 90\nbatch_size: 250\ncors_origins:\n  - https://dash.example\n")

	c := Default()
	require.NoError(t, c.LoadFromFile(path))
	assert.Equal(t, 90, c.MissingPaymentDays)
	assert.Equal(t, 250, c.BatchSize)
	assert.Equal(t, []string{"https://dash.example"}, c.CORSOrigins)
	assert.Equal(t, "uploads", c.UploadDir)
}

func TestLoadFromFile_EmptyKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "{}\n")

	c := Default()
	require.NoError(t, c.LoadFromFile(path))
	assert.Equal(t, Default(), c)
}

func TestLoadFromFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"negative threshold", "missing_payment_days: -1\n"},
		{"zero batch", "batch_size: 0\n"},
		{"malformed yaml", "batch_size: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			assert.Error(t, c.LoadFromFile(writeConfig(t, tt.body)))
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	c := Default()
	assert.Error(t, c.LoadFromFile("/nonexistent/config.yaml"))
}

func TestValidate(t *testing.T) {
	c := Default()
	c.LogFormat = "xml"
	assert.Error(t, c.Validate())

	c = Default()
	assert.EqualError(t, c.ValidateWithDSN(), "--dsn or DATABASE_URL is required")
	c.DSN = "postgres://localhost/billing"
	assert.NoError(t, c.ValidateWithDSN())
}

func TestValidateFile(t *testing.T) {
	c := Default()
	assert.EqualError(t, c.ValidateFile(), "--file is required")

	c.FilePath = filepath.Join(t.TempDir(), "missing.xlsx")
	assert.Error(t, c.ValidateFile())

	c.FilePath = writeConfig(t, "")
	assert.NoError(t, c.ValidateFile())
}
