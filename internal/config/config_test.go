package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
mailchimp:
  api_key: "0123abcd-us19"
  timeout_seconds: 45
  max_retries: 5
  backoff_ms: 250
  max_backoff_seconds: 8
  page_size: 500
  prefetch_lists: true
  pause_every: 20
  pause_ms: 100

archive:
  dir: "/srv/newsletters"

report:
  output_path: "/srv/report.csv"
  flush_interval: 25

storage:
  s3_bucket: "newsletter-archive"
  s3_region: "eu-west-1"
  s3_prefix: "acme"

metrics:
  textfile_path: "/var/lib/node_exporter/mailchimp.prom"

logging:
  level: "debug"
  redact: false
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "0123abcd-us19", cfg.Mailchimp.APIKey)
	assert.Equal(t, 45, cfg.Mailchimp.TimeoutSeconds)
	assert.Equal(t, 5, cfg.Mailchimp.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.Mailchimp.Backoff())
	assert.Equal(t, 8*time.Second, cfg.Mailchimp.MaxBackoff())
	assert.Equal(t, 500, cfg.Mailchimp.PageSize)
	assert.True(t, cfg.Mailchimp.PrefetchLists)
	assert.Equal(t, 20, cfg.Mailchimp.PauseEvery)
	assert.Equal(t, 100*time.Millisecond, cfg.Mailchimp.Pause())

	assert.Equal(t, "/srv/newsletters", cfg.Archive.Dir)
	assert.Equal(t, "/srv/report.csv", cfg.Report.OutputPath)
	assert.Equal(t, 25, cfg.Report.FlushInterval)

	assert.True(t, cfg.Storage.Enabled())
	assert.Equal(t, "eu-west-1", cfg.Storage.S3Region)
	assert.Equal(t, "acme", cfg.Storage.S3Prefix)

	assert.Equal(t, "/var/lib/node_exporter/mailchimp.prom", cfg.Metrics.TextfilePath)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.Logging.RedactEnabled())
}

func TestLoadDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	err := os.WriteFile(configPath, []byte("mailchimp:\n  api_key: \"k-us1\"\n"), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Mailchimp.TimeoutSeconds)
	assert.Equal(t, 3, cfg.Mailchimp.MaxRetries)
	assert.Equal(t, time.Second, cfg.Mailchimp.Backoff())
	assert.Equal(t, 30*time.Second, cfg.Mailchimp.MaxBackoff())
	assert.Equal(t, 1000, cfg.Mailchimp.PageSize)
	assert.Equal(t, 10, cfg.Mailchimp.PauseEvery)
	assert.Equal(t, "mailchimp_newsletters", cfg.Archive.Dir)
	assert.Equal(t, "mailchimp_newsletters.csv", cfg.Report.OutputPath)
	assert.Equal(t, 50, cfg.Report.FlushInterval)
	assert.False(t, cfg.Storage.Enabled())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Logging.RedactEnabled())
}

func TestLoadFromEnv(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
mailchimp:
  api_key: "file-key-us1"
archive:
  dir: "from-file"
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	t.Setenv("MAILCHIMP_API_KEY", "env-key-us19")
	t.Setenv("MAILCHIMP_ARCHIVE_DIR", "from-env")
	t.Setenv("MAILCHIMP_MAX_RETRIES", "7")
	t.Setenv("ARCHIVE_S3_BUCKET", "bucket-from-env")

	cfg, err := LoadFromEnv(configPath)
	require.NoError(t, err)

	assert.Equal(t, "env-key-us19", cfg.Mailchimp.APIKey)
	assert.Equal(t, "from-env", cfg.Archive.Dir)
	assert.Equal(t, 7, cfg.Mailchimp.MaxRetries)
	assert.Equal(t, "bucket-from-env", cfg.Storage.S3Bucket)
}

func TestLoadFromEnv_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("MAILCHIMP_API_KEY", "env-key-us2")

	cfg, err := LoadFromEnv(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "env-key-us2", cfg.Mailchimp.APIKey)
	assert.Equal(t, 1000, cfg.Mailchimp.PageSize)
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("mailchimp: [unterminated"), 0644))

	_, err := LoadFromEnv(configPath)
	assert.Error(t, err)
}

func TestTimeout(t *testing.T) {
	cfg := MailchimpConfig{TimeoutSeconds: 45}
	assert.Equal(t, 45*time.Second, cfg.Timeout())
}

func TestLoadNegativeDisables(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	data := "mailchimp:\n  pause_every: -1\nreport:\n  flush_interval: -1\n"
	require.NoError(t, os.WriteFile(configPath, []byte(data), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, -1, cfg.Mailchimp.PauseEvery)
	assert.Equal(t, -1, cfg.Report.FlushInterval)
}
