package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the archive and report passes
type Config struct {
	Mailchimp MailchimpConfig `yaml:"mailchimp"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Report    ReportConfig    `yaml:"report"`
	Storage   StorageConfig   `yaml:"storage"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// MailchimpConfig holds marketing API configuration
type MailchimpConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"` // Derived from the key's data center when empty
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
	BackoffMillis  int    `yaml:"backoff_ms"`
	MaxBackoffSecs int    `yaml:"max_backoff_seconds"`
	PageSize       int    `yaml:"page_size"`
	PrefetchLists  bool   `yaml:"prefetch_lists"`
	PauseEvery     int    `yaml:"pause_every"` // Campaigns between polite pauses; unset means 10, negative disables
	PauseMillis    int    `yaml:"pause_ms"`
}

// Timeout returns the configured per-request timeout as a duration
func (c MailchimpConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Backoff returns the first retry delay
func (c MailchimpConfig) Backoff() time.Duration {
	return time.Duration(c.BackoffMillis) * time.Millisecond
}

// MaxBackoff returns the retry delay ceiling
func (c MailchimpConfig) MaxBackoff() time.Duration {
	return time.Duration(c.MaxBackoffSecs) * time.Second
}

// Pause returns the polite pause duration
func (c MailchimpConfig) Pause() time.Duration {
	return time.Duration(c.PauseMillis) * time.Millisecond
}

// ArchiveConfig holds the archive directory settings
type ArchiveConfig struct {
	Dir string `yaml:"dir"`
}

// ReportConfig holds CSV report settings
type ReportConfig struct {
	OutputPath    string `yaml:"output_path"`
	FlushInterval int    `yaml:"flush_interval"` // Rows between flushes to disk; unset means 50, negative flushes only at the end
}

// StorageConfig holds the optional S3 mirror configuration
type StorageConfig struct {
	S3Bucket   string `yaml:"s3_bucket"`
	S3Region   string `yaml:"s3_region"`
	S3Prefix   string `yaml:"s3_prefix"`
	AWSProfile string `yaml:"aws_profile"` // Empty string uses default credential chain
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
}

// Enabled reports whether an S3 mirror is configured
func (c StorageConfig) Enabled() bool {
	return c.S3Bucket != ""
}

// GetAWSProfile returns the AWS profile, with environment variable override
func (c StorageConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return ""
		}
		return envProfile
	}
	return c.AWSProfile
}

// MetricsConfig holds run metrics export settings
type MetricsConfig struct {
	TextfilePath string `yaml:"textfile_path"` // node_exporter textfile collector target
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Redact *bool  `yaml:"redact"`
}

// RedactEnabled defaults to true when unset
func (c LoggingConfig) RedactEnabled() bool {
	return c.Redact == nil || *c.Redact
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Mailchimp.TimeoutSeconds == 0 {
		cfg.Mailchimp.TimeoutSeconds = 30
	}
	if cfg.Mailchimp.MaxRetries == 0 {
		cfg.Mailchimp.MaxRetries = 3
	}
	if cfg.Mailchimp.BackoffMillis == 0 {
		cfg.Mailchimp.BackoffMillis = 1000
	}
	if cfg.Mailchimp.MaxBackoffSecs == 0 {
		cfg.Mailchimp.MaxBackoffSecs = 30
	}
	if cfg.Mailchimp.PageSize == 0 {
		cfg.Mailchimp.PageSize = 1000
	}
	if cfg.Mailchimp.PauseEvery == 0 {
		cfg.Mailchimp.PauseEvery = 10
	}
	if cfg.Mailchimp.PauseMillis == 0 {
		cfg.Mailchimp.PauseMillis = 500
	}
	if cfg.Archive.Dir == "" {
		cfg.Archive.Dir = "mailchimp_newsletters"
	}
	if cfg.Report.OutputPath == "" {
		cfg.Report.OutputPath = "mailchimp_newsletters.csv"
	}
	if cfg.Report.FlushInterval == 0 {
		cfg.Report.FlushInterval = 50
	}
	if cfg.Storage.S3Region == "" {
		cfg.Storage.S3Region = "us-west-2"
	}
	if cfg.Storage.S3Prefix == "" {
		cfg.Storage.S3Prefix = "mailchimp-archive"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so the API key can live in .env locally. A missing config file is not an
// error here: defaults plus environment are enough to run.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	var cfg *Config
	if path == "" {
		cfg = Default()
	} else {
		loaded, err := Load(path)
		switch {
		case err == nil:
			cfg = loaded
		case errors.Is(err, fs.ErrNotExist):
			cfg = Default()
		default:
			return nil, err
		}
	}

	if apiKey := os.Getenv("MAILCHIMP_API_KEY"); apiKey != "" {
		cfg.Mailchimp.APIKey = apiKey
	}
	if baseURL := os.Getenv("MAILCHIMP_BASE_URL"); baseURL != "" {
		cfg.Mailchimp.BaseURL = baseURL
	}
	if v := os.Getenv("MAILCHIMP_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Mailchimp.MaxRetries = n
		}
	}
	if dir := os.Getenv("MAILCHIMP_ARCHIVE_DIR"); dir != "" {
		cfg.Archive.Dir = dir
	}
	if out := os.Getenv("MAILCHIMP_REPORT_PATH"); out != "" {
		cfg.Report.OutputPath = out
	}
	if v := os.Getenv("ARCHIVE_S3_BUCKET"); v != "" {
		cfg.Storage.S3Bucket = v
	}
	if v := os.Getenv("ARCHIVE_S3_REGION"); v != "" {
		cfg.Storage.S3Region = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	return cfg, nil
}
