package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/filevault/internal/flagx"
	"github.com/dmitrijs2005/filevault/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations use
// timex.Duration so both "30s" and integer nanoseconds are accepted.
type JsonConfig struct {
	HTTPAddr             string         `json:"http_addr"`
	DatabaseDSN          string         `json:"database_dsn"`
	LogLevel             string         `json:"log_level"`
	BlobBackend          string         `json:"blob_backend"`
	BlobDir              string         `json:"blob_dir"`
	S3RootUser           string         `json:"s3_root_user"`
	S3RootPassword       string         `json:"s3_root_password"`
	S3Bucket             string         `json:"s3_bucket"`
	S3Region             string         `json:"s3_region"`
	S3BaseEndpoint       string         `json:"s3_base_endpoint"`
	SessionTTL           timex.Duration `json:"session_ttl"`
	SessionPruneInterval timex.Duration `json:"session_prune_interval"`
	PasswordHash         string         `json:"password_hash"`
	MaxBodySize          int64          `json:"max_body_size"`
	AllowedOrigins       []string       `json:"allowed_origins"`
	HealthInterval       timex.Duration `json:"health_interval"`
	WorkerMetricsAddr    string         `json:"worker_metrics_addr"`
	PollInterval         timex.Duration `json:"poll_interval"`
	Concurrency          int            `json:"concurrency"`
	VisibilityTimeout    timex.Duration `json:"visibility_timeout"`
	MaxAttempts          int            `json:"max_attempts"`
	RetryBase            timex.Duration `json:"retry_base"`
	RetryMax             timex.Duration `json:"retry_max"`
}

func toJson(c *Config) *JsonConfig {
	return &JsonConfig{
		HTTPAddr:             c.HTTPAddr,
		DatabaseDSN:          c.DatabaseDSN,
		LogLevel:             c.LogLevel,
		BlobBackend:          c.BlobBackend,
		BlobDir:              c.BlobDir,
		S3RootUser:           c.S3RootUser,
		S3RootPassword:       c.S3RootPassword,
		S3Bucket:             c.S3Bucket,
		S3Region:             c.S3Region,
		S3BaseEndpoint:       c.S3BaseEndpoint,
		SessionTTL:           timex.Duration{Duration: c.SessionTTL},
		SessionPruneInterval: timex.Duration{Duration: c.SessionPruneInterval},
		PasswordHash:         c.PasswordHash,
		MaxBodySize:          c.MaxBodySize,
		AllowedOrigins:       c.AllowedOrigins,
		HealthInterval:       timex.Duration{Duration: c.HealthInterval},
		WorkerMetricsAddr:    c.WorkerMetricsAddr,
		PollInterval:         timex.Duration{Duration: c.PollInterval},
		Concurrency:          c.Concurrency,
		VisibilityTimeout:    timex.Duration{Duration: c.VisibilityTimeout},
		MaxAttempts:          c.MaxAttempts,
		RetryBase:            timex.Duration{Duration: c.RetryBase},
		RetryMax:             timex.Duration{Duration: c.RetryMax},
	}
}

func (j *JsonConfig) apply(c *Config) {
	c.HTTPAddr = j.HTTPAddr
	c.DatabaseDSN = j.DatabaseDSN
	c.LogLevel = j.LogLevel
	c.BlobBackend = j.BlobBackend
	c.BlobDir = j.BlobDir
	c.S3RootUser = j.S3RootUser
	c.S3RootPassword = j.S3RootPassword
	c.S3Bucket = j.S3Bucket
	c.S3Region = j.S3Region
	c.S3BaseEndpoint = j.S3BaseEndpoint
	c.SessionTTL = j.SessionTTL.Duration
	c.SessionPruneInterval = j.SessionPruneInterval.Duration
	c.PasswordHash = j.PasswordHash
	c.MaxBodySize = j.MaxBodySize
	c.AllowedOrigins = j.AllowedOrigins
	c.HealthInterval = j.HealthInterval.Duration
	c.WorkerMetricsAddr = j.WorkerMetricsAddr
	c.PollInterval = j.PollInterval.Duration
	c.Concurrency = j.Concurrency
	c.VisibilityTimeout = j.VisibilityTimeout.Duration
	c.MaxAttempts = j.MaxAttempts
	c.RetryBase = j.RetryBase.Duration
	c.RetryMax = j.RetryMax.Duration
}

// parseJson overlays the file named by -c/-config onto config. Keys absent
// from the file keep their current values. No flag, no change.
func parseJson(config *Config) error {
	path := flagx.JsonConfigFlags()
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := toJson(config)
	if err := json.Unmarshal(data, c); err != nil {
		return err
	}
	c.apply(config)

	return nil
}
