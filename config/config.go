package config

import (
	"fmt"
	"time"

	"github.com/skillsenselab/scribe/diarization/pyannote"
	"github.com/skillsenselab/scribe/logger"
	"github.com/skillsenselab/scribe/server"
	"github.com/skillsenselab/scribe/transcription/whisperx"
)

// Config is the full scribe service configuration.
type Config struct {
	Server      server.Config     `yaml:"server" mapstructure:"server"`
	Logging     logger.Config     `yaml:"logging" mapstructure:"logging"`
	Engine      whisperx.Config   `yaml:"engine" mapstructure:"engine"`
	Diarization DiarizationConfig `yaml:"diarization" mapstructure:"diarization"`
	Queue       QueueConfig       `yaml:"queue" mapstructure:"queue"`
	Webhook     WebhookConfig     `yaml:"webhook" mapstructure:"webhook"`
	Auth        AuthConfig        `yaml:"auth" mapstructure:"auth"`
}

// DiarizationConfig controls the speaker diarization engine.
type DiarizationConfig struct {
	Enabled     bool            `yaml:"enabled" mapstructure:"enabled"`
	Pyannote    pyannote.Config `yaml:"pyannote" mapstructure:"pyannote"`
	MinSpeakers int             `yaml:"min_speakers" mapstructure:"min_speakers"`
	MaxSpeakers int             `yaml:"max_speakers" mapstructure:"max_speakers"`
}

// QueueConfig controls job admission, retention and the worker loop.
type QueueConfig struct {
	MaxSize        int `yaml:"max_size" mapstructure:"max_size"`
	Retention      int `yaml:"retention" mapstructure:"retention"`             // seconds
	CleanupBatch   int `yaml:"cleanup_batch" mapstructure:"cleanup_batch"`     // entries per pass
	RequestTimeout int `yaml:"request_timeout" mapstructure:"request_timeout"` // seconds, per job
	FaultPause     int `yaml:"fault_pause" mapstructure:"fault_pause"`         // seconds
}

// RetentionDuration returns the retention window as a duration.
func (c QueueConfig) RetentionDuration() time.Duration {
	return time.Duration(c.Retention) * time.Second
}

// RequestTimeoutDuration returns the per-job timeout as a duration.
func (c QueueConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// FaultPauseDuration returns the worker fault pause as a duration.
func (c QueueConfig) FaultPauseDuration() time.Duration {
	return time.Duration(c.FaultPause) * time.Second
}

// WebhookConfig controls callback delivery.
type WebhookConfig struct {
	Timeout int `yaml:"timeout" mapstructure:"timeout"` // seconds
}

// TimeoutDuration returns the per-delivery timeout as a duration.
func (c WebhookConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// AuthConfig controls API authentication.
type AuthConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Secret  string `yaml:"secret" mapstructure:"secret"`
}

// Load reads the full configuration and applies defaults and validation.
func Load(opts ...LoaderOption) (*Config, error) {
	cfg := &Config{}
	if err := LoadConfig("scribe", cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults fills unset fields across all sections.
func (c *Config) ApplyDefaults() {
	c.Server.ApplyDefaults()
	c.Logging.ApplyDefaults()
	if c.Queue.MaxSize == 0 {
		c.Queue.MaxSize = 1000
	}
	if c.Queue.Retention == 0 {
		c.Queue.Retention = 3600
	}
	if c.Queue.CleanupBatch == 0 {
		c.Queue.CleanupBatch = 10
	}
	if c.Queue.RequestTimeout == 0 {
		c.Queue.RequestTimeout = 300
	}
	if c.Queue.FaultPause == 0 {
		c.Queue.FaultPause = 5
	}
	if c.Webhook.Timeout == 0 {
		c.Webhook.Timeout = 10
	}
	if c.Diarization.MinSpeakers == 0 {
		c.Diarization.MinSpeakers = 1
	}
	if c.Diarization.MaxSpeakers == 0 {
		c.Diarization.MaxSpeakers = 8
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if c.Queue.MaxSize < 1 {
		return fmt.Errorf("queue.max_size must be at least 1 (got: %d)", c.Queue.MaxSize)
	}
	if c.Queue.Retention < 1 {
		return fmt.Errorf("queue.retention must be at least 1 second (got: %d)", c.Queue.Retention)
	}
	if c.Queue.CleanupBatch < 1 {
		return fmt.Errorf("queue.cleanup_batch must be at least 1 (got: %d)", c.Queue.CleanupBatch)
	}
	if c.Queue.RequestTimeout < 1 {
		return fmt.Errorf("queue.request_timeout must be at least 1 second (got: %d)", c.Queue.RequestTimeout)
	}
	if c.Diarization.MinSpeakers > c.Diarization.MaxSpeakers {
		return fmt.Errorf("diarization.min_speakers must not exceed max_speakers (got: %d > %d)",
			c.Diarization.MinSpeakers, c.Diarization.MaxSpeakers)
	}
	if c.Auth.Enabled && c.Auth.Secret == "" {
		return fmt.Errorf("auth.secret is required when auth.enabled is true")
	}
	return nil
}
