// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sethvargo/go-envconfig"
)

var (
	// ErrAPIKeyRequired is returned when YOUTUBE_API_KEY is not set.
	ErrAPIKeyRequired = errors.New("config: YOUTUBE_API_KEY is required")
	// ErrSenderRequired is returned when SENDER_EMAIL or EMAIL_PASSWORD is not set.
	ErrSenderRequired = errors.New("config: SENDER_EMAIL and EMAIL_PASSWORD are required")
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port int `env:"PORT, default=8080" json:"port"`

	// YouTube Data API settings
	YouTubeAPIKey string `env:"YOUTUBE_API_KEY" json:"-"` // Masked in JSON

	// Email settings
	SenderEmail   string `env:"SENDER_EMAIL" json:"sender_email"`
	EmailPassword string `env:"EMAIL_PASSWORD" json:"-"` // Masked in JSON
	SMTPHost      string `env:"SMTP_HOST, default=smtp.gmail.com" json:"smtp_host"`
	SMTPPort      int    `env:"SMTP_PORT, default=587" json:"smtp_port"`

	// Pipeline settings
	ScratchRoot string `env:"SCRATCH_DIR" json:"scratch_dir,omitempty"` // empty means os.TempDir
	MaxFetchers int    `env:"MAX_FETCHERS, default=4" json:"max_fetchers"`
	MaxJobs     int    `env:"MAX_JOBS, default=2" json:"max_jobs"`

	// External tool paths (found in PATH when empty)
	YtdlpPath  string `env:"YTDLP_PATH, default=yt-dlp" json:"ytdlp_path"`
	FFmpegPath string `env:"FFMPEG_PATH, default=ffmpeg" json:"ffmpeg_path"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Validate checks that the credentials the pipeline depends on are present.
func (c *Config) Validate() error {
	if c.YouTubeAPIKey == "" {
		return ErrAPIKeyRequired
	}
	if c.SenderEmail == "" || c.EmailPassword == "" {
		return ErrSenderRequired
	}
	return nil
}

// ScratchDir returns the root under which per-run scratch directories
// are created.
func (c *Config) ScratchDir() string {
	if c.ScratchRoot != "" {
		return c.ScratchRoot
	}
	return os.TempDir()
}

// SMTPAddr returns the host:port of the outgoing mail server.
func (c *Config) SMTPAddr() string {
	return fmt.Sprintf("%s:%d", c.SMTPHost, c.SMTPPort)
}

// String returns a string representation of the config with sensitive
// values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, SenderEmail: %s, SMTPHost: %s, ScratchRoot: %s, MaxFetchers: %d, MaxJobs: %d}",
		c.Port, c.SenderEmail, c.SMTPHost, c.ScratchRoot, c.MaxFetchers, c.MaxJobs,
	)
}
