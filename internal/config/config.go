// Package config loads the izgubljeno TOML configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/erazemk/izgubljeno/internal/imaging"
	"github.com/erazemk/izgubljeno/internal/lifecycle"
	"github.com/erazemk/izgubljeno/internal/scheduler"
)

// Server configures the HTTP listener.
type Server struct {
	Addr string `toml:"addr"`
}

// Database configures the SQLite database.
type Database struct {
	Path string `toml:"path"`
}

// Auth configures login tokens.
type Auth struct {
	TokenExpiryHours int    `toml:"token_expiry_hours"`
	AdminUser        string `toml:"admin_user"`
}

// Retention configures how long found items are kept.
type Retention struct {
	Months    int `toml:"months"`
	GraceDays int `toml:"grace_days"`
}

// Scheduler configures the daily lifecycle sweep.
type Scheduler struct {
	Enabled  bool   `toml:"enabled"`
	RunAt    string `toml:"run_at"`
	LockFile string `toml:"lock_file"`
}

// Images configures photo processing.
type Images struct {
	MaxDimension   int `toml:"max_dimension"`
	ThumbDimension int `toml:"thumb_dimension"`
	Quality        int `toml:"quality"`
	MaxUploadMB    int `toml:"max_upload_mb"`
}

// Logging configures log output.
type Logging struct {
	File string `toml:"file"`
}

// Config is the full configuration.
type Config struct {
	Server    Server    `toml:"server"`
	Database  Database  `toml:"database"`
	Auth      Auth      `toml:"auth"`
	Retention Retention `toml:"retention"`
	Scheduler Scheduler `toml:"scheduler"`
	Images    Images    `toml:"images"`
	Logging   Logging   `toml:"logging"`
}

// Load reads the configuration at path on top of the defaults. A missing
// file is not an error; the second return value reports whether it existed.
// An empty path returns the defaults.
func Load(path string) (*Config, bool, error) {
	cfg := Default()

	exists := false
	if path != "" {
		file, err := os.Open(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, false, fmt.Errorf("open config: %w", err)
		default:
			defer file.Close()
			exists = true
			decoder := toml.NewDecoder(file)
			decoder.DisallowUnknownFields()
			if err := decoder.Decode(&cfg); err != nil {
				return nil, false, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, false, err
	}
	return &cfg, exists, nil
}

// CreateSample writes the default configuration to path.
func CreateSample(path string) error {
	data, err := toml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("encode sample config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func (c *Config) normalize() {
	c.Server.Addr = strings.TrimSpace(c.Server.Addr)
	c.Database.Path = strings.TrimSpace(c.Database.Path)
	c.Auth.AdminUser = strings.TrimSpace(c.Auth.AdminUser)
	c.Scheduler.RunAt = strings.TrimSpace(c.Scheduler.RunAt)
	c.Scheduler.LockFile = strings.TrimSpace(c.Scheduler.LockFile)
	c.Logging.File = strings.TrimSpace(c.Logging.File)
}

// TokenExpiry returns the login token lifetime.
func (c *Config) TokenExpiry() time.Duration {
	return time.Duration(c.Auth.TokenExpiryHours) * time.Hour
}

// RetentionPolicy returns the item retention rules.
func (c *Config) RetentionPolicy() lifecycle.Retention {
	return lifecycle.Retention{
		Months: c.Retention.Months,
		Grace:  time.Duration(c.Retention.GraceDays) * 24 * time.Hour,
	}
}

// ImageOptions returns the photo processing options.
func (c *Config) ImageOptions() imaging.Options {
	return imaging.Options{
		MaxDimension:   c.Images.MaxDimension,
		ThumbDimension: c.Images.ThumbDimension,
		Quality:        c.Images.Quality,
		MaxBytes:       int64(c.Images.MaxUploadMB) << 20,
	}
}

// SchedulerConfig returns the sweep scheduling options.
func (c *Config) SchedulerConfig() scheduler.Config {
	return scheduler.Config{RunAt: c.Scheduler.RunAt, LockPath: c.Scheduler.LockFile}
}
