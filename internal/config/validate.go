package config

import (
	"errors"
	"fmt"

	"github.com/erazemk/izgubljeno/internal/scheduler"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr must be set")
	}
	if c.Database.Path == "" {
		return errors.New("database.path must be set")
	}
	if c.Auth.TokenExpiryHours <= 0 {
		return errors.New("auth.token_expiry_hours must be positive")
	}
	if c.Auth.AdminUser == "" {
		return errors.New("auth.admin_user must be set")
	}
	if err := c.validateRetention(); err != nil {
		return err
	}
	if _, _, err := scheduler.ParseRunAt(c.Scheduler.RunAt); err != nil {
		return fmt.Errorf("scheduler.run_at: %w", err)
	}
	return c.validateImages()
}

func (c *Config) validateRetention() error {
	if c.Retention.Months <= 0 {
		return errors.New("retention.months must be positive")
	}
	if c.Retention.GraceDays < 0 {
		return errors.New("retention.grace_days must not be negative")
	}
	// The grace period must end after the item was found.
	if c.Retention.GraceDays >= c.Retention.Months*28 {
		return errors.New("retention.grace_days must be shorter than the retention period")
	}
	return nil
}

func (c *Config) validateImages() error {
	if c.Images.MaxDimension <= 0 || c.Images.ThumbDimension <= 0 {
		return errors.New("images.max_dimension and images.thumb_dimension must be positive")
	}
	if c.Images.ThumbDimension > c.Images.MaxDimension {
		return errors.New("images.thumb_dimension must not exceed images.max_dimension")
	}
	if c.Images.Quality < 1 || c.Images.Quality > 100 {
		return errors.New("images.quality must be between 1 and 100")
	}
	if c.Images.MaxUploadMB <= 0 {
		return errors.New("images.max_upload_mb must be positive")
	}
	return nil
}
