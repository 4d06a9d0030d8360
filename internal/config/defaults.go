package config

import (
	"github.com/erazemk/izgubljeno/internal/imaging"
	"github.com/erazemk/izgubljeno/internal/lifecycle"
	"github.com/erazemk/izgubljeno/internal/scheduler"
)

const (
	defaultAddr             = ":8080"
	defaultDatabasePath     = "izgubljeno.sqlite3"
	defaultTokenExpiryHours = 7 * 24
	defaultAdminUser        = "Admin"
	defaultMaxUploadMB      = imaging.DefaultMaxBytes >> 20
)

// Default returns a Config populated with the built-in defaults.
func Default() Config {
	return Config{
		Server:   Server{Addr: defaultAddr},
		Database: Database{Path: defaultDatabasePath},
		Auth: Auth{
			TokenExpiryHours: defaultTokenExpiryHours,
			AdminUser:        defaultAdminUser,
		},
		Retention: Retention{
			Months:    lifecycle.DefaultRetentionMonths,
			GraceDays: int(lifecycle.DefaultGracePeriod.Hours() / 24),
		},
		Scheduler: Scheduler{
			Enabled: true,
			RunAt:   scheduler.DefaultRunAt,
		},
		Images: Images{
			MaxDimension:   imaging.DefaultMaxDimension,
			ThumbDimension: imaging.DefaultThumbDimension,
			Quality:        imaging.DefaultQuality,
			MaxUploadMB:    defaultMaxUploadMB,
		},
	}
}
