package config

import (
	"fmt"
	"net/url"
	"time"

	"tvratings-parser/internal/ratings"
)

type Config struct {
	Rod           RodConfig           `yaml:"rod"`
	Source        SourceConfig        `yaml:"source"`
	Catalog       ratings.Catalog     `yaml:"catalog"`
	CatalogFile   string              `yaml:"catalog_file"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	Storage       StorageConfig       `yaml:"storage"`
	Scheduler     SchedulerConfig     `yaml:"scheduler"`
	Observability ObservabilityConfig `yaml:"observability"`
}

type RodConfig struct {
	Headless            bool   `yaml:"headless"`
	ChromePath          string `yaml:"chrome_path"`
	NavigationTimeoutMS int    `yaml:"navigation_timeout_ms"`
	IdleWaitMS          int    `yaml:"idle_wait_ms"`
}

type SourceConfig struct {
	BaseURL        string `yaml:"base_url"`
	RatingSelector string `yaml:"rating_selector"`
}

type RateLimitConfig struct {
	RPM int `yaml:"rpm"`
}

type StorageConfig struct {
	CSVPath string      `yaml:"csv_path"`
	MSSQL   MSSQLConfig `yaml:"mssql"`
}

type MSSQLConfig struct {
	Enabled          bool   `yaml:"enabled"`
	DSN              string `yaml:"dsn"`
	CommandTimeoutMS int    `yaml:"command_timeout_ms"`
	Table            string `yaml:"table"`
}

type SchedulerConfig struct {
	Mode            string `yaml:"mode"`
	IntervalMinutes int    `yaml:"interval_minutes"`
}

type ObservabilityConfig struct {
	LogPath       string `yaml:"log_path"`
	LogLevel      string `yaml:"log_level"`
	LogMaxSizeMB  int    `yaml:"log_max_size_mb"`
	LogMaxBackups int    `yaml:"log_max_backups"`
	LogMaxAgeDays int    `yaml:"log_max_age_days"`
	MetricsPath   string `yaml:"metrics_path"`
}

// Default значения, поверх которых декодируется YAML
func Default() *Config {
	return &Config{
		Rod: RodConfig{
			Headless:            true,
			NavigationTimeoutMS: 30000,
			IdleWaitMS:          500,
		},
		Source: SourceConfig{
			BaseURL:        "https://metrics.zappingtv.com/public/rating",
			RatingSelector: "#channel_rating",
		},
		Catalog: ratings.DefaultCatalog(),
		Storage: StorageConfig{
			CSVPath: "ratings_data.csv",
			MSSQL: MSSQLConfig{
				CommandTimeoutMS: 5000,
				Table:            "TblRatings",
			},
		},
		Scheduler: SchedulerConfig{
			Mode:            "interval",
			IntervalMinutes: 30,
		},
		Observability: ObservabilityConfig{
			LogLevel:      "info",
			LogMaxSizeMB:  10,
			LogMaxBackups: 5,
			LogMaxAgeDays: 30,
		},
	}
}

// Validation
func (c *Config) Validate() error {
	if c.Source.BaseURL == "" {
		return fmt.Errorf("source.base_url is required")
	}
	if _, err := url.ParseRequestURI(c.Source.BaseURL); err != nil {
		return fmt.Errorf("source.base_url is invalid: %w", err)
	}
	if c.Source.RatingSelector == "" {
		return fmt.Errorf("source.rating_selector is required")
	}
	if err := c.Catalog.Validate(); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	if c.Rod.NavigationTimeoutMS <= 0 {
		return fmt.Errorf("rod.navigation_timeout_ms must be > 0")
	}
	if c.Rod.IdleWaitMS < 0 {
		return fmt.Errorf("rod.idle_wait_ms must be >= 0")
	}
	if c.RateLimit.RPM < 0 {
		return fmt.Errorf("rate_limit.rpm must be >= 0")
	}
	if c.Storage.CSVPath == "" {
		return fmt.Errorf("storage.csv_path is required")
	}
	if c.Storage.MSSQL.Enabled {
		if c.Storage.MSSQL.DSN == "" {
			return fmt.Errorf("storage.mssql.dsn is required when storage.mssql.enabled is true")
		}
		if c.Storage.MSSQL.CommandTimeoutMS <= 0 {
			return fmt.Errorf("storage.mssql.command_timeout_ms must be > 0")
		}
		if c.Storage.MSSQL.Table == "" {
			return fmt.Errorf("storage.mssql.table is required")
		}
	}
	if c.Scheduler.Mode != "interval" && c.Scheduler.Mode != "oneshot" {
		return fmt.Errorf("scheduler.mode must be 'interval' or 'oneshot'")
	}
	if c.Scheduler.Mode == "interval" && c.Scheduler.IntervalMinutes <= 0 {
		return fmt.Errorf("scheduler.interval_minutes must be > 0 when mode is 'interval'")
	}
	switch c.Observability.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("observability.log_level must be one of debug, info, warn, error")
	}
	if c.Observability.LogPath != "" {
		if c.Observability.LogMaxSizeMB <= 0 {
			return fmt.Errorf("observability.log_max_size_mb must be > 0")
		}
		if c.Observability.LogMaxBackups < 0 {
			return fmt.Errorf("observability.log_max_backups must be >= 0")
		}
		if c.Observability.LogMaxAgeDays < 0 {
			return fmt.Errorf("observability.log_max_age_days must be >= 0")
		}
	}
	return nil
}

// Getters
func (c *Config) GetNavigationTimeout() time.Duration {
	return time.Duration(c.Rod.NavigationTimeoutMS) * time.Millisecond
}

func (c *Config) GetIdleWait() time.Duration {
	return time.Duration(c.Rod.IdleWaitMS) * time.Millisecond
}

func (c *Config) GetSchedulerInterval() time.Duration {
	return time.Duration(c.Scheduler.IntervalMinutes) * time.Minute
}

func (c *Config) GetMSSQLCommandTimeout() time.Duration {
	return time.Duration(c.Storage.MSSQL.CommandTimeoutMS) * time.Millisecond
}
