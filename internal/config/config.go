// Package config provides configuration management for the linkreach
// application. It handles loading, validation, and access to configuration
// values from YAML files and environment variables via viper.
package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/jonesrussell/linkreach/internal/logger"
)

// Interface defines the interface for configuration management.
type Interface interface {
	// GetAppConfig returns the application configuration.
	GetAppConfig() *AppConfig
	// GetLoggerConfig returns the logger configuration.
	GetLoggerConfig() *logger.Config
	// GetDatabaseConfig returns the database configuration.
	GetDatabaseConfig() *DatabaseConfig
	// GetServerConfig returns the HTTP server configuration.
	GetServerConfig() *ServerConfig
	// GetOutreachConfig returns the outreach configuration.
	GetOutreachConfig() *OutreachConfig
	// GetSessionConfig returns the session configuration.
	GetSessionConfig() *SessionConfig
	// GetSchedulerConfig returns the scheduler configuration.
	GetSchedulerConfig() *SchedulerConfig
	// Validate validates the configuration.
	Validate() error
}

// Ensure Config implements Interface.
var _ Interface = (*Config)(nil)

// Config represents the application configuration.
type Config struct {
	App       *AppConfig       `mapstructure:"app"`
	Logger    *logger.Config   `mapstructure:"logger"`
	Database  *DatabaseConfig  `mapstructure:"database"`
	Server    *ServerConfig    `mapstructure:"server"`
	Outreach  *OutreachConfig  `mapstructure:"outreach"`
	Session   *SessionConfig   `mapstructure:"session"`
	Scheduler *SchedulerConfig `mapstructure:"scheduler"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ServerConfig holds HTTP API server settings.
type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// OutreachConfig holds caps, pacing, template and platform settings for
// outreach runs.
type OutreachConfig struct {
	// Self-imposed daily ceilings, independent of any platform limit.
	DailyConnectionCap int `mapstructure:"daily_connection_cap"`
	DailyMessageCap    int `mapstructure:"daily_message_cap"`

	// Randomized delay between fine-grained page actions.
	ActionDelayMin time.Duration `mapstructure:"action_delay_min"`
	ActionDelayMax time.Duration `mapstructure:"action_delay_max"`

	// Randomized delay between targets.
	TargetDelayMin time.Duration `mapstructure:"target_delay_min"`
	TargetDelayMax time.Duration `mapstructure:"target_delay_max"`

	// Extended pause taken every N targets.
	LongPauseEveryN int           `mapstructure:"long_pause_every_n"`
	LongPauseMin    time.Duration `mapstructure:"long_pause_min"`
	LongPauseMax    time.Duration `mapstructure:"long_pause_max"`

	// Template files for the connection note and follow-up message.
	NoteTemplatePath    string `mapstructure:"note_template"`
	MessageTemplatePath string `mapstructure:"message_template"`

	// Platform endpoints observed by the page driver.
	BaseURL   string `mapstructure:"base_url"`
	LoginURL  string `mapstructure:"login_url"`
	FeedURL   string `mapstructure:"feed_url"`
	UserAgent string `mapstructure:"user_agent"`
}

// SessionConfig holds session blob persistence settings.
type SessionConfig struct {
	// BlobPath is where the opaque authenticated-session state is stored.
	BlobPath string `mapstructure:"blob_path"`
}

// SchedulerConfig holds recurring-run settings for the scheduler command.
type SchedulerConfig struct {
	// Cron is a standard 5-field cron expression for when runs start.
	Cron string `mapstructure:"cron"`
	// Mode is the workflow mode scheduled runs use.
	Mode string `mapstructure:"mode"`
}

// Load builds a Config from the global viper state. Call after viper has
// read config files and bound environment variables (see cmd/root.go).
func Load() (*Config, error) {
	var cfg Config

	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))

	if err := viper.Unmarshal(&cfg, decodeHook); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Database == nil || c.Database.Host == "" {
		return fmt.Errorf("%w: database host is required", ErrInvalidConfig)
	}

	o := c.Outreach
	if o == nil {
		return fmt.Errorf("%w: outreach section is required", ErrInvalidConfig)
	}
	if o.DailyConnectionCap <= 0 {
		return fmt.Errorf("%w: daily_connection_cap must be positive", ErrInvalidConfig)
	}
	if o.DailyMessageCap <= 0 {
		return fmt.Errorf("%w: daily_message_cap must be positive", ErrInvalidConfig)
	}
	if o.ActionDelayMin > o.ActionDelayMax {
		return fmt.Errorf("%w: action_delay_min exceeds action_delay_max", ErrInvalidConfig)
	}
	if o.TargetDelayMin > o.TargetDelayMax {
		return fmt.Errorf("%w: target_delay_min exceeds target_delay_max", ErrInvalidConfig)
	}
	if o.LongPauseEveryN <= 0 {
		return fmt.Errorf("%w: long_pause_every_n must be positive", ErrInvalidConfig)
	}

	return nil
}

// GetAppConfig returns the application configuration.
func (c *Config) GetAppConfig() *AppConfig {
	return c.App
}

// GetLoggerConfig returns the logger configuration.
func (c *Config) GetLoggerConfig() *logger.Config {
	return c.Logger
}

// GetDatabaseConfig returns the database configuration.
func (c *Config) GetDatabaseConfig() *DatabaseConfig {
	return c.Database
}

// GetServerConfig returns the HTTP server configuration.
func (c *Config) GetServerConfig() *ServerConfig {
	return c.Server
}

// GetOutreachConfig returns the outreach configuration.
func (c *Config) GetOutreachConfig() *OutreachConfig {
	return c.Outreach
}

// GetSessionConfig returns the session configuration.
func (c *Config) GetSessionConfig() *SessionConfig {
	return c.Session
}

// GetSchedulerConfig returns the scheduler configuration.
func (c *Config) GetSchedulerConfig() *SchedulerConfig {
	return c.Scheduler
}
