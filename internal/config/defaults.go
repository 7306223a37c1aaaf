package config

import (
	"time"

	"github.com/jonesrussell/linkreach/internal/logger"
)

// Default pacing and cap values. The connection cap stays well under the
// platform's soft weekly invitation limit.
const (
	DefaultDailyConnectionCap = 20
	DefaultDailyMessageCap    = 50

	DefaultActionDelayMin = 2 * time.Second
	DefaultActionDelayMax = 5 * time.Second
	DefaultTargetDelayMin = 45 * time.Second
	DefaultTargetDelayMax = 90 * time.Second

	DefaultLongPauseEveryN = 10
	DefaultLongPauseMin    = 5 * time.Minute
	DefaultLongPauseMax    = 10 * time.Minute

	defaultServerAddress      = ":8080"
	defaultServerReadTimeout  = 15 * time.Second
	defaultServerWriteTimeout = 15 * time.Second
	defaultServerIdleTimeout  = 60 * time.Second
)

// Platform endpoint defaults.
const (
	DefaultBaseURL  = "https://www.linkedin.com"
	DefaultLoginURL = "https://www.linkedin.com/login"
	DefaultFeedURL  = "https://www.linkedin.com/feed/"

	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/120.0.0.0 Safari/537.36"
)

// applyDefaults fills nil sections and zero values so callers never see a
// partially nil Config.
func applyDefaults(cfg *Config) {
	if cfg.App == nil {
		cfg.App = &AppConfig{}
	}
	if cfg.App.Name == "" {
		cfg.App.Name = "linkreach"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "production"
	}

	if cfg.Logger == nil {
		cfg.Logger = &logger.Config{}
	}

	if cfg.Database == nil {
		cfg.Database = &DatabaseConfig{}
	}
	if cfg.Database.Port == "" {
		cfg.Database.Port = "5432"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}

	if cfg.Server == nil {
		cfg.Server = &ServerConfig{}
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = defaultServerAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultServerReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultServerWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultServerIdleTimeout
	}

	if cfg.Outreach == nil {
		cfg.Outreach = &OutreachConfig{}
	}
	o := cfg.Outreach
	if o.DailyConnectionCap == 0 {
		o.DailyConnectionCap = DefaultDailyConnectionCap
	}
	if o.DailyMessageCap == 0 {
		o.DailyMessageCap = DefaultDailyMessageCap
	}
	if o.ActionDelayMin == 0 {
		o.ActionDelayMin = DefaultActionDelayMin
	}
	if o.ActionDelayMax == 0 {
		o.ActionDelayMax = DefaultActionDelayMax
	}
	if o.TargetDelayMin == 0 {
		o.TargetDelayMin = DefaultTargetDelayMin
	}
	if o.TargetDelayMax == 0 {
		o.TargetDelayMax = DefaultTargetDelayMax
	}
	if o.LongPauseEveryN == 0 {
		o.LongPauseEveryN = DefaultLongPauseEveryN
	}
	if o.LongPauseMin == 0 {
		o.LongPauseMin = DefaultLongPauseMin
	}
	if o.LongPauseMax == 0 {
		o.LongPauseMax = DefaultLongPauseMax
	}
	if o.NoteTemplatePath == "" {
		o.NoteTemplatePath = "templates/connection_note.txt"
	}
	if o.MessageTemplatePath == "" {
		o.MessageTemplatePath = "templates/followup_message.txt"
	}
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	if o.LoginURL == "" {
		o.LoginURL = DefaultLoginURL
	}
	if o.FeedURL == "" {
		o.FeedURL = DefaultFeedURL
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}

	if cfg.Session == nil {
		cfg.Session = &SessionConfig{}
	}
	if cfg.Session.BlobPath == "" {
		cfg.Session.BlobPath = "state.json"
	}

	if cfg.Scheduler == nil {
		cfg.Scheduler = &SchedulerConfig{}
	}
	if cfg.Scheduler.Cron == "" {
		// Weekday mornings.
		cfg.Scheduler.Cron = "0 9 * * 1-5"
	}
	if cfg.Scheduler.Mode == "" {
		cfg.Scheduler.Mode = "connect"
	}
}
