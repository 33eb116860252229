// Package config loads runtime settings for the Occasio client.
//
// Sources are applied in order, later ones overriding earlier ones:
// defaults, JSON config file (-c/-config), environment (.env supported),
// command-line flags.
package config

import "time"

// Config holds runtime settings for the client core.
type Config struct {
	// APIBaseURL is the base URL of the event/user HTTP API.
	APIBaseURL string

	// DatabaseDSN is the SQLite DSN of the local cache.
	DatabaseDSN string

	// PushInterval is the period of the batched push cycle.
	PushInterval time.Duration

	// OnlineCheckInterval is how often the connectivity watcher probes the API.
	OnlineCheckInterval time.Duration

	// IdentityRecovery enables the user-directory scan fallback when no
	// local user record exists.
	IdentityRecovery bool

	// BackupBucket is the S3 bucket for cloud snapshot backups. Empty
	// disables backups regardless of the user's cloudStorage setting.
	BackupBucket string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:5000"
	c.DatabaseDSN = "occasio.db"
	c.PushInterval = 20 * time.Minute
	c.OnlineCheckInterval = 30 * time.Second
	c.IdentityRecovery = false
	c.BackupBucket = ""
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON, environment, and command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJSON(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
