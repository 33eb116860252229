package config

import (
	"encoding/json"
	"os"

	"github.com/occasio/occasio/internal/flagx"
	"github.com/occasio/occasio/internal/timex"
)

// jsonConfig is a DTO used exclusively for JSON unmarshalling. Durations may
// be given as strings like "20m" or as integer nanoseconds.
type jsonConfig struct {
	APIBaseURL          string         `json:"api_base_url"`
	DatabaseDSN         string         `json:"database_dsn"`
	PushInterval        timex.Duration `json:"push_interval"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	IdentityRecovery    *bool          `json:"identity_recovery"`
	BackupBucket        string         `json:"backup_bucket"`
}

// parseJSON overlays cfg with values from the JSON file named by the
// -c/-config flags. Missing flag means no JSON is loaded. Read or decode
// failures panic; the config stage has no useful way to continue.
func parseJSON(cfg *Config) {
	path := flagx.JsonConfigFlags()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc jsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.APIBaseURL != "" {
		cfg.APIBaseURL = jc.APIBaseURL
	}
	if jc.DatabaseDSN != "" {
		cfg.DatabaseDSN = jc.DatabaseDSN
	}
	if jc.PushInterval.Duration > 0 {
		cfg.PushInterval = jc.PushInterval.Duration
	}
	if jc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.IdentityRecovery != nil {
		cfg.IdentityRecovery = *jc.IdentityRecovery
	}
	if jc.BackupBucket != "" {
		cfg.BackupBucket = jc.BackupBucket
	}
}
