package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays cfg with OCCASIO_* environment variables. A .env file in
// the working directory is honored when present; its absence is not an error.
func parseEnv(cfg *Config) {
	_ = godotenv.Load()

	if v := os.Getenv("OCCASIO_API_URL"); v != "" {
		cfg.APIBaseURL = v
	}
	if v := os.Getenv("OCCASIO_DATABASE_DSN"); v != "" {
		cfg.DatabaseDSN = v
	}
	if v := os.Getenv("OCCASIO_PUSH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.PushInterval = d
		}
	}
	if v := os.Getenv("OCCASIO_ONLINE_CHECK_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.OnlineCheckInterval = d
		}
	}
	if v := os.Getenv("OCCASIO_IDENTITY_RECOVERY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.IdentityRecovery = b
		}
	}
	if v := os.Getenv("OCCASIO_BACKUP_BUCKET"); v != "" {
		cfg.BackupBucket = v
	}
}
