package config

import (
	"flag"
	"os"
	"time"

	"github.com/occasio/occasio/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   base URL of the event/user API
//	-d string   SQLite DSN of the local cache
//	-p int      push cycle interval in minutes
//	-i int      online check interval in seconds
//	-r          enable identity recovery via the user directory
//	-b string   S3 bucket for cloud snapshot backups
//
// Args are filtered to the flags owned here so the JSON config flags
// (-c/-config) pass through untouched.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-p", "-i", "-r", "-b"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "base URL of the event/user API")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "SQLite DSN of the local cache")
	pushInterval := fs.Int("p", int(cfg.PushInterval.Minutes()), "push cycle interval (in minutes)")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.BoolVar(&cfg.IdentityRecovery, "r", cfg.IdentityRecovery, "enable identity recovery via the user directory")
	fs.StringVar(&cfg.BackupBucket, "b", cfg.BackupBucket, "S3 bucket for cloud snapshot backups")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// A zero interval would degenerate the batch cycle into a near-continuous
	// loop, so non-positive values keep the previous setting.
	if *pushInterval > 0 {
		cfg.PushInterval = time.Duration(*pushInterval) * time.Minute
	}
	if *onlineCheckInterval > 0 {
		cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	}
}
