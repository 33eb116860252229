// Package cli is the interactive terminal front end of the Occasio client.
package cli

import (
	"bufio"
	"context"
	"os"

	"github.com/occasio/occasio/internal/client/api"
	"github.com/occasio/occasio/internal/client/config"
	"github.com/occasio/occasio/internal/client/localstore"
	"github.com/occasio/occasio/internal/client/netmon"
	"github.com/occasio/occasio/internal/client/services"
	"github.com/occasio/occasio/internal/logging"

	_ "modernc.org/sqlite"
)

type App struct {
	config  *config.Config
	engine  *services.SyncEngine
	monitor *netmon.Monitor
	log     logging.Logger
	reader  *bufio.Reader
}

func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	db, err := localstore.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	store := localstore.NewSQLiteStore(db)

	apiClient := api.NewHTTPClient(cfg.APIBaseURL, log)
	monitor := netmon.New(cfg.APIBaseURL, cfg.OnlineCheckInterval, log)
	scheduler := services.NewScheduler(apiClient, services.NewLogNotifier(log), log)

	backup, err := services.NewSnapshotBackup(ctx, cfg.BackupBucket, log)
	if err != nil {
		log.Warn(ctx, "cloud backup disabled", "error", err)
	}

	engine := services.NewSyncEngine(apiClient, store, monitor, scheduler, backup,
		cfg.PushInterval, cfg.IdentityRecovery, log)

	return &App{
		config:  cfg,
		engine:  engine,
		monitor: monitor,
		log:     log,
		reader:  bufio.NewReader(os.Stdin),
	}, nil
}

// Run starts the background machinery and hands control to the REPL.
// It returns when the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.monitor.Start(ctx)
	defer a.monitor.Stop()

	if err := a.engine.Start(ctx); err != nil {
		return err
	}
	defer a.engine.Close()

	a.Root(ctx)
	return nil
}

func (a *App) isLoggedIn() bool {
	user := a.engine.User()
	return user != nil && user.LoggedIn
}
