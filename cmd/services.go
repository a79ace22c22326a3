package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/xvierd/studyflow/internal/adapters/notification"
	"github.com/xvierd/studyflow/internal/adapters/storage"
	"github.com/xvierd/studyflow/internal/config"
	"github.com/xvierd/studyflow/internal/ports"
	"github.com/xvierd/studyflow/internal/services"
)

// appDeps groups all service-layer dependencies initialized at startup.
type appDeps struct {
	config   *config.Config
	logger   hclog.Logger
	store    ports.RecordStore
	sessions *services.SessionService
	stats    *services.StatsService
	rewards  *services.RewardService
	state    *services.StateService
	notifier *notification.Notifier
}

// app holds all initialized service dependencies.
// Populated by initializeServices() and accessible to all commands.
var app appDeps

// initializeServices sets up all the required services and adapters.
func initializeServices() error {
	cfg, loadErr := config.Load()
	if loadErr != nil {
		cfg = config.DefaultConfig()
	}
	logger := cfg.NewLogger("studyflow")
	if loadErr != nil {
		logger.Warn("using default config", "error", loadErr)
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Warn("falling back to the system timezone", "error", err)
		loc = time.Local
	}

	path, err := resolveDBPath(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	store, err := storage.New(path)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	repo := storage.NewRecords(store)

	notifier := notification.New(&cfg.Notifications, logger)

	stats := services.NewStatsService(repo)
	stats.SetLocation(loc)
	stats.SetLogger(logger)

	rewards := services.NewRewardService(repo)
	rewards.SetLocation(loc)
	rewards.SetLogger(logger)

	sessions := services.NewSessionService(repo, notifier, stats, rewards)
	sessions.SetConfig(cfg.ToPomodoroDomainConfig())
	sessions.SetLogger(logger)

	app = appDeps{
		config:   cfg,
		logger:   logger,
		store:    store,
		sessions: sessions,
		stats:    stats,
		rewards:  rewards,
		state:    services.NewStateService(sessions, stats, rewards),
		notifier: notifier,
	}
	logger.Debug("services ready", "db", path, "timezone", loc.String())
	return nil
}

// resolveDBPath applies the --db flag over the configured data directory.
func resolveDBPath(cfg *config.Config) (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}
	path := config.GetDBPath(cfg)
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, rest)
	}
	return path, nil
}

// cleanupServices waits for pending material awards, then closes storage.
// It is safe to call more than once.
func cleanupServices() error {
	if app.sessions != nil {
		if err := app.sessions.WaitForAwards(); err != nil {
			app.logger.Error("material award crashed", "error", err)
		}
	}
	if app.store == nil {
		return nil
	}
	err := app.store.Close()
	app = appDeps{}
	return err
}

// setupSignalHandler sets up a context that cancels on interrupt signals.
func setupSignalHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		cancel()
	}()

	return ctx
}
