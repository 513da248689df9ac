package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/repowatch/internal/adapter/driven/jsonfile"
	"github.com/ericfisherdev/repowatch/internal/application"
	"github.com/ericfisherdev/repowatch/internal/config"
)

const defaultWatchInterval = 5 * time.Minute

var watch bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Check every repository once (or repeatedly with --watch)",
	Long: `Check every configured repository for new commits, tags and releases,
notify every configured backend about changes, then save state and the run
summary. With --watch or MONITOR_POLL_INTERVAL the check repeats until
interrupted.`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

func init() {
	runCmd.Flags().BoolVar(&watch, "watch", false, "keep running and check on every poll interval (default 5m)")
}

func runMonitor(cmd *cobra.Command, _ []string) error {
	// Configuration problems are the only fatal errors.
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	setupLogging(cfg.LogLevel)
	slog.Info("config loaded",
		"repositories", len(cfg.Repositories),
		"kinds", cfg.Kinds(),
		"workers", cfg.Workers,
		"http_timeout", cfg.HTTPTimeout,
		"state_file", cfg.StateFile,
		"state_db", cfg.StateDB,
	)

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetcher, err := buildFetcher(cfg)
	if err != nil {
		return err
	}

	notifiers := buildNotifiers(cfg)
	if len(notifiers) == 0 {
		slog.Warn("no notification backend configured, changes will only be recorded in the summary")
	}

	stateRepo, closeState := openStateRepository(ctx, cfg)
	defer closeState()

	svc := application.NewMonitorService(
		fetcher,
		stateRepo,
		jsonfile.NewSummaryFile(cfg.SummaryFile),
		application.NewDispatcher(notifiers, cfg.HTTPTimeout),
		application.MonitorOptions{
			Repositories: cfg.Repositories,
			Kinds:        cfg.Kinds(),
			Workers:      cfg.Workers,
			FetchTimeout: cfg.HTTPTimeout,
		},
	)

	interval := cfg.PollInterval
	if watch && interval == 0 {
		interval = defaultWatchInterval
	}

	if interval > 0 {
		slog.Info("watch mode started", "interval", interval)
		svc.Start(ctx, interval)
		slog.Info("shutdown complete")
		return nil
	}

	svc.RunOnce(ctx)
	return nil
}

// cmdContext returns the command's context, or Background before Execute sets one.
func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
