package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"recallkit/internal/badge"
	"recallkit/internal/capture"
	"recallkit/internal/config"
	"recallkit/internal/deckimport"
	"recallkit/internal/fsrs"
	"recallkit/internal/remote"
	"recallkit/internal/review"
	"recallkit/internal/storage"
	"recallkit/internal/sync"
	"recallkit/internal/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	flags := pflag.NewFlagSet("recallkit", pflag.ContinueOnError)
	configPath := flags.String("config", "", "Path to a YAML config file")
	importDir := flags.String("import-dir", "", "Import markdown decks from a local directory and exit")
	importGit := flags.String("import-git", "", "Import markdown decks from a git repository and exit")
	deckID := flags.String("deck", "default", "Deck id for imported cards")

	flags.String("db_path", "", "Path to the SQLite database file")
	flags.String("web.addr", "", "HTTP listen address")
	flags.String("remote.base_url", "", "Remote store base URL")
	flags.String("remote.api_key", "", "Remote store API key")
	flags.String("remote.token", "", "Remote store bearer token")
	flags.String("remote.user_id", "", "Authenticated user id")
	flags.Duration("sync.interval", 0, "Periodic drain interval")
	flags.Int("sync.max_retries", 0, "Retry ceiling before a queued write is dropped")

	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath, flags)
	if err != nil {
		return err
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(log)

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	log.Info("database opened", "path", cfg.DBPath)

	reporter := badge.New(db, log)
	db.SetListener(reporter)

	client := remote.NewHTTPClient(cfg.Remote.BaseURL, cfg.Remote.APIKey, cfg.Remote.Token)
	network := remote.NewProber(cfg.Remote.BaseURL)
	session := remote.StaticSession{ID: cfg.Remote.UserID}

	sched, err := fsrs.NewScheduler(fsrs.Config{
		DesiredRetention: cfg.Scheduler.DesiredRetention,
		MaximumInterval:  cfg.Scheduler.MaximumInterval,
	})
	if err != nil {
		return fmt.Errorf("failed to build scheduler: %w", err)
	}

	capturer := capture.New(db, client, network, session, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Import modes run once and exit instead of serving.
	if *importDir != "" || *importGit != "" {
		importer := deckimport.New(capturer, cfg.Import.ReposDir, log)
		var report deckimport.Report
		if *importDir != "" {
			report, err = importer.ImportDir(ctx, *importDir, *deckID)
		} else {
			report, err = importer.ImportGit(ctx, *importGit, *deckID)
		}
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		log.Info("import finished",
			"parsed", report.Parsed,
			"created", report.Created,
			"queued", report.Queued,
			"duplicates", report.Duplicates,
			"errors", report.Errors,
		)
		return nil
	}

	proc := sync.New(sync.Config{
		Store:      db,
		Remote:     client,
		Network:    network,
		Session:    session,
		Status:     reporter,
		Failures:   db,
		MaxRetries: cfg.Sync.MaxRetries,
		Logger:     log,
	})
	go proc.RunPeriodic(ctx, cfg.Sync.Interval)
	go proc.WatchConnectivity(ctx, 30*time.Second)

	driver := review.New(client, sched, session, nil, log)
	server := web.NewServer(reporter, db, proc, capturer, driver, log)

	httpSrv := &http.Server{Addr: cfg.Web.Addr, Handler: server}
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.Web.Addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
}
