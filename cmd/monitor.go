package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/digibook/digimonitor/internal/batch"
	"github.com/digibook/digimonitor/internal/config"
	"github.com/digibook/digimonitor/internal/extract"
	"github.com/digibook/digimonitor/internal/model"
	"github.com/digibook/digimonitor/internal/platform"
	"github.com/digibook/digimonitor/internal/report"
	"github.com/digibook/digimonitor/internal/resilience"
	"github.com/digibook/digimonitor/internal/source"
	"github.com/digibook/digimonitor/internal/store"
)

// runBatch is the root command: resolve targets, dispatch to the platform
// extractor, drive the batch, render and persist the report. Per-item
// extraction failures do not fail the process; only pre-run errors do.
func runBatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	applyFlagOverrides(cmd)

	plat, err := model.ParsePlatform(flagPlatform)
	if err != nil {
		return err
	}

	format, err := report.ParseFormat(flagFormat)
	if err != nil {
		return err
	}

	targets, err := source.Resolve(args[0], plat)
	if err != nil {
		return err
	}

	session, err := extract.NewSession(extract.SessionConfig{
		ProfileDir: flagRoot,
		Headless:   cfg.Extract.Headless && !flagNoHeadless,
		Settle:     cfg.Extract.Settle(),
	})
	if err != nil {
		return err
	}
	defer session.Close()

	registry := platform.NewRegistry(
		extract.NewYouTube(session, cfg.Extract.Timeout()),
		extract.NewTwitch(session, cfg.Extract.Timeout(), cfg.Extract.ChatWindow()),
		extract.NewTikTok(session, cfg.Extract.Timeout()),
	)
	extractor, err := registry.Lookup(plat)
	if err != nil {
		return err
	}

	// Launch the browser before any target is touched; a failure here is an
	// environment error, not a batch result.
	if err := session.Start(ctx); err != nil {
		return err
	}

	retryCfg := resilience.DefaultRetryConfig()
	retryCfg.MaxAttempts = cfg.Batch.Retries + 1
	retryCfg.InitialBackoff = cfg.Batch.Backoff()

	runner := batch.NewRunner(extractor, batch.Config{
		Retry:        retryCfg,
		Concurrency:  cfg.Batch.Concurrency,
		PageInterval: cfg.Batch.PageInterval(),
	})
	rep := runner.Run(ctx, targets)

	if flagOutput != "" {
		if err := report.WriteFile(flagOutput, rep, format); err != nil {
			return err
		}
		// Keep the terminal summary even when the report goes to a file.
		if err := report.Write(os.Stdout, rep, report.FormatText); err != nil {
			return err
		}
	} else if err := report.Write(os.Stdout, rep, format); err != nil {
		return err
	}

	if !flagNoSave {
		// Persist with a fresh context: the run context may already be
		// cancelled, and a partial report is still worth keeping.
		saveReport(context.WithoutCancel(ctx), rep)
	}

	return nil
}

// applyFlagOverrides folds explicitly set flags into the loaded config, so
// flags win over both file and environment.
func applyFlagOverrides(cmd *cobra.Command) {
	if cmd.Flags().Changed("retries") {
		cfg.Batch.Retries = flagRetries
	}
	if cmd.Flags().Changed("backoff") {
		cfg.Batch.BackoffMS = int(flagBackoff.Milliseconds())
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Extract.TimeoutSecs = int(flagTimeout.Seconds())
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Batch.Concurrency = flagConcurrency
	}
}

// saveReport stores the run best-effort; a broken store never fails a batch
// that already completed.
func saveReport(ctx context.Context, rep *model.Report) {
	st, err := initStore(ctx, cfg.Store)
	if err != nil {
		zap.L().Warn("run not persisted", zap.Error(err))
		return
	}
	defer st.Close() //nolint:errcheck

	if err := st.Migrate(ctx); err != nil {
		zap.L().Warn("run not persisted", zap.Error(err))
		return
	}
	run, err := st.SaveReport(ctx, rep)
	if err != nil {
		zap.L().Warn("run not persisted", zap.Error(err))
		return
	}
	zap.L().Info("run persisted", zap.String("run_id", run.ID))
}

// initStore opens the configured run-history backend.
func initStore(ctx context.Context, sc config.StoreConfig) (store.Store, error) {
	switch sc.Driver {
	case "postgres":
		return store.NewPostgres(ctx, sc.DatabaseURL)
	case "sqlite", "":
		return store.NewSQLite(sc.Path)
	default:
		return nil, eris.Errorf("unknown store driver %q", sc.Driver)
	}
}
