// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/starford/wikimd/internal/converter"
	"github.com/starford/wikimd/internal/identity"
	"github.com/starford/wikimd/internal/metrics"
	"github.com/starford/wikimd/internal/pipeline"
	"github.com/starford/wikimd/internal/storage"
	"github.com/starford/wikimd/internal/watcher"
)

// Run converts the configured export once, and keeps re-converting on
// changes when watch mode is enabled.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	logger := app.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
		slog.SetDefault(logger)
	}

	logger.Info("Configuration loaded",
		slog.String("input_path", cfg.Input.Path),
		slog.String("output_path", cfg.Output.Path),
		slog.Int("workers", cfg.Convert.Workers),
		slog.String("identifiers", cfg.Convert.Identifiers.Mode),
		slog.String("index_path", cfg.Index.Path),
		slog.Bool("watch", cfg.Watch.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	input, err := storage.NewFS(cfg.Input.Path, storage.HTMLExt)
	if err != nil {
		return fmt.Errorf("init input: %w", err)
	}

	// Ensure output directory exists.
	if err := os.MkdirAll(cfg.Output.Path, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	output, err := storage.NewFS(cfg.Output.Path, storage.MarkdownExt)
	if err != nil {
		return fmt.Errorf("init output: %w", err)
	}

	ids, err := identity.New(cfg.Convert.Identifiers.Mode, cfg.Convert.Identifiers.Length)
	if err != nil {
		return fmt.Errorf("init identifiers: %w", err)
	}

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var prom *metrics.PrometheusRecorder
	if cfg.Metrics.Textfile != "" {
		prom = metrics.NewPrometheusRecorder(nil)
		recorder = prom
	}

	popts := pipeline.Options{
		Input:  input,
		Output: output,
		Converter: converter.New(converter.Options{
			Layout:          cfg.Convert.Layout,
			Lang:            cfg.Convert.Lang,
			Preamble:        cfg.Convert.Preamble,
			ImageBase:       cfg.Convert.ImageBase,
			DefaultLanguage: cfg.Convert.DefaultLanguage,
		}),
		Identities: ids,
		Workers:    cfg.Convert.Workers,
		Clean:      cfg.Output.Clean,
		DevDocs:    cfg.Convert.DevDocsFolder,
		Manifest:   cfg.Manifest.Path,
		IndexPath:  cfg.Index.Path,
		Recorder:   recorder,
		Logger:     logger,
	}

	convert := func(ctx context.Context, popts pipeline.Options) error {
		p, err := pipeline.New(popts)
		if err != nil {
			return err
		}
		rep, err := p.Run(ctx)
		if prom != nil {
			if werr := prom.WriteTextfile(cfg.Metrics.Textfile); werr != nil {
				logger.Warn("metrics textfile not written", slog.String("error", werr.Error()))
			}
		}
		if err != nil {
			return err
		}
		if rep.Failed > 0 || len(rep.Shared) > 0 || rep.Promote.Skipped+rep.Flatten.Skipped > 0 {
			logger.Warn("Conversion finished with skipped pages",
				slog.Int("failed", rep.Failed),
				slog.Int("shared_destinations", len(rep.Shared)),
				slog.Int("promote_skipped", rep.Promote.Skipped),
				slog.Int("flatten_skipped", rep.Flatten.Skipped))
		}
		return nil
	}

	if err := convert(ctx, popts); err != nil {
		logger.Error("Conversion failed", slog.String("error", err.Error()))
		return err
	}

	if !cfg.Watch.Enabled {
		return nil
	}

	// Re-runs always start from an empty output tree.
	popts.Clean = true

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return watcher.Watch(ctx, cfg.Input.Path, cfg.Watch.Debounce, logger, func(ctx context.Context) error {
		return convert(ctx, popts)
	})
}
