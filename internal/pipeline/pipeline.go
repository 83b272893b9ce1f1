// Package pipeline runs the conversion as four strictly ordered stages:
// convert, promote indexes, flatten developer docs (then write the
// manifest), and fix links. Each stage finishes all of its writes before the
// next one reads the tree.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/wikimd/internal/converter"
	"github.com/starford/wikimd/internal/identity"
	"github.com/starford/wikimd/internal/index"
	"github.com/starford/wikimd/internal/linkfix"
	"github.com/starford/wikimd/internal/linktable"
	"github.com/starford/wikimd/internal/manifest"
	"github.com/starford/wikimd/internal/metrics"
	"github.com/starford/wikimd/internal/reorganize"
	"github.com/starford/wikimd/internal/storage"
)

// Stage names, used in logs and metrics.
const (
	StageClean    = "clean"
	StageConvert  = "convert"
	StagePromote  = "promote"
	StageFlatten  = "flatten"
	StageManifest = "manifest"
	StageLinkFix  = "linkfix"
	StageIndex    = "index"
)

// DefaultDevDocs is the subtree folded into its parent by the flatten stage.
const DefaultDevDocs = "developer_docs"

// Options wires a Pipeline.
type Options struct {
	Input      storage.Provider // export directory, listing ".html"
	Output     storage.Provider // output tree, listing ".md"
	Converter  *converter.Converter
	Identities identity.Generator

	Workers   int
	Clean     bool
	DevDocs   string
	Manifest  string // relative to the output root
	IndexPath string // SQLite index; empty disables it

	Recorder metrics.Recorder
	Logger   *slog.Logger
}

// Report summarizes one run.
type Report struct {
	Converted int
	Failed    int
	Shared    map[string][]string // destinations claimed by several pages
	Promote   reorganize.Result
	Flatten   reorganize.Result
	Manifest  int
	LinkFix   linkfix.Result
	Index     *index.SyncResult
	Table     *linktable.Table
	Duration  time.Duration
}

// Pipeline converts an export directory into an output tree.
type Pipeline struct {
	opts Options
}

// New validates opts and returns a Pipeline.
func New(opts Options) (*Pipeline, error) {
	if opts.Input == nil || opts.Output == nil {
		return nil, errors.New("pipeline: input and output storage are required")
	}
	if opts.Converter == nil {
		return nil, errors.New("pipeline: converter is required")
	}
	if opts.Identities == nil {
		gen, err := identity.New(identity.ModeRandom, identity.DefaultLength)
		if err != nil {
			return nil, err
		}
		opts.Identities = gen
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.DevDocs == "" {
		opts.DevDocs = DefaultDevDocs
	}
	if opts.Manifest == "" {
		opts.Manifest = manifest.DefaultPath
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Pipeline{opts: opts}, nil
}

// Run executes every stage in order with a fresh link table. Any error is
// fatal to the run; per-page problems are logged and counted in the report.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	rep := &Report{Table: linktable.New()}
	log := p.opts.Logger

	if p.opts.Clean {
		if err := p.stage(StageClean, func() error { return p.opts.Output.Clear() }); err != nil {
			return rep, err
		}
	}

	if err := p.stage(StageConvert, func() error { return p.convert(ctx, rep) }); err != nil {
		return rep, err
	}
	p.opts.Recorder.AddPagesConverted(rep.Converted)

	if err := p.stage(StagePromote, func() error {
		res, err := reorganize.PromoteIndexes(ctx, p.opts.Output, rep.Table, log)
		rep.Promote = res
		p.recordReorganize(StagePromote, res)
		return err
	}); err != nil {
		return rep, err
	}

	if err := p.stage(StageFlatten, func() error {
		res, err := reorganize.FlattenSubtree(ctx, p.opts.Output, rep.Table, p.opts.DevDocs, log)
		rep.Flatten = res
		p.recordReorganize(StageFlatten, res)
		return err
	}); err != nil {
		return rep, err
	}

	if err := p.stage(StageManifest, func() error {
		n, err := manifest.Write(p.opts.Output, p.opts.Manifest, rep.Table)
		rep.Manifest = n
		return err
	}); err != nil {
		return rep, err
	}

	if err := p.stage(StageLinkFix, func() error {
		res, err := linkfix.Fix(ctx, p.opts.Output, rep.Table, p.opts.Workers, log)
		rep.LinkFix = res
		p.opts.Recorder.AddLinksRewritten(res.Changed)
		return err
	}); err != nil {
		return rep, err
	}

	if p.opts.IndexPath != "" {
		if err := p.stage(StageIndex, func() error { return p.syncIndex(rep) }); err != nil {
			return rep, err
		}
	}

	rep.Duration = time.Since(start)
	p.opts.Recorder.ObserveRunDuration(rep.Duration)
	log.Info("pipeline: done",
		slog.Int("converted", rep.Converted),
		slog.Int("failed", rep.Failed),
		slog.Int("promoted", rep.Promote.Moved),
		slog.Int("flattened", rep.Flatten.Moved),
		slog.Int("documents_rewritten", rep.LinkFix.Changed),
		slog.Duration("duration", rep.Duration))
	return rep, nil
}

// stage runs fn and records its duration and outcome.
func (p *Pipeline) stage(name string, fn func() error) error {
	start := time.Now()
	p.opts.Logger.Debug("pipeline: stage started", slog.String("stage", name))
	err := fn()
	p.opts.Recorder.ObserveStageDuration(name, time.Since(start))
	switch {
	case err == nil:
		p.opts.Recorder.IncStageResult(name, metrics.ResultSuccess)
		return nil
	case errors.Is(err, context.Canceled):
		p.opts.Recorder.IncStageResult(name, metrics.ResultCanceled)
	default:
		p.opts.Recorder.IncStageResult(name, metrics.ResultFatal)
	}
	return fmt.Errorf("pipeline: %s: %w", name, err)
}

// convert is stage 1: every top-level export page is converted, registered
// and written. Unreadable input or failed writes abort the run; a page the
// converter rejects is skipped.
func (p *Pipeline) convert(ctx context.Context, rep *Report) error {
	names, err := p.opts.Input.ReadDir("")
	if err != nil {
		return fmt.Errorf("list input: %w", err)
	}
	p.opts.Logger.Info("pipeline: converting", slog.Int("pages", len(names)))

	var converted, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for _, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			raw, err := p.opts.Input.Read(name)
			if err != nil {
				return err
			}
			id, err := p.opts.Identities.New(name)
			if err != nil {
				return err
			}
			res, err := p.opts.Converter.Convert(name, id, raw)
			if err != nil {
				p.opts.Logger.Warn("convert: page skipped",
					slog.String("source", name),
					slog.String("error", err.Error()))
				failed.Add(1)
				return nil
			}
			dest := res.Page.Destination()
			if err := rep.Table.Register(name, dest, id); err != nil {
				return err
			}
			if err := p.opts.Output.Write(dest, res.Content); err != nil {
				return err
			}
			converted.Add(1)
			p.opts.Logger.Debug("convert: wrote",
				slog.String("source", name),
				slog.String("destination", dest),
				slog.String("identifier", id))
			return nil
		})
	}
	err = g.Wait()
	rep.Converted = int(converted.Load())
	rep.Failed = int(failed.Load())
	if err != nil {
		return err
	}

	rep.Shared = rep.Table.SharedDestinations()
	for dest, refs := range rep.Shared {
		p.opts.Logger.Warn("convert: pages share a destination, last write wins",
			slog.String("destination", dest),
			slog.Any("sources", refs))
	}
	return nil
}

func (p *Pipeline) recordReorganize(stage string, res reorganize.Result) {
	p.opts.Recorder.AddReorganized(stage, metrics.OutcomeMoved, res.Moved)
	p.opts.Recorder.AddReorganized(stage, metrics.OutcomeSkipped, res.Skipped)
	p.opts.Recorder.AddReorganized(stage, metrics.OutcomeUnlinked, res.Unlinked)
}

func (p *Pipeline) syncIndex(rep *Report) error {
	db, err := index.Open(p.opts.IndexPath)
	if err != nil {
		return err
	}
	defer db.Close()
	res, err := index.Sync(db, p.opts.Output, p.opts.Logger)
	if err != nil {
		return err
	}
	rep.Index = &res
	return nil
}
