// Package build renders configured markdown sources into an HTML site.
package build

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	stdsync "sync"
	"time"

	"github.com/samber/oops"
	"golang.org/x/sync/errgroup"

	"github.com/g5becks/mdhtml/internal/config"
	"github.com/g5becks/mdhtml/internal/engine"
	"github.com/g5becks/mdhtml/internal/lockfile"
	"github.com/g5becks/mdhtml/internal/manifest"
	"github.com/g5becks/mdhtml/internal/markdown"
	"github.com/g5becks/mdhtml/internal/source"
)

const defaultMaxParallel = 3

type EventKind int

const (
	EventSourceStart EventKind = iota
	EventSourceDone
)

// Event reports progress for a single source.
type Event struct {
	Kind   EventKind
	Source string
	Result *SourceResult
	Err    error
}

type Options struct {
	SourceNames []string
	Force       bool
	DryRun      bool
	Clean       bool
	MaxParallel int
	// Engine names the renderer; empty selects the builtin converter.
	Engine string
	// StrictHTML passes rendered fragments through engine.Sanitize.
	StrictHTML bool
	OnEvent    func(Event)
	Logger     *slog.Logger
	// Fetcher overrides the HTTP fetcher for url sources.
	Fetcher *source.Fetcher
	// Debounce and AfterRun are used by Watch only.
	Debounce time.Duration
	AfterRun func(*RunResult, error)
}

// SourceResult reports what one source produced.
type SourceResult struct {
	Rendered  int
	Unchanged int
	Deleted   int
	UpToDate  bool
	LockEntry *lockfile.LockEntry
	// Index lists every page the source produced, rendered or unchanged.
	Index *manifest.SourceIndex
}

// RunResult aggregates the outcome of a build.
type RunResult struct {
	Sources   int
	Rendered  int
	Unchanged int
	Deleted   int
	UpToDate  int
	Errors    int
}

type runState struct {
	result *SourceResult
	err    error
}

// builder holds what every source build shares within a single Run.
type builder struct {
	cfg         *config.Config
	opts        Options
	page        *pageRenderer
	optionsHash string
	fetcher     *source.Fetcher
	previous    *manifest.Manifest
	log         *slog.Logger
}

func Run(ctx context.Context, cfg *config.Config, opts Options) (*RunResult, error) {
	if cfg == nil {
		return nil, oops.
			Code("CONFIG_INVALID").
			Errorf("config is required")
	}

	if _, err := engine.New(opts.Engine, markdown.DefaultOptions()); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	outputDir := resolveOutputRoot(cfg)
	if opts.Clean && !opts.DryRun {
		logger.Debug("cleaning output directory", "path", outputDir)
		if err := os.RemoveAll(outputDir); err != nil {
			return nil, oops.
				Code("WRITE_FAILED").
				With("path", outputDir).
				Wrapf(err, "cleaning output directory")
		}
	}

	lock, err := lockfile.Load(outputDir)
	if err != nil {
		return nil, err
	}

	site, err := manifest.LoadOrNew(outputDir)
	if err != nil {
		return nil, err
	}

	sourceNames, err := resolveSourceNames(cfg.Sources, opts.SourceNames)
	if err != nil {
		return nil, err
	}

	page, err := newPageRenderer(cfg.Template)
	if err != nil {
		return nil, err
	}

	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = source.NewFetcher()
	}

	b := &builder{
		cfg:         cfg,
		opts:        opts,
		page:        page,
		optionsHash: optionsHash(cfg.Options.Markdown(), opts, page),
		fetcher:     fetcher,
		previous:    site,
		log:         logger,
	}

	maxParallel := opts.MaxParallel
	if maxParallel <= 0 {
		maxParallel = defaultMaxParallel
	}

	results := make(map[string]runState, len(sourceNames))
	var resultsMu stdsync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(maxParallel)

	for _, sourceName := range sourceNames {
		sourceCfg := cfg.Sources[sourceName]
		previousLock := lock.GetEntry(sourceName)

		group.Go(func() error {
			emit(opts.OnEvent, Event{Kind: EventSourceStart, Source: sourceName})

			state := runState{}
			state.result, state.err = b.buildSource(groupCtx, sourceName, sourceCfg, previousLock)
			if state.err != nil {
				logger.Debug("source failed", "source", sourceName, "error", state.err)
			}

			resultsMu.Lock()
			results[sourceName] = state
			resultsMu.Unlock()

			emit(opts.OnEvent, Event{
				Kind:   EventSourceDone,
				Source: sourceName,
				Result: state.result,
				Err:    state.err,
			})
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, oops.Wrapf(err, "waiting for source build workers")
	}

	runResult := &RunResult{Sources: len(sourceNames)}
	for _, sourceName := range sourceNames {
		state := results[sourceName]
		if state.err != nil {
			runResult.Errors++
			continue
		}

		if state.result == nil {
			continue
		}

		runResult.Rendered += state.result.Rendered
		runResult.Unchanged += state.result.Unchanged
		runResult.Deleted += state.result.Deleted
		if state.result.UpToDate {
			runResult.UpToDate++
		}

		if !opts.DryRun && state.result.LockEntry != nil {
			lock.SetEntry(sourceName, state.result.LockEntry)
		}
	}

	if !opts.DryRun {
		if dropped := lock.Prune(cfg.HasSource); len(dropped) > 0 {
			logger.Debug("dropped unconfigured sources from lock", "sources", dropped)
		}

		if err := lock.Save(outputDir); err != nil {
			return runResult, err
		}

		if err := saveManifest(outputDir, cfg, site, sourceNames, results); err != nil {
			return runResult, err
		}
	}

	if runResult.Errors > 0 {
		return runResult, oops.
			Code("BUILD_FAILED").
			With("failed_sources", runResult.Errors).
			Errorf("%d source(s) failed during build", runResult.Errors)
	}

	return runResult, nil
}

// saveManifest writes the site index. Sources that failed keep their previous
// entry; sources no longer configured are dropped.
func saveManifest(
	outputDir string,
	cfg *config.Config,
	previous *manifest.Manifest,
	sourceNames []string,
	results map[string]runState,
) error {
	site := manifest.New()
	for name, index := range previous.Sources {
		if cfg.HasSource(name) {
			site.Sources[name] = index
		}
	}

	for _, sourceName := range sourceNames {
		state := results[sourceName]
		if state.err != nil || state.result == nil || state.result.Index == nil {
			continue
		}

		site.SetSource(sourceName, state.result.Index)
	}

	return site.Save(outputDir)
}

func outputDirName(sourceName string, sourceCfg config.Source) string {
	if sourceCfg.Out != "" {
		return sourceCfg.Out
	}

	return sourceName
}

func (b *builder) buildSource(
	ctx context.Context,
	sourceName string,
	sourceCfg config.Source,
	prev *lockfile.LockEntry,
) (*SourceResult, error) {
	force := b.opts.Force
	if prev != nil && !prev.Matches(b.optionsHash) {
		b.log.Debug("render options changed, rebuilding", "source", sourceName)
		force = true
	}

	switch sourceCfg.Type {
	case config.SourceTypeDir:
		return b.buildDir(ctx, sourceName, sourceCfg, prev, force)
	case config.SourceTypeURL:
		return b.buildURL(ctx, sourceName, sourceCfg, prev, force)
	default:
		return nil, oops.
			Code("UNKNOWN_SOURCE_TYPE").
			With("source", sourceName).
			With("type", sourceCfg.Type).
			Hint("Supported types: dir, url").
			Errorf("unknown source type %q for source %q", sourceCfg.Type, sourceName)
	}
}

func emit(onEvent func(Event), e Event) {
	if onEvent != nil {
		onEvent(e)
	}
}

func resolveSourceNames(
	sourceConfigs map[string]config.Source,
	requestedNames []string,
) ([]string, error) {
	if len(requestedNames) == 0 {
		sourceNames := make([]string, 0, len(sourceConfigs))
		for sourceName := range sourceConfigs {
			sourceNames = append(sourceNames, sourceName)
		}

		slices.Sort(sourceNames)
		return sourceNames, nil
	}

	sourceNames := make([]string, 0, len(requestedNames))
	seen := make(map[string]struct{}, len(requestedNames))

	for _, sourceName := range requestedNames {
		if _, ok := sourceConfigs[sourceName]; !ok {
			return nil, oops.
				Code("SOURCE_NOT_FOUND").
				With("source", sourceName).
				Hint("Check the [sources] tables in mdhtml.toml").
				Errorf("source %q not found in config", sourceName)
		}

		if _, exists := seen[sourceName]; exists {
			continue
		}

		seen[sourceName] = struct{}{}
		sourceNames = append(sourceNames, sourceName)
	}

	return sourceNames, nil
}

func resolveOutputRoot(cfg *config.Config) string {
	if filepath.IsAbs(cfg.Output) {
		return cfg.Output
	}

	return filepath.Join(cfg.ConfigDir, cfg.Output)
}

// optionsHash fingerprints everything besides input content that shapes the
// output, so a change forces a full rebuild.
func optionsHash(mdOpts markdown.Options, opts Options, page *pageRenderer) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%+v|%s|%t|%s", mdOpts, opts.Engine, opts.StrictHTML, page.fingerprint))

	return hex.EncodeToString(sum[:])
}
