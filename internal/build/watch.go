package build

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/oops"

	"github.com/g5becks/mdhtml/internal/config"
	"github.com/g5becks/mdhtml/internal/fsutil"
	"github.com/g5becks/mdhtml/internal/lockfile"
)

const defaultDebounce = 300 * time.Millisecond

// Watch builds once, then rebuilds whenever files under a dir source change.
// Bursts of events within opts.Debounce collapse into a single build. Watch
// returns nil when ctx is cancelled.
func Watch(ctx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return oops.
			Code("CONFIG_INVALID").
			Errorf("config is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return oops.
			Code("WATCH_FAILED").
			Wrapf(err, "creating file watcher")
	}
	defer watcher.Close()

	outputDir := resolveOutputRoot(cfg)
	sourceNames, err := resolveSourceNames(cfg.Sources, opts.SourceNames)
	if err != nil {
		return err
	}

	for _, sourceName := range sourceNames {
		sourceCfg := cfg.Sources[sourceName]
		if sourceCfg.Type != config.SourceTypeDir {
			continue
		}

		if err := addRecursive(watcher, cfg.SourceDir(sourceCfg), outputDir); err != nil {
			return oops.With("source", sourceName).Wrap(err)
		}
	}

	if len(watcher.WatchList()) == 0 {
		return oops.
			Code("WATCH_FAILED").
			Hint("Watch mode needs at least one dir source").
			Errorf("no directories to watch")
	}

	rebuild := func(runOpts Options) {
		result, runErr := Run(ctx, cfg, runOpts)
		if opts.AfterRun != nil {
			opts.AfterRun(result, runErr)
			return
		}

		if runErr != nil {
			logger.Error("build failed", "error", runErr)
		}
	}

	rebuild(opts)

	// Later builds are incremental and must not wipe the output.
	incremental := opts
	incremental.Clean = false

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !relevantEvent(event, outputDir) {
				continue
			}

			if event.Has(fsnotify.Create) {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					if addErr := addRecursive(watcher, event.Name, outputDir); addErr != nil {
						logger.Warn("watching new directory", "path", event.Name, "error", addErr)
					}
				}
			}

			logger.Debug("change detected", "path", event.Name, "op", event.Op.String())

			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			rebuild(incremental)

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			logger.Error("watcher error", "error", watchErr)
		}
	}
}

// addRecursive watches root and every directory below it except skipDir.
func addRecursive(watcher *fsnotify.Watcher, root string, skipDir string) error {
	cleanSkip := filepath.Clean(skipDir)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if !d.IsDir() {
			return nil
		}

		if filepath.Clean(path) == cleanSkip {
			return filepath.SkipDir
		}

		return watcher.Add(path)
	})
	if err != nil {
		return oops.
			Code("WATCH_FAILED").
			With("path", root).
			Wrapf(err, "watching source directory")
	}

	return nil
}

func relevantEvent(event fsnotify.Event, outputDir string) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}

	if isWithin(event.Name, outputDir) {
		return false
	}

	return !fsutil.IsTempFile(event.Name) && filepath.Base(event.Name) != lockfile.FileName
}

func isWithin(path string, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}

	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
