package build

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/samber/oops"

	"github.com/g5becks/mdhtml/internal/config"
	"github.com/g5becks/mdhtml/internal/document"
	"github.com/g5becks/mdhtml/internal/fsutil"
	"github.com/g5becks/mdhtml/internal/lockfile"
	"github.com/g5becks/mdhtml/internal/manifest"
)

func (b *builder) buildDir(
	ctx context.Context,
	sourceName string,
	sourceCfg config.Source,
	prev *lockfile.LockEntry,
	force bool,
) (*SourceResult, error) {
	rootDir := b.cfg.SourceDir(sourceCfg)
	destDir := b.cfg.OutputDir(sourceName, sourceCfg)

	files, err := listSourceFiles(rootDir, sourceCfg.Patterns, sourceCfg.Exclude)
	if err != nil {
		return nil, oops.With("source", sourceName).Wrap(err)
	}

	b.log.Debug("selected files", "source", sourceName, "root", rootDir, "count", len(files))

	result := &SourceResult{}
	entry := lockfile.NewEntry(config.SourceTypeDir, b.optionsHash)
	index := &manifest.SourceIndex{
		Type:     config.SourceTypeDir,
		Location: rootDir,
		Dir:      outputDirName(sourceName, sourceCfg),
		BuiltAt:  entry.BuiltAt,
	}

	for _, relPath := range files {
		if err := ctx.Err(); err != nil {
			return nil, oops.Wrapf(err, "building source %q", sourceName)
		}

		inputPath := filepath.Join(rootDir, filepath.FromSlash(relPath))
		content, err := os.ReadFile(inputPath)
		if err != nil {
			return nil, oops.
				Code("FILE_READ_ERROR").
				With("source", sourceName).
				With("path", inputPath).
				Wrapf(err, "reading markdown file")
		}

		hash := entry.Record(relPath, content)
		outputRel := document.HTMLName(relPath)
		outputPath := filepath.Join(destDir, filepath.FromSlash(outputRel))

		doc, err := document.Parse(content)
		if err != nil {
			return nil, oops.
				With("source", sourceName).
				With("path", inputPath).
				Wrap(err)
		}
		doc.Path = inputPath
		index.Pages = append(index.Pages, manifest.NewPage(relPath, outputRel, content, doc))

		if !force && prev.Unchanged(relPath, hash) && fileExists(outputPath) {
			result.Unchanged++
			continue
		}

		page, err := b.renderDocument(doc, relPath)
		if err != nil {
			return nil, oops.With("source", sourceName).With("path", inputPath).Wrap(err)
		}

		result.Rendered++
		if b.opts.DryRun {
			b.log.Debug("would render", "source", sourceName, "path", relPath)
			continue
		}

		if err := fsutil.WriteFileAtomic(outputPath, page); err != nil {
			return nil, err
		}

		b.log.Debug("rendered", "source", sourceName, "path", relPath, "output", outputPath)
	}

	result.Deleted = b.removeStale(sourceName, destDir, prev, entry)
	result.UpToDate = result.Rendered == 0 && result.Deleted == 0
	result.LockEntry = entry
	result.Index = index

	return result, nil
}

// removeStale deletes outputs whose inputs disappeared since the last build.
func (b *builder) removeStale(sourceName, destDir string, prev, current *lockfile.LockEntry) int {
	removed := prev.Removed(current)
	for _, relPath := range removed {
		if b.opts.DryRun {
			continue
		}

		outputPath := filepath.Join(destDir, filepath.FromSlash(document.HTMLName(relPath)))
		if err := os.Remove(outputPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			b.log.Warn("removing stale output", "source", sourceName, "path", outputPath, "error", err)
			continue
		}

		cleanupEmptyDirs(filepath.Dir(outputPath), destDir)
	}

	return len(removed)
}

// listSourceFiles returns slash-separated paths under root that match one of
// patterns and none of exclude, in sorted order.
func listSourceFiles(root string, patterns []string, exclude []string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		relPath := filepath.ToSlash(rel)
		included, err := shouldIncludeFile(relPath, patterns, exclude)
		if err != nil {
			return err
		}

		if included {
			files = append(files, relPath)
		}

		return nil
	})
	if err != nil {
		return nil, oops.
			Code("SOURCE_READ_ERROR").
			With("path", root).
			Hint("Check that the source path exists and is readable").
			Wrapf(err, "listing markdown files")
	}

	slices.Sort(files)
	return files, nil
}

func shouldIncludeFile(relativePath string, patterns []string, exclude []string) (bool, error) {
	included, err := matchesAny(patterns, relativePath)
	if err != nil || !included {
		return false, err
	}

	excluded, err := matchesAny(exclude, relativePath)
	if err != nil {
		return false, err
	}

	return !excluded, nil
}

func matchesAny(patterns []string, candidate string) (bool, error) {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, candidate)
		if err != nil {
			return false, oops.
				Code("CONFIG_INVALID").
				With("pattern", pattern).
				With("path", candidate).
				Wrapf(err, "invalid glob pattern")
		}

		if matched {
			return true, nil
		}
	}

	return false, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func cleanupEmptyDirs(startDir string, stopDir string) {
	current := startDir
	cleanStop := filepath.Clean(stopDir)

	for current != cleanStop && current != "." && current != string(filepath.Separator) {
		if err := os.Remove(current); err != nil {
			return
		}

		current = filepath.Dir(current)
	}
}
