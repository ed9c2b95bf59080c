package build

import (
	"context"
	"path/filepath"
	"time"

	"github.com/samber/oops"

	"github.com/g5becks/mdhtml/internal/config"
	"github.com/g5becks/mdhtml/internal/document"
	"github.com/g5becks/mdhtml/internal/fsutil"
	"github.com/g5becks/mdhtml/internal/lockfile"
	"github.com/g5becks/mdhtml/internal/manifest"
	"github.com/g5becks/mdhtml/internal/source"
)

func (b *builder) buildURL(
	ctx context.Context,
	sourceName string,
	sourceCfg config.Source,
	prev *lockfile.LockEntry,
	force bool,
) (*SourceResult, error) {
	filename := sourceCfg.Filename
	if filename == "" {
		filename = source.FilenameFromURL(sourceName, sourceCfg.URL)
	}

	outputPath := filepath.Join(b.cfg.OutputDir(sourceName, sourceCfg), filename)
	previousIndex := b.previous.Sources[sourceName]
	if !fileExists(outputPath) || previousIndex == nil {
		force = true
	}

	fetched, err := b.fetcher.Fetch(ctx, sourceCfg.URL, prev, force)
	if err != nil {
		return nil, oops.With("source", sourceName).Wrap(err)
	}

	if fetched.NotModified {
		b.log.Debug("url not modified", "source", sourceName, "url", sourceCfg.URL)

		entry := fetched.LockEntry
		entry.OptionsHash = b.optionsHash

		return &SourceResult{
			Unchanged: 1,
			UpToDate:  true,
			LockEntry: entry,
			Index:     previousIndex,
		}, nil
	}

	doc, err := document.Parse(fetched.Content)
	if err != nil {
		return nil, oops.With("source", sourceName).With("url", sourceCfg.URL).Wrap(err)
	}
	doc.Path = sourceCfg.URL

	page, err := b.renderDocument(doc, filename)
	if err != nil {
		return nil, oops.With("source", sourceName).With("url", sourceCfg.URL).Wrap(err)
	}

	if !b.opts.DryRun {
		if err := fsutil.WriteFileAtomic(outputPath, page); err != nil {
			return nil, err
		}

		b.log.Debug("rendered", "source", sourceName, "url", sourceCfg.URL, "output", outputPath)
	}

	entry := fetched.LockEntry
	entry.OptionsHash = b.optionsHash
	entry.BuiltAt = time.Now().UTC()
	entry.Record(filename, fetched.Content)

	index := &manifest.SourceIndex{
		Type:     config.SourceTypeURL,
		Location: sourceCfg.URL,
		Dir:      outputDirName(sourceName, sourceCfg),
		BuiltAt:  entry.BuiltAt,
		Pages:    []manifest.Page{manifest.NewPage(sourceCfg.URL, filename, fetched.Content, doc)},
	}

	return &SourceResult{
		Rendered:  1,
		LockEntry: entry,
		Index:     index,
	}, nil
}
