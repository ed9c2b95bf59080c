package main

import (
	"context"

	"github.com/samber/oops"
	"github.com/urfave/cli/v3"

	"github.com/g5becks/mdhtml/internal/config"
	"github.com/g5becks/mdhtml/internal/document"
	"github.com/g5becks/mdhtml/internal/manifest"
	"github.com/g5becks/mdhtml/internal/ui"
)

func newPagesCommand() *cli.Command {
	return &cli.Command{
		Name:      "pages",
		Usage:     "List the pages a build produced for a source",
		ArgsUsage: "<source>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Path to config file"},
			&cli.BoolFlag{Name: "json", Usage: "Emit JSON output"},
			&cli.IntFlag{
				Name:  "desc-length",
				Value: ui.DefaultDescriptionLength,
				Usage: "Max description length (0 = no limit)",
			},
		},
		Action: pagesAction,
	}
}

func newOutlineCommand() *cli.Command {
	return &cli.Command{
		Name:      "outline",
		Usage:     "Show the heading structure of a built page",
		ArgsUsage: "<source> <page>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Path to config file"},
			&cli.BoolFlag{Name: "json", Usage: "Emit JSON output"},
		},
		Action: outlineAction,
	}
}

func pagesAction(_ context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return oops.
			Code("INVALID_ARGS").
			Hint("Usage: mdhtml pages <source>").
			Errorf("expected 1 argument, got %d", cmd.Args().Len())
	}

	index, err := loadSourceIndex(cmd, cmd.Args().First())
	if err != nil {
		return err
	}

	return ui.RenderPages(outWriter(cmd), index.Pages, ui.PageListOptions{
		JSON:       cmd.Bool("json"),
		DescLength: cmd.Int("desc-length"),
	})
}

func outlineAction(_ context.Context, cmd *cli.Command) error {
	const requiredArgs = 2
	if cmd.Args().Len() != requiredArgs {
		return oops.
			Code("INVALID_ARGS").
			Hint("Usage: mdhtml outline <source> <page>").
			Errorf("expected %d arguments, got %d", requiredArgs, cmd.Args().Len())
	}

	sourceName := cmd.Args().Get(0)
	pagePath := cmd.Args().Get(1)

	index, err := loadSourceIndex(cmd, sourceName)
	if err != nil {
		return err
	}

	page, ok := findPage(index, pagePath)
	if !ok {
		return oops.
			Code("PAGE_NOT_FOUND").
			With("page", pagePath).
			With("source", sourceName).
			Hint("Run 'mdhtml pages " + sourceName + "' to see available pages").
			Errorf("page %q not found in source %q", pagePath, sourceName)
	}

	return ui.RenderOutline(outWriter(cmd), page, cmd.Bool("json"))
}

func loadSourceIndex(cmd *cli.Command, sourceName string) (*manifest.SourceIndex, error) {
	configPath, err := config.ResolvePath(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	site, err := manifest.Load(cfg.Output)
	if err != nil {
		return nil, err
	}

	index, ok := site.Sources[sourceName]
	if !ok {
		return nil, oops.
			Code("SOURCE_NOT_FOUND").
			With("source", sourceName).
			Hint("Run 'mdhtml sources' to see configured sources").
			Errorf("source %q has not been built", sourceName)
	}

	return index, nil
}

// findPage accepts either the output path or the markdown path of a page.
func findPage(index *manifest.SourceIndex, path string) (manifest.Page, bool) {
	if page, ok := index.Lookup(path); ok {
		return page, true
	}

	if document.IsMarkdownFile(path) {
		return index.Lookup(document.HTMLName(path))
	}

	return manifest.Page{}, false
}
