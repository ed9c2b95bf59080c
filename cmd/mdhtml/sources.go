package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/g5becks/mdhtml/internal/config"
	"github.com/g5becks/mdhtml/internal/lockfile"
	"github.com/g5becks/mdhtml/internal/ui"
)

func newSourcesCommand() *cli.Command {
	return &cli.Command{
		Name:  "sources",
		Usage: "List configured sources and their last build",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Path to config file"},
			&cli.BoolFlag{Name: "json", Usage: "Emit JSON output"},
			&cli.BoolFlag{Name: "wide", Usage: "Show patterns and output directories"},
		},
		Action: sourcesAction,
	}
}

func sourcesAction(_ context.Context, cmd *cli.Command) error {
	configPath, err := config.ResolvePath(cmd.String("config"))
	if err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	lock, err := lockfile.Load(cfg.Output)
	if err != nil {
		return err
	}

	statuses := make([]ui.SourceStatus, 0, len(cfg.Sources))
	for _, name := range cfg.SourceNames() {
		sourceCfg := cfg.Sources[name]
		status := ui.SourceStatus{
			Name:      name,
			Type:      sourceCfg.Type,
			URL:       sourceCfg.URL,
			Patterns:  sourceCfg.Patterns,
			OutputDir: cfg.OutputDir(name, sourceCfg),
			Status:    "not built",
		}

		if sourceCfg.Type == config.SourceTypeDir {
			status.Path = cfg.SourceDir(sourceCfg)
		}

		if entry := lock.GetEntry(name); entry != nil {
			status.Status = "built"
			status.FileCount = len(entry.Files)
			status.BuiltAt = entry.BuiltAt
		}

		statuses = append(statuses, status)
	}

	return ui.RenderSourceList(outWriter(cmd), statuses, ui.ListOptions{
		JSON:    cmd.Bool("json"),
		Verbose: cmd.Bool("wide"),
	})
}
