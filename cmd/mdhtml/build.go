package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/urfave/cli/v3"

	"github.com/g5becks/mdhtml/internal/build"
	"github.com/g5becks/mdhtml/internal/config"
	"github.com/g5becks/mdhtml/internal/engine"
	"github.com/g5becks/mdhtml/internal/ui"
)

func newBuildCommand() *cli.Command {
	return &cli.Command{
		Name:      "build",
		Usage:     "Render configured sources into an HTML site",
		ArgsUsage: "[source-name...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Path to config file"},
			&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "Re-render every document and skip freshness checks"},
			&cli.BoolFlag{Name: "clean", Usage: "Delete output directory before building"},
			&cli.BoolFlag{Name: "dry-run", Usage: "Show planned changes without writing files"},
			&cli.IntFlag{Name: "parallel", Aliases: []string{"p"}, Usage: "Maximum parallel source builds", Value: defaultParallel},
			&cli.StringFlag{Name: "engine", Aliases: []string{"e"}, Usage: "Renderer: builtin, gomarkdown or goldmark", Value: engine.Builtin},
			&cli.BoolFlag{Name: "strict-html", Usage: "Sanitize rendered documents with an allow-list policy"},
			&cli.BoolFlag{Name: "watch", Aliases: []string{"w"}, Usage: "Rebuild when files in dir sources change"},
		},
		Action: buildAction,
	}
}

func buildAction(ctx context.Context, cmd *cli.Command) error {
	configPath, err := config.ResolvePath(cmd.String("config"))
	if err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	dryRun := cmd.Bool("dry-run")
	printer := ui.NewBuildPrinterWithWriter(errWriter(cmd), dryRun)
	logger := newLogger(cmd)
	logger.Debug("loaded config", "path", configPath, "output", cfg.Output, "sources", len(cfg.Sources))

	opts := build.Options{
		SourceNames: cmd.Args().Slice(),
		Force:       cmd.Bool("force"),
		DryRun:      dryRun,
		Clean:       cmd.Bool("clean"),
		MaxParallel: cmd.Int("parallel"),
		Engine:      cmd.String("engine"),
		StrictHTML:  cmd.Bool("strict-html"),
		OnEvent:     printer.HandleEvent,
		Logger:      logger,
	}

	if cmd.Bool("watch") {
		watchCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
		defer stop()

		opts.AfterRun = func(result *build.RunResult, runErr error) {
			printer.PrintSummary(result)
			if runErr != nil {
				printError(errWriter(cmd), runErr)
			}
		}

		logger.Info("watching for changes, press Ctrl+C to stop")
		return build.Watch(watchCtx, cfg, opts)
	}

	result, err := build.Run(ctx, cfg, opts)
	printer.PrintSummary(result)

	return err
}
