package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/samber/oops"
	"github.com/urfave/cli/v3"
)

const defaultParallel = 3

var (
	//nolint:gochecknoglobals // Build metadata is injected at build time with ldflags.
	version = "dev"
	//nolint:gochecknoglobals // Build metadata is injected at build time with ldflags.
	commit = "unknown"
	//nolint:gochecknoglobals // Build metadata is injected at build time with ldflags.
	buildTime = "unknown"
)

func main() {
	if err := run(os.Args); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	return newRootCommand().Run(context.Background(), args)
}

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:    "mdhtml",
		Usage:   "Convert Markdown to HTML with a regex pipeline",
		Version: versionString(),
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Usage: "Enable debug logging on stderr"},
		},
		Commands: []*cli.Command{
			newRenderCommand(),
			newBuildCommand(),
			newSourcesCommand(),
			newPagesCommand(),
			newOutlineCommand(),
			newPatternsCommand(),
			newMatchCommand(),
			newInitCommand(),
		},
	}
}

// newLogger returns a text logger on the command's error writer. Debug
// records are only emitted with --verbose.
func newLogger(cmd *cli.Command) *slog.Logger {
	level := slog.LevelInfo
	if cmd.Bool("verbose") {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(errWriter(cmd), &slog.HandlerOptions{Level: level}))
}

func outWriter(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}

	return os.Stdout
}

func errWriter(cmd *cli.Command) io.Writer {
	if w := cmd.Root().ErrWriter; w != nil {
		return w
	}

	return os.Stderr
}

func inReader(cmd *cli.Command) io.Reader {
	if r := cmd.Root().Reader; r != nil {
		return r
	}

	return os.Stdin
}

func printError(w io.Writer, err error) {
	_, _ = fmt.Fprintln(w, err)

	if oopsErr, ok := oops.AsOops(err); ok && oopsErr.Hint() != "" {
		_, _ = fmt.Fprintf(w, "hint: %s\n", oopsErr.Hint())
	}
}

func versionString() string {
	return fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildTime)
}
