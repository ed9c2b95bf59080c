package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/samber/oops"
	"github.com/urfave/cli/v3"

	"github.com/g5becks/mdhtml/internal/document"
	"github.com/g5becks/mdhtml/internal/engine"
	"github.com/g5becks/mdhtml/internal/markdown"
	"github.com/g5becks/mdhtml/internal/source"
)

func newRenderCommand() *cli.Command {
	return &cli.Command{
		Name:      "render",
		Usage:     "Convert one Markdown document to an HTML fragment",
		ArgsUsage: "[file]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Usage: "Fetch the document from a URL instead of a file"},
			&cli.StringFlag{Name: "engine", Aliases: []string{"e"}, Usage: "Renderer: builtin, gomarkdown or goldmark", Value: engine.Builtin},
			&cli.BoolFlag{Name: "no-breaks", Usage: "Keep single newlines inside paragraphs"},
			&cli.BoolFlag{Name: "no-task-lists", Usage: "Do not recognize task list items"},
			&cli.BoolFlag{Name: "no-auto-links", Usage: "Do not link bare URLs"},
			&cli.BoolFlag{Name: "strict-html", Usage: "Sanitize the output with an allow-list policy"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Write HTML to a file instead of stdout"},
		},
		Action: renderAction,
	}
}

func renderAction(ctx context.Context, cmd *cli.Command) error {
	doc, err := loadRenderInput(ctx, cmd)
	if err != nil {
		return err
	}

	opts := doc.Options(markdown.DefaultOptions())
	if cmd.Bool("no-breaks") {
		opts.Breaks = false
	}
	if cmd.Bool("no-task-lists") {
		opts.TaskLists = false
	}
	if cmd.Bool("no-auto-links") {
		opts.AutoLinks = false
	}

	eng, err := engine.New(cmd.String("engine"), opts)
	if err != nil {
		return err
	}

	newLogger(cmd).Debug("rendering", "engine", eng.Name(), "bytes", len(doc.Body), "options", fmt.Sprintf("%+v", opts))

	html, err := eng.Render(doc.Body)
	if err != nil {
		return err
	}

	if cmd.Bool("strict-html") {
		html = engine.Sanitize(html)
	}

	if outputPath := cmd.String("output"); outputPath != "" {
		if err := os.WriteFile(outputPath, []byte(html), 0o644); err != nil {
			return oops.
				Code("WRITE_FAILED").
				With("path", outputPath).
				Wrapf(err, "writing html output")
		}

		return nil
	}

	if html == "" {
		return nil
	}

	_, err = fmt.Fprintln(outWriter(cmd), html)
	return err
}

// loadRenderInput reads the document named by --url, the file argument, or
// standard input when the argument is absent or "-".
func loadRenderInput(ctx context.Context, cmd *cli.Command) (*document.Document, error) {
	if rawURL := cmd.String("url"); rawURL != "" {
		if cmd.Args().Len() > 0 {
			return nil, oops.
				Code("INVALID_ARGS").
				Hint("Pass either a file or --url, not both").
				Errorf("unexpected argument %q with --url", cmd.Args().First())
		}

		result, err := source.Fetch(ctx, rawURL, nil, true)
		if err != nil {
			return nil, err
		}

		return document.Parse(result.Content)
	}

	path := cmd.Args().First()
	if path != "" && path != "-" {
		return document.Load(path)
	}

	content, err := io.ReadAll(inReader(cmd))
	if err != nil {
		return nil, oops.
			Code("FILE_READ_ERROR").
			Wrapf(err, "reading standard input")
	}

	return document.Parse(content)
}
