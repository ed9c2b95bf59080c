package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/samber/oops"
	"github.com/urfave/cli/v3"

	"github.com/g5becks/mdhtml/internal/markdown"
	"github.com/g5becks/mdhtml/internal/ui"
)

func newPatternsCommand() *cli.Command {
	return &cli.Command{
		Name:  "patterns",
		Usage: "List the named Markdown patterns",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Emit JSON output"},
			&cli.BoolFlag{Name: "wide", Usage: "Include the regular expressions"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			return ui.RenderPatterns(outWriter(cmd), markdown.Patterns(), ui.ListOptions{
				JSON:    cmd.Bool("json"),
				Verbose: cmd.Bool("wide"),
			})
		},
	}
}

func newMatchCommand() *cli.Command {
	return &cli.Command{
		Name:      "match",
		Usage:     "Test text against a named pattern or a delimiter pattern",
		ArgsUsage: "<pattern> [file]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "delimiter", Aliases: []string{"d"}, Usage: "Match text wrapped in this delimiter instead of a named pattern"},
			&cli.StringFlag{Name: "flags", Usage: "Flags for --delimiter (i, m, s; g, u, y are accepted)", Value: "gim"},
			&cli.BoolFlag{Name: "json", Usage: "Emit JSON output"},
		},
		Action: matchAction,
	}
}

type matchOutput struct {
	Pattern string     `json:"pattern"`
	Regexp  string     `json:"regexp"`
	Matched bool       `json:"matched"`
	Matches [][]string `json:"matches"`
}

func matchAction(_ context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()

	var (
		re    *regexp.Regexp
		label string
	)

	if delimiter := cmd.String("delimiter"); delimiter != "" {
		compiled, err := markdown.CreateDelimiterPattern(delimiter, cmd.String("flags"))
		if err != nil {
			return err
		}

		re = compiled
		label = "delimiter " + delimiter
	} else {
		if len(args) == 0 {
			return oops.
				Code("INVALID_ARGS").
				Hint("Usage: mdhtml match <pattern> [file]; run 'mdhtml patterns' for names").
				Errorf("missing pattern name")
		}

		pattern, ok := markdown.Lookup(args[0])
		if !ok {
			return oops.
				Code("UNKNOWN_PATTERN").
				With("pattern", args[0]).
				Hint("Run 'mdhtml patterns' to see available names").
				Errorf("unknown pattern %q", args[0])
		}

		re = pattern.Regexp
		label = pattern.Name
		args = args[1:]
	}

	text, err := readMatchInput(cmd, args)
	if err != nil {
		return err
	}

	matches := markdown.ExtractMatches(text, re)
	if matches == nil {
		matches = [][]string{}
	}
	out := matchOutput{
		Pattern: label,
		Regexp:  re.String(),
		Matched: len(matches) > 0,
		Matches: matches,
	}

	if cmd.String("delimiter") == "" {
		out.Matched = markdown.IsMarkdownPattern(text, label)
	}

	w := outWriter(cmd)
	if cmd.Bool("json") {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(out); err != nil {
			return oops.
				Code("JSON_ERROR").
				Wrapf(err, "encoding matches")
		}

		return nil
	}

	fmt.Fprintf(w, "%s: matched=%t (%d matches)\n", out.Pattern, out.Matched, len(out.Matches))
	for i, m := range out.Matches {
		fmt.Fprintf(w, "%d: %q", i+1, m[0])
		if len(m) > 1 {
			fmt.Fprintf(w, " groups=%q", m[1:])
		}
		fmt.Fprintln(w)
	}

	return nil
}

func readMatchInput(cmd *cli.Command, args []string) (string, error) {
	if len(args) > 1 {
		return "", oops.
			Code("INVALID_ARGS").
			Errorf("expected at most one file, got %d", len(args))
	}

	var (
		content []byte
		err     error
	)

	if len(args) == 0 || args[0] == "-" {
		content, err = io.ReadAll(inReader(cmd))
	} else {
		content, err = os.ReadFile(args[0])
	}

	if err != nil {
		return "", oops.
			Code("FILE_READ_ERROR").
			Wrapf(err, "reading match input")
	}

	return string(content), nil
}
