package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/g5becks/mdhtml/internal/markdown"
)

type ListOptions struct {
	JSON    bool
	Verbose bool
}

type patternRow struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Expr        string `json:"regexp"`
}

// RenderPatterns writes the pattern table to w as a table or as JSON.
func RenderPatterns(w io.Writer, patterns []markdown.Pattern, opts ListOptions) error {
	rows := make([]patternRow, 0, len(patterns))
	for _, p := range patterns {
		rows = append(rows, patternRow{
			Name:        p.Name,
			Description: p.Description,
			Expr:        p.Regexp.String(),
		})
	}

	if opts.JSON {
		return writeJSON(w, rows, "pattern list")
	}

	writer := newTable(w)
	if opts.Verbose {
		writer.AppendHeader(table.Row{"NAME", "REGEXP", "DESCRIPTION"})
	} else {
		writer.AppendHeader(table.Row{"NAME", "DESCRIPTION"})
	}

	for _, row := range rows {
		if opts.Verbose {
			writer.AppendRow(table.Row{row.Name, row.Expr, row.Description})
			continue
		}

		writer.AppendRow(table.Row{row.Name, row.Description})
	}

	writer.Render()
	return nil
}

type SourceStatus struct {
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Path      string    `json:"path,omitempty"`
	URL       string    `json:"url,omitempty"`
	Patterns  []string  `json:"patterns,omitempty"`
	OutputDir string    `json:"output_dir"`
	Status    string    `json:"status"`
	FileCount int       `json:"file_count,omitempty"`
	BuiltAt   time.Time `json:"built_at,omitzero"`
}

// RenderSourceList writes the configured sources to w as a table or as JSON.
func RenderSourceList(w io.Writer, sources []SourceStatus, opts ListOptions) error {
	if opts.JSON {
		return writeJSON(w, sources, "source list")
	}

	writer := newTable(w)
	if opts.Verbose {
		writer.AppendHeader(table.Row{"SOURCE", "TYPE", "LOCATION", "STATUS", "PATTERNS", "OUTPUT DIR"})
	} else {
		writer.AppendHeader(table.Row{"SOURCE", "TYPE", "LOCATION", "STATUS"})
	}

	for _, source := range sources {
		location := renderLocation(source)
		status := renderStatus(source)

		if opts.Verbose {
			writer.AppendRow(table.Row{
				source.Name,
				source.Type,
				location,
				status,
				strings.Join(source.Patterns, ", "),
				source.OutputDir,
			})
			continue
		}

		writer.AppendRow(table.Row{
			source.Name,
			source.Type,
			location,
			status,
		})
	}

	writer.Render()
	return nil
}

func newTable(w io.Writer) table.Writer {
	writer := table.NewWriter()
	writer.SetOutputMirror(w)
	writer.SetStyle(table.StyleRounded)

	return writer
}

func writeJSON(w io.Writer, v any, what string) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encode %s json: %w", what, err)
	}

	return nil
}

func renderLocation(source SourceStatus) string {
	if source.Type == "url" {
		return source.URL
	}

	return source.Path
}

func renderStatus(source SourceStatus) string {
	if source.FileCount > 0 {
		return fmt.Sprintf("%s (%d files)", source.Status, source.FileCount)
	}

	return source.Status
}
