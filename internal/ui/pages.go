package ui

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/g5becks/mdhtml/internal/manifest"
)

const DefaultDescriptionLength = 60

type PageListOptions struct {
	JSON bool
	// DescLength truncates descriptions in table output; 0 disables it.
	DescLength int
}

// RenderPages writes the pages of one indexed source as a table or as JSON.
func RenderPages(w io.Writer, pages []manifest.Page, opts PageListOptions) error {
	if opts.JSON {
		if pages == nil {
			pages = []manifest.Page{}
		}

		return writeJSON(w, pages, "page list")
	}

	writer := newTable(w)
	writer.AppendHeader(table.Row{"PAGE", "TITLE", "LINES", "SIZE", "DESCRIPTION"})
	for _, page := range pages {
		writer.AppendRow(table.Row{
			page.Output,
			page.Title,
			strconv.Itoa(page.Lines),
			formatSize(page.Size),
			truncateDescription(page.Description, opts.DescLength),
		})
	}

	writer.Render()
	return nil
}

// RenderOutline writes the heading tree of a page, indented by level.
func RenderOutline(w io.Writer, page manifest.Page, asJSON bool) error {
	if asJSON {
		headings := page.Headings
		if headings == nil {
			headings = []manifest.Heading{}
		}

		return writeJSON(w, headings, "outline")
	}

	_, _ = fmt.Fprintf(w, "%s (%d lines, %s)\n\n", page.Source, page.Lines, formatSize(page.Size))
	if len(page.Headings) == 0 {
		_, _ = fmt.Fprintln(w, "No headings.")
		return nil
	}

	_, _ = fmt.Fprintln(w, "STRUCTURE:")
	for _, h := range page.Headings {
		indent := strings.Repeat("  ", max(h.Level-1, 0))
		_, _ = fmt.Fprintf(w, "%3d  %s%s\n", h.Line, indent, h.Text)
	}

	return nil
}

func truncateDescription(desc string, maxLen int) string {
	if maxLen <= 0 || len(desc) <= maxLen {
		return desc
	}

	const ellipsis = "..."
	if maxLen <= len(ellipsis) {
		return ellipsis
	}

	return desc[:maxLen-len(ellipsis)] + ellipsis
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
