package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/g5becks/mdhtml/internal/build"
)

type styles struct {
	green  *color.Color
	red    *color.Color
	yellow *color.Color
	dim    *color.Color
	bold   *color.Color
}

func newStyles() styles {
	return styles{
		green:  color.New(color.FgGreen),
		red:    color.New(color.FgRed),
		yellow: color.New(color.FgYellow),
		dim:    color.New(color.Faint),
		bold:   color.New(color.Bold),
	}
}

// BuildPrinter renders build progress events with colored output.
type BuildPrinter struct {
	w      io.Writer
	dryRun bool
	mu     sync.Mutex
	s      styles
}

// NewBuildPrinter creates a BuildPrinter that writes to stderr.
func NewBuildPrinter(dryRun bool) *BuildPrinter {
	return NewBuildPrinterWithWriter(os.Stderr, dryRun)
}

// NewBuildPrinterWithWriter creates a BuildPrinter that writes to w.
func NewBuildPrinterWithWriter(w io.Writer, dryRun bool) *BuildPrinter {
	return &BuildPrinter{
		w:      w,
		dryRun: dryRun,
		s:      newStyles(),
	}
}

// HandleEvent is the callback wired into build.Options.OnEvent.
func (p *BuildPrinter) HandleEvent(e build.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch e.Kind {
	case build.EventSourceStart:
		fmt.Fprintf(p.w, "%s building %s...\n",
			p.s.dim.Sprint("⟳"),
			p.s.bold.Sprint(e.Source),
		)

	case build.EventSourceDone:
		p.handleDone(e)
	}
}

func (p *BuildPrinter) handleDone(e build.Event) {
	if e.Err != nil {
		fmt.Fprintf(p.w, "%s %s: %s\n",
			p.s.red.Sprint("✗"),
			p.s.bold.Sprint(e.Source),
			e.Err,
		)
		return
	}

	if e.Result == nil {
		return
	}

	name := p.s.bold.Sprint(e.Source)

	if e.Result.UpToDate {
		fmt.Fprintf(p.w, "%s %s %s\n",
			p.s.dim.Sprint("—"),
			name,
			p.s.dim.Sprint("(up to date)"),
		)
		return
	}

	fmt.Fprintf(p.w, "%s %s %s\n",
		p.s.green.Sprint("✓"),
		name,
		p.s.dim.Sprint(formatCounts(e.Result.Rendered, e.Result.Unchanged, e.Result.Deleted)),
	)
}

func formatCounts(rendered int, unchanged int, deleted int) string {
	var parts []string
	if rendered > 0 {
		parts = append(parts, fmt.Sprintf("%d rendered", rendered))
	}
	if unchanged > 0 {
		parts = append(parts, fmt.Sprintf("%d unchanged", unchanged))
	}
	if deleted > 0 {
		parts = append(parts, fmt.Sprintf("%d deleted", deleted))
	}

	if len(parts) == 0 {
		return "(no files)"
	}

	return "(" + strings.Join(parts, ", ") + ")"
}

// PrintSummary renders a final summary line after a build completes.
func (p *BuildPrinter) PrintSummary(r *build.RunResult) {
	if r == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintln(p.w)

	label := "build complete"
	if p.dryRun {
		label = p.s.yellow.Sprint("dry-run complete")
	}

	parts := fmt.Sprintf("%s: %d source(s), %d rendered, %d unchanged, %d deleted",
		label,
		r.Sources,
		r.Rendered,
		r.Unchanged,
		r.Deleted,
	)

	if r.Errors > 0 {
		parts += fmt.Sprintf(", %s",
			p.s.red.Sprintf("%d failed", r.Errors),
		)
	}

	fmt.Fprintln(p.w, parts)

	if p.dryRun {
		fmt.Fprintln(p.w, p.s.dim.Sprint("no files were written or removed"))
	}
}
