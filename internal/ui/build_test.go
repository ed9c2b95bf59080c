package ui_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/g5becks/mdhtml/internal/build"
	"github.com/g5becks/mdhtml/internal/ui"
)

var errMock = errors.New("mock error")

func newTestPrinter(buf *bytes.Buffer, dryRun bool) *ui.BuildPrinter {
	return ui.NewBuildPrinterWithWriter(buf, dryRun)
}

func TestHandleEventStart(t *testing.T) {
	var buf bytes.Buffer
	p := newTestPrinter(&buf, false)

	p.HandleEvent(build.Event{
		Kind:   build.EventSourceStart,
		Source: "docs",
	})

	out := buf.String()
	if !strings.Contains(out, "docs") {
		t.Errorf("start event output missing source name, got: %q", out)
	}
	if !strings.Contains(out, "building") {
		t.Errorf("start event output missing 'building', got: %q", out)
	}
}

func TestHandleEventDoneSuccess(t *testing.T) {
	var buf bytes.Buffer
	p := newTestPrinter(&buf, false)

	p.HandleEvent(build.Event{
		Kind:   build.EventSourceDone,
		Source: "docs",
		Result: &build.SourceResult{Rendered: 5, Unchanged: 3, Deleted: 2},
	})

	out := buf.String()
	for _, want := range []string{"docs", "5 rendered", "3 unchanged", "2 deleted"} {
		if !strings.Contains(out, want) {
			t.Errorf("done event output missing %q, got: %q", want, out)
		}
	}
}

func TestHandleEventDoneUpToDate(t *testing.T) {
	var buf bytes.Buffer
	p := newTestPrinter(&buf, false)

	p.HandleEvent(build.Event{
		Kind:   build.EventSourceDone,
		Source: "docs",
		Result: &build.SourceResult{Unchanged: 4, UpToDate: true},
	})

	out := buf.String()
	if !strings.Contains(out, "up to date") {
		t.Errorf("up-to-date event output missing 'up to date', got: %q", out)
	}
}

func TestHandleEventDoneError(t *testing.T) {
	var buf bytes.Buffer
	p := newTestPrinter(&buf, false)

	p.HandleEvent(build.Event{
		Kind:   build.EventSourceDone,
		Source: "docs",
		Err:    errMock,
	})

	out := buf.String()
	if !strings.Contains(out, "docs") {
		t.Errorf("error event output missing source name, got: %q", out)
	}
	if !strings.Contains(out, "mock error") {
		t.Errorf("error event output missing error text, got: %q", out)
	}
}

func TestFormatCounts(t *testing.T) {
	tests := []struct {
		rendered, unchanged, deleted int
		want                         string
	}{
		{0, 0, 0, "(no files)"},
		{2, 0, 0, "(2 rendered)"},
		{0, 1, 1, "(1 unchanged, 1 deleted)"},
	}

	for _, tt := range tests {
		if got := ui.FormatCounts(tt.rendered, tt.unchanged, tt.deleted); got != tt.want {
			t.Errorf("FormatCounts(%d, %d, %d) = %q, want %q", tt.rendered, tt.unchanged, tt.deleted, got, tt.want)
		}
	}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	p := newTestPrinter(&buf, false)

	p.PrintSummary(&build.RunResult{
		Sources:   3,
		Rendered:  10,
		Unchanged: 4,
		Deleted:   1,
	})

	out := buf.String()
	if !strings.Contains(out, "build complete") {
		t.Errorf("summary missing 'build complete', got: %q", out)
	}
	if !strings.Contains(out, "3 source(s), 10 rendered") {
		t.Errorf("summary missing counts, got: %q", out)
	}
}

func TestPrintSummaryDryRun(t *testing.T) {
	var buf bytes.Buffer
	p := newTestPrinter(&buf, true)

	p.PrintSummary(&build.RunResult{Sources: 2, Rendered: 5})

	out := buf.String()
	if !strings.Contains(out, "dry-run complete") {
		t.Errorf("dry-run summary missing label, got: %q", out)
	}
	if !strings.Contains(out, "no files were written or removed") {
		t.Errorf("dry-run summary missing disclaimer, got: %q", out)
	}
}

func TestPrintSummaryWithErrors(t *testing.T) {
	var buf bytes.Buffer
	p := newTestPrinter(&buf, false)

	p.PrintSummary(&build.RunResult{Sources: 3, Errors: 2})

	if out := buf.String(); !strings.Contains(out, "2 failed") {
		t.Errorf("summary missing error count, got: %q", out)
	}
}

func TestPrintSummaryNilResult(t *testing.T) {
	var buf bytes.Buffer
	p := newTestPrinter(&buf, false)

	p.PrintSummary(nil)

	if buf.Len() != 0 {
		t.Errorf("expected no output for nil result, got: %q", buf.String())
	}
}
