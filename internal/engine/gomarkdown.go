package engine

import (
	"slices"

	gomd "github.com/gomarkdown/markdown"
	gmhtml "github.com/gomarkdown/markdown/html"
	gmparser "github.com/gomarkdown/markdown/parser"

	"github.com/g5becks/mdhtml/internal/markdown"
)

// gomarkdownEngine has no task list extension; TaskLists is ignored.
type gomarkdownEngine struct {
	opts markdown.Options
}

func (e *gomarkdownEngine) Name() string {
	return Gomarkdown
}

func (e *gomarkdownEngine) Render(src []byte) (string, error) {
	extensions := gmparser.CommonExtensions
	if !e.opts.Tables {
		extensions &^= gmparser.Tables
	}
	if !e.opts.AutoLinks {
		extensions &^= gmparser.Autolink
	}
	if e.opts.Breaks {
		extensions |= gmparser.HardLineBreak
	}

	// Parsers carry state and must not be reused across documents.
	mdParser := gmparser.NewWithExtensions(extensions)
	renderer := gmhtml.NewRenderer(gmhtml.RendererOptions{
		Flags: gmhtml.CommonFlags | gmhtml.HrefTargetBlank,
	})

	return string(gomd.ToHTML(slices.Clone(src), mdParser, renderer)), nil
}
