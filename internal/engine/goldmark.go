package engine

import (
	"bytes"

	"github.com/samber/oops"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/g5becks/mdhtml/internal/markdown"
)

type goldmarkEngine struct {
	md goldmark.Markdown
}

func newGoldmarkEngine(opts markdown.Options) *goldmarkEngine {
	extensions := []goldmark.Extender{extension.Strikethrough}
	if opts.Tables {
		extensions = append(extensions, extension.Table)
	}
	if opts.TaskLists {
		extensions = append(extensions, extension.TaskList)
	}
	if opts.AutoLinks {
		extensions = append(extensions, extension.Linkify)
	}

	// Raw HTML passes through, matching the builtin converter.
	rendererOptions := []renderer.Option{html.WithUnsafe()}
	if opts.Breaks {
		rendererOptions = append(rendererOptions, html.WithHardWraps())
	}

	return &goldmarkEngine{
		md: goldmark.New(
			goldmark.WithExtensions(extensions...),
			goldmark.WithRendererOptions(rendererOptions...),
		),
	}
}

func (e *goldmarkEngine) Name() string {
	return Goldmark
}

func (e *goldmarkEngine) Render(src []byte) (string, error) {
	var buf bytes.Buffer
	if err := e.md.Convert(src, &buf); err != nil {
		return "", oops.
			Code("RENDER_FAILED").
			With("engine", Goldmark).
			Wrapf(err, "rendering markdown")
	}

	return buf.String(), nil
}
