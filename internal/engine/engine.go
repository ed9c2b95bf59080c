// Package engine puts the regex converter and the reference Markdown
// renderers behind one interface so callers can compare their output.
package engine

import (
	"slices"
	"strings"

	"github.com/samber/oops"

	"github.com/g5becks/mdhtml/internal/markdown"
)

const (
	Builtin    = "builtin"
	Gomarkdown = "gomarkdown"
	Goldmark   = "goldmark"
)

// Engine renders a Markdown document to an HTML fragment.
type Engine interface {
	Name() string
	Render(src []byte) (string, error)
}

// Names lists the supported engine names.
func Names() []string {
	return []string{Builtin, Gomarkdown, Goldmark}
}

// New returns the engine called name configured with opts. An empty name
// selects the builtin converter.
func New(name string, opts markdown.Options) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", Builtin:
		return &builtinEngine{opts: opts}, nil
	case Gomarkdown:
		return &gomarkdownEngine{opts: opts}, nil
	case Goldmark:
		return newGoldmarkEngine(opts), nil
	default:
		return nil, oops.
			Code("UNKNOWN_ENGINE").
			With("engine", name).
			Hint("Supported engines: " + strings.Join(Names(), ", ")).
			Errorf("unknown engine %q", name)
	}
}

// Valid reports whether name selects a known engine.
func Valid(name string) bool {
	return name == "" || slices.Contains(Names(), strings.ToLower(strings.TrimSpace(name)))
}

type builtinEngine struct {
	opts markdown.Options
}

func (e *builtinEngine) Name() string {
	return Builtin
}

func (e *builtinEngine) Render(src []byte) (string, error) {
	return markdown.ConvertBytes(src, markdown.WithOptions(e.opts)), nil
}
