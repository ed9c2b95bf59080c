package build

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"html/template"
	"os"
	"path"
	"strings"

	"github.com/samber/oops"

	"github.com/g5becks/mdhtml/internal/document"
	"github.com/g5becks/mdhtml/internal/engine"
)

const defaultTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
{{- with .Description}}
<meta name="description" content="{{.}}">
{{- end}}
</head>
<body>
<article>
{{.Content}}
</article>
</body>
</html>
`

// Page is the data passed to the page template.
type Page struct {
	Title       string
	Description string
	Source      string
	Meta        map[string]any
	Content     template.HTML
}

type pageRenderer struct {
	tmpl        *template.Template
	fingerprint string
}

// newPageRenderer parses the template at templatePath, or the built-in page
// when templatePath is empty.
func newPageRenderer(templatePath string) (*pageRenderer, error) {
	text := defaultTemplate
	if templatePath != "" {
		data, err := os.ReadFile(templatePath)
		if err != nil {
			return nil, oops.
				Code("TEMPLATE_INVALID").
				With("path", templatePath).
				Hint("Set template in mdhtml.toml to an existing html/template file").
				Wrapf(err, "reading page template")
		}

		text = string(data)
	}

	tmpl, err := template.New("page").Parse(text)
	if err != nil {
		return nil, oops.
			Code("TEMPLATE_INVALID").
			With("path", templatePath).
			Wrapf(err, "parsing page template")
	}

	sum := sha256.Sum256([]byte(text))

	return &pageRenderer{
		tmpl:        tmpl,
		fingerprint: hex.EncodeToString(sum[:]),
	}, nil
}

func (r *pageRenderer) render(p Page) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, p); err != nil {
		return nil, oops.
			Code("TEMPLATE_INVALID").
			With("source", p.Source).
			Wrapf(err, "executing page template")
	}

	return buf.Bytes(), nil
}

// renderDocument converts doc with the engine and wraps it in the page
// template. name is the slash-separated input name, used as a title fallback.
func (b *builder) renderDocument(doc *document.Document, name string) ([]byte, error) {
	mdOpts := doc.Options(b.cfg.Options.Markdown())

	eng, err := engine.New(b.opts.Engine, mdOpts)
	if err != nil {
		return nil, err
	}

	fragment, err := eng.Render(doc.Body)
	if err != nil {
		return nil, err
	}

	if b.opts.StrictHTML {
		fragment = engine.Sanitize(fragment)
	}

	title := doc.Title
	if title == "" {
		title = strings.TrimSuffix(path.Base(name), path.Ext(name))
	}

	//nolint:gosec // fragment is converter output, sanitized when StrictHTML is set
	return b.page.render(Page{
		Title:       title,
		Description: doc.Description,
		Source:      name,
		Meta:        doc.Meta,
		Content:     template.HTML(fragment),
	})
}
