// Package document loads Markdown source files: it rejects binary and
// non UTF-8 content, strips a BOM and splits off YAML front matter.
package document

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"

	"github.com/g5becks/mdhtml/internal/markdown"
)

// Document is a Markdown file split into front matter and body.
type Document struct {
	Path        string
	Title       string
	Description string
	Meta        map[string]any
	Body        []byte
}

// Load reads and parses the file at path.
func Load(path string) (*Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.
			Code("FILE_READ_ERROR").
			With("path", path).
			Wrapf(err, "reading markdown file")
	}

	doc, err := Parse(content)
	if err != nil {
		return nil, oops.With("path", path).Wrap(err)
	}

	doc.Path = path
	return doc, nil
}

// Parse splits raw file content into front matter and body.
func Parse(content []byte) (*Document, error) {
	if IsBinary(content) {
		return nil, oops.
			Code("BINARY_FILE").
			Hint("Only text markdown files can be converted").
			Errorf("content looks binary")
	}

	if !IsValidUTF8(content) {
		return nil, oops.
			Code("INVALID_UTF8").
			Hint("Re-save the file as UTF-8").
			Errorf("content is not valid UTF-8")
	}

	content = StripBOM(content)
	doc := &Document{Body: content}

	frontmatter, body, ok := splitFrontmatter(content)
	if !ok {
		doc.Title = FirstHeading(content)
		return doc, nil
	}

	meta := map[string]any{}
	if err := yaml.Unmarshal(frontmatter, &meta); err != nil {
		return nil, oops.
			Code("FRONTMATTER_INVALID").
			Hint("Fix the YAML between the --- lines").
			Wrapf(err, "decoding front matter")
	}

	doc.Meta = meta
	doc.Body = body
	doc.Title = stringValue(meta, "title")
	doc.Description = stringValue(meta, "description")
	if doc.Title == "" {
		doc.Title = FirstHeading(body)
	}

	return doc, nil
}

// Options applies a "markdown" front matter table on top of base.
func (d *Document) Options(base markdown.Options) markdown.Options {
	if d == nil {
		return base
	}

	overrides, ok := d.Meta["markdown"].(map[string]any)
	if !ok {
		return base
	}

	return base.Merge(overrides)
}

// IsBinary checks first 512 bytes for null bytes.
func IsBinary(content []byte) bool {
	const maxCheckSize = 512
	size := min(len(content), maxCheckSize)
	return bytes.IndexByte(content[:size], 0) != -1
}

// IsValidUTF8 validates the content is valid UTF-8.
func IsValidUTF8(content []byte) bool {
	return utf8.Valid(content)
}

// StripBOM removes UTF-8 BOM (0xEF, 0xBB, 0xBF) if present.
func StripBOM(content []byte) []byte {
	if len(content) >= 3 && content[0] == 0xEF && content[1] == 0xBB && content[2] == 0xBF {
		return content[3:]
	}
	return content
}

// IsMarkdownFile reports whether path has a markdown extension.
func IsMarkdownFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".mdown":
		return true
	default:
		return false
	}
}

// HTMLName maps a markdown path to its output path ("guide/intro.md" -> "guide/intro.html").
func HTMLName(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".html"
}

// FirstHeading returns the text of the first "#" heading outside fenced code.
func FirstHeading(body []byte) string {
	inFenced := false

	for line := range bytes.SplitSeq(body, []byte("\n")) {
		trimmed := bytes.TrimSpace(line)
		if bytes.HasPrefix(trimmed, []byte("```")) || bytes.HasPrefix(trimmed, []byte("~~~")) {
			inFenced = !inFenced
			continue
		}

		if inFenced {
			continue
		}

		if text, ok := bytes.CutPrefix(trimmed, []byte("# ")); ok {
			return strings.TrimSpace(string(text))
		}
	}

	return ""
}

// splitFrontmatter separates a leading "---" delimited block from the body.
func splitFrontmatter(content []byte) ([]byte, []byte, bool) {
	if !bytes.HasPrefix(content, []byte("---\n")) && !bytes.HasPrefix(content, []byte("---\r\n")) {
		return nil, content, false
	}

	start := bytes.IndexByte(content, '\n') + 1

	skipBytes := 5 // "\n---\n"
	end := bytes.Index(content[start:], []byte("\n---\n"))
	if end == -1 {
		end = bytes.Index(content[start:], []byte("\n---\r\n"))
		if end == -1 {
			return nil, content, false
		}
		skipBytes = 6
	}

	return content[start : start+end], content[start+end+skipBytes:], true
}

func stringValue(meta map[string]any, key string) string {
	value, ok := meta[key].(string)
	if !ok {
		return ""
	}

	return strings.TrimSpace(value)
}
