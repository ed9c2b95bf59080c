package manifest

import (
	"bytes"
	"strings"

	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/parser"

	"github.com/g5becks/mdhtml/internal/document"
)

const (
	setextH1Level = 1
	setextH2Level = 2
)

type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	Line  int    `json:"line"`
}

// NewPage indexes a parsed document. content is the raw file the document was
// parsed from; heading line numbers refer to it.
func NewPage(sourcePath, outputPath string, content []byte, doc *document.Document) Page {
	page := Page{
		Source: sourcePath,
		Output: outputPath,
		Size:   int64(len(content)),
		Lines:  bytes.Count(content, []byte("\n")) + 1,
	}

	if doc == nil {
		return page
	}

	// gomarkdown drops a setext heading on an unterminated last line.
	body := bytes.Clone(doc.Body)
	if !bytes.HasSuffix(body, []byte("\n")) {
		body = append(body, '\n')
	}

	mdParser := parser.NewWithExtensions(parser.CommonExtensions)
	root := mdParser.Parse(body)

	headings, firstH1, firstPara, paraAfterH1 := extractOutline(root)
	if offset := len(content) - len(doc.Body); offset >= 0 && bytes.HasSuffix(content, doc.Body) {
		assignHeadingLineNumbers(headings, doc.Body, bytes.Count(content[:offset], []byte("\n")))
	}

	page.Title = doc.Title
	if page.Title == "" {
		page.Title = firstH1
	}

	page.Description = buildDescription(doc.Description, paraAfterH1, firstPara)
	page.Headings = headings

	return page
}

func extractOutline(root ast.Node) ([]Heading, string, string, string) {
	var headings []Heading
	var firstH1Text string
	var firstParagraph string
	var paragraphAfterH1 string
	foundH1 := false

	ast.WalkFunc(root, func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}

		switch n := node.(type) {
		case *ast.Heading:
			text := extractText(n)
			if text == "" {
				return ast.GoToNext
			}

			headings = append(headings, Heading{Level: n.Level, Text: text})
			if n.Level == 1 && firstH1Text == "" {
				firstH1Text = text
				foundH1 = true
			}
		case *ast.Paragraph:
			if firstParagraph != "" {
				return ast.GoToNext
			}

			if text := extractText(n); text != "" {
				firstParagraph = text
				if foundH1 {
					paragraphAfterH1 = text
				}
			}
		}

		return ast.GoToNext
	})

	return headings, firstH1Text, firstParagraph, paragraphAfterH1
}

func extractText(node ast.Node) string {
	var buf strings.Builder
	ast.WalkFunc(node, func(n ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}

		switch leaf := n.(type) {
		case *ast.Text:
			buf.Write(leaf.Literal)
		case *ast.Code:
			buf.Write(leaf.Literal)
		}

		return ast.GoToNext
	})

	return strings.Join(strings.Fields(buf.String()), " ")
}

// assignHeadingLineNumbers scans body for heading markers and assigns line
// numbers to headings in document order. gomarkdown's AST does not record
// source positions.
func assignHeadingLineNumbers(headings []Heading, body []byte, lineOffset int) {
	if len(headings) == 0 {
		return
	}

	lines := bytes.Split(body, []byte("\n"))
	hi := 0
	inFenced := false

	for lineIdx := 0; lineIdx < len(lines) && hi < len(headings); lineIdx++ {
		line := bytes.TrimRight(lines[lineIdx], "\r")
		trimmed := bytes.TrimSpace(line)

		if bytes.HasPrefix(trimmed, []byte("```")) || bytes.HasPrefix(trimmed, []byte("~~~")) {
			inFenced = !inFenced
			continue
		}

		if inFenced {
			continue
		}

		if level := atxHeadingLevel(line); level == headings[hi].Level {
			headings[hi].Line = lineOffset + lineIdx + 1
			hi++
			continue
		}

		if level := setextHeadingLevel(lines, lineIdx, trimmed); level == headings[hi].Level {
			headings[hi].Line = lineOffset + lineIdx + 1
			hi++
		}
	}
}

// atxHeadingLevel returns 1-6 for an ATX heading line, or 0.
func atxHeadingLevel(line []byte) int {
	spaces := 0
	for spaces < len(line) && spaces < 4 && line[spaces] == ' ' {
		spaces++
	}

	if spaces >= 4 || spaces >= len(line) || line[spaces] != '#' {
		return 0
	}

	level := 0
	for spaces+level < len(line) && level < 7 && line[spaces+level] == '#' {
		level++
	}

	if level >= 1 && level <= 6 && spaces+level < len(line) && line[spaces+level] == ' ' {
		return level
	}

	return 0
}

func setextHeadingLevel(lines [][]byte, lineIdx int, trimmed []byte) int {
	if lineIdx+1 >= len(lines) || len(trimmed) == 0 {
		return 0
	}

	next := bytes.TrimSpace(lines[lineIdx+1])
	switch {
	case allSameChar(next, '='):
		return setextH1Level
	case allSameChar(next, '-'):
		return setextH2Level
	default:
		return 0
	}
}

func allSameChar(b []byte, ch byte) bool {
	if len(b) == 0 {
		return false
	}

	for _, c := range b {
		if c != ch {
			return false
		}
	}

	return true
}

func buildDescription(fmDesc, paragraphAfterH1, firstParagraph string) string {
	if fmDesc != "" {
		return fmDesc
	}

	if paragraphAfterH1 != "" {
		return paragraphAfterH1
	}

	return firstParagraph
}
