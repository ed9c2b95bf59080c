package markdown

import (
	"regexp"
	"strings"
)

//nolint:gochecknoglobals // compiled once, read-only
var blockTag = regexp.MustCompile(`^<(?:h[1-6]|ul|ol|li|pre|div|blockquote|hr|p)\b`)

// assemble splits the rewritten text on blank lines and wraps every chunk
// that is not already a block element in <p>.
func (c *conversion) assemble(src string) string {
	chunks := mustLookup("doubleLineBreak").Split(src, -1)
	out := make([]string, 0, len(chunks))

	for _, chunk := range chunks {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}

		if isBlock(c.shield.reveal(chunk)) {
			out = append(out, chunk)
			continue
		}

		if c.opts.Breaks {
			chunk = mustLookup("lineBreak").ReplaceAllLiteralString(chunk, "<br>")
		}

		out = append(out, "<p>"+chunk+"</p>")
	}

	return c.shield.reveal(strings.Join(out, "\n\n"))
}

func isBlock(chunk string) bool {
	return blockTag.MatchString(chunk)
}
