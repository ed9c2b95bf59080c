package markdown

import (
	"regexp"
	"slices"
	"strings"
)

// Pattern is a named recognizer for one Markdown construct.
type Pattern struct {
	Name        string
	Description string
	Regexp      *regexp.Regexp
}

func newPattern(name, description, expr string) Pattern {
	return Pattern{
		Name:        name,
		Description: description,
		Regexp:      regexp.MustCompile(expr),
	}
}

// The table is built once and only read afterwards. *regexp.Regexp keeps no
// match position between calls, so sharing it across goroutines is safe.
//
//nolint:gochecknoglobals // read-only pattern table
var patternTable = func() map[string]Pattern {
	defs := []Pattern{
		newPattern("h6", "line starting with ###### and whitespace", `(?im)^#{6}[ \t]+(.*)$`),
		newPattern("h5", "line starting with ##### and whitespace", `(?im)^#{5}[ \t]+(.*)$`),
		newPattern("h4", "line starting with #### and whitespace", `(?im)^#{4}[ \t]+(.*)$`),
		newPattern("h3", "line starting with ### and whitespace", `(?im)^#{3}[ \t]+(.*)$`),
		newPattern("h2", "line starting with ## and whitespace", `(?im)^#{2}[ \t]+(.*)$`),
		newPattern("h1", "line starting with # and whitespace", `(?im)^#{1}[ \t]+(.*)$`),

		newPattern("h1Alt", "text line underlined by three or more =", `(?m)^(.+)\n={3,}[ \t]*$`),
		newPattern("h2Alt", "text line underlined by three or more -", `(?m)^(.+)\n-{3,}[ \t]*$`),

		newPattern("bold", "text between ** markers", `\*\*(.*?)\*\*`),
		newPattern("boldAlt", "text between __ markers", `__(.*?)__`),
		newPattern("italic", "text between single * markers, not opened by whitespace or *", `\*([^*\s].*?)\*`),
		newPattern("italicAlt", "text between single _ markers, not opened by whitespace or _", `_([^_\s].*?)_`),
		newPattern("strikethrough", "text between ~~ markers", `~~(.*?)~~`),

		newPattern("codeBlock", "``` fenced block without language tag", "(?s)```(.*?)```"),
		newPattern("codeBlockWithLang", "``` fenced block with optional language tag", "(?s)```(\\w+)?\\n(.*?)```"),
		newPattern("inlineCode", "text between single backticks", "`([^`]+)`"),

		newPattern("link", "[text](url)", `\[([^\]]+)\]\(([^)]+)\)`),
		newPattern("autoLink", "bare http or https URL", `(?i)(https?://[^\s<]+)`),
		newPattern("image", "![alt](url)", `!\[([^\]]*)\]\(([^)]+)\)`),

		newPattern("unorderedList", "line starting with -, * or + and whitespace", `(?m)^[-*+][ \t]+(.*)$`),
		newPattern("orderedList", "line starting with digits, a dot and whitespace", `(?m)^\d+\.[ \t]+(.*)$`),
		newPattern("taskListChecked", "list item starting with [x]", `(?im)^[-*+][ \t]+\[x\][ \t]+(.*)$`),
		newPattern("taskListUnchecked", "list item starting with [ ]", `(?im)^[-*+][ \t]+\[[ \t]\][ \t]+(.*)$`),

		newPattern("blockquote", "line starting with > and whitespace", `(?m)^>[ \t]+(.*)$`),
		newPattern("horizontalRule", "line of three or more -, _ or *", `(?m)^(-{3,}|_{3,}|\*{3,})[ \t]*$`),

		newPattern("tableHeader", "pipe delimited row", `\|(.+)\|`),
		newPattern("tableSeparator", "pipe delimited alignment row", `\|[ \t]*:?-+:?[ \t]*\|`),
		newPattern("tableRow", "pipe delimited row", `\|(.+)\|`),

		newPattern("lineBreak", "single newline", `\n`),
		newPattern("doubleLineBreak", "blank line separator", `\n\s*\n`),
	}

	table := make(map[string]Pattern, len(defs))
	for _, p := range defs {
		table[p.Name] = p
	}

	return table
}()

// Lookup returns the named pattern from the table.
func Lookup(name string) (Pattern, bool) {
	p, ok := patternTable[name]
	return p, ok
}

// Patterns returns every pattern sorted by name.
func Patterns() []Pattern {
	out := make([]Pattern, 0, len(patternTable))
	for _, p := range patternTable {
		out = append(out, p)
	}

	slices.SortFunc(out, func(a, b Pattern) int {
		return strings.Compare(a.Name, b.Name)
	})

	return out
}

func mustLookup(name string) *regexp.Regexp {
	p, ok := patternTable[name]
	if !ok {
		panic("markdown: unknown pattern " + name)
	}

	return p.Regexp
}
