package markdown_test

import (
	"slices"
	"strings"
	"testing"

	"github.com/g5becks/mdhtml/internal/markdown"
)

func TestPatternsTableIsComplete(t *testing.T) {
	names := []string{
		"h1", "h2", "h3", "h4", "h5", "h6", "h1Alt", "h2Alt",
		"bold", "boldAlt", "italic", "italicAlt", "strikethrough",
		"codeBlock", "codeBlockWithLang", "inlineCode",
		"link", "autoLink", "image",
		"unorderedList", "orderedList", "taskListChecked", "taskListUnchecked",
		"blockquote", "horizontalRule",
		"tableHeader", "tableSeparator", "tableRow",
		"lineBreak", "doubleLineBreak",
	}

	for _, name := range names {
		p, ok := markdown.Lookup(name)
		if !ok {
			t.Errorf("Lookup(%q) not found", name)
			continue
		}

		if p.Regexp == nil || p.Description == "" {
			t.Errorf("pattern %q is incomplete: %+v", name, p)
		}
	}

	if _, ok := markdown.Lookup("missing"); ok {
		t.Error("Lookup(missing) found, want not found")
	}
}

func TestPatternsSortedByName(t *testing.T) {
	patterns := markdown.Patterns()
	if len(patterns) == 0 {
		t.Fatal("Patterns() is empty")
	}

	if !slices.IsSortedFunc(patterns, func(a, b markdown.Pattern) int {
		return strings.Compare(a.Name, b.Name)
	}) {
		t.Error("Patterns() not sorted by name")
	}
}

func TestItalicDoesNotMatchDoubleMarkers(t *testing.T) {
	italic, _ := markdown.Lookup("italic")
	if italic.Regexp.MatchString("**") {
		t.Error("italic matched an empty double marker")
	}

	if italic.Regexp.MatchString("* list item") {
		t.Error("italic matched a list marker")
	}
}
