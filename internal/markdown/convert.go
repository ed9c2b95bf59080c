package markdown

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

//nolint:gochecknoglobals // compiled once, read-only
var (
	bareURL     = regexp.MustCompile(`(?im)(^|\s)(https?://[^\s<\x{E000}]+)`)
	listRun     = regexp.MustCompile(`(?s)<li(?: class="task-list-item")?>.*?</li>(?:\s*<li(?: class="task-list-item")?>.*?</li>)*`)
	listSeam    = regexp.MustCompile(`</ul>\s*<ul>`)
	quoteSeam   = regexp.MustCompile(`</blockquote>\s*<blockquote>`)
	nonTextLine = regexp.MustCompile(`^(?:#|>|[-*+][ \t]|\d+\.[ \t]|\x{E000}|(?:-{3,}|_{3,}|\*{3,})[ \t]*$)`)
)

// Convert renders Markdown text as HTML. Empty input yields an empty string.
// Malformed constructs are left as literal text; Convert never fails.
func Convert(text string, opts ...Option) string {
	if text == "" {
		return ""
	}

	c := &conversion{opts: resolveOptions(opts)}
	return c.run(text)
}

// ConvertBytes is Convert for byte input. A nil slice yields an empty string.
func ConvertBytes(src []byte, opts ...Option) string {
	if src == nil {
		return ""
	}

	return Convert(string(src), opts...)
}

// conversion holds the state of one Convert call.
type conversion struct {
	opts   Options
	shield shield
	// anchors holds the tokens of <a> open tags emitted by links.
	anchors []string
}

func (c *conversion) run(text string) string {
	html := c.shield.escape(strings.ReplaceAll(text, "\r\n", "\n"))

	html = c.codeBlocks(html)
	html = c.rules(html)
	html = c.setextHeaders(html)
	html = c.atxHeaders(html)
	html = c.images(html)
	html = c.links(html)
	if c.opts.AutoLinks {
		html = c.autoLinks(html)
	}
	html = c.emphasis(html)
	if c.opts.TaskLists {
		html = c.taskItems(html)
	}
	html = c.listItems(html)
	html = mergeLists(html)
	html = blockquotes(html)

	return c.assemble(html)
}

// codeBlocks renders fenced blocks and inline spans first and hides them, so
// that no later pass rewrites code contents.
func (c *conversion) codeBlocks(src string) string {
	src = rewrite(mustLookup("codeBlockWithLang"), src, func(src string, loc []int) (string, bool) {
		open := "<pre><code>"
		if lang := group(src, loc, 1); lang != "" {
			open = `<pre><code class="language-` + lang + `">`
		}

		return c.shield.hide(open + trimCodeBody(group(src, loc, 2)) + "</code></pre>"), true
	})

	src = rewrite(mustLookup("codeBlock"), src, func(src string, loc []int) (string, bool) {
		return c.shield.hide("<pre><code>" + trimCodeBody(group(src, loc, 1)) + "</code></pre>"), true
	})

	return rewrite(mustLookup("inlineCode"), src, func(src string, loc []int) (string, bool) {
		return c.shield.hide("<code>" + group(src, loc, 1) + "</code>"), true
	})
}

// rules turns rule lines into <hr>. A dash line directly under a text line is
// an h2 underline and is left for setextHeaders.
func (c *conversion) rules(src string) string {
	return rewrite(mustLookup("horizontalRule"), src, func(src string, loc []int) (string, bool) {
		if src[loc[2]] == '-' && underlinesText(src, loc[0]) {
			return "", false
		}

		return "<hr>", true
	})
}

func (c *conversion) setextHeaders(src string) string {
	src = rewrite(mustLookup("h1Alt"), src, func(src string, loc []int) (string, bool) {
		return "<h1>" + strings.TrimSpace(group(src, loc, 1)) + "</h1>", true
	})

	return rewrite(mustLookup("h2Alt"), src, func(src string, loc []int) (string, bool) {
		return "<h2>" + strings.TrimSpace(group(src, loc, 1)) + "</h2>", true
	})
}

// atxHeaders runs h6 first so that a longer marker is never read as a shorter one.
func (c *conversion) atxHeaders(src string) string {
	for _, level := range []string{"6", "5", "4", "3", "2", "1"} {
		src = mustLookup("h"+level).ReplaceAllString(src, "<h"+level+">${1}</h"+level+">")
	}

	return src
}

func (c *conversion) images(src string) string {
	return rewrite(mustLookup("image"), src, func(src string, loc []int) (string, bool) {
		tag := `<img src="` + attr(group(src, loc, 2)) + `" alt="` + attr(group(src, loc, 1)) + `" />`
		return c.shield.hide(tag), true
	})
}

func (c *conversion) links(src string) string {
	return rewrite(mustLookup("link"), src, func(src string, loc []int) (string, bool) {
		open := c.shield.hide(`<a href="` + attr(group(src, loc, 2)) + `">`)
		c.anchors = append(c.anchors, open)
		return open + group(src, loc, 1) + "</a>", true
	})
}

// autoLinks wraps bare URLs. Only URLs at line start or after whitespace
// qualify, and emitted href/src values are hidden, so nothing is wrapped twice.
// URLs inside the text of an existing link stay plain text.
func (c *conversion) autoLinks(src string) string {
	return rewrite(bareURL, src, func(src string, loc []int) (string, bool) {
		if c.insideAnchor(src[:loc[4]]) {
			return "", false
		}

		url := group(src, loc, 2)
		anchor := `<a href="` + attr(url) + `" target="_blank">` + url + "</a>"
		return group(src, loc, 1) + c.shield.hide(anchor), true
	})
}

// insideAnchor reports whether before ends inside an open <a> element.
func (c *conversion) insideAnchor(before string) bool {
	closed := strings.LastIndex(before, "</a>")
	for _, open := range c.anchors {
		if strings.LastIndex(before, open) > closed {
			return true
		}
	}

	return false
}

func (c *conversion) emphasis(src string) string {
	src = mustLookup("strikethrough").ReplaceAllString(src, "<del>${1}</del>")
	src = mustLookup("bold").ReplaceAllString(src, "<strong>${1}</strong>")
	src = rewriteRetry(mustLookup("boldAlt"), src, wrapUnlessIntraword("strong"))
	src = mustLookup("italic").ReplaceAllString(src, "<em>${1}</em>")

	return rewriteRetry(mustLookup("italicAlt"), src, wrapUnlessIntraword("em"))
}

func (c *conversion) taskItems(src string) string {
	src = mustLookup("taskListChecked").ReplaceAllString(src,
		`<li class="task-list-item"><input type="checkbox" checked disabled> ${1}</li>`)

	return mustLookup("taskListUnchecked").ReplaceAllString(src,
		`<li class="task-list-item"><input type="checkbox" disabled> ${1}</li>`)
}

func (c *conversion) listItems(src string) string {
	src = mustLookup("unorderedList").ReplaceAllString(src, "<li>${1}</li>")
	return mustLookup("orderedList").ReplaceAllString(src, "<li>${1}</li>")
}

// mergeLists wraps each run of adjacent items in one <ul>. Runs that already
// sit inside a list container are left alone, so converting output again does
// not nest lists.
func mergeLists(src string) string {
	src = rewrite(listRun, src, func(src string, loc []int) (string, bool) {
		before := strings.TrimRight(src[:loc[0]], " \t\n")
		if strings.HasSuffix(before, "<ul>") || strings.HasSuffix(before, "<ol>") {
			return "", false
		}

		return "<ul>" + src[loc[0]:loc[1]] + "</ul>", true
	})

	return listSeam.ReplaceAllString(src, "")
}

func blockquotes(src string) string {
	src = mustLookup("blockquote").ReplaceAllString(src, "<blockquote><p>${1}</p></blockquote>")
	return quoteSeam.ReplaceAllString(src, "")
}

// rewrite replaces every match of re with the result of fn. When fn reports
// false the match is kept as is.
func rewrite(re *regexp.Regexp, src string, fn func(src string, loc []int) (string, bool)) string {
	matches := re.FindAllStringSubmatchIndex(src, -1)
	if len(matches) == 0 {
		return src
	}

	var b strings.Builder
	b.Grow(len(src))
	last := 0

	for _, loc := range matches {
		repl, ok := fn(src, loc)
		if !ok {
			continue
		}

		b.WriteString(src[last:loc[0]])
		b.WriteString(repl)
		last = loc[1]
	}

	b.WriteString(src[last:])
	return b.String()
}

// rewriteRetry is rewrite for unanchored patterns: a rejected match is retried
// one rune further on, so a rejected opener cannot swallow a valid one.
func rewriteRetry(re *regexp.Regexp, src string, fn func(src string, loc []int) (string, bool)) string {
	var b strings.Builder
	b.Grow(len(src))
	last, pos := 0, 0

	for pos <= len(src) {
		rel := re.FindStringSubmatchIndex(src[pos:])
		if rel == nil {
			break
		}

		loc := make([]int, len(rel))
		for i, v := range rel {
			loc[i] = v
			if v >= 0 {
				loc[i] += pos
			}
		}

		repl, ok := fn(src, loc)
		if !ok {
			_, size := utf8.DecodeRuneInString(src[loc[0]:])
			pos = loc[0] + max(size, 1)
			continue
		}

		b.WriteString(src[last:loc[0]])
		b.WriteString(repl)
		last = loc[1]
		pos = max(loc[1], loc[0]+1)
	}

	b.WriteString(src[last:])
	return b.String()
}

func wrapUnlessIntraword(tag string) func(src string, loc []int) (string, bool) {
	return func(src string, loc []int) (string, bool) {
		if wordRuneBefore(src, loc[0]) || wordRuneAfter(src, loc[1]) {
			return "", false
		}

		return "<" + tag + ">" + group(src, loc, 1) + "</" + tag + ">", true
	}
}

func wordRuneBefore(src string, i int) bool {
	if i == 0 {
		return false
	}

	r, _ := utf8.DecodeLastRuneInString(src[:i])
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func wordRuneAfter(src string, i int) bool {
	if i >= len(src) {
		return false
	}

	r, _ := utf8.DecodeRuneInString(src[i:])
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func group(src string, loc []int, n int) string {
	if 2*n+1 >= len(loc) || loc[2*n] < 0 {
		return ""
	}

	return src[loc[2*n]:loc[2*n+1]]
}

// underlinesText reports whether the line before offset start is plain text,
// which makes a dash line at start a setext underline instead of a rule.
func underlinesText(src string, start int) bool {
	if start == 0 {
		return false
	}

	prev := src[:start-1]
	prev = strings.TrimSpace(prev[strings.LastIndexByte(prev, '\n')+1:])
	if prev == "" {
		return false
	}

	return !nonTextLine.MatchString(prev)
}

func trimCodeBody(body string) string {
	body = strings.TrimRight(body, " \t\n")
	for {
		nl := strings.IndexByte(body, '\n')
		if nl < 0 || strings.TrimSpace(body[:nl]) != "" {
			return body
		}

		body = body[nl+1:]
	}
}

func attr(value string) string {
	return strings.ReplaceAll(value, `"`, "&quot;")
}
