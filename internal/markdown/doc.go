// Package markdown converts Markdown text to HTML by rewriting the whole
// document with an ordered list of regular expressions, then grouping the
// result into paragraphs, lists and block quotes. No syntax tree is built.
//
// Convert is safe for concurrent use. The pattern table is shared read-only
// data and every call keeps its own state.
package markdown
