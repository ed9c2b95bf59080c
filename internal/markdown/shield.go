package markdown

import (
	"regexp"
	"strconv"
	"strings"
)

// Emitted fragments that later passes must not touch (code, tag attributes)
// are swapped for private-use tokens and swapped back after assembly.
const (
	tokenOpen  = "\uE000"
	tokenClose = "\uE001"
)

//nolint:gochecknoglobals // compiled once, read-only
var tokenPattern = regexp.MustCompile(`\x{E000}(\d+)\x{E001}`)

type shield struct {
	fragments []string
}

func (s *shield) hide(fragment string) string {
	s.fragments = append(s.fragments, fragment)
	return tokenOpen + strconv.Itoa(len(s.fragments)-1) + tokenClose
}

// escape hides the token runes already present in text, so input that looks
// like a token is restored verbatim instead of expanding to a fragment.
func (s *shield) escape(text string) string {
	if !strings.ContainsAny(text, tokenOpen+tokenClose) {
		return text
	}

	open := s.hide(tokenOpen)
	closing := s.hide(tokenClose)

	return strings.NewReplacer(tokenOpen, open, tokenClose, closing).Replace(text)
}

// reveal expands tokens, including tokens nested inside earlier fragments.
// Each token is expanded exactly once: expanded text is never rescanned, so
// restored literal token runes cannot combine into a new token.
func (s *shield) reveal(text string) string {
	return s.revealBelow(text, len(s.fragments))
}

// revealBelow expands tokens whose index is below limit. A fragment can only
// hold tokens created before it, which bounds the recursion.
func (s *shield) revealBelow(text string, limit int) string {
	if limit == 0 || !strings.Contains(text, tokenOpen) {
		return text
	}

	return tokenPattern.ReplaceAllStringFunc(text, func(token string) string {
		idx, err := strconv.Atoi(token[len(tokenOpen) : len(token)-len(tokenClose)])
		if err != nil || idx < 0 || idx >= limit {
			return token
		}

		return s.revealBelow(s.fragments[idx], idx)
	})
}
