package markdown

import (
	"regexp"
	"strings"

	"github.com/samber/oops"
)

const defaultDelimiterFlags = "gim"

// Escape backslash-escapes the regex metacharacters . * + ? ^ $ { } ( ) | [ ] \
// so that s can be embedded literally in a pattern.
func Escape(s string) string {
	return regexp.QuoteMeta(s)
}

// CreateDelimiterPattern builds a pattern matching text wrapped between two
// occurrences of delimiter, capturing the text. flags follow the JavaScript
// spelling ("gim" by default): g is implied, i, m and s map to RE2 flags.
func CreateDelimiterPattern(delimiter string, flags ...string) (*regexp.Regexp, error) {
	if delimiter == "" {
		return nil, oops.
			Code("INVALID_PATTERN").
			Hint("Pass a non-empty delimiter such as \"**\" or \"==\"").
			Errorf("delimiter must not be empty")
	}

	flagSet := defaultDelimiterFlags
	if len(flags) > 0 {
		flagSet = strings.Join(flags, "")
	}

	prefix, err := reFlags(flagSet)
	if err != nil {
		return nil, err
	}

	escaped := Escape(delimiter)
	class := strings.ReplaceAll(escaped, "-", `\-`)
	expr := prefix + escaped + "([^" + class + "]+)" + escaped

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, oops.
			Code("INVALID_PATTERN").
			With("delimiter", delimiter).
			Wrapf(err, "compiling delimiter pattern")
	}

	return re, nil
}

func reFlags(flagSet string) (string, error) {
	var b strings.Builder

	for _, f := range flagSet {
		switch f {
		case 'g', 'u', 'y':
		case 'i', 'm', 's':
			if !strings.ContainsRune(b.String(), f) {
				b.WriteRune(f)
			}
		default:
			return "", oops.
				Code("INVALID_PATTERN").
				With("flag", string(f)).
				Hint("Supported flags: g, i, m, s").
				Errorf("unsupported pattern flag %q", f)
		}
	}

	if b.Len() == 0 {
		return "", nil
	}

	return "(?" + b.String() + ")", nil
}

// IsMarkdownPattern reports whether the named table pattern matches anywhere
// in text. Unknown names report false.
func IsMarkdownPattern(text, name string) bool {
	p, ok := Lookup(name)
	if !ok {
		return false
	}

	return p.Regexp.MatchString(text)
}

// ExtractMatches returns every non-overlapping match of re in text, each as
// the full match followed by its submatches.
func ExtractMatches(text string, re *regexp.Regexp) [][]string {
	if re == nil {
		return nil
	}

	return re.FindAllStringSubmatch(text, -1)
}
