package markdown

import (
	"os"
	"strings"

	"github.com/samber/oops"
)

// ConvertFile reads a UTF-8 Markdown file and converts it.
func ConvertFile(path string, opts ...Option) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", oops.
			Code("FILE_READ_ERROR").
			With("path", path).
			Hint("Check that the file exists and is readable").
			Wrapf(err, "failed to parse markdown file")
	}

	return Convert(strings.TrimPrefix(string(content), "\uFEFF"), opts...), nil
}
