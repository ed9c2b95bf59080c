package config

import (
	"errors"
	"os"

	"github.com/samber/oops"
)

// StarterTOML is the config written by "mdhtml init".
const StarterTOML = `# mdhtml build configuration
output = "site"

# Global exclude patterns applied to every dir source.
excludes = ["drafts/**"]

[options]
breaks = true
task_lists = true
auto_links = true

[sources.docs]
type = "dir"
path = "docs"
patterns = ["**/*.md"]

# [sources.changelog]
# type = "url"
# url = "https://example.com/CHANGELOG.md"
# filename = "changelog.html"
`

// WriteStarter writes StarterTOML to path, refusing to overwrite an existing
// file unless force is set.
func WriteStarter(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return oops.
				Code("CONFIG_EXISTS").
				With("path", path).
				Hint("Pass --force to overwrite it").
				Errorf("config file %q already exists", path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return oops.Wrapf(err, "checking config file %q", path)
		}
	}

	if err := os.WriteFile(path, []byte(StarterTOML), 0o644); err != nil {
		return oops.
			Code("WRITE_FAILED").
			With("path", path).
			Wrapf(err, "writing config file")
	}

	return nil
}
