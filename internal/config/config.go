package config

import (
	"errors"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
)

// Filenames are the config names discovery looks for, in order of preference.
//
//nolint:gochecknoglobals // read-only
var Filenames = []string{"mdhtml.toml", ".mdhtml.toml"}

// Load reads the config at configPath, fills in defaults and validates it.
// Output and template paths come back absolute; source paths stay relative to
// ConfigDir and resolve through SourceDir.
func Load(configPath string) (*Config, error) {
	path, err := ResolvePath(configPath)
	if err != nil {
		return nil, err
	}

	path, err = filepath.Abs(path)
	if err != nil {
		return nil, oops.Wrapf(err, "resolving absolute config path")
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return nil, oops.
			Code("CONFIG_INVALID").
			With("path", path).
			Hint("Fix the TOML syntax in your config").
			Wrapf(err, "loading config from %q", path)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.
			Code("CONFIG_INVALID").
			With("path", path).
			Hint("Check the option types against 'mdhtml init' output").
			Wrapf(err, "decoding config from %q", path)
	}

	cfg.ConfigDir = filepath.Dir(path)
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, oops.With("path", path).Wrap(err)
	}

	cfg.Output = cfg.resolve(cfg.Output)
	if cfg.Template != "" {
		cfg.Template = cfg.resolve(cfg.Template)
	}

	if err := cfg.checkLayout(); err != nil {
		return nil, oops.With("path", path).Wrap(err)
	}

	return cfg, nil
}

// ResolvePath returns configPath when set, otherwise the nearest config file
// found by walking up from the working directory.
func ResolvePath(configPath string) (string, error) {
	if configPath == "" {
		return FindConfigFile()
	}

	_, err := os.Stat(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return "", oops.
			Code("CONFIG_NOT_FOUND").
			With("path", configPath).
			Hint("Create the file with 'mdhtml init' or pass a valid --config path").
			Errorf("config file %q does not exist", configPath)
	case err != nil:
		return "", oops.Wrapf(err, "checking config file %q", configPath)
	}

	return configPath, nil
}

// FindConfigFile searches the working directory and its parents.
func FindConfigFile() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", oops.Wrapf(err, "getting working directory")
	}

	return FindConfigFrom(dir)
}

// FindConfigFrom returns the first of Filenames present in dir or the
// nearest parent that has one.
func FindConfigFrom(dir string) (string, error) {
	for candidateDir := range parentDirs(dir) {
		for _, name := range Filenames {
			candidate := filepath.Join(candidateDir, name)
			info, err := os.Stat(candidate)
			if err == nil && !info.IsDir() {
				return candidate, nil
			}

			if err != nil && !errors.Is(err, os.ErrNotExist) {
				return "", oops.Wrapf(err, "checking for config file at %q", candidate)
			}
		}
	}

	return "", oops.
		Code("CONFIG_NOT_FOUND").
		With("start", dir).
		Hint("Run 'mdhtml init' to create a config file").
		Errorf("no %s found in any parent directory", strings.Join(Filenames, " or "))
}

// parentDirs yields dir and then each of its ancestors up to the root.
func parentDirs(dir string) iter.Seq[string] {
	return func(yield func(string) bool) {
		dir = filepath.Clean(dir)
		for {
			if !yield(dir) {
				return
			}

			parent := filepath.Dir(dir)
			if parent == dir {
				return
			}

			dir = parent
		}
	}
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}

	return filepath.Join(c.ConfigDir, path)
}

// checkLayout rejects dir sources and templates that live inside the output
// directory. A clean build would delete them, and every build would read its
// own output back as input.
func (c *Config) checkLayout() error {
	if c.Template != "" && within(c.Template, c.Output) {
		return oops.
			Code("CONFIG_INVALID").
			With("template", c.Template).
			With("output", c.Output).
			Hint("Move the template out of the output directory").
			Errorf("template %q lies inside the output directory", c.Template)
	}

	for _, name := range c.SourceNames() {
		sourceCfg := c.Sources[name]
		if sourceCfg.Type != SourceTypeDir {
			continue
		}

		if root := c.SourceDir(sourceCfg); within(root, c.Output) {
			return oops.
				Code("CONFIG_INVALID").
				With("source", name).
				With("output", c.Output).
				Hint("Point the source at a directory outside " + c.Output).
				Errorf("source %q lies inside the output directory", name)
		}
	}

	return nil
}

// within reports whether path is dir or lies below it.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}

	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
