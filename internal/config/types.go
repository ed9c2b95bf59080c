package config

import (
	"errors"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"

	"github.com/g5becks/mdhtml/internal/markdown"
)

const (
	DefaultOutput           = "site"
	SourceTypeDir           = "dir"
	SourceTypeURL           = "url"
	validationTagRequiredIf = "required_if"
)

func DefaultPatterns() []string {
	return []string{"**/*.md", "**/*.markdown"}
}

type Config struct {
	Output    string            `koanf:"output"    validate:"omitempty,dirpath"`
	Template  string            `koanf:"template"`
	Excludes  []string          `koanf:"excludes"`
	Options   RenderOptions     `koanf:"options"`
	Sources   map[string]Source `koanf:"sources"   validate:"required,dive"`
	ConfigDir string            `koanf:"-"`
}

// RenderOptions mirrors markdown.Options. Pointers distinguish "unset" from
// false so that omitted keys keep the converter defaults.
type RenderOptions struct {
	Sanitize  *bool `koanf:"sanitize"`
	Breaks    *bool `koanf:"breaks"`
	Tables    *bool `koanf:"tables"`
	TaskLists *bool `koanf:"task_lists"`
	AutoLinks *bool `koanf:"auto_links"`
}

type Source struct {
	Type     string   `koanf:"type"     validate:"required,oneof=dir url"`
	Path     string   `koanf:"path"     validate:"required_if=Type dir"`
	Patterns []string `koanf:"patterns"`
	Exclude  []string `koanf:"exclude"`
	URL      string   `koanf:"url"      validate:"required_if=Type url,omitempty,url"`
	Filename string   `koanf:"filename" validate:"omitempty,html_filename"`
	Out      string   `koanf:"out"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("html_filename", func(fl validator.FieldLevel) bool {
		return isHTMLFilename(fl.Field().String())
	})

	return v
}

// Markdown resolves the configured options on top of the converter defaults.
func (o RenderOptions) Markdown() markdown.Options {
	opts := markdown.DefaultOptions()
	apply := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}

	apply(&opts.Sanitize, o.Sanitize)
	apply(&opts.Breaks, o.Breaks)
	apply(&opts.Tables, o.Tables)
	apply(&opts.TaskLists, o.TaskLists)
	apply(&opts.AutoLinks, o.AutoLinks)

	return opts
}

func (c *Config) ApplyDefaults() {
	if c.Output == "" {
		c.Output = DefaultOutput
	}

	for sourceName, sourceCfg := range c.Sources {
		if sourceCfg.Type == "" {
			sourceCfg.Type = inferSourceType(sourceCfg)
		}

		if sourceCfg.Type == SourceTypeDir && len(sourceCfg.Patterns) == 0 {
			sourceCfg.Patterns = DefaultPatterns()
		}

		sourceCfg.Exclude = mergeExcludes(c.Excludes, sourceCfg.Exclude)
		c.Sources[sourceName] = sourceCfg
	}
}

func inferSourceType(sourceCfg Source) string {
	if sourceCfg.URL != "" && sourceCfg.Path == "" {
		return SourceTypeURL
	}

	return SourceTypeDir
}

func mergeExcludes(global, source []string) []string {
	if len(global) == 0 && len(source) == 0 {
		return nil
	}

	merged := make([]string, 0, len(global)+len(source))
	for _, pattern := range slices.Concat(source, global) {
		if !slices.Contains(merged, pattern) {
			merged = append(merged, pattern)
		}
	}

	slices.Sort(merged)
	return merged
}

func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return oops.
			Code("CONFIG_INVALID").
			Hint("Add at least one [sources.<name>] table").
			Errorf("no sources configured")
	}

	v := newValidator()

	for _, sourceName := range c.SourceNames() {
		sourceCfg := c.Sources[sourceName]
		valErr := v.Struct(sourceCfg)
		if valErr == nil {
			continue
		}

		var validationErrors validator.ValidationErrors
		if !errors.As(valErr, &validationErrors) {
			return oops.
				Code("CONFIG_INVALID").
				With("source", sourceName).
				Wrapf(valErr, "validating source %q", sourceName)
		}

		for _, fe := range validationErrors {
			return mapValidationError(sourceName, sourceCfg, fe)
		}
	}

	return nil
}

func mapValidationError(sourceName string, sourceCfg Source, fe validator.FieldError) error {
	field := strings.ToLower(fe.Field())

	switch {
	case fe.Tag() == "oneof" && field == "type":
		return oops.
			Code("UNKNOWN_SOURCE_TYPE").
			With("source", sourceName).
			With("type", sourceCfg.Type).
			Hint("Supported types: dir, url").
			Errorf("unknown source type %q for source %q", sourceCfg.Type, sourceName)

	case fe.Tag() == validationTagRequiredIf && field == "path":
		return oops.
			Code("CONFIG_INVALID").
			With("source", sourceName).
			With("field", "path").
			Hint("Set path to a directory of markdown files").
			Errorf("missing path for source %q", sourceName)

	case fe.Tag() == validationTagRequiredIf && field == "url":
		return oops.
			Code("CONFIG_INVALID").
			With("source", sourceName).
			With("field", "url").
			Hint("Set url for url sources").
			Errorf("missing url for source %q", sourceName)

	case fe.Tag() == "url":
		return oops.
			Code("CONFIG_INVALID").
			With("source", sourceName).
			With("field", "url").
			With("value", sourceCfg.URL).
			Hint("Use an absolute http or https URL").
			Errorf("invalid url %q for source %q", sourceCfg.URL, sourceName)

	case fe.Tag() == "html_filename":
		return oops.
			Code("CONFIG_INVALID").
			With("source", sourceName).
			With("field", "filename").
			With("value", sourceCfg.Filename).
			Hint("Use a bare file name ending in .html").
			Errorf("invalid filename %q for source %q", sourceCfg.Filename, sourceName)

	default:
		return oops.
			Code("CONFIG_INVALID").
			With("source", sourceName).
			With("field", field).
			With("tag", fe.Tag()).
			Errorf("validation failed for field %q in source %q", field, sourceName)
	}
}

// SourceNames returns the configured source names in sorted order.
func (c *Config) SourceNames() []string {
	names := make([]string, 0, len(c.Sources))
	for name := range c.Sources {
		names = append(names, name)
	}

	slices.Sort(names)
	return names
}

// HasSource reports whether name is a configured source.
func (c *Config) HasSource(name string) bool {
	_, ok := c.Sources[name]
	return ok
}

func (c *Config) OutputDir(sourceName string, sourceCfg Source) string {
	baseOutputDir := c.Output
	if !filepath.IsAbs(baseOutputDir) {
		baseOutputDir = filepath.Join(c.ConfigDir, c.Output)
	}

	if sourceCfg.Out != "" {
		return filepath.Join(baseOutputDir, sourceCfg.Out)
	}

	return filepath.Join(baseOutputDir, sourceName)
}

// SourceDir resolves a dir source path against the config directory.
func (c *Config) SourceDir(sourceCfg Source) string {
	if filepath.IsAbs(sourceCfg.Path) {
		return sourceCfg.Path
	}

	return filepath.Join(c.ConfigDir, sourceCfg.Path)
}

func isHTMLFilename(name string) bool {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return false
	}

	return strings.EqualFold(filepath.Ext(name), ".html")
}
