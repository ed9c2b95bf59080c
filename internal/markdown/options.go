package markdown

// Options controls which optional constructs the converter recognizes.
//
// Sanitize and Tables are accepted for compatibility but do not change the
// output: no sanitization pass and no table pass exist in the pipeline.
type Options struct {
	Sanitize  bool
	Breaks    bool
	Tables    bool
	TaskLists bool
	AutoLinks bool
}

// Option overrides a single field of Options.
type Option func(*Options)

// DefaultOptions returns the options used when a caller supplies none.
func DefaultOptions() Options {
	return Options{
		Sanitize:  true,
		Breaks:    true,
		Tables:    true,
		TaskLists: true,
		AutoLinks: true,
	}
}

// WithOptions replaces every field at once.
func WithOptions(o Options) Option {
	return func(dst *Options) {
		*dst = o
	}
}

// WithSanitize sets the sanitize flag. It has no effect on output.
func WithSanitize(enabled bool) Option {
	return func(o *Options) {
		o.Sanitize = enabled
	}
}

// WithBreaks controls whether single newlines inside paragraphs become <br>.
func WithBreaks(enabled bool) Option {
	return func(o *Options) {
		o.Breaks = enabled
	}
}

// WithTables sets the tables flag. It has no effect on output.
func WithTables(enabled bool) Option {
	return func(o *Options) {
		o.Tables = enabled
	}
}

// WithTaskLists controls recognition of "- [x]" and "- [ ]" items.
func WithTaskLists(enabled bool) Option {
	return func(o *Options) {
		o.TaskLists = enabled
	}
}

// WithAutoLinks controls linking of bare http(s) URLs.
func WithAutoLinks(enabled bool) Option {
	return func(o *Options) {
		o.AutoLinks = enabled
	}
}

// OptionsFromMap builds options from loosely typed key/value pairs, as found
// in decoded config or front matter. Unknown keys and non-boolean values are
// ignored; missing keys keep their defaults.
func OptionsFromMap(values map[string]any) Options {
	return DefaultOptions().Merge(values)
}

// Merge returns a copy of o with the recognized boolean keys of values applied.
func (o Options) Merge(values map[string]any) Options {
	for key, raw := range values {
		enabled, ok := raw.(bool)
		if !ok {
			continue
		}

		switch key {
		case "sanitize":
			o.Sanitize = enabled
		case "breaks":
			o.Breaks = enabled
		case "tables":
			o.Tables = enabled
		case "taskLists", "task_lists":
			o.TaskLists = enabled
		case "autoLinks", "auto_links":
			o.AutoLinks = enabled
		}
	}

	return o
}

func resolveOptions(opts []Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	return o
}
