package flattener

// WithDelimiter sets the string placed between path segments. Defaults to
// ".".
func WithDelimiter(d string) Option {
	return func(f *Flattener) {
		f.delimiter = d
	}
}

// WithMaxDepth limits how many levels are flattened. Values nested deeper
// are kept as they are. Zero means no limit.
func WithMaxDepth(d int) Option {
	return func(f *Flattener) {
		f.maxDepth = d
	}
}

// WithKeepLists keeps lists as values instead of flattening them into indexed
// keys.
func WithKeepLists(keep bool) Option {
	return func(f *Flattener) {
		f.keepLists = keep
	}
}

// Option configures flattener behavior through the functional options
// pattern.
type Option func(*Flattener)
