package decoder

// WithTagName sets the struct tag read for field names. Defaults to
// "mapstructure".
func WithTagName(name string) Option {
	return func(d *Decoder) {
		d.tagName = name
	}
}

// WithErrorUnused makes decoding fail when the source has keys that no target
// field uses. Enabled by default.
func WithErrorUnused(enabled bool) Option {
	return func(d *Decoder) {
		d.errorUnused = enabled
	}
}

// Option configures decoder behavior through the functional options pattern.
type Option func(*Decoder)
