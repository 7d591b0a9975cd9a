package compiler

// WithUnescape makes the JavaScript compiler URL-decode sources before
// checking them, for callers that pass still encoded parameters.
func WithUnescape(unescape bool) Option {
	return func(j *JavaScript) {
		j.unescape = unescape
	}
}

// Option configures the JavaScript compiler through the functional options
// pattern.
type Option func(*JavaScript)
