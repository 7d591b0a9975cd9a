package jsonparser

// WithMaxDepth sets how deeply objects and arrays may be nested. Defaults to
// 64.
func WithMaxDepth(depth int) Option {
	return func(p *Parser) {
		if depth > 0 {
			p.maxDepth = depth
		}
	}
}

// WithExtendedJSON enables or disables unwrapping of the single key objects
// {"$oid": ...} and {"$date": ...}. Enabled by default.
func WithExtendedJSON(enabled bool) Option {
	return func(p *Parser) {
		p.extended = enabled
	}
}

// Option configures parser behavior through the functional options pattern.
type Option func(*Parser)
