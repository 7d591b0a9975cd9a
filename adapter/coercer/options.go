package coercer

import "time"

// WithLocation sets the location used for dates that carry no offset.
// Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(c *Coercer) {
		if loc != nil {
			c.location = loc
		}
	}
}

// WithNativeLayouts replaces the layouts tried, in order, before the numeric
// day/month/year forms.
func WithNativeLayouts(layouts ...string) Option {
	return func(c *Coercer) {
		c.layouts = layouts
	}
}

// Option configures coercer behavior through the functional options pattern.
type Option func(*Coercer)
