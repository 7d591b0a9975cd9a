// Package coercer contains the default [domain.Coercer], which decides the
// type of a literal taken from a query string.
package coercer

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/vinicius-lino-figueiredo/restquery/domain"
)

var (
	decimalPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
	regexLiteral   = regexp.MustCompile(`^/(.+)/([imsxu]*)$`)
)

// Coercer implements [domain.Coercer].
type Coercer struct {
	location *time.Location
	layouts  []string
}

// NewCoercer returns a new implementation of [domain.Coercer].
func NewCoercer(options ...Option) domain.Coercer {
	c := &Coercer{
		location: time.UTC,
		layouts:  nativeLayouts,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Value implements [domain.Coercer]. Identifiers win over numbers, numbers
// over dates and dates over strings.
func (c *Coercer) Value(literal string) any {
	if domain.IsObjectIDHex(literal) {
		return domain.ObjectID(literal)
	}
	if n, ok := c.Number(literal); ok {
		return n
	}
	if d, ok := c.Date(literal); ok {
		return d
	}
	return literal
}

// ValueNoDate implements [domain.Coercer].
func (c *Coercer) ValueNoDate(literal string) any {
	if domain.IsObjectIDHex(literal) {
		return domain.ObjectID(literal)
	}
	if n, ok := c.Number(literal); ok {
		return n
	}
	return literal
}

// Bool implements [domain.Coercer].
func (c *Coercer) Bool(literal string) (bool, bool) {
	switch strings.ToLower(literal) {
	case "true", "yes":
		return true, true
	case "false", "no":
		return false, true
	default:
		return false, false
	}
}

// Number implements [domain.Coercer]. Surrounding spaces are ignored, the
// empty string is not a number and only finite values are accepted.
func (c *Coercer) Number(literal string) (float64, bool) {
	s := strings.TrimSpace(literal)
	if s == "" {
		return 0, false
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			if strings.ContainsRune(s[2:], '_') {
				return 0, false
			}
			n, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return 0, false
			}
			return float64(n), true
		}
	}
	if !decimalPattern.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// Regex implements [domain.Coercer]. The literal must look like
// /pattern/flags with a non-empty pattern and flags among imsxu.
func (c *Coercer) Regex(literal string) (domain.Regex, bool) {
	m := regexLiteral.FindStringSubmatch(literal)
	if m == nil {
		return domain.Regex{}, false
	}
	return domain.Regex{Pattern: m[1], Options: m[2]}, true
}
