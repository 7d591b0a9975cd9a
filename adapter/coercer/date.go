package coercer

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var nativeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006-01",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
	time.UnixDate,
	time.RubyDate,
	"Mon Jan 02 2006 15:04:05 GMT-0700",
	"Mon Jan 02 2006",
}

var (
	dayFirst = regexp.MustCompile(
		`^(\d{1,2})[/\s.\-,](\d{1,2})[/\s.\-,](\d{4})(?:[ T](\d{1,2}):(\d{2}))?$`,
	)
	yearFirst = regexp.MustCompile(
		`^(\d{4})[/\s.\-,](\d{1,2})[/\s.\-,](\d{1,2})(?:[ T](\d{1,2}):(\d{2}))?$`,
	)
	zoneName = regexp.MustCompile(`\s*\([^)]*\)$`)
)

// Date implements [domain.Coercer]. The literal needs at least one digit and
// one of the characters - : T /. Native layouts are tried first, then
// DD/MM/YYYY and YYYY/MM/DD, each optionally followed by HH:mm. Dates that do
// not exist in the calendar are refused.
func (c *Coercer) Date(literal string) (time.Time, bool) {
	if !looksLikeDate(literal) {
		return time.Time{}, false
	}
	s := strings.TrimSpace(literal)
	if t, ok := c.native(s); ok {
		return t, true
	}
	if m := dayFirst.FindStringSubmatch(s); m != nil {
		return c.build(m[3], m[2], m[1], m[4], m[5])
	}
	if m := yearFirst.FindStringSubmatch(s); m != nil {
		return c.build(m[1], m[2], m[3], m[4], m[5])
	}
	return time.Time{}, false
}

func looksLikeDate(s string) bool {
	return strings.ContainsAny(s, "0123456789") && strings.ContainsAny(s, "-:T/")
}

func (c *Coercer) native(s string) (time.Time, bool) {
	s = zoneName.ReplaceAllString(s, "")
	for _, layout := range c.layouts {
		if t, err := time.ParseInLocation(layout, s, c.location); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (c *Coercer) build(year, month, day, hour, minute string) (time.Time, bool) {
	y, _ := strconv.Atoi(year)
	mo, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	h, mi := 0, 0
	if hour != "" {
		h, _ = strconv.Atoi(hour)
		mi, _ = strconv.Atoi(minute)
	}
	if mo < 1 || mo > 12 || d < 1 || h > 23 || mi > 59 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(mo), d, h, mi, 0, 0, c.location)
	if t.Day() != d || int(t.Month()) != mo {
		return time.Time{}, false
	}
	return t, true
}
