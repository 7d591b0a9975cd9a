// Package walker contains the default [domain.Walker], which retypes the
// string leaves of a filter decoded from JSON.
package walker

import (
	"regexp"
	"slices"
	"strings"

	"github.com/vinicius-lino-figueiredo/restquery/adapter/coercer"
	"github.com/vinicius-lino-figueiredo/restquery/domain"
	"github.com/vinicius-lino-figueiredo/restquery/pkg/structure"
)

const oidPrefix = "oid:"

var (
	slashedRegex = regexp.MustCompile(`^/(.*)/([a-z]*)$`)
	regexFlags   = regexp.MustCompile(`^[imsxu]*$`)
)

var javaScriptOperators = map[string]bool{
	"$where":       true,
	"$function":    true,
	"$accumulator": true,
}

// Walker implements [domain.Walker].
type Walker struct {
	coercer         domain.Coercer
	allowJavaScript bool
	param           string
}

// NewWalker returns a new implementation of [domain.Walker].
func NewWalker(options ...Option) domain.Walker {
	w := &Walker{
		coercer: coercer.NewCoercer(),
		param:   "q",
	}
	for _, option := range options {
		option(w)
	}
	return w
}

// Walk implements [domain.Walker]. Objects are returned as map[string]any,
// except [domain.Ordered], which keeps its type and order.
func (w *Walker) Walk(v any) (any, error) {
	return w.walk(v)
}

func (w *Walker) walk(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		return w.leaf(t)
	case domain.Ordered:
		return w.ordered(t)
	}
	if structure.IsObject(v) {
		return w.object(v)
	}
	if structure.IsList(v) {
		return w.list(v)
	}
	return v, nil
}

func (w *Walker) leaf(s string) (any, error) {
	if hex, ok := strings.CutPrefix(s, oidPrefix); ok {
		if !domain.IsObjectIDHex(hex) {
			return nil, w.parseErr(s, "invalid object id")
		}
		return domain.ObjectID(hex), nil
	}
	if d, ok := w.coercer.Date(s); ok {
		return d, nil
	}
	return s, nil
}

func (w *Walker) object(v any) (any, error) {
	seq, length, err := structure.Seq2(v)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, length)
	for k, val := range seq {
		out[k] = val
	}
	if err := w.fields(out); err != nil {
		return nil, err
	}
	if r, ok := out["$regex"].(domain.Regex); ok && len(out) == 1 {
		return r, nil
	}
	return out, nil
}

// fields walks every value of m in place. m must not be shared.
func (w *Walker) fields(m map[string]any) error {
	for k, val := range m {
		if err := w.checkKey(k); err != nil {
			return err
		}
		if k == "$regex" || k == "$options" {
			continue
		}
		walked, err := w.walk(val)
		if err != nil {
			return err
		}
		m[k] = walked
	}
	if _, ok := m["$regex"]; ok {
		return w.mergeRegex(m)
	}
	if _, ok := m["$options"]; ok {
		return w.parseErr("$options", "$options without $regex")
	}
	return nil
}

func (w *Walker) ordered(o domain.Ordered) (any, error) {
	out := make(domain.Ordered, 0, len(o))
	for _, p := range o {
		if err := w.checkKey(p.Key); err != nil {
			return nil, err
		}
		if p.Key == "$regex" || p.Key == "$options" {
			out = append(out, p)
			continue
		}
		walked, err := w.walk(p.Value)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Pair{Key: p.Key, Value: walked})
	}
	return w.mergeOrderedRegex(out)
}

// mergeOrderedRegex does what mergeRegex does for maps, keeping the position
// of $regex and dropping $options.
func (w *Walker) mergeOrderedRegex(o domain.Ordered) (any, error) {
	regexAt, optionsAt := -1, -1
	for n, p := range o {
		switch p.Key {
		case "$regex":
			regexAt = n
		case "$options":
			optionsAt = n
		}
	}
	if regexAt < 0 {
		if optionsAt >= 0 {
			return nil, w.parseErr("$options", "$options without $regex")
		}
		return o, nil
	}

	m := map[string]any{"$regex": o[regexAt].Value}
	if optionsAt >= 0 {
		m["$options"] = o[optionsAt].Value
	}
	if err := w.mergeRegex(m); err != nil {
		return nil, err
	}
	o[regexAt].Value = m["$regex"]
	if optionsAt >= 0 {
		o = slices.Delete(o, optionsAt, optionsAt+1)
	}
	if len(o) == 1 {
		return o[0].Value, nil
	}
	return o, nil
}

func (w *Walker) list(v any) (any, error) {
	seq, length, err := structure.Seq(v)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, length)
	for val := range seq {
		walked, err := w.walk(val)
		if err != nil {
			return nil, err
		}
		out = append(out, walked)
	}
	return out, nil
}

func (w *Walker) checkKey(k string) error {
	if !w.allowJavaScript && javaScriptOperators[k] {
		return domain.ErrSecurityRejection{
			Key:    k,
			Reason: "server side JavaScript is not allowed",
		}
	}
	return nil
}

// mergeRegex replaces $regex with a [domain.Regex], consuming a sibling
// $options. A /pattern/flags string keeps its own flags unless $options is
// given.
func (w *Walker) mergeRegex(m map[string]any) error {
	var r domain.Regex
	switch t := m["$regex"].(type) {
	case domain.Regex:
		r = t
	case string:
		r.Pattern = t
		if sm := slashedRegex.FindStringSubmatch(t); sm != nil {
			r.Pattern, r.Options = sm[1], sm[2]
		}
	default:
		return w.parseErr("$regex", "$regex must be a string")
	}
	if opts, ok := m["$options"]; ok {
		s, ok := opts.(string)
		if !ok {
			return w.parseErr("$options", "$options must be a string")
		}
		r.Options = s
		delete(m, "$options")
	}
	if !regexFlags.MatchString(r.Options) {
		return w.parseErr(r.Options, "unknown pattern flags")
	}
	if err := r.Validate(); err != nil {
		return w.parseErr(r.Pattern, "invalid pattern: "+err.Error())
	}
	m["$regex"] = r
	return nil
}

func (w *Walker) parseErr(value, reason string) error {
	return domain.ErrParse{Param: w.param, Value: value, Reason: reason}
}
