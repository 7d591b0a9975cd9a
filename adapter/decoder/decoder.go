// Package decoder contains the default [domain.Decoder] implementation.
package decoder

import (
	"fmt"

	"github.com/goccy/go-reflect"
	"github.com/mitchellh/mapstructure"
	"github.com/vinicius-lino-figueiredo/restquery/domain"
)

// Decoder implements domain.Decoder.
type Decoder struct {
	tagName     string
	errorUnused bool
}

// NewDecoder returns a new implementation of domain.Decoder.
func NewDecoder(options ...Option) domain.Decoder {
	d := &Decoder{
		tagName:     "mapstructure",
		errorUnused: true,
	}
	for _, option := range options {
		option(d)
	}
	return d
}

// Decode implements domain.Decoder. [domain.Ordered] values found in source
// are read as maps.
func (d *Decoder) Decode(source any, target any) error {
	if target == nil {
		return domain.ErrTargetNil
	}

	value := reflect.ValueNoEscapeOf(target)
	if value.Kind() != reflect.Ptr {
		return domain.ErrNonPointer
	}
	if value.IsNil() {
		return domain.ErrTargetNil
	}

	source = d.adjust(source)

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     d.tagName,
		ErrorUnused: d.errorUnused,
		Result:      target,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(source); err != nil {
		errDec := domain.ErrDecode{Source: source, Target: target}
		return fmt.Errorf("%w: %w", errDec, err)
	}
	return nil
}

func (d *Decoder) adjust(value any) any {
	switch t := value.(type) {
	case domain.Ordered:
		doc := make(map[string]any, len(t))
		for _, p := range t {
			doc[p.Key] = d.adjust(p.Value)
		}
		return doc
	case map[string]any:
		doc := make(map[string]any, len(t))
		for k, v := range t {
			doc[k] = d.adjust(v)
		}
		return doc
	case []any:
		lst := make([]any, len(t))
		for n, v := range t {
			lst[n] = d.adjust(v)
		}
		return lst
	default:
		return value
	}
}
