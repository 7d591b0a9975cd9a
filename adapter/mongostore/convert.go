package mongostore

import (
	"strings"
	"time"
	"unicode"

	"github.com/vinicius-lino-figueiredo/restquery/domain"
	"github.com/vinicius-lino-figueiredo/restquery/pkg/structure"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// toBSON converts a filter, pipeline or any value inside them to the types
// understood by the driver. Ordered objects become [bson.D] so stage and sort
// keys keep their order.
func toBSON(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case domain.ObjectID:
		id, err := bson.ObjectIDFromHex(string(t))
		if err != nil {
			return nil, ErrConvert{Value: t, Reason: err.Error()}
		}
		return id, nil
	case domain.Regex:
		return bson.Regex{Pattern: t.Pattern, Options: t.Options}, nil
	case domain.JavaScript:
		return bson.JavaScript(t), nil
	case time.Time, bson.D, bson.M, bson.A, bson.ObjectID, bson.Regex,
		bson.JavaScript, bson.DateTime:
		return t, nil
	case domain.Ordered:
		d := make(bson.D, 0, len(t))
		for _, p := range t {
			val, err := toBSON(p.Value)
			if err != nil {
				return nil, err
			}
			d = append(d, bson.E{Key: p.Key, Value: val})
		}
		return d, nil
	}

	if seq, length, err := structure.Seq2(v); err == nil {
		m := make(bson.M, length)
		for k, val := range seq {
			if m[k], err = toBSON(val); err != nil {
				return nil, err
			}
		}
		return m, nil
	}
	if seq, length, err := structure.Seq(v); err == nil {
		a := make(bson.A, 0, length)
		for val := range seq {
			conv, err := toBSON(val)
			if err != nil {
				return nil, err
			}
			a = append(a, conv)
		}
		return a, nil
	}
	return v, nil
}

func filterToBSON(f domain.Filter) (bson.M, error) {
	if f == nil {
		return bson.M{}, nil
	}
	conv, err := toBSON(f)
	if err != nil {
		return nil, err
	}
	return conv.(bson.M), nil
}

// fromBSON converts decoded driver values back to the domain types.
func fromBSON(v any) any {
	switch t := v.(type) {
	case bson.M:
		return documentFromBSON(t)
	case bson.D:
		doc := make(domain.Document, len(t))
		for _, e := range t {
			doc[e.Key] = fromBSON(e.Value)
		}
		return doc
	case bson.A:
		list := make([]any, len(t))
		for n, item := range t {
			list[n] = fromBSON(item)
		}
		return list
	case bson.ObjectID:
		return domain.ObjectID(t.Hex())
	case bson.DateTime:
		return t.Time().UTC()
	case bson.Regex:
		return domain.Regex{Pattern: t.Pattern, Options: t.Options}
	case bson.JavaScript:
		return domain.JavaScript(t)
	default:
		return v
	}
}

func documentFromBSON(m bson.M) domain.Document {
	if m == nil {
		return nil
	}
	doc := make(domain.Document, len(m))
	for k, val := range m {
		doc[k] = fromBSON(val)
	}
	return doc
}

func documentsFromBSON(ms []bson.M) []domain.Document {
	docs := make([]domain.Document, len(ms))
	for n, m := range ms {
		docs[n] = documentFromBSON(m)
	}
	return docs
}

// projection reads select tokens ("a b", "-c", "+d") into a projection
// document. It returns nil when no field is named.
func projection(tokens []string) bson.D {
	var d bson.D
	for _, tok := range tokens {
		for field := range strings.FieldsFuncSeq(tok, isSeparator) {
			value := 1
			switch field[0] {
			case '-':
				value, field = 0, field[1:]
			case '+':
				field = field[1:]
			}
			if field != "" {
				d = append(d, bson.E{Key: field, Value: value})
			}
		}
	}
	return d
}

func sortDocument(sort domain.Sort) bson.D {
	if len(sort) == 0 {
		return nil
	}
	d := make(bson.D, len(sort))
	for n, f := range sort {
		d[n] = bson.E{Key: f.Key, Value: f.Order}
	}
	return d
}

// sortValue reads the sort of a populate option, either "a -b" text or an
// object of orders.
func sortValue(v any) (any, error) {
	if s, ok := v.(string); ok {
		var d bson.D
		for field := range strings.FieldsFuncSeq(s, isSeparator) {
			order := 1
			switch field[0] {
			case '-':
				order, field = -1, field[1:]
			case '+':
				field = field[1:]
			}
			if field != "" {
				d = append(d, bson.E{Key: field, Value: order})
			}
		}
		return d, nil
	}
	return toBSON(v)
}

func isSeparator(r rune) bool {
	return r == ',' || unicode.IsSpace(r)
}
