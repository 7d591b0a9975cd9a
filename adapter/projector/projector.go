// Package projector contains the default [domain.Projector] implementation.
// Tokens are the select strings of a descriptor: "a b.c" keeps fields while
// "-a" omits them.
package projector

import (
	"errors"
	"strings"
	"unicode"

	"github.com/vinicius-lino-figueiredo/restquery/adapter/fieldnavigator"
	"github.com/vinicius-lino-figueiredo/restquery/domain"
	"github.com/vinicius-lino-figueiredo/restquery/pkg/structure"
)

var (
	// ErrMixOmitType is returned when user provides a projection object
	// with mixed "omit" and "show" operators.
	ErrMixOmitType = errors.New("can't both keep and omit fields except for _id")
)

// Projector implements [domain.Projector].
type Projector struct {
	fn domain.FieldNavigator
}

// NewProjector returns a new implementation of [domain.Projector].
func NewProjector(opts ...Option) domain.Projector {
	p := Projector{fn: fieldnavigator.NewFieldNavigator()}
	for _, opt := range opts {
		opt(&p)
	}
	return &p
}

// node is a projection path tree. A leaf ends a projected path.
type node struct {
	leaf     bool
	children map[string]*node
}

func (n *node) add(addr []string) {
	for _, key := range addr {
		if n.leaf {
			return
		}
		if n.children == nil {
			n.children = make(map[string]*node)
		}
		child, ok := n.children[key]
		if !ok {
			child = &node{}
			n.children[key] = child
		}
		n = child
	}
	n.leaf, n.children = true, nil
}

// Project implements [domain.Projector]. Documents are copied; the input is
// never modified.
func (q *Projector) Project(docs []domain.Document, tokens []string) ([]domain.Document, error) {
	tree, keep, dropID, err := q.readTokens(tokens)
	if err != nil {
		return nil, err
	}
	if tree == nil {
		return docs, nil
	}

	res := make([]domain.Document, len(docs))
	for n, doc := range docs {
		var projected domain.Document
		if keep {
			projected = pick(doc, tree).(domain.Document)
			if id, ok := doc["_id"]; ok && !dropID {
				projected["_id"] = structure.Clone(id)
			}
		} else {
			projected = omit(doc, tree).(domain.Document)
		}
		res[n] = projected
	}
	return res, nil
}

// readTokens builds the path tree of tokens. A nil tree means nothing should
// be projected. The first boolean tells kept fields from omitted ones; the
// second is set by "-_id".
func (q *Projector) readTokens(tokens []string) (*node, bool, bool, error) {
	var tree *node
	var keep, omitting, idMentioned, dropID bool
	for _, tok := range tokens {
		for field := range strings.FieldsFuncSeq(tok, isSeparator) {
			show := true
			switch field[0] {
			case '-':
				show, field = false, field[1:]
			case '+':
				field = field[1:]
			}
			if field == "" {
				continue
			}
			addr, err := q.fn.GetAddress(field)
			if err != nil {
				return nil, false, false, err
			}
			if field == "_id" {
				idMentioned = true
				if show {
					continue
				}
				dropID = true
			} else {
				keep = keep || show
				omitting = omitting || !show
			}
			if keep && omitting {
				return nil, false, false, ErrMixOmitType
			}
			if tree == nil {
				tree = &node{}
			}
			tree.add(addr)
		}
	}
	if tree == nil && idMentioned {
		// only "_id" was kept
		tree = &node{}
		tree.add([]string{"_id"})
		return tree, true, false, nil
	}
	if tree != nil && keep {
		// "-_id" along with kept fields
		delete(tree.children, "_id")
	}
	return tree, keep, dropID, nil
}

// pick copies the fields of v named by n. Lists are projected item by item,
// dropping items that are not documents.
func pick(v any, n *node) any {
	switch t := v.(type) {
	case domain.Document:
		res := make(domain.Document, len(n.children))
		for key, child := range n.children {
			value, ok := t[key]
			if !ok {
				continue
			}
			if child.leaf {
				res[key] = structure.Clone(value)
				continue
			}
			switch value.(type) {
			case domain.Document, []any:
				res[key] = pick(value, child)
			}
		}
		return res
	case []any:
		res := make([]any, 0, len(t))
		for _, item := range t {
			switch item.(type) {
			case domain.Document, []any:
				res = append(res, pick(item, n))
			}
		}
		return res
	default:
		return v
	}
}

// omit copies v without the fields named by n.
func omit(v any, n *node) any {
	switch t := v.(type) {
	case domain.Document:
		res := make(domain.Document, len(t))
		for key, value := range t {
			child, ok := n.children[key]
			switch {
			case !ok:
				res[key] = structure.Clone(value)
			case !child.leaf:
				res[key] = omit(value, child)
			}
		}
		return res
	case []any:
		res := make([]any, len(t))
		for i, item := range t {
			res[i] = omit(item, n)
		}
		return res
	default:
		return v
	}
}

func isSeparator(r rune) bool {
	return r == ',' || unicode.IsSpace(r)
}
