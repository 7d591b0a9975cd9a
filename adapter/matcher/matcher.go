// Package matcher contains the default implementation of [domain.Matcher]
// using a mongo-like match API. It understands the filters produced by the
// parser: $and, $or and $nor, plus $eq, $ne, $gt, $gte, $lt, $lte, $in, $nin,
// $all, $exists, $size, $mod, $elemMatch, $regex and $not on fields.
package matcher

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"regexp"
	"slices"
	"strings"

	"github.com/vinicius-lino-figueiredo/restquery/adapter/comparer"
	"github.com/vinicius-lino-figueiredo/restquery/adapter/fieldnavigator"
	"github.com/vinicius-lino-figueiredo/restquery/domain"
	"github.com/vinicius-lino-figueiredo/restquery/pkg/structure"
)

var (
	// ErrMixedOperators is returned when user provides a query with mixed
	// use of normal fields and operators.
	ErrMixedOperators = errors.New("cannot mix operators and normal fields")
)

// ErrUnknownOperator is returned when user provides an unknown dollar field
// at the top level of a query, such as $where.
type ErrUnknownOperator struct {
	Operator string
}

// Error implements [error].
func (e ErrUnknownOperator) Error() string {
	return fmt.Sprintf("unknown operator %q", e.Operator)
}

// ErrUnknownComparison is returned when an unknown compare field is provided.
type ErrUnknownComparison struct {
	Comparison string
}

// Error implements [error].
func (e ErrUnknownComparison) Error() string {
	return fmt.Sprintf("unknown comparison %q", e.Comparison)
}

// ErrCompArgType is returned when a comparison operator is called with an
// argument of invalid type.
type ErrCompArgType struct {
	Comp   string
	Want   string
	Actual any
}

// Error implements [error].
func (e ErrCompArgType) Error() string {
	return fmt.Sprintf(
		"%s value should be of type %s, got %T",
		e.Comp, e.Want, e.Actual,
	)
}

// Matcher implements [domain.Matcher]. Compiled predicates hold no mutable
// state and can be used concurrently.
type Matcher struct {
	comparer       domain.Comparer
	fieldNavigator domain.FieldNavigator
}

// NewMatcher returns a new implementation of domain.Matcher.
func NewMatcher(options ...Option) domain.Matcher {
	m := &Matcher{
		comparer:       comparer.NewComparer(),
		fieldNavigator: fieldnavigator.NewFieldNavigator(),
	}
	for _, option := range options {
		option(m)
	}
	return m
}

// Compile implements [domain.Matcher]. A nil filter matches every document.
func (m *Matcher) Compile(filter domain.Filter) (domain.Predicate, error) {
	if filter == nil {
		return func(domain.Document) (bool, error) { return true, nil }, nil
	}
	lo, err := m.makeQuery(filter)
	if err != nil {
		return nil, err
	}
	return func(doc domain.Document) (bool, error) {
		return m.matchLogicOp(doc, lo)
	}, nil
}

func (m *Matcher) makeQuery(query any) (LogicOp, error) {
	seq, l, err := structure.Seq2(query)
	if err != nil {
		return LogicOp{}, ErrCompArgType{Comp: "query", Want: "object", Actual: query}
	}

	lo := LogicOp{Type: And, Rules: make([]FieldRule, 0, l)}
	for key, value := range sorted(seq) {
		switch key {
		case "$and", "$or", "$nor":
			sub, err := m.makeLogicOp(key, value)
			if err != nil {
				return lo, err
			}
			lo.Sub = append(lo.Sub, sub)
		case "$comment":
		default:
			if strings.HasPrefix(key, "$") {
				return lo, ErrUnknownOperator{Operator: key}
			}
			rule, err := m.makeFieldRule(key, value)
			if err != nil {
				return lo, err
			}
			lo.Rules = append(lo.Rules, rule)
		}
	}
	return lo, nil
}

func (m *Matcher) makeLogicOp(name string, v any) (LogicOp, error) {
	lo := LogicOp{Type: And}
	switch name {
	case "$or":
		lo.Type = Or
	case "$nor":
		lo.Type = Nor
	}

	items, l, err := structure.Seq(v)
	if err != nil || l == 0 {
		return lo, ErrCompArgType{Comp: name, Want: "non-empty list", Actual: v}
	}
	lo.Sub = make([]LogicOp, 0, l)
	for item := range items {
		sub, err := m.makeQuery(item)
		if err != nil {
			return lo, err
		}
		lo.Sub = append(lo.Sub, sub)
	}
	return lo, nil
}

func (m *Matcher) makeFieldRule(field string, value any) (FieldRule, error) {
	addr, err := m.fieldNavigator.GetAddress(field)
	if err != nil {
		return FieldRule{}, err
	}
	conds, err := m.makeConds(value)
	if err != nil {
		return FieldRule{}, err
	}
	return FieldRule{Addr: addr, Conds: conds}, nil
}

// makeConds reads the value of a field: a pattern, an operator object or a
// value to be compared for equality.
func (m *Matcher) makeConds(value any) ([]Cond, error) {
	if cond, ok, err := m.makeRegex("", value, ""); ok {
		return []Cond{cond}, err
	}

	seq, l, err := structure.Seq2(value)
	if err != nil || l == 0 {
		return []Cond{{Op: Eq, Val: value}}, nil
	}
	mapping, dollar, err := ensureNotMixed(seq, l)
	if err != nil {
		return nil, err
	}
	if dollar == 0 {
		return []Cond{{Op: Eq, Val: value}}, nil
	}
	return m.makeOperatorConds(mapping)
}

func ensureNotMixed(seq iter.Seq2[string, any], l int) (map[string]any, int, error) {
	mapping := make(map[string]any, l)
	var dollar, total int
	for k, v := range seq {
		total++
		if strings.HasPrefix(k, "$") {
			dollar++
		}
		if dollar > 0 && dollar != total {
			return nil, dollar, ErrMixedOperators
		}
		mapping[k] = v
	}
	return mapping, dollar, nil
}

func (m *Matcher) makeOperatorConds(mapping map[string]any) ([]Cond, error) {
	conds := make([]Cond, 0, len(mapping))
	for key, value := range sorted(entries(mapping)) {
		if key == "$options" {
			if _, ok := mapping["$regex"]; !ok {
				return nil, ErrCompArgType{Comp: "$options", Want: "sibling $regex", Actual: value}
			}
			continue
		}
		cond, err := m.makeCond(key, value, mapping)
		if err != nil {
			return nil, err
		}
		conds = append(conds, cond)
	}
	return conds, nil
}

func (m *Matcher) makeCond(k string, v any, siblings map[string]any) (Cond, error) {
	switch k {
	case "$eq":
		return Cond{Op: Eq, Val: v}, nil
	case "$ne":
		return Cond{Op: Ne, Val: v}, nil
	case "$lt":
		return Cond{Op: Lt, Val: v}, nil
	case "$lte":
		return Cond{Op: Lte, Val: v}, nil
	case "$gt":
		return Cond{Op: Gt, Val: v}, nil
	case "$gte":
		return Cond{Op: Gte, Val: v}, nil
	case "$in":
		return m.makeList(k, In, v)
	case "$nin":
		return m.makeList(k, Nin, v)
	case "$all":
		return m.makeList(k, All, v)
	case "$exists":
		return m.makeExists(v), nil
	case "$size":
		return m.makeSize(v)
	case "$mod":
		return m.makeMod(v)
	case "$elemMatch":
		return m.makeElemMatch(v)
	case "$not":
		return m.makeNot(v)
	case "$regex":
		options, _ := siblings["$options"].(string)
		cond, ok, err := m.makeRegex(k, v, options)
		if !ok {
			return cond, ErrCompArgType{Comp: k, Want: "pattern", Actual: v}
		}
		return cond, err
	default:
		return Cond{}, ErrUnknownComparison{Comparison: k}
	}
}

// makeRegex reports false when v is not a pattern. Strings are patterns only
// as the operand of $regex.
func (m *Matcher) makeRegex(name string, v any, options string) (Cond, bool, error) {
	var r domain.Regex
	switch t := v.(type) {
	case *regexp.Regexp:
		return Cond{Op: Regex, Re: t}, true, nil
	case domain.Regex:
		r = t
	case string:
		if name != "$regex" {
			return Cond{}, false, nil
		}
		r = domain.Regex{Pattern: t}
	default:
		return Cond{}, false, nil
	}
	if options != "" {
		r.Options = options
	}
	re, err := r.Compile()
	if err != nil {
		return Cond{}, true, fmt.Errorf("%s: %w", name, err)
	}
	return Cond{Op: Regex, Re: re}, true, nil
}

func (m *Matcher) makeList(name string, op uint8, v any) (Cond, error) {
	items, l, err := structure.Seq(v)
	if err != nil {
		return Cond{}, ErrCompArgType{Comp: name, Want: "list", Actual: v}
	}
	cond := Cond{Op: op, Sub: make([]Cond, 0, l)}
	for item := range items {
		if re, ok, err := m.makeRegex(name, item, ""); ok {
			if err != nil {
				return Cond{}, err
			}
			cond.Sub = append(cond.Sub, re)
			continue
		}
		cond.Sub = append(cond.Sub, Cond{Op: Eq, Val: item})
	}
	return cond, nil
}

// makeExists accepts any value, the way MongoDB does: false, nil and zero
// mean the field must not exist.
func (m *Matcher) makeExists(v any) Cond {
	switch t := v.(type) {
	case nil:
		return Cond{Op: Exists, Val: false}
	case bool:
		return Cond{Op: Exists, Val: t}
	}
	if f, ok := comparer.AsFloat(v); ok {
		return Cond{Op: Exists, Val: f != 0}
	}
	return Cond{Op: Exists, Val: true}
}

func (m *Matcher) makeSize(v any) (Cond, error) {
	i, ok := structure.AsInteger(v)
	if !ok || i < 0 {
		return Cond{}, ErrCompArgType{Comp: "$size", Want: "non-negative integer", Actual: v}
	}
	return Cond{Op: Size, Val: i}, nil
}

func (m *Matcher) makeMod(v any) (Cond, error) {
	items, l, err := structure.Seq(v)
	if err != nil || l != 2 {
		return Cond{}, ErrCompArgType{Comp: "$mod", Want: "[divisor, remainder]", Actual: v}
	}
	var args [2]int64
	n := 0
	for item := range items {
		f, ok := comparer.AsFloat(item)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			return Cond{}, ErrCompArgType{Comp: "$mod", Want: "number", Actual: item}
		}
		args[n] = int64(f)
		n++
	}
	if args[0] == 0 {
		return Cond{}, ErrCompArgType{Comp: "$mod", Want: "non-zero divisor", Actual: v}
	}
	return Cond{Op: Mod, Val: args}, nil
}

func (m *Matcher) makeElemMatch(v any) (Cond, error) {
	seq, l, err := structure.Seq2(v)
	if err != nil {
		return Cond{}, ErrCompArgType{Comp: "$elemMatch", Want: "object", Actual: v}
	}
	mapping, dollar, err := ensureNotMixed(seq, l)
	if err != nil {
		return Cond{}, err
	}
	if dollar > 0 {
		if _, logic := firstLogic(mapping); !logic {
			sub, err := m.makeOperatorConds(mapping)
			if err != nil {
				return Cond{}, err
			}
			return Cond{Op: ElemMatch, Sub: sub}, nil
		}
	}
	qry, err := m.makeQuery(v)
	if err != nil {
		return Cond{}, err
	}
	return Cond{Op: ElemMatch, Query: &qry}, nil
}

func firstLogic(mapping map[string]any) (string, bool) {
	for _, k := range []string{"$and", "$or", "$nor"} {
		if _, ok := mapping[k]; ok {
			return k, true
		}
	}
	return "", false
}

func (m *Matcher) makeNot(v any) (Cond, error) {
	if re, ok, err := m.makeRegex("$not", v, ""); ok {
		if err != nil {
			return Cond{}, err
		}
		return Cond{Op: Not, Sub: []Cond{re}}, nil
	}
	seq, l, err := structure.Seq2(v)
	if err != nil || l == 0 {
		return Cond{}, ErrCompArgType{Comp: "$not", Want: "operator object or pattern", Actual: v}
	}
	mapping, dollar, err := ensureNotMixed(seq, l)
	if err != nil {
		return Cond{}, err
	}
	if dollar == 0 {
		return Cond{}, ErrCompArgType{Comp: "$not", Want: "operator object or pattern", Actual: v}
	}
	sub, err := m.makeOperatorConds(mapping)
	if err != nil {
		return Cond{}, err
	}
	return Cond{Op: Not, Sub: sub}, nil
}

func (m *Matcher) matchLogicOp(doc any, lo LogicOp) (bool, error) {
	switch lo.Type {
	case And:
		for _, rule := range lo.Rules {
			matches, err := m.matchRule(doc, rule)
			if err != nil || !matches {
				return false, err
			}
		}
		for _, sub := range lo.Sub {
			matches, err := m.matchLogicOp(doc, sub)
			if err != nil || !matches {
				return false, err
			}
		}
		return true, nil
	case Or, Nor:
		for _, sub := range lo.Sub {
			matches, err := m.matchLogicOp(doc, sub)
			if err != nil {
				return false, err
			}
			if matches {
				return lo.Type == Or, nil
			}
		}
		return lo.Type == Nor, nil
	default:
		return false, nil
	}
}

func (m *Matcher) matchRule(doc any, rule FieldRule) (bool, error) {
	values, _, err := m.fieldNavigator.GetField(doc, rule.Addr...)
	if err != nil {
		return false, err
	}
	for _, cond := range rule.Conds {
		matches, err := m.matchCond(values, cond)
		if err != nil || !matches {
			return false, err
		}
	}
	return true, nil
}

func (m *Matcher) matchCond(values []domain.GetSetter, cond Cond) (bool, error) {
	switch cond.Op {
	case Eq:
		return m.eq(values, cond.Val)
	case Ne:
		matches, err := m.eq(values, cond.Val)
		return !matches, err
	case Lt, Lte, Gt, Gte:
		return m.compare(values, cond)
	case In:
		return m.any(values, cond.Sub)
	case Nin:
		matches, err := m.any(values, cond.Sub)
		return !matches, err
	case All:
		return m.all(values, cond.Sub)
	case Exists:
		return defined(values) == cond.Val.(bool), nil
	case Size:
		return m.size(values, cond.Val.(int)), nil
	case Mod:
		return m.mod(values, cond.Val.([2]int64)), nil
	case ElemMatch:
		return m.elemMatch(values, cond)
	case Regex:
		return m.regex(values, cond.Re), nil
	case Not:
		matches, err := m.all(values, cond.Sub)
		return !matches, err
	default:
		return false, nil
	}
}

// candidates returns the defined values along with the items of the ones
// that are lists, so conditions can match lists by any of their items.
func candidates(values []domain.GetSetter) []any {
	res := make([]any, 0, len(values))
	for _, value := range values {
		actual, ok := comparer.Concrete(value)
		if !ok {
			continue
		}
		res = append(res, actual)
		if arr, ok := actual.([]any); ok {
			res = append(res, arr...)
		}
	}
	return res
}

func defined(values []domain.GetSetter) bool {
	for _, value := range values {
		if _, ok := value.Get(); ok {
			return true
		}
	}
	return false
}

// eq matches nil against missing fields as well.
func (m *Matcher) eq(values []domain.GetSetter, val any) (bool, error) {
	if val == nil && !defined(values) {
		return true, nil
	}
	for _, actual := range candidates(values) {
		if !m.comparer.Comparable(actual, val) {
			continue
		}
		c, err := m.comparer.Compare(actual, val)
		if err != nil {
			return false, err
		}
		if c == 0 {
			return true, nil
		}
	}
	return false, nil
}

func (m *Matcher) compare(values []domain.GetSetter, cond Cond) (bool, error) {
	for _, actual := range candidates(values) {
		if !m.comparer.Comparable(actual, cond.Val) {
			continue
		}
		c, err := m.comparer.Compare(actual, cond.Val)
		if err != nil {
			return false, err
		}
		var matches bool
		switch cond.Op {
		case Lt:
			matches = c < 0
		case Lte:
			matches = c <= 0
		case Gt:
			matches = c > 0
		case Gte:
			matches = c >= 0
		}
		if matches {
			return true, nil
		}
	}
	return false, nil
}

func (m *Matcher) any(values []domain.GetSetter, conds []Cond) (bool, error) {
	for _, cond := range conds {
		matches, err := m.matchCond(values, cond)
		if err != nil || matches {
			return matches, err
		}
	}
	return false, nil
}

// all never matches an empty list of conditions.
func (m *Matcher) all(values []domain.GetSetter, conds []Cond) (bool, error) {
	if len(conds) == 0 {
		return false, nil
	}
	for _, cond := range conds {
		matches, err := m.matchCond(values, cond)
		if err != nil || !matches {
			return false, err
		}
	}
	return true, nil
}

func (m *Matcher) size(values []domain.GetSetter, size int) bool {
	for _, value := range values {
		actual, _ := value.Get()
		if arr, ok := actual.([]any); ok && len(arr) == size {
			return true
		}
	}
	return false
}

func (m *Matcher) mod(values []domain.GetSetter, args [2]int64) bool {
	for _, actual := range candidates(values) {
		f, ok := comparer.AsFloat(actual)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		if int64(f)%args[0] == args[1] {
			return true
		}
	}
	return false
}

func (m *Matcher) elemMatch(values []domain.GetSetter, cond Cond) (bool, error) {
	for _, value := range values {
		actual, _ := value.Get()
		arr, ok := actual.([]any)
		if !ok {
			continue
		}
		for _, elem := range arr {
			var matches bool
			var err error
			if cond.Query != nil {
				if _, isDoc := elem.(domain.Document); !isDoc {
					continue
				}
				matches, err = m.matchLogicOp(elem, *cond.Query)
			} else {
				matches, err = m.all([]domain.GetSetter{item{v: elem}}, cond.Sub)
			}
			if err != nil || matches {
				return matches, err
			}
		}
	}
	return false, nil
}

func (m *Matcher) regex(values []domain.GetSetter, re *regexp.Regexp) bool {
	for _, actual := range candidates(values) {
		if str, ok := actual.(string); ok && re.MatchString(str) {
			return true
		}
	}
	return false
}

// item is a read-only [domain.GetSetter] for list items tested by
// $elemMatch.
type item struct{ v any }

func (i item) Get() (any, bool) { return i.v, true }
func (i item) Set(any)          {}
func (i item) Unset()           {}

// sorted iterates seq by key, so compiled conditions and errors do not depend
// on map order.
func sorted(seq iter.Seq2[string, any]) iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		keys := make([]string, 0)
		values := make(map[string]any)
		for k, v := range seq {
			keys = append(keys, k)
			values[k] = v
		}
		slices.Sort(keys)
		for _, k := range keys {
			if !yield(k, values[k]) {
				return
			}
		}
	}
}

func entries(m map[string]any) iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for k, v := range m {
			if !yield(k, v) {
				return
			}
		}
	}
}
