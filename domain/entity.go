package domain

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// DefaultLimit is the number of documents a [Descriptor] is limited to when no
// limit parameter is provided.
const DefaultLimit int64 = 1000

// Combinator keys. Values under these keys are lists of sub-filters and keep
// insertion order.
const (
	Or  = "$or"
	Nor = "$nor"
	And = "$and"
)

// Filter is a mongo-like filter. Keys are field paths or combinators.
type Filter = map[string]any

// Document is a single document returned by a [Store].
type Document = map[string]any

// OperationType names the store operation a [Descriptor] should be executed
// with.
type OperationType string

// Supported operation types.
const (
	OperationFind      OperationType = "find"
	OperationFindOne   OperationType = "findOne"
	OperationCount     OperationType = "count"
	OperationDistinct  OperationType = "distinct"
	OperationAggregate OperationType = "aggregate"
	OperationMapReduce OperationType = "mapReduce"
)

// Valid reports whether o is one of the supported operation types.
func (o OperationType) Valid() bool {
	switch o {
	case OperationFind, OperationFindOne, OperationCount,
		OperationDistinct, OperationAggregate, OperationMapReduce:
		return true
	default:
		return false
	}
}

// Sort represents an ordered list of fields which should be used to sort query
// results, applied in sequence.
type Sort = []SortField

// SortField represents a single field and the order which should be used to
// sort it. Order is either 1 (ascending) or -1 (descending).
type SortField struct {
	Key   string `json:"key"`
	Order int    `json:"order"`
}

// ObjectID is an opaque document identifier: 24 lowercase hexadecimal
// characters. It is kept distinct from a plain string so stores that have a
// native identifier type can convert it.
type ObjectID string

var objectIDPattern = regexp.MustCompile(`^[0-9a-f]{24}$`)

// IsObjectIDHex reports whether s has the shape of an [ObjectID].
func IsObjectIDHex(s string) bool {
	return objectIDPattern.MatchString(s)
}

// MarshalJSON implements [json.Marshaler] using the Extended JSON wrapper
// {"$oid": "..."}.
func (o ObjectID) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"$oid": string(o)})
}

// Regex is a pattern condition. Options uses mongo flag letters (i, m, s, x,
// u).
type Regex struct {
	Pattern string
	Options string
}

// String returns the regex in literal form, /pattern/options.
func (r Regex) String() string {
	return "/" + r.Pattern + "/" + r.Options
}

// MarshalJSON implements [json.Marshaler] as {"$regex": ..., "$options": ...},
// the same shape accepted back in the q parameter.
func (r Regex) MarshalJSON() ([]byte, error) {
	m := map[string]string{"$regex": r.Pattern}
	if r.Options != "" {
		m["$options"] = r.Options
	}
	return json.Marshal(m)
}

// Compile returns the Go equivalent of r. Flag x has no RE2 equivalent and
// returns an error; flag u is implied.
func (r Regex) Compile() (*regexp.Regexp, error) {
	var flags strings.Builder
	for _, f := range r.Options {
		switch f {
		case 'i', 'm', 's':
			flags.WriteRune(f)
		case 'u':
		default:
			return nil, fmt.Errorf("unsupported regex flag %q", f)
		}
	}
	if flags.Len() == 0 {
		return regexp.Compile(r.Pattern)
	}
	return regexp.Compile("(?" + flags.String() + ")" + r.Pattern)
}

// pcreOnly finds syntax MongoDB accepts but RE2 rejects: lookarounds, atomic
// groups, backreferences and possessive quantifiers.
var pcreOnly = regexp.MustCompile(`\(\?(?:[=!>]|<[=!])|\\[1-9gk]|[*+?}]\+`)

// Validate returns the error found compiling the pattern. Patterns using
// PCRE-only syntax are not checked.
func (r Regex) Validate() error {
	if pcreOnly.MatchString(r.Pattern) {
		return nil
	}
	_, err := regexp.Compile(r.Pattern)
	return err
}

// JavaScript is source code accepted by a [CodeCompiler] for evaluation by the
// store itself rather than by this process.
type JavaScript string

// PopulateOption describes one reference to be resolved by the store after a
// find. Only Path is required.
type PopulateOption struct {
	Path     string           `mapstructure:"path" json:"path"`
	Select   string           `mapstructure:"select" json:"select,omitempty"`
	Model    string           `mapstructure:"model" json:"model,omitempty"`
	Match    map[string]any   `mapstructure:"match" json:"match,omitempty"`
	Options  map[string]any   `mapstructure:"options" json:"options,omitempty"`
	Populate []PopulateOption `mapstructure:"populate" json:"populate,omitempty"`
}

// MapReduceSource carries the raw map/reduce parameters. Nothing in the parser
// evaluates them; see [CodeCompiler].
type MapReduceSource struct {
	Map      string `json:"map"`
	Reduce   string `json:"reduce"`
	Scope    string `json:"scope,omitempty"`
	Finalize string `json:"finalize,omitempty"`
}

// Descriptor is the result of parsing a set of request parameters. It is
// created fresh for every parse call and owned by the caller afterwards.
type Descriptor struct {
	Filter     Filter           `json:"filter"`
	Pipeline   []any            `json:"pipeline,omitempty"`
	Operation  OperationType    `json:"operation"`
	Projection []string         `json:"projection,omitempty"`
	Sort       Sort             `json:"sort,omitempty"`
	Skip       *int64           `json:"skip,omitempty"`
	Limit      int64            `json:"limit"`
	Populate   []PopulateOption `json:"populate,omitempty"`
	Flatten    bool             `json:"flatten"`
	MapReduce  *MapReduceSource `json:"mapReduce,omitempty"`
}

// NewDescriptor returns a Descriptor holding the default values.
func NewDescriptor() Descriptor {
	return Descriptor{
		Filter:    Filter{},
		Operation: OperationFind,
		Limit:     DefaultLimit,
	}
}

// DistinctField returns the field a distinct operation should collect, which
// is the first projection token.
func (d Descriptor) DistinctField() string {
	if len(d.Projection) == 0 {
		return ""
	}
	return strings.TrimSpace(d.Projection[0])
}

// ValueKind tags the shape of a parameter [Value].
type ValueKind uint8

// Parameter value shapes.
const (
	Scalar ValueKind = iota
	List
	Structured
)

func (k ValueKind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case List:
		return "list"
	case Structured:
		return "structured"
	default:
		return fmt.Sprintf("ValueKind(%d)", k)
	}
}

// Value is a request parameter value. Exactly one of the fields matching Kind
// is meaningful.
type Value struct {
	Kind       ValueKind
	Scalar     string
	List       []string
	Structured any
}

// ScalarValue returns a [Value] of kind [Scalar].
func ScalarValue(s string) Value {
	return Value{Kind: Scalar, Scalar: s}
}

// ListValue returns a [Value] of kind [List]. A single item is reduced to a
// [Scalar], the way a query string with a non-repeated key would decode.
func ListValue(l ...string) Value {
	if len(l) == 1 {
		return ScalarValue(l[0])
	}
	return Value{Kind: List, List: l}
}

// StructuredValue returns a [Value] of kind [Structured].
func StructuredValue(v any) Value {
	return Value{Kind: Structured, Structured: v}
}

// Param is a single named request parameter.
type Param struct {
	Key   string
	Value Value
}

// Params is an ordered set of request parameters. Order is the order in which
// parameters are handled, which decides the order of combinator clauses.
type Params []Param

// Operator is an operator token found at the start of a raw parameter value,
// such as {gt} or {in}.
type Operator string

// Recognized operators.
const (
	OpNone        Operator = ""
	OpGt          Operator = "gt"
	OpGte         Operator = "gte"
	OpLt          Operator = "lt"
	OpLte         Operator = "lte"
	OpIn          Operator = "in"
	OpNin         Operator = "nin"
	OpNe          Operator = "ne"
	OpSize        Operator = "size"
	OpAll         Operator = "all"
	OpMod         Operator = "mod"
	OpInsensitive Operator = "i"
	OpEndsWith    Operator = "e"
	OpBeginsWith  Operator = "b"
	OpElemMatch   Operator = "m"
	OpEmpty       Operator = "empty"
	OpNotEmpty    Operator = "!empty"
	OpCustom      Operator = "c"
)

// Token is the result of splitting a raw value into an operator and the
// literal that follows it.
type Token struct {
	Op      Operator
	Literal string
}

// Result holds the outcome of running a [Descriptor] against a [Store]. Only
// the fields matching Operation are set.
type Result struct {
	Operation OperationType
	Documents []Document
	Document  Document
	Count     int64
	Values    []any
	Output    any
}

// Value returns the result in the shape callers of the HTTP surface expect:
// a list of documents, a single document (or nil), {"count": n}, a list of
// distinct values or the map/reduce output.
func (r Result) Value() any {
	switch r.Operation {
	case OperationFindOne:
		return r.Document
	case OperationCount:
		return map[string]int64{"count": r.Count}
	case OperationDistinct:
		return r.Values
	case OperationMapReduce:
		return r.Output
	default:
		return r.Documents
	}
}
