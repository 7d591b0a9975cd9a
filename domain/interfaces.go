// Package domain contains domain-specific interfaces and option types for
// restquery.
//
// This package defines the core interfaces that must be implemented by
// adapters, the [Descriptor] produced by parsing request parameters, the
// tagged [Value] used as parser input, and the functional options used when
// executing a descriptor against a [Store].
package domain

import (
	"context"
	"iter"
	"time"
)

// Parser converts request parameters into a [Descriptor]. Implementations
// must be safe for concurrent use and must not share scratch state between
// calls.
type Parser interface {
	// Parse builds a new descriptor from the given parameters.
	Parse(Params) (Descriptor, error)
}

// Tokenizer splits a raw value into a leading operator and a literal.
type Tokenizer interface {
	// Split returns the operator found at the start of raw, if any, and
	// the remaining literal.
	Split(raw string) Token
}

// Coercer decides the type of a literal taken from a request parameter.
type Coercer interface {
	// Value applies the full precedence ladder: identifier, number, date
	// and finally string.
	Value(literal string) any
	// ValueNoDate applies the ladder without the date step.
	ValueNoDate(literal string) any
	// Bool reports whether literal is boolean-looking and its value.
	Bool(literal string) (value bool, ok bool)
	// Number parses literal with number conversion semantics.
	Number(literal string) (float64, bool)
	// Date applies the date heuristic to literal.
	Date(literal string) (time.Time, bool)
	// Regex reports whether literal is a /pattern/flags literal.
	Regex(literal string) (Regex, bool)
}

// Assembler adds conditions to a filter under construction.
type Assembler interface {
	// Assemble adds the condition described by tok for the given field.
	Assemble(filter Filter, field string, tok Token) error
}

// Walker normalizes a filter that was decoded from JSON, replacing string
// leaves with typed values.
type Walker interface {
	// Walk returns a normalized copy of v. v is never modified.
	Walk(v any) (any, error)
}

// Pair is a key and its value in an [Ordered] object.
type Pair struct {
	Key   string
	Value any
}

// Ordered is a JSON object decoded with its key order preserved.
type Ordered []Pair

// JSONParser decodes JSON parameter values.
type JSONParser interface {
	// Parse decodes data, returning objects as map[string]any.
	Parse(data []byte) (any, error)
	// ParseOrdered decodes data, returning objects as [Ordered].
	ParseOrdered(data []byte) (any, error)
}

// Decoder converts between different data representations.
type Decoder interface {
	// Decode converts from one data format to another.
	Decode(any, any) error
}

// Flattener turns a nested document into dotted-path keys mapped to scalar
// values.
type Flattener interface {
	// Flatten returns the flattened form of doc.
	Flatten(doc any) (Document, error)
}

// CodeCompiler is the opt-in capability of turning caller supplied source
// (map, reduce and finalize functions) into something a [Store] can run. The
// parser never calls it; only a runner does, and a runner configured without
// one refuses to run map/reduce.
type CodeCompiler interface {
	// Compile returns a store-specific callable for source.
	Compile(source string) (any, error)
}

// MapReduceJob is a map/reduce request with its code already compiled.
type MapReduceJob struct {
	Map      any
	Reduce   any
	Finalize any
	Scope    Document
	Filter   Filter
	Limit    int64
}

// Store is the execution adapter a [Descriptor] is run against. Errors
// returned by a Store are passed to the caller unchanged.
type Store interface {
	// Find returns the documents matching filter.
	Find(ctx context.Context, filter Filter, opts ...FindOption) ([]Document, error)
	// FindOne returns the first matching document, or nil if none does.
	FindOne(ctx context.Context, filter Filter, opts ...FindOption) (Document, error)
	// Count returns the number of documents matching filter.
	Count(ctx context.Context, filter Filter) (int64, error)
	// Distinct returns the distinct values of field among the documents
	// matching filter.
	Distinct(ctx context.Context, field string, filter Filter) ([]any, error)
	// Aggregate runs an aggregation pipeline.
	Aggregate(ctx context.Context, pipeline []any) ([]Document, error)
	// MapReduce runs a map/reduce job.
	MapReduce(ctx context.Context, job MapReduceJob) (any, error)
}

// Comparer orders values of any type the way a document store does: first by
// type, then by value.
type Comparer interface {
	// Compare returns -1, 0 or 1 when a is lower, equal or greater than b.
	Compare(a, b any) (int, error)
	// Comparable reports whether a and b are of the same type class, which
	// is required by range conditions such as $gt.
	Comparable(a, b any) bool
}

// Hasher hashes values so that values considered equal by a [Comparer] have
// the same hash.
type Hasher interface {
	Hash(value any) (uint64, error)
}

// Getter reads a value that may be undefined.
type Getter interface {
	Get() (value any, defined bool)
}

// GetSetter reads and writes a single field or list item.
type GetSetter interface {
	Getter
	Set(value any)
	Unset()
}

// FieldNavigator reads document fields addressed by dotted paths.
type FieldNavigator interface {
	// GetAddress splits a dotted path.
	GetAddress(field string) ([]string, error)
	// GetField returns every value found at addr. The boolean is true when
	// a list was crossed on the way, in which case one value is returned
	// per list item.
	GetField(doc any, addr ...string) ([]GetSetter, bool, error)
}

// Predicate reports whether doc matches a compiled filter.
type Predicate func(doc Document) (bool, error)

// Matcher compiles filters so they can be matched against many documents.
type Matcher interface {
	Compile(filter Filter) (Predicate, error)
}

// Projector applies projection tokens such as "a b" or "-c" to documents.
type Projector interface {
	Project(docs []Document, tokens []string) ([]Document, error)
}

// Querier selects, sorts, pages and projects documents held in memory.
type Querier interface {
	Query(docs iter.Seq[Document], filter Filter, opts ...FindOption) ([]Document, error)
}

// IDGenerator creates identifiers for documents that have none.
type IDGenerator interface {
	GenerateID() (ObjectID, error)
}

// Runner executes a [Descriptor] against a [Store].
type Runner interface {
	// Run dispatches d to the store according to its operation type.
	Run(ctx context.Context, d Descriptor) (Result, error)
}
