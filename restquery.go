// Package restquery turns the query parameters of a REST request into a query
// for a MongoDB-like document store.
//
// A request such as
//
//	/books?author={in}ann,bob&year={gte}2000&s=-year&l=10&p=publisher
//
// is parsed into a [Descriptor] holding a filter, the operation to run and its
// directives (sort, skip, limit, projection, populate, flatten). Parsing is
// pure: nothing is executed. A [Runner] can later dispatch the descriptor to
// a [Store].
//
// The basic usage starts with [Parse], or with a [Parser] created by
// [NewParser] when defaults need to be changed.
package restquery

import (
	"net/url"

	"github.com/sirupsen/logrus"
	"github.com/vinicius-lino-figueiredo/restquery/adapter/parser"
	"github.com/vinicius-lino-figueiredo/restquery/adapter/runner"
	"github.com/vinicius-lino-figueiredo/restquery/domain"
	"github.com/vinicius-lino-figueiredo/restquery/pkg/params"
)

var (
	// ErrParseFailed matches every [ErrParse] when used with errors.Is.
	ErrParseFailed = domain.ErrParseFailed
	// ErrSecurity matches every [ErrSecurityRejection] when used with
	// errors.Is.
	ErrSecurity = domain.ErrSecurity
	// ErrCodeExecutionDisabled is returned when a map/reduce descriptor is
	// run without a compiler that accepts code.
	ErrCodeExecutionDisabled = domain.ErrCodeExecutionDisabled
	// ErrNilStore is returned by a [Runner] created without a [Store].
	ErrNilStore = domain.ErrNilStore
)

// ErrParse is returned when a parameter value is structurally invalid. Param
// names the offending parameter.
type ErrParse = domain.ErrParse

// ErrSecurityRejection is returned when a parameter could inject operators or
// server side code into the filter.
type ErrSecurityRejection = domain.ErrSecurityRejection

// ErrUnsupportedOperation is returned when a [Store] or a [Runner] cannot
// execute the requested operation.
type ErrUnsupportedOperation = domain.ErrUnsupportedOperation

// ErrQuery is returned by [Parse] when the query string is not correctly
// escaped.
type ErrQuery = params.ErrQuery

// Descriptor is the result of parsing a set of request parameters.
type Descriptor = domain.Descriptor

// Filter is a document store filter.
type Filter = domain.Filter

// Document is a single document returned by a [Store].
type Document = domain.Document

// Sort is an ordered list of fields to sort results by.
type Sort = domain.Sort

// SortField is a single field of a [Sort], 1 meaning ascending and -1
// descending.
type SortField = domain.SortField

// ObjectID is a document identifier, kept apart from plain strings.
type ObjectID = domain.ObjectID

// Regex is a pattern condition.
type Regex = domain.Regex

// PopulateOption describes a reference to be resolved after a find.
type PopulateOption = domain.PopulateOption

// OperationType names the store operation of a [Descriptor].
type OperationType = domain.OperationType

// Supported operation types.
const (
	OperationFind      = domain.OperationFind
	OperationFindOne   = domain.OperationFindOne
	OperationCount     = domain.OperationCount
	OperationDistinct  = domain.OperationDistinct
	OperationAggregate = domain.OperationAggregate
	OperationMapReduce = domain.OperationMapReduce
)

// DefaultLimit is the limit of a [Descriptor] when no valid limit is given.
const DefaultLimit = domain.DefaultLimit

// Params is an ordered set of request parameters.
type Params = domain.Params

// Parser converts request parameters into a [Descriptor].
type Parser = domain.Parser

// Store is the execution adapter a [Descriptor] is run against.
type Store = domain.Store

// Runner executes a [Descriptor] against a [Store].
type Runner = domain.Runner

// Result holds the outcome of running a [Descriptor].
type Result = domain.Result

// Flattener turns nested documents into dotted-path keys.
type Flattener = domain.Flattener

// CodeCompiler turns map/reduce sources into something a [Store] can run.
type CodeCompiler = domain.CodeCompiler

var defaultParser = parser.NewParser()

// Parse parses a raw query string, with or without the leading '?', using
// the default [Parser].
func Parse(query string) (Descriptor, error) {
	if len(query) > 0 && query[0] == '?' {
		query = query[1:]
	}
	ps, err := params.FromQuery(query)
	if err != nil {
		return Descriptor{}, err
	}
	return defaultParser.Parse(ps)
}

// ParseValues parses already decoded query values using the default
// [Parser]. Keys are handled in sorted order.
func ParseValues(v url.Values) (Descriptor, error) {
	return defaultParser.Parse(params.FromValues(v))
}

// ParseMap parses a generic map, such as a decoded JSON body, using the
// default [Parser]. Objects and mixed lists are kept as structured values.
func ParseMap(m any) (Descriptor, error) {
	ps, err := params.FromMap(m)
	if err != nil {
		return Descriptor{}, err
	}
	return defaultParser.Parse(ps)
}

// Option configures parser behavior through the functional options pattern.
type Option = parser.Option

// NewParser creates a new [Parser] with the provided options:
//
// - [WithLogger]: sets the logger receiving debug entries.
//
// - [WithDefaultLimit]: sets the limit used when none is given.
//
// - [WithIgnoredKeys]: sets keys that never become conditions.
//
// - [WithIgnoreFieldKeys]: leaves the filter to the q parameter alone.
func NewParser(options ...Option) Parser {
	return parser.NewParser(options...)
}

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(l logrus.FieldLogger) Option {
	return parser.WithLogger(l)
}

// WithDefaultLimit sets the limit used when no valid limit is given.
func WithDefaultLimit(l int64) Option {
	return parser.WithDefaultLimit(l)
}

// WithIgnoredKeys sets field keys that never become conditions, such as
// access tokens sent along with the query.
func WithIgnoredKeys(keys ...string) Option {
	return parser.WithIgnoredKeys(keys...)
}

// WithIgnoreFieldKeys makes the parser skip every field key.
func WithIgnoreFieldKeys(ignore bool) Option {
	return parser.WithIgnoreFieldKeys(ignore)
}

// RunnerOption configures runner behavior through the functional options
// pattern.
type RunnerOption = runner.Option

// NewRunner creates a new [Runner] with the provided options:
//
// - [WithRunnerStore]: sets the store descriptors run against.
//
// - [WithRunnerCompiler]: sets the compiler for map/reduce sources.
//
// - [WithRunnerFlattener]: sets the flattener for flat results.
//
// - [WithRunnerLogger]: sets the logger receiving debug entries.
func NewRunner(options ...RunnerOption) Runner {
	return runner.NewRunner(options...)
}

// WithRunnerStore sets the store descriptors are run against.
func WithRunnerStore(s Store) RunnerOption {
	return runner.WithStore(s)
}

// WithRunnerCompiler sets the compiler for map/reduce sources. The default
// refuses every source.
func WithRunnerCompiler(c CodeCompiler) RunnerOption {
	return runner.WithCompiler(c)
}

// WithRunnerFlattener sets the flattener applied when a descriptor asks for
// flat results.
func WithRunnerFlattener(f Flattener) RunnerOption {
	return runner.WithFlattener(f)
}

// WithRunnerLogger sets the runner logger. By default nothing is logged.
func WithRunnerLogger(l logrus.FieldLogger) RunnerOption {
	return runner.WithLogger(l)
}
