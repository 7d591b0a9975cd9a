package matcher

import "regexp"

// Numeric representations of supported logic operators.
const (
	And uint8 = iota
	Or
	Nor
)

// Numeric representations of supported operators.
const (
	Eq uint8 = iota
	Ne
	Exists
	Lt
	Lte
	Gt
	Gte
	Size
	In
	Nin
	All
	Mod
	ElemMatch
	Regex
	Not
)

// LogicOp stores a logic operator ($and, $or, $nor) and its children. The
// rules of a LogicOp are always joined with And.
type LogicOp struct {
	Type  uint8
	Rules []FieldRule
	Sub   []LogicOp
}

// FieldRule stores a set of conditions used to match a given object field.
type FieldRule struct {
	Addr  []string
	Conds []Cond
}

// Cond stores a single operation on a document field (such as $gt, $size).
// Sub holds the conditions of $in, $nin, $all, $not and the operator form of
// $elemMatch; Query holds the document form of $elemMatch.
type Cond struct {
	Op    uint8
	Val   any
	Re    *regexp.Regexp
	Sub   []Cond
	Query *LogicOp
}
