package matcher

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/vinicius-lino-figueiredo/restquery/adapter/fieldnavigator"
	"github.com/vinicius-lino-figueiredo/restquery/domain"
)

type M = domain.Document

type A = []any

type fieldNavigatorMock struct{ mock.Mock }

// GetAddress implements [domain.FieldNavigator].
func (f *fieldNavigatorMock) GetAddress(field string) ([]string, error) {
	call := f.Called(field)
	return call.Get(0).([]string), call.Error(1)
}

// GetField implements [domain.FieldNavigator].
func (f *fieldNavigatorMock) GetField(obj any, addr ...string) ([]domain.GetSetter, bool, error) {
	call := f.Called(obj, addr)
	return call.Get(0).([]domain.GetSetter), call.Bool(1), call.Error(2)
}

type comparerMock struct{ mock.Mock }

// Comparable implements [domain.Comparer].
func (c *comparerMock) Comparable(a any, b any) bool {
	return c.Called(a, b).Bool(0)
}

// Compare implements [domain.Comparer].
func (c *comparerMock) Compare(a any, b any) (int, error) {
	call := c.Called(a, b)
	return call.Int(0), call.Error(1)
}

type MatcherTestSuite struct {
	suite.Suite
	m domain.Matcher
}

func (s *MatcherTestSuite) SetupTest() {
	s.m = NewMatcher()
}

func (s *MatcherTestSuite) match(filter domain.Filter, doc M) bool {
	pred, err := s.m.Compile(filter)
	s.Require().NoError(err)
	matches, err := pred(doc)
	s.Require().NoError(err)
	return matches
}

func (s *MatcherTestSuite) TestNilFilter() {
	s.True(s.match(nil, M{"a": 1}))
	s.True(s.match(M{}, M{"a": 1}))
}

func (s *MatcherTestSuite) TestEquality() {
	doc := M{"name": "ann", "age": 30, "tags": A{"go", "db"}, "nested": M{"a": 1}}

	s.True(s.match(M{"name": "ann"}, doc))
	s.False(s.match(M{"name": "bob"}, doc))
	s.True(s.match(M{"age": 30.0}, doc))
	s.True(s.match(M{"tags": "go"}, doc))
	s.True(s.match(M{"tags": A{"go", "db"}}, doc))
	s.False(s.match(M{"tags": A{"db", "go"}}, doc))
	s.True(s.match(M{"nested": M{"a": 1}}, doc))
	s.True(s.match(M{"nested.a": 1}, doc))
	s.True(s.match(M{"name": "ann", "age": 30}, doc))
	s.False(s.match(M{"name": "ann", "age": 31}, doc))

	// a string is never a pattern outside $regex
	s.False(s.match(M{"name": "a.n"}, doc))
}

func (s *MatcherTestSuite) TestNull() {
	s.True(s.match(M{"missing": nil}, M{"a": 1}))
	s.True(s.match(M{"a": nil}, M{"a": nil}))
	s.False(s.match(M{"a": nil}, M{"a": 1}))
	s.True(s.match(M{"a": M{"$ne": nil}}, M{"a": 1}))
}

func (s *MatcherTestSuite) TestRanges() {
	doc := M{"year": 2004, "title": "b", "at": time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}

	s.True(s.match(M{"year": M{"$gt": 2000}}, doc))
	s.True(s.match(M{"year": M{"$gte": 2004}}, doc))
	s.False(s.match(M{"year": M{"$lt": 2004}}, doc))
	s.True(s.match(M{"year": M{"$lte": 2004, "$gt": 2003.5}}, doc))
	s.True(s.match(M{"title": M{"$gt": "a"}}, doc))
	s.True(s.match(M{"at": M{"$lt": time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)}}, doc))

	// values of different types are not compared
	s.False(s.match(M{"year": M{"$gt": "1000"}}, doc))
	s.False(s.match(M{"missing": M{"$lt": 1}}, doc))
}

func (s *MatcherTestSuite) TestLists() {
	doc := M{"tags": A{"go", "db", "web"}, "nums": A{1, 5, 9}}

	s.True(s.match(M{"tags": M{"$in": A{"rust", "go"}}}, doc))
	s.False(s.match(M{"tags": M{"$in": A{"rust"}}}, doc))
	s.True(s.match(M{"tags": M{"$nin": A{"rust"}}}, doc))
	s.False(s.match(M{"tags": M{"$nin": A{"db"}}}, doc))
	s.True(s.match(M{"tags": M{"$all": A{"web", "go"}}}, doc))
	s.False(s.match(M{"tags": M{"$all": A{"web", "rust"}}}, doc))
	s.False(s.match(M{"tags": M{"$all": A{}}}, doc))
	s.True(s.match(M{"tags": M{"$size": 3}}, doc))
	s.False(s.match(M{"tags": M{"$size": 2}}, doc))
	s.True(s.match(M{"nums": M{"$gt": 8}}, doc))
	s.True(s.match(M{"missing": M{"$nin": A{"a"}}}, doc))
}

func (s *MatcherTestSuite) TestInPattern() {
	doc := M{"name": "Annabel"}
	s.True(s.match(M{"name": M{"$in": A{domain.Regex{Pattern: "^ann", Options: "i"}}}}, doc))
	s.False(s.match(M{"name": M{"$nin": A{regexp.MustCompile("bel$")}}}, doc))
}

func (s *MatcherTestSuite) TestExists() {
	doc := M{"a": nil, "b": 1}
	s.True(s.match(M{"a": M{"$exists": true}}, doc))
	s.True(s.match(M{"b": M{"$exists": 1}}, doc))
	s.True(s.match(M{"c": M{"$exists": false}}, doc))
	s.True(s.match(M{"c": M{"$exists": 0}}, doc))
	s.False(s.match(M{"c": M{"$exists": "yes"}}, doc))
}

func (s *MatcherTestSuite) TestMod() {
	s.True(s.match(M{"n": M{"$mod": A{4, 1}}}, M{"n": 9}))
	s.True(s.match(M{"n": M{"$mod": A{4, 1}}}, M{"n": 9.7}))
	s.False(s.match(M{"n": M{"$mod": A{4, 2}}}, M{"n": 9}))
	s.False(s.match(M{"n": M{"$mod": A{4, 1}}}, M{"n": "9"}))
}

func (s *MatcherTestSuite) TestRegex() {
	doc := M{"name": "Annabel", "tags": A{"Go", "db"}}

	s.True(s.match(M{"name": domain.Regex{Pattern: "^ann", Options: "i"}}, doc))
	s.False(s.match(M{"name": domain.Regex{Pattern: "^ann"}}, doc))
	s.True(s.match(M{"name": regexp.MustCompile("bel$")}, doc))
	s.True(s.match(M{"name": M{"$regex": "^ann", "$options": "i"}}, doc))
	s.True(s.match(M{"tags": M{"$regex": "^g", "$options": "i"}}, doc))
	s.False(s.match(M{"age": domain.Regex{Pattern: "."}}, M{"age": 3}))
}

func (s *MatcherTestSuite) TestNot() {
	doc := M{"name": "ann", "year": 2004}
	s.True(s.match(M{"name": M{"$not": domain.Regex{Pattern: "^b"}}}, doc))
	s.False(s.match(M{"name": M{"$not": domain.Regex{Pattern: "^a"}}}, doc))
	s.True(s.match(M{"year": M{"$not": M{"$gt": 2010}}}, doc))
	s.False(s.match(M{"year": M{"$not": M{"$gt": 2000, "$lt": 2010}}}, doc))
	s.True(s.match(M{"missing": M{"$not": M{"$gt": 1}}}, doc))
}

func (s *MatcherTestSuite) TestElemMatch() {
	doc := M{
		"scores": A{3, 8, 12},
		"items":  A{M{"sku": "a", "qty": 1}, M{"sku": "b", "qty": 10}},
	}
	s.True(s.match(M{"scores": M{"$elemMatch": M{"$gt": 5, "$lt": 10}}}, doc))
	s.False(s.match(M{"scores": M{"$elemMatch": M{"$gt": 12}}}, doc))
	s.True(s.match(M{"items": M{"$elemMatch": M{"sku": "b", "qty": M{"$gte": 10}}}}, doc))
	s.False(s.match(M{"items": M{"$elemMatch": M{"sku": "a", "qty": M{"$gte": 10}}}}, doc))
	s.False(s.match(M{"items": M{"$elemMatch": M{"sku": "a"}}}, M{"items": "a"}))
}

func (s *MatcherTestSuite) TestNestedLists() {
	doc := M{"authors": A{M{"name": "ann"}, M{"name": "bob"}}}
	s.True(s.match(M{"authors.name": "bob"}, doc))
	s.True(s.match(M{"authors.0.name": "ann"}, doc))
	s.False(s.match(M{"authors.1.name": "ann"}, doc))
}

func (s *MatcherTestSuite) TestLogicOperators() {
	doc := M{"a": 1, "b": 2}

	s.True(s.match(M{"$or": A{M{"a": 5}, M{"b": 2}}}, doc))
	s.False(s.match(M{"$or": A{M{"a": 5}, M{"b": 5}}}, doc))
	s.True(s.match(M{"$and": A{M{"a": 1}, M{"b": 2}}}, doc))
	s.False(s.match(M{"$and": A{M{"a": 1}, M{"b": 5}}}, doc))
	s.True(s.match(M{"$nor": A{M{"a": 5}, M{"b": 5}}}, doc))
	s.False(s.match(M{"$nor": A{M{"a": 1}}}, doc))
	s.True(s.match(M{"a": 1, "$or": A{M{"b": 2}}, "$comment": "ok"}, doc))
	s.True(s.match(M{"$or": A{M{"$and": A{M{"a": 1}, M{"b": 2}}}, M{"c": 3}}}, doc))
}

func (s *MatcherTestSuite) TestCompileErrors() {
	var unknownOp ErrUnknownOperator
	_, err := s.m.Compile(M{"$where": "this.a > 1"})
	s.ErrorAs(err, &unknownOp)
	s.Equal("$where", unknownOp.Operator)

	var unknownComp ErrUnknownComparison
	_, err = s.m.Compile(M{"a": M{"$near": 1}})
	s.ErrorAs(err, &unknownComp)
	s.Equal("$near", unknownComp.Comparison)

	_, err = s.m.Compile(M{"a": M{"$gt": 1, "b": 2}})
	s.ErrorIs(err, ErrMixedOperators)

	var argType ErrCompArgType
	filters := []M{
		{"$or": A{}},
		{"$and": "a"},
		{"$or": A{"a"}},
		{"a": M{"$in": 1}},
		{"a": M{"$size": -1}},
		{"a": M{"$size": 1.5}},
		{"a": M{"$mod": A{0, 1}}},
		{"a": M{"$mod": A{1}}},
		{"a": M{"$elemMatch": 1}},
		{"a": M{"$not": 1}},
		{"a": M{"$regex": 1}},
		{"a": M{"$options": "i"}},
	}
	for _, f := range filters {
		_, err := s.m.Compile(f)
		s.ErrorAs(err, &argType, f)
	}

	_, err = s.m.Compile(M{"a": domain.Regex{Pattern: "a", Options: "x"}})
	s.Error(err)
	_, err = s.m.Compile(M{"a..b": 1})
	s.ErrorAs(err, &fieldnavigator.ErrInvalidField{})
}

func (s *MatcherTestSuite) TestDependencyErrors() {
	errNav := errors.New("navigation error")
	fn := new(fieldNavigatorMock)
	fn.On("GetAddress", "a").Return([]string{"a"}, nil).Once()
	fn.On("GetField", M{"a": 1}, []string{"a"}).
		Return([]domain.GetSetter{}, false, errNav).Once()

	m := NewMatcher(WithFieldNavigator(fn))
	pred, err := m.Compile(M{"a": 1})
	s.NoError(err)
	_, err = pred(M{"a": 1})
	s.ErrorIs(err, errNav)
	fn.AssertExpectations(s.T())

	errCmp := errors.New("compare error")
	c := new(comparerMock)
	c.On("Comparable", 1, 2).Return(true).Once()
	c.On("Compare", 1, 2).Return(0, errCmp).Once()

	m = NewMatcher(WithComparer(c))
	pred, err = m.Compile(M{"a": M{"$gt": 2}})
	s.NoError(err)
	_, err = pred(M{"a": 1})
	s.ErrorIs(err, errCmp)
	c.AssertExpectations(s.T())
}

func TestMatcherTestSuite(t *testing.T) {
	suite.Run(t, new(MatcherTestSuite))
}
