package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/vinicius-lino-figueiredo/restquery/domain"
)

type DomainTestSuite struct {
	suite.Suite
}

func (s *DomainTestSuite) TestOptions() {
	fos := domain.NewFindOptions(
		domain.WithFindProjection([]string{"a"}),
		domain.WithFindSkip(2),
		domain.WithFindLimit(3),
		domain.WithFindSort(domain.Sort{{Key: "a", Order: -1}}),
		domain.WithFindPopulate([]domain.PopulateOption{{Path: "b"}}),
	)
	s.Equal(domain.FindOptions{
		Projection: []string{"a"},
		Skip:       2,
		Limit:      3,
		Sort:       domain.Sort{{Key: "a", Order: -1}},
		Populate:   []domain.PopulateOption{{Path: "b"}},
	}, fos)
}

func (s *DomainTestSuite) TestErrorMessages() {
	var e error

	e = domain.ErrParse{Param: "sort_by", Value: "a,2", Reason: "direction must be 1 or -1"}
	s.Equal(`invalid value for parameter "sort_by": direction must be 1 or -1`, e.Error())

	e = domain.ErrParse{Param: "q", Reason: "malformed JSON", Err: domain.ErrTargetNil}
	s.Equal(`invalid value for parameter "q": malformed JSON: target interface is nil`, e.Error())
	s.ErrorIs(e, domain.ErrTargetNil)
	s.ErrorIs(e, domain.ErrParseFailed)
	s.NotErrorIs(e, domain.ErrSecurity)

	e = domain.ErrSecurityRejection{Key: "$where", Reason: "operator keys are not allowed"}
	s.Equal(`rejected parameter "$where": operator keys are not allowed`, e.Error())
	s.ErrorIs(e, domain.ErrSecurity)

	e = domain.ErrUnsupportedOperation{Operation: domain.OperationMapReduce}
	s.Equal(`unsupported operation "mapReduce"`, e.Error())

	e = domain.ErrUnsupportedCode{Code: 1}
	s.Equal("unsupported compiled code of type int", e.Error())

	e = domain.ErrDecode{Source: 123, Target: "a"}
	s.Equal("cannot decode int into string", e.Error())
}

func (s *DomainTestSuite) TestOperationType() {
	for _, o := range []domain.OperationType{"find", "findOne", "count", "distinct", "aggregate", "mapReduce"} {
		s.True(o.Valid(), o)
	}
	s.False(domain.OperationType("remove").Valid())
	s.False(domain.OperationType("").Valid())
}

func (s *DomainTestSuite) TestObjectID() {
	s.True(domain.IsObjectIDHex("57ae125aaf1b792c1768982b"))
	s.False(domain.IsObjectIDHex("57AE125AAF1B792C1768982B"))
	s.False(domain.IsObjectIDHex("57ae125aaf1b792c1768982"))
	s.False(domain.IsObjectIDHex("57ae125aaf1b792c1768982g"))

	b, err := json.Marshal(domain.ObjectID("57ae125aaf1b792c1768982b"))
	s.NoError(err)
	s.JSONEq(`{"$oid":"57ae125aaf1b792c1768982b"}`, string(b))
}

func (s *DomainTestSuite) TestRegex() {
	r := domain.Regex{Pattern: "^ab", Options: "i"}
	s.Equal("/^ab/i", r.String())

	re, err := r.Compile()
	s.NoError(err)
	s.True(re.MatchString("ABC"))
	s.False(re.MatchString("cab"))

	re, err = domain.Regex{Pattern: "a.b", Options: "su"}.Compile()
	s.NoError(err)
	s.True(re.MatchString("a\nb"))

	_, err = domain.Regex{Pattern: "a", Options: "x"}.Compile()
	s.Error(err)

	s.NoError(r.Validate())
	s.Error(domain.Regex{Pattern: "("}.Validate())
	s.Error(domain.Regex{Pattern: "a{2,1}"}.Validate())
	s.NoError(domain.Regex{Pattern: "a(?=b)"}.Validate())
	s.NoError(domain.Regex{Pattern: `(a)\1`}.Validate())
	s.NoError(domain.Regex{Pattern: "a++"}.Validate())

	b, err := json.Marshal(r)
	s.NoError(err)
	s.JSONEq(`{"$regex":"^ab","$options":"i"}`, string(b))

	b, err = json.Marshal(domain.Regex{Pattern: "a"})
	s.NoError(err)
	s.JSONEq(`{"$regex":"a"}`, string(b))
}

func (s *DomainTestSuite) TestValues() {
	s.Equal(domain.Value{Kind: domain.Scalar, Scalar: "a"}, domain.ScalarValue("a"))
	s.Equal(domain.Value{Kind: domain.Scalar, Scalar: "a"}, domain.ListValue("a"))
	s.Equal(domain.Value{Kind: domain.List, List: []string{"a", "b"}}, domain.ListValue("a", "b"))
	s.Equal(domain.Value{Kind: domain.Structured, Structured: 1}, domain.StructuredValue(1))
	s.Equal("list", domain.List.String())
	s.Equal("ValueKind(9)", domain.ValueKind(9).String())
}

func (s *DomainTestSuite) TestDescriptorDefaults() {
	d := domain.NewDescriptor()
	s.Equal(domain.Filter{}, d.Filter)
	s.Equal(domain.OperationFind, d.Operation)
	s.Equal(int64(1000), d.Limit)
	s.Nil(d.Skip)
	s.Nil(d.Sort)
	s.Empty(d.DistinctField())

	d.Projection = []string{" title ", "other"}
	s.Equal("title", d.DistinctField())
}

func (s *DomainTestSuite) TestResultValue() {
	docs := []domain.Document{{"a": 1}}
	s.Equal(docs, domain.Result{Operation: domain.OperationFind, Documents: docs}.Value())
	s.Equal(docs, domain.Result{Operation: domain.OperationAggregate, Documents: docs}.Value())
	s.Equal(domain.Document{"a": 1}, domain.Result{Operation: domain.OperationFindOne, Document: domain.Document{"a": 1}}.Value())
	s.Equal(map[string]int64{"count": 3}, domain.Result{Operation: domain.OperationCount, Count: 3}.Value())
	s.Equal([]any{"x"}, domain.Result{Operation: domain.OperationDistinct, Values: []any{"x"}}.Value())
	s.Equal("out", domain.Result{Operation: domain.OperationMapReduce, Output: "out"}.Value())
}

func TestDomainTestSuite(t *testing.T) {
	suite.Run(t, new(DomainTestSuite))
}
