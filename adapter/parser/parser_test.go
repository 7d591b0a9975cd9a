package parser

import (
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/vinicius-lino-figueiredo/restquery/domain"
	"github.com/vinicius-lino-figueiredo/restquery/pkg/params"
)

type M = domain.Filter

type A = []any

func ptr[T any](v T) *T { return &v }

type assemblerMock struct{ mock.Mock }

// Assemble implements [domain.Assembler].
func (a *assemblerMock) Assemble(filter domain.Filter, field string, tok domain.Token) error {
	return a.Called(filter, field, tok).Error(0)
}

type ParserTestSuite struct {
	suite.Suite
	parser domain.Parser
}

func (s *ParserTestSuite) SetupTest() {
	s.parser = NewParser()
}

func (s *ParserTestSuite) parse(query string) (domain.Descriptor, error) {
	ps, err := params.FromQuery(query)
	s.Require().NoError(err)
	return s.parser.Parse(ps)
}

func (s *ParserTestSuite) mustParse(query string) domain.Descriptor {
	d, err := s.parse(query)
	s.Require().NoError(err, query)
	return d
}

func (s *ParserTestSuite) expected(fn func(d *domain.Descriptor)) domain.Descriptor {
	d := domain.NewDescriptor()
	fn(&d)
	return d
}

func (s *ParserTestSuite) TestDefaults() {
	d := s.mustParse("")
	s.Equal(domain.NewDescriptor(), d)
	s.Equal(domain.OperationFind, d.Operation)
	s.Equal(int64(1000), d.Limit)
	s.Nil(d.Skip)
	s.Nil(d.Sort)
	s.Nil(d.Projection)
	s.Nil(d.Populate)
	s.False(d.Flatten)
	s.Nil(d.MapReduce)
}

func (s *ParserTestSuite) TestQueryFilter() {
	d := s.mustParse(`q={"a":"b"}`)
	s.Equal(s.expected(func(d *domain.Descriptor) {
		d.Filter = M{"a": "b"}
	}), d)
}

func (s *ParserTestSuite) TestQueryDoubleEncoded() {
	d := s.mustParse("q=%257B%2522a%2522%253A1%257D")
	s.Equal(M{"a": float64(1)}, d.Filter)
}

func (s *ParserTestSuite) TestQueryNormalized() {
	d := s.mustParse(`q={"_id":"oid:57ae125aaf1b792c1768982b","n":{"$regex":"/x/","$options":"i"},"d":{"$gt":"2011-10-10"}}`)
	s.Equal(M{
		"_id": domain.ObjectID("57ae125aaf1b792c1768982b"),
		"n":   domain.Regex{Pattern: "x", Options: "i"},
		"d":   map[string]any{"$gt": time.Date(2011, 10, 10, 0, 0, 0, 0, time.UTC)},
	}, d.Filter)
}

func (s *ParserTestSuite) TestMalformedQuery() {
	for _, q := range []string{`q={"a":`, `q={a:1}`, `q=[1`, `q="a"`, `q=1`} {
		d, err := s.parse(q)
		var perr domain.ErrParse
		s.ErrorAs(err, &perr, q)
		s.Equal("q", perr.Param)
		s.Equal(domain.Descriptor{}, d)
	}
}

func (s *ParserTestSuite) TestQueryJavaScriptRejected() {
	_, err := s.parse(`q={"$where":"this.a > 1"}`)
	s.ErrorIs(err, domain.ErrSecurity)
}

func (s *ParserTestSuite) TestQueryArrayNeedsAggregate() {
	_, err := s.parse(`q=[{"$match":{}}]`)
	s.ErrorIs(err, domain.ErrParseFailed)
}

func (s *ParserTestSuite) TestAggregate() {
	d := s.mustParse(`t=aggregate&q=[{"$match":{"a":"2011-10-10"}},{"$sort":{"b":1,"a":-1}}]`)
	s.Equal(domain.OperationAggregate, d.Operation)
	s.Equal(A{
		domain.Ordered{{Key: "$match", Value: domain.Ordered{{Key: "a", Value: time.Date(2011, 10, 10, 0, 0, 0, 0, time.UTC)}}}},
		domain.Ordered{{Key: "$sort", Value: domain.Ordered{{Key: "b", Value: float64(1)}, {Key: "a", Value: float64(-1)}}}},
	}, d.Pipeline)
	s.Equal(domain.Filter{}, d.Filter)

	// parameter order does not matter
	d2 := s.mustParse(`q=[{"$match":{"a":"2011-10-10"}},{"$sort":{"b":1,"a":-1}}]&t=aggregate`)
	s.Equal(d, d2)

	d = s.mustParse(`t=aggregate&q=[{"$match":{"title":{"$regex":"^testa","$options":"i"},"slug":{"$regex":"/^testa/"}}}]`)
	s.Equal(A{
		domain.Ordered{{Key: "$match", Value: domain.Ordered{
			{Key: "title", Value: domain.Regex{Pattern: "^testa", Options: "i"}},
			{Key: "slug", Value: domain.Regex{Pattern: "^testa"}},
		}}},
	}, d.Pipeline)
}

func (s *ParserTestSuite) TestAggregateErrors() {
	for _, query := range []string{"t=aggregate", `t=aggregate&q={"a":1}`} {
		_, err := s.parse(query)
		var perr domain.ErrParse
		s.ErrorAs(err, &perr, query)
		s.Equal("q", perr.Param)
	}
}

func (s *ParserTestSuite) TestFieldOperators() {
	s.Equal(M{"a": M{"$in": A{"a", "b"}}}, s.mustParse("a={in}a,b").Filter)
	s.Equal(M{"$or": A{M{"a": ""}, M{"a": M{"$exists": false}}}}, s.mustParse("a={empty}").Filter)
	s.Equal(M{"$or": A{M{"a": "b"}, M{"a": "c"}, M{"a": "d"}}}, s.mustParse("a=b|c|d").Filter)
	s.Equal(M{"a": M{"$elemMatch": M{"k": "v"}}}, s.mustParse("a={m}k,v").Filter)
	s.Equal(M{"a": domain.Regex{Pattern: "a", Options: "i"}}, s.mustParse("a=/a/i").Filter)
}

func (s *ParserTestSuite) TestCoercion() {
	d := s.mustParse("d=2011-10-10T14:48:00&n=2000&id=000000000000000000000000&str=abc")
	s.Equal(M{
		"d":   time.Date(2011, 10, 10, 14, 48, 0, 0, time.UTC),
		"n":   float64(2000),
		"id":  domain.ObjectID("000000000000000000000000"),
		"str": "abc",
	}, d.Filter)
}

func (s *ParserTestSuite) TestQueryAndFields() {
	d := s.mustParse(`a=2&q={"a":1,"$or":[{"b":1}]}&c={empty}`)
	s.Equal(M{
		"a":    float64(1),
		"$and": A{M{"a": float64(2)}},
		"$or":  A{M{"b": float64(1)}, M{"c": ""}, M{"c": M{"$exists": false}}},
	}, d.Filter)
}

func (s *ParserTestSuite) TestCombinatorsAccumulate() {
	d := s.mustParse("a={empty}&b=x|y&c={!empty}&e={!empty}")
	s.Equal(M{
		"$or": A{
			M{"a": ""}, M{"a": M{"$exists": false}},
			M{"b": "x"}, M{"b": "y"},
		},
		"$nor": A{
			M{"c": ""}, M{"c": M{"$exists": false}},
			M{"e": ""}, M{"e": M{"$exists": false}},
		},
	}, d.Filter)
}

func (s *ParserTestSuite) TestRepeatedFieldKey() {
	d := s.mustParse("a={gt}1&a={lt}5&a=")
	s.Equal(M{"$and": A{M{"a": M{"$gt": float64(1)}}, M{"a": M{"$lt": float64(5)}}}}, d.Filter)
}

func (s *ParserTestSuite) TestLimitAndSkip() {
	s.Equal(int64(101), s.mustParse("limit=101").Limit)
	s.Equal(int64(101), s.mustParse("l=101").Limit)
	s.Equal(int64(0), s.mustParse("l=0").Limit)
	s.Equal(int64(1000), s.mustParse("l=abc").Limit)
	s.Equal(int64(1000), s.mustParse("l=").Limit)
	s.Equal(int64(12), s.mustParse("l=12abc").Limit)
	s.Equal(ptr(int64(101)), s.mustParse("skips=101").Skip)
	s.Equal(ptr(int64(5)), s.mustParse("sk=5").Skip)
	s.Equal(ptr(int64(16)), s.mustParse("skip=0x10").Skip)
	s.Equal(ptr(int64(0)), s.mustParse("sk=0").Skip)
	s.Nil(s.mustParse("sk=").Skip)

	for _, query := range []string{"sk=abc", "sk=-1", "skip=x1"} {
		_, err := s.parse(query)
		s.ErrorIs(err, domain.ErrParseFailed, query)
	}

	p := NewParser(WithDefaultLimit(50))
	d, err := p.Parse(nil)
	s.NoError(err)
	s.Equal(int64(50), d.Limit)
}

func (s *ParserTestSuite) TestSecurityRejection() {
	for _, query := range []string{"$1=a", "a=1&$where=1", "$or=x&l=abc"} {
		d, err := s.parse(query)
		var serr domain.ErrSecurityRejection
		s.ErrorAs(err, &serr, query)
		s.Equal(domain.Descriptor{}, d)
	}

	// checked before any other error
	_, err := s.parse("q={&$x=1")
	s.ErrorIs(err, domain.ErrSecurity)

	_, err = s.parser.Parse(domain.Params{{Key: "$1", Value: domain.ScalarValue("a")}})
	s.ErrorIs(err, domain.ErrSecurity)
}

func (s *ParserTestSuite) TestSortBy() {
	s.Equal(domain.Sort{{Key: "a", Order: 1}}, s.mustParse("sort_by=a").Sort)
	s.Equal(domain.Sort{{Key: "a", Order: 1}}, s.mustParse("sort_by=a,1").Sort)
	s.Equal(domain.Sort{{Key: "a", Order: -1}}, s.mustParse("sort_by=a,-1").Sort)
	s.Equal(domain.Sort{{Key: "a", Order: -1}}, s.mustParse("sort_by=a,-1&s=b").Sort)

	for _, query := range []string{"sort_by=", "sort_by=a,2", "sort_by=a,1,2", "sort_by=,1", "sort_by=a,asc"} {
		_, err := s.parse(query)
		var perr domain.ErrParse
		s.ErrorAs(err, &perr, query)
		s.Equal("sort_by", perr.Param)
	}

	ps, err := params.FromMap(map[string]any{"sort_by": nil})
	s.NoError(err)
	_, err = s.parser.Parse(ps)
	s.ErrorIs(err, domain.ErrParseFailed)
}

func (s *ParserTestSuite) TestSort() {
	s.Equal(
		domain.Sort{{Key: "b", Order: 1}, {Key: "a", Order: -1}},
		s.mustParse(`s={"b":1,"a":-1}`).Sort,
	)
	s.Equal(
		domain.Sort{{Key: "b", Order: -1}, {Key: "a", Order: 1}},
		s.mustParse(`sort={"b":"desc","a":"asc"}`).Sort,
	)
	s.Equal(
		domain.Sort{{Key: "a", Order: 1}, {Key: "b", Order: -1}, {Key: "c", Order: 1}},
		s.mustParse("s=a,-b+%2Bc").Sort,
	)
	s.Nil(s.mustParse("s=").Sort)
	s.Nil(s.mustParse("s={}").Sort)

	for _, query := range []string{`s={"a":2}`, `s={"a":`, "s=a,-", `s={"a":true}`} {
		_, err := s.parse(query)
		s.ErrorIs(err, domain.ErrParseFailed, query)
	}

	d, err := s.parser.Parse(domain.Params{
		{Key: "s", Value: domain.StructuredValue(map[string]any{"b": 1, "a": float64(-1)})},
	})
	s.NoError(err)
	s.Equal(domain.Sort{{Key: "a", Order: -1}, {Key: "b", Order: 1}}, d.Sort)
}

func (s *ParserTestSuite) TestProjection() {
	s.Equal([]string{"a b"}, s.mustParse("f=a+b").Projection)
	s.Equal([]string{"a", "-b"}, s.mustParse("select=a&select=-b&select=").Projection)
	s.Nil(s.mustParse("f=").Projection)
}

func (s *ParserTestSuite) TestOperationType() {
	for _, t := range []domain.OperationType{"find", "findOne", "count"} {
		s.Equal(t, s.mustParse("t="+string(t)).Operation)
	}
	s.Equal(domain.OperationFind, s.mustParse("t=").Operation)

	_, err := s.parse("t=remove")
	s.ErrorIs(err, domain.ErrParseFailed)
}

func (s *ParserTestSuite) TestDistinct() {
	d := s.mustParse("t=distinct&f=title")
	s.Equal(domain.OperationDistinct, d.Operation)
	s.Equal("title", d.DistinctField())

	_, err := s.parse("t=distinct")
	var perr domain.ErrParse
	s.ErrorAs(err, &perr)
	s.Equal("f", perr.Param)
}

func (s *ParserTestSuite) TestMapReduce() {
	d := s.mustParse(`t=mapReduce&map=function(){emit(this.a,1)}&reduce=function(k,v){return+v.length}&scope={"x":1}`)
	s.Equal(&domain.MapReduceSource{
		Map:    "function(){emit(this.a,1)}",
		Reduce: "function(k,v){return v.length}",
		Scope:  `{"x":1}`,
	}, d.MapReduce)

	s.Nil(s.mustParse("map=x&reduce=y").MapReduce)

	testCases := []struct {
		query string
		param string
	}{
		{"t=mapReduce&reduce=x", "map"},
		{"t=mapReduce&map=x", "reduce"},
		{"t=mapReduce&map=x&reduce=y&scope={", "scope"},
		{"t=mapReduce&map=x&reduce=y&scope=[1]", "scope"},
	}
	for _, tc := range testCases {
		_, err := s.parse(tc.query)
		var perr domain.ErrParse
		s.ErrorAs(err, &perr, tc.query)
		s.Equal(tc.param, perr.Param, tc.query)
	}
}

func (s *ParserTestSuite) TestPopulate() {
	s.Equal([]domain.PopulateOption{{Path: "a"}}, s.mustParse("p=a").Populate)
	s.Equal([]domain.PopulateOption{{Path: "a"}, {Path: "b"}}, s.mustParse("p=a,+b,").Populate)
	s.Equal([]domain.PopulateOption{{Path: "a"}, {Path: "b"}}, s.mustParse(`p=["a","b"]`).Populate)
	s.Equal([]domain.PopulateOption{{Path: "a"}, {Path: "b"}, {Path: "c"}}, s.mustParse("p=a&p=b,c").Populate)
	s.Equal(
		[]domain.PopulateOption{{
			Path:     "author",
			Select:   "name",
			Populate: []domain.PopulateOption{{Path: "company"}},
		}},
		s.mustParse(`p={"path":"author","select":"name","populate":"company"}`).Populate,
	)
	s.Equal([]domain.PopulateOption{{Path: "a"}}, s.mustParse("p=%257B%2522path%2522%253A%2522a%2522%257D").Populate)
	s.Nil(s.mustParse("p=").Populate)

	for _, query := range []string{`p={"a":"b"}`, `p={"path":""}`, `p=[1]`, `p={"path":`, `p=[{"path":"a","populate":[2]}]`} {
		_, err := s.parse(query)
		var perr domain.ErrParse
		s.ErrorAs(err, &perr, query)
		s.Equal("p", perr.Param, query)
	}

	d, err := s.parser.Parse(domain.Params{
		{Key: "p", Value: domain.StructuredValue(map[string]any{"path": "a", "model": "User"})},
	})
	s.NoError(err)
	s.Equal([]domain.PopulateOption{{Path: "a", Model: "User"}}, d.Populate)
}

func (s *ParserTestSuite) TestFlatten() {
	s.False(s.mustParse("").Flatten)
	s.True(s.mustParse("fl").Flatten)
	s.True(s.mustParse("fl=").Flatten)
	s.True(s.mustParse("fl=true").Flatten)
	s.True(s.mustParse("fl=YES").Flatten)
	s.False(s.mustParse("fl=false").Flatten)
	s.False(s.mustParse("fl=no").Flatten)

	_, err := s.parse("fl=maybe")
	s.ErrorIs(err, domain.ErrParseFailed)
}

func (s *ParserTestSuite) TestRepeatedDirective() {
	for _, query := range []string{"l=1&l=2", "q={}&q={}", "t=find&t=count", "fl&fl", "sort_by=a&sort_by=b"} {
		_, err := s.parse(query)
		s.ErrorIs(err, domain.ErrParseFailed, query)
	}
}

func (s *ParserTestSuite) TestStructuredFieldValues() {
	d, err := s.parser.Parse(domain.Params{
		{Key: "a", Value: domain.StructuredValue(map[string]any{"b": "2011-10-10", "c": []any{"oid:57ae125aaf1b792c1768982b"}})},
	})
	s.NoError(err)
	s.Equal(M{"a": map[string]any{
		"b": time.Date(2011, 10, 10, 0, 0, 0, 0, time.UTC),
		"c": A{domain.ObjectID("57ae125aaf1b792c1768982b")},
	}}, d.Filter)

	_, err = s.parser.Parse(domain.Params{
		{Key: "a", Value: domain.StructuredValue(map[string]any{"b": []any{map[string]any{"$gt": 1}}})},
	})
	var serr domain.ErrSecurityRejection
	s.ErrorAs(err, &serr)
	s.Equal("a.b.$gt", serr.Key)

	_, err = s.parser.Parse(domain.Params{
		{Key: "t", Value: domain.StructuredValue(map[string]any{})},
	})
	s.ErrorIs(err, domain.ErrParseFailed)
}

func (s *ParserTestSuite) TestIgnoredKeys() {
	p := NewParser(WithIgnoredKeys("token", "callback"))
	ps, err := params.FromQuery("token=x&callback=y&a=1&l=5")
	s.NoError(err)
	d, err := p.Parse(ps)
	s.NoError(err)
	s.Equal(M{"a": float64(1)}, d.Filter)
	s.Equal(int64(5), d.Limit)

	p = NewParser(WithIgnoreFieldKeys(true))
	ps, err = params.FromQuery(`a=1&q={"b":2}`)
	s.NoError(err)
	d, err = p.Parse(ps)
	s.NoError(err)
	s.Equal(M{"b": float64(2)}, d.Filter)
}

func (s *ParserTestSuite) TestFieldsUseAssembler() {
	asm := new(assemblerMock)
	p := NewParser(WithAssembler(asm))

	asm.On("Assemble", mock.Anything, "a", domain.Token{Op: domain.OpGt, Literal: "1"}).Return(nil).Once()
	asm.On("Assemble", mock.Anything, "b", domain.Token{Literal: "x"}).Return(nil).Once()
	ps, err := params.FromQuery("a={gt}1&l=2&b=x")
	s.NoError(err)
	_, err = p.Parse(ps)
	s.NoError(err)
	asm.AssertExpectations(s.T())

	perr := domain.ErrParse{Param: "c", Reason: "bad"}
	asm.On("Assemble", mock.Anything, "c", domain.Token{Literal: "x"}).Return(perr).Once()
	_, err = p.Parse(domain.Params{{Key: "c", Value: domain.ScalarValue("x")}})
	s.ErrorIs(err, perr)
}

func (s *ParserTestSuite) TestIdempotence() {
	query := `q={"x":{"$in":[1,2]}}&a={empty}&b=c|d&s=-e&sk=1&p=f,g&fl`
	d1 := s.mustParse(query)
	d2 := s.mustParse(query)
	s.Equal(d1, d2)

	d1.Filter["$or"] = append(d1.Filter["$or"].([]any), "changed")
	d1.Filter["x"].(map[string]any)["$in"] = nil
	s.NotEqual(d1, d2)
	s.Equal(d2, s.mustParse(query))
}

func (s *ParserTestSuite) TestConcurrentUse() {
	query := "a={in}1,2&b=x|y&c={empty}&l=10"
	want := s.mustParse(query)
	ps, err := params.FromQuery(query)
	s.Require().NoError(err)

	var wg sync.WaitGroup
	results := make([]domain.Descriptor, 16)
	for n := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[n], _ = s.parser.Parse(ps)
		}()
	}
	wg.Wait()
	for _, d := range results {
		s.Equal(want, d)
	}
}

func (s *ParserTestSuite) TestLogging() {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	p := NewParser(WithLogger(logger), WithIgnoredKeys("x"))
	ps, err := params.FromQuery("x=1&l=abc")
	s.NoError(err)
	_, err = p.Parse(ps)
	s.NoError(err)

	var messages []string
	for _, e := range hook.AllEntries() {
		messages = append(messages, e.Message)
	}
	s.Equal([]string{
		"ignoring field key",
		"limit is not a number, keeping the default",
		"parsed query parameters",
	}, messages)
	s.Equal(int64(1000), hook.LastEntry().Data["limit"])
}

func TestParserTestSuite(t *testing.T) {
	suite.Run(t, new(ParserTestSuite))
}
