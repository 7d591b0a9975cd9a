package fieldnavigator

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/vinicius-lino-figueiredo/restquery/domain"
)

type M = domain.Document

type FieldNavigatorTestSuite struct {
	suite.Suite
	fn *FieldNavigator
}

func (s *FieldNavigatorTestSuite) SetupTest() {
	s.fn = NewFieldNavigator().(*FieldNavigator)
}

func (s *FieldNavigatorTestSuite) values(gs []domain.GetSetter) []any {
	res := make([]any, len(gs))
	for n, g := range gs {
		res[n], _ = g.Get()
	}
	return res
}

func (s *FieldNavigatorTestSuite) TestGetAddress() {
	addr, err := s.fn.GetAddress("a.b.0")
	s.NoError(err)
	s.Equal([]string{"a", "b", "0"}, addr)

	for _, field := range []string{"", "a..b", ".a", "a."} {
		_, err := s.fn.GetAddress(field)
		s.ErrorAs(err, &ErrInvalidField{}, field)
	}
}

func (s *FieldNavigatorTestSuite) TestFirstLevel() {
	doc := M{"hello": "world", "type": M{"planet": true}}

	dv, expanded, err := s.fn.GetField(doc, "hello")
	s.NoError(err)
	s.False(expanded)
	s.Len(dv, 1)
	value, isSet := dv[0].Get()
	s.True(isSet)
	s.Equal("world", value)

	dv, expanded, err = s.fn.GetField(doc, "type", "planet")
	s.NoError(err)
	s.False(expanded)
	s.Equal([]any{true}, s.values(dv))
}

func (s *FieldNavigatorTestSuite) TestNotOk() {
	doc := M{"hello": "world", "type": M{"planet": true}}

	for _, addr := range [][]string{{"helloo"}, {"type", "plane"}, {"hello", "x"}, {"nope", "x"}} {
		dv, expanded, err := s.fn.GetField(doc, addr...)
		s.NoError(err)
		s.False(expanded)
		s.Len(dv, 1)
		_, isSet := dv[0].Get()
		s.False(isSet, addr)
	}

	_, _, err := s.fn.GetField(doc)
	s.Error(err)
}

func (s *FieldNavigatorTestSuite) TestArray() {
	doc := M{
		"data": M{
			"planets": []any{
				M{"name": "Earth", "number": 3},
				M{"name": "Mars", "number": 4},
			},
		},
		"multi": []any{
			M{"number": []any{1, 3}},
			M{"number": []any{7}},
		},
		"empty": []any{},
	}

	dv, expanded, err := s.fn.GetField(doc, "data", "planets", "name")
	s.NoError(err)
	s.True(expanded)
	s.Equal([]any{"Earth", "Mars"}, s.values(dv))

	// nested lists are not concatenated
	dv, expanded, err = s.fn.GetField(doc, "multi", "number")
	s.NoError(err)
	s.True(expanded)
	s.Equal([]any{[]any{1, 3}, []any{7}}, s.values(dv))

	dv, expanded, err = s.fn.GetField(doc, "empty", "name")
	s.NoError(err)
	s.True(expanded)
	s.Len(dv, 1)
	_, isSet := dv[0].Get()
	s.False(isSet)
}

func (s *FieldNavigatorTestSuite) TestIndex() {
	doc := M{
		"planets": []any{
			M{"name": "Earth"},
			M{"name": "Mars"},
		},
	}

	dv, expanded, err := s.fn.GetField(doc, "planets", "1")
	s.NoError(err)
	s.False(expanded)
	s.Equal([]any{M{"name": "Mars"}}, s.values(dv))

	dv, _, err = s.fn.GetField(doc, "planets", "0", "name")
	s.NoError(err)
	s.Equal([]any{"Earth"}, s.values(dv))

	for _, addr := range [][]string{{"planets", "2"}, {"planets", "-1"}, {"planets", "5", "name"}} {
		dv, expanded, err = s.fn.GetField(doc, addr...)
		s.NoError(err)
		s.False(expanded)
		_, isSet := dv[0].Get()
		s.False(isSet, addr)
	}
}

func (s *FieldNavigatorTestSuite) TestStopExpansion() {
	doc := M{
		"ducks": []any{
			[]any{M{"name": "Huey"}, M{"name": "Dewey"}},
			M{"name": "Donald"},
			"not an object",
		},
	}
	dv, expanded, err := s.fn.GetField(doc, "ducks", "name")
	s.NoError(err)
	s.True(expanded)
	s.Equal([]any{nil, "Donald", nil}, s.values(dv))
	_, isSet := dv[0].Get()
	s.False(isSet)
}

func (s *FieldNavigatorTestSuite) TestSetAndUnset() {
	doc := M{"a": M{"b": 1}, "list": []any{1, 2}}

	dv, _, err := s.fn.GetField(doc, "a", "b")
	s.NoError(err)
	dv[0].Set(2)
	s.Equal(M{"b": 2}, doc["a"])
	dv[0].Unset()
	s.Equal(M{}, doc["a"])

	dv, _, err = s.fn.GetField(doc, "list", "1")
	s.NoError(err)
	dv[0].Set("x")
	s.Equal([]any{1, "x"}, doc["list"])
	dv[0].Unset()
	s.Equal([]any{1, nil}, doc["list"])

	dv, _, err = s.fn.GetField(doc, "list", "9")
	s.NoError(err)
	dv[0].Set("ignored")
	s.Equal([]any{1, nil}, doc["list"])

	dv, _, err = s.fn.GetField(doc, "missing", "x")
	s.NoError(err)
	dv[0].Set("ignored")
	dv[0].Unset()
	s.NotContains(doc, "missing")
}

func TestFieldNavigatorTestSuite(t *testing.T) {
	suite.Run(t, new(FieldNavigatorTestSuite))
}
