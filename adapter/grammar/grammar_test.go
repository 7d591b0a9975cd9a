package grammar

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/vinicius-lino-figueiredo/restquery/domain"
)

type GrammarTestSuite struct {
	suite.Suite
	tokenizer domain.Tokenizer
}

func (s *GrammarTestSuite) SetupTest() {
	s.tokenizer = NewTokenizer()
}

func (s *GrammarTestSuite) TestOperators() {
	testCases := []struct {
		raw string
		op  domain.Operator
		lit string
	}{
		{"{gt}1", domain.OpGt, "1"},
		{"{gte}2", domain.OpGte, "2"},
		{"{lt}3", domain.OpLt, "3"},
		{"{lte}4", domain.OpLte, "4"},
		{"{in}a,b", domain.OpIn, "a,b"},
		{"{nin}a,b", domain.OpNin, "a,b"},
		{"{ne}x", domain.OpNe, "x"},
		{"{size}2", domain.OpSize, "2"},
		{"{all}a,b", domain.OpAll, "a,b"},
		{"{mod}2,1", domain.OpMod, "2,1"},
		{"{i}abc", domain.OpInsensitive, "abc"},
		{"{e}abc", domain.OpEndsWith, "abc"},
		{"{b}abc", domain.OpBeginsWith, "abc"},
		{"{m}k,v", domain.OpElemMatch, "k,v"},
		{"{empty}", domain.OpEmpty, ""},
		{"{!empty}-", domain.OpNotEmpty, "-"},
		{"{c}ab/i", domain.OpCustom, "ab/i"},
		{"{gt}", domain.OpGt, ""},
	}
	for _, tc := range testCases {
		s.Equal(domain.Token{Op: tc.op, Literal: tc.lit}, s.tokenizer.Split(tc.raw), tc.raw)
	}
}

func (s *GrammarTestSuite) TestNoOperator() {
	for _, raw := range []string{
		"", "a", "{", "{}", "{}a", "{gt", "{x}a", "a{gt}1", " {gt}1", "{GT}1",
	} {
		s.Equal(domain.Token{Op: domain.OpNone, Literal: raw}, Split(raw), raw)
	}
}

func (s *GrammarTestSuite) TestOnlyFirstToken() {
	s.Equal(domain.Token{Op: domain.OpIn, Literal: "{gt}1"}, Split("{in}{gt}1"))
	s.Equal(domain.Token{Op: domain.OpEndsWith, Literal: "a}"}, Split("{e}a}"))
}

func TestGrammarTestSuite(t *testing.T) {
	suite.Run(t, new(GrammarTestSuite))
}
