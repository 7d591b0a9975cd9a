package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/vinicius-lino-figueiredo/restquery/domain"
)

type PopulateTestSuite struct {
	suite.Suite
	ctx     context.Context
	authors *Store
	books   *Store
}

func (s *PopulateTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.authors = NewStore()
	s.Require().NoError(s.authors.Insert(s.ctx,
		M{"_id": "ann", "name": "Ann", "age": 40, "country": "pe"},
		M{"_id": "bob", "name": "Bob", "age": 30, "country": "cl"},
		M{"_id": "cid", "name": "Cid", "age": 50, "country": "pe"},
	))
	s.books = NewStore(
		WithReference("author", s.authors),
		WithReference("people", s.authors),
	)
	s.Require().NoError(s.books.Insert(s.ctx,
		M{"_id": "b1", "author": "bob", "editors": A{"cid", "ann", "zed"}},
		M{"_id": "b2", "author": "zed"},
		M{"_id": "b3", "chapters": A{M{"author": "ann"}, M{"author": "cid"}}},
	))
}

func (s *PopulateTestSuite) find(filter domain.Filter, opts ...domain.PopulateOption) []M {
	res, err := s.books.Find(s.ctx, filter, domain.WithFindPopulate(opts))
	s.Require().NoError(err)
	return res
}

func (s *PopulateTestSuite) names(v any) A {
	var res A
	for _, item := range v.(A) {
		res = append(res, item.(M)["name"])
	}
	return res
}

func (s *PopulateTestSuite) TestSingle() {
	res := s.find(nil, domain.PopulateOption{Path: "author", Select: "name"})
	s.Equal(M{"_id": "bob", "name": "Bob"}, res[0]["author"])
	s.Nil(res[1]["author"])
	s.NotContains(res[2], "author")
}

func (s *PopulateTestSuite) TestListKeepsIDOrder() {
	res := s.find(M{"_id": "b1"}, domain.PopulateOption{Path: "editors", Model: "people"})
	s.Equal(A{"Cid", "Ann"}, s.names(res[0]["editors"]))
}

func (s *PopulateTestSuite) TestListOptions() {
	res := s.find(M{"_id": "b1"}, domain.PopulateOption{
		Path:    "editors",
		Model:   "people",
		Options: map[string]any{"sort": "-age", "limit": 1},
	})
	s.Equal(A{"Cid"}, s.names(res[0]["editors"]))

	res = s.find(M{"_id": "b1"}, domain.PopulateOption{
		Path:    "editors",
		Model:   "people",
		Options: map[string]any{"sort": map[string]any{"age": 1}, "skip": 1},
	})
	s.Equal(A{"Cid"}, s.names(res[0]["editors"]))
}

func (s *PopulateTestSuite) TestMatch() {
	res := s.find(M{"_id": "b1"}, domain.PopulateOption{
		Path:  "editors",
		Model: "people",
		Match: map[string]any{"age": map[string]any{"$lt": 45}},
	})
	s.Equal(A{"Ann"}, s.names(res[0]["editors"]))
}

func (s *PopulateTestSuite) TestNestedPath() {
	res := s.find(M{"_id": "b3"}, domain.PopulateOption{Path: "chapters.author", Model: "author", Select: "country"})
	s.Equal(A{
		M{"author": M{"_id": "ann", "country": "pe"}},
		M{"author": M{"_id": "cid", "country": "pe"}},
	}, res[0]["chapters"])
}

func (s *PopulateTestSuite) TestNestedPopulate() {
	s.Require().NoError(s.authors.Insert(s.ctx, M{"_id": "dan", "name": "Dan", "mentor": "ann"}))
	authors := NewStore(WithReference("mentor", s.authors))
	s.Require().NoError(authors.Insert(s.ctx, M{"_id": "dan", "mentor": "ann"}))
	s.books = NewStore(WithReference("author", authors))
	s.Require().NoError(s.books.Insert(s.ctx, M{"_id": "b9", "author": "dan"}))

	res := s.find(nil, domain.PopulateOption{
		Path:     "author",
		Populate: []domain.PopulateOption{{Path: "mentor", Select: "name"}},
	})
	s.Equal(M{"_id": "dan", "mentor": M{"_id": "ann", "name": "Ann"}}, res[0]["author"])
}

func (s *PopulateTestSuite) TestStoredDocumentsUntouched() {
	s.find(nil, domain.PopulateOption{Path: "author"})
	doc, err := s.books.FindOne(s.ctx, M{"_id": "b1"})
	s.NoError(err)
	s.Equal("bob", doc["author"])
}

func (s *PopulateTestSuite) TestErrors() {
	var unknown ErrUnknownReference
	_, err := s.books.Find(s.ctx, nil, domain.WithFindPopulate([]domain.PopulateOption{{Path: "nope"}}))
	s.ErrorAs(err, &unknown)
	s.Equal("nope", unknown.Path)

	_, err = s.books.Find(s.ctx, nil, domain.WithFindPopulate([]domain.PopulateOption{{Path: "author", Model: "nope"}}))
	s.ErrorAs(err, &unknown)
	s.Equal("nope", unknown.Model)

	var invalid ErrInvalidOption
	_, err = s.books.Find(s.ctx, nil, domain.WithFindPopulate([]domain.PopulateOption{
		{Path: "author", Options: map[string]any{"limit": -1}},
	}))
	s.ErrorAs(err, &invalid)
	s.Equal("limit", invalid.Option)

	_, err = s.books.Find(s.ctx, nil, domain.WithFindPopulate([]domain.PopulateOption{
		{Path: "author", Options: map[string]any{"sort": map[string]any{"age": 2}}},
	}))
	s.ErrorAs(err, &invalid)
	s.Equal("sort", invalid.Option)
}

func (s *PopulateTestSuite) TestSortOption() {
	sort, err := sortOption("a, -b +c")
	s.NoError(err)
	s.Equal(domain.Sort{{Key: "a", Order: 1}, {Key: "b", Order: -1}, {Key: "c", Order: 1}}, sort)

	sort, err = sortOption(map[string]any{"b": "desc", "a": 1})
	s.NoError(err)
	s.Equal(domain.Sort{{Key: "a", Order: 1}, {Key: "b", Order: -1}}, sort)

	sort, err = sortOption(domain.Ordered{{Key: "b", Value: -1}, {Key: "a", Value: "asc"}})
	s.NoError(err)
	s.Equal(domain.Sort{{Key: "b", Order: -1}, {Key: "a", Order: 1}}, sort)

	_, err = sortOption(3)
	s.Error(err)
}

func TestPopulateTestSuite(t *testing.T) {
	suite.Run(t, new(PopulateTestSuite))
}
