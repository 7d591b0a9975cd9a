package mongostore

import (
	"github.com/vinicius-lino-figueiredo/restquery/domain"
	"github.com/vinicius-lino-figueiredo/restquery/pkg/structure"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// findPipeline renders a find with populate options as an aggregation, since
// resolving references needs $lookup stages.
func (s *Store) findPipeline(filter bson.M, fo domain.FindOptions) (bson.A, error) {
	pipeline := bson.A{bson.D{{Key: "$match", Value: filter}}}
	if sort := sortDocument(fo.Sort); sort != nil {
		pipeline = append(pipeline, bson.D{{Key: "$sort", Value: sort}})
	}
	if fo.Skip > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$skip", Value: fo.Skip}})
	}
	if limit := abs(fo.Limit); limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	}
	if proj := projection(fo.Projection); proj != nil {
		pipeline = append(pipeline, bson.D{{Key: "$project", Value: proj}})
	}
	lookups, err := s.lookups(fo.Populate)
	if err != nil {
		return nil, err
	}
	return append(pipeline, lookups...), nil
}

// lookups renders populate options as $lookup stages. The referenced ids may
// be a single value or a list; either way the path receives the list of
// matched documents.
func (s *Store) lookups(opts []domain.PopulateOption) (bson.A, error) {
	stages := make(bson.A, 0, len(opts))
	for _, opt := range opts {
		refs := bson.D{{Key: "$cond", Value: bson.D{
			{Key: "if", Value: bson.D{{Key: "$isArray", Value: "$$ref"}}},
			{Key: "then", Value: "$$ref"},
			{Key: "else", Value: bson.A{"$$ref"}},
		}}}
		expr := bson.D{{Key: "$in", Value: bson.A{"$_id", refs}}}
		sub := bson.A{bson.D{{Key: "$match", Value: bson.D{{Key: "$expr", Value: expr}}}}}

		if opt.Match != nil {
			match, err := toBSON(opt.Match)
			if err != nil {
				return nil, err
			}
			sub = append(sub, bson.D{{Key: "$match", Value: match}})
		}
		more, err := optionStages(opt.Options)
		if err != nil {
			return nil, err
		}
		sub = append(sub, more...)
		if proj := projection([]string{opt.Select}); proj != nil {
			sub = append(sub, bson.D{{Key: "$project", Value: proj}})
		}
		nested, err := s.lookups(opt.Populate)
		if err != nil {
			return nil, err
		}
		sub = append(sub, nested...)

		stages = append(stages, bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: s.collectionFor(opt)},
			{Key: "let", Value: bson.D{{Key: "ref", Value: "$" + opt.Path}}},
			{Key: "pipeline", Value: sub},
			{Key: "as", Value: opt.Path},
		}}})
	}
	return stages, nil
}

func (s *Store) collectionFor(opt domain.PopulateOption) string {
	if opt.Model != "" {
		return opt.Model
	}
	if c, ok := s.references[opt.Path]; ok {
		return c
	}
	return opt.Path
}

// optionStages reads the sort, skip and limit populate options.
func optionStages(opts map[string]any) (bson.A, error) {
	var stages bson.A
	if v, ok := opts["sort"]; ok {
		sort, err := sortValue(v)
		if err != nil {
			return nil, err
		}
		stages = append(stages, bson.D{{Key: "$sort", Value: sort}})
	}
	for _, key := range []string{"skip", "limit"} {
		v, ok := opts[key]
		if !ok {
			continue
		}
		n, ok := structure.AsInteger(v)
		if !ok || n < 0 {
			return nil, ErrConvert{Value: v, Reason: "populate " + key + " must be a non-negative integer"}
		}
		if n > 0 {
			stages = append(stages, bson.D{{Key: "$" + key, Value: int64(n)}})
		}
	}
	return stages, nil
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

// mapReduceCommand renders job as an inline mapReduce command.
func mapReduceCommand(collection string, job domain.MapReduceJob) (bson.D, error) {
	mapFn, err := javaScript(job.Map)
	if err != nil {
		return nil, err
	}
	reduceFn, err := javaScript(job.Reduce)
	if err != nil {
		return nil, err
	}
	filter, err := filterToBSON(job.Filter)
	if err != nil {
		return nil, err
	}
	cmd := bson.D{
		{Key: "mapReduce", Value: collection},
		{Key: "map", Value: mapFn},
		{Key: "reduce", Value: reduceFn},
		{Key: "out", Value: bson.D{{Key: "inline", Value: 1}}},
		{Key: "query", Value: filter},
	}
	if job.Finalize != nil {
		finalize, err := javaScript(job.Finalize)
		if err != nil {
			return nil, err
		}
		cmd = append(cmd, bson.E{Key: "finalize", Value: finalize})
	}
	if job.Scope != nil {
		scope, err := toBSON(job.Scope)
		if err != nil {
			return nil, err
		}
		cmd = append(cmd, bson.E{Key: "scope", Value: scope})
	}
	if job.Limit > 0 {
		cmd = append(cmd, bson.E{Key: "limit", Value: job.Limit})
	}
	return cmd, nil
}

func javaScript(code any) (bson.JavaScript, error) {
	switch t := code.(type) {
	case domain.JavaScript:
		return bson.JavaScript(t), nil
	case bson.JavaScript:
		return t, nil
	default:
		return "", domain.ErrUnsupportedCode{Code: code}
	}
}
