package qdrantclient

import (
	"github.com/qdrant/go-client/qdrant"

	"collector/internal/vectorstore"
)

// compileFilter walks pred into a Qdrant Filter: equality on a string
// value becomes a Match keyword condition (equality on any other value
// type is dropped), Gte/Lte become a Range condition, And becomes Must,
// Or becomes Should. A
// ContainsPredicate has no Qdrant payload equivalent (Qdrant has no
// document-substring search) and is skipped — callers needing keyword
// search route through the Chroma backend instead.
func compileFilter(pred vectorstore.Predicate) *qdrant.Filter {
	conditions := compileConditions(pred)
	if len(conditions) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: conditions}
}

func compileConditions(pred vectorstore.Predicate) []*qdrant.Condition {
	switch p := pred.(type) {
	case nil:
		return nil
	case vectorstore.FieldPredicate:
		if c := fieldCondition(p); c != nil {
			return []*qdrant.Condition{c}
		}
		return nil
	case vectorstore.ContainsPredicate:
		return nil
	case vectorstore.AndPredicate:
		var out []*qdrant.Condition
		for _, sub := range p.Predicates {
			out = append(out, compileConditions(sub)...)
		}
		return out
	case vectorstore.OrPredicate:
		var should []*qdrant.Condition
		for _, sub := range p.Predicates {
			should = append(should, compileConditions(sub)...)
		}
		if len(should) == 0 {
			return nil
		}
		return []*qdrant.Condition{{
			ConditionOneOf: &qdrant.Condition_Filter{
				Filter: &qdrant.Filter{Should: should},
			},
		}}
	default:
		return nil
	}
}

func fieldCondition(p vectorstore.FieldPredicate) *qdrant.Condition {
	switch p.Op {
	case vectorstore.OpEq:
		keyword, ok := p.Value.(string)
		if !ok {
			return nil
		}
		return &qdrant.Condition{
			ConditionOneOf: &qdrant.Condition_Field{
				Field: &qdrant.FieldCondition{
					Key:   p.Field,
					Match: &qdrant.Match{MatchValue: &qdrant.Match_Keyword{Keyword: keyword}},
				},
			},
		}
	case vectorstore.OpGte:
		f, ok := toFloat(p.Value)
		if !ok {
			return nil
		}
		return &qdrant.Condition{
			ConditionOneOf: &qdrant.Condition_Field{
				Field: &qdrant.FieldCondition{
					Key:   p.Field,
					Range: &qdrant.Range{Gte: qdrant.PtrOf(f)},
				},
			},
		}
	case vectorstore.OpLte:
		f, ok := toFloat(p.Value)
		if !ok {
			return nil
		}
		return &qdrant.Condition{
			ConditionOneOf: &qdrant.Condition_Field{
				Field: &qdrant.FieldCondition{
					Key:   p.Field,
					Range: &qdrant.Range{Lte: qdrant.PtrOf(f)},
				},
			},
		}
	default:
		return nil
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
