package chromaclient

import "collector/internal/vectorstore"

// compileMetadataWhere walks pred and emits Chroma's "where" metadata
// filter JSON, ignoring any ContainsPredicate nodes (those belong in
// where_document, compiled separately by compileDocumentWhere). A tree
// made up entirely of Contains nodes compiles to nil here.
func compileMetadataWhere(pred vectorstore.Predicate) map[string]interface{} {
	switch p := pred.(type) {
	case nil:
		return nil
	case vectorstore.FieldPredicate:
		return map[string]interface{}{p.Field: fieldClause(p)}
	case vectorstore.ContainsPredicate:
		return nil
	case vectorstore.AndPredicate:
		return combine("$and", p.Predicates, compileMetadataWhere)
	case vectorstore.OrPredicate:
		return combine("$or", p.Predicates, compileMetadataWhere)
	default:
		return nil
	}
}

// compileDocumentWhere walks pred and emits Chroma's "where_document"
// filter JSON, ignoring any metadata FieldPredicate nodes. A tree with no
// Contains nodes compiles to nil here.
func compileDocumentWhere(pred vectorstore.Predicate) map[string]interface{} {
	switch p := pred.(type) {
	case nil:
		return nil
	case vectorstore.FieldPredicate:
		return nil
	case vectorstore.ContainsPredicate:
		return map[string]interface{}{"$contains": p.Substring}
	case vectorstore.AndPredicate:
		return combine("$and", p.Predicates, compileDocumentWhere)
	case vectorstore.OrPredicate:
		return combine("$or", p.Predicates, compileDocumentWhere)
	default:
		return nil
	}
}

func fieldClause(p vectorstore.FieldPredicate) interface{} {
	switch p.Op {
	case vectorstore.OpGte:
		return map[string]interface{}{"$gte": p.Value}
	case vectorstore.OpLte:
		return map[string]interface{}{"$lte": p.Value}
	default:
		return p.Value
	}
}

func combine(op string, preds []vectorstore.Predicate, compile func(vectorstore.Predicate) map[string]interface{}) map[string]interface{} {
	var clauses []map[string]interface{}
	for _, sub := range preds {
		if c := compile(sub); c != nil {
			clauses = append(clauses, c)
		}
	}
	switch len(clauses) {
	case 0:
		return nil
	case 1:
		return clauses[0]
	default:
		// Chroma's combinator operators take a list value, not a map merge.
		list := make([]interface{}, len(clauses))
		for i, c := range clauses {
			list[i] = c
		}
		return map[string]interface{}{op: list}
	}
}
