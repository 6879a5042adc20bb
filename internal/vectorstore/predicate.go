package vectorstore

// Predicate is the composable filter AST used by GetByPredicate,
// QueryByEmbedding, QueryByText and DeleteByPredicate: equality, $gte,
// $lte and conjunction on flattened metadata fields, plus a
// document-substring $contains primitive for keyword search.
type Predicate interface {
	predicateNode()
}

// CompareOp is the comparison operator of a FieldPredicate.
type CompareOp int

const (
	OpEq CompareOp = iota
	OpGte
	OpLte
)

// FieldPredicate compares a flattened metadata field against a value.
type FieldPredicate struct {
	Field string
	Op    CompareOp
	Value interface{}
}

func (FieldPredicate) predicateNode() {}

// ContainsPredicate matches items whose stored content contains Substring,
// case-insensitively.
type ContainsPredicate struct {
	Substring string
}

func (ContainsPredicate) predicateNode() {}

// AndPredicate conjoins its children.
type AndPredicate struct {
	Predicates []Predicate
}

func (AndPredicate) predicateNode() {}

// OrPredicate disjoins its children. The Upsert Pipeline builds one to
// fetch the existing chunks of several logical ids in one call; the
// Query Engine's where-clause and keyword filters are AND-only.
type OrPredicate struct {
	Predicates []Predicate
}

func (OrPredicate) predicateNode() {}

// Eq builds an equality predicate.
func Eq(field string, value interface{}) Predicate {
	return FieldPredicate{Field: field, Op: OpEq, Value: value}
}

// Gte builds a >= predicate.
func Gte(field string, value interface{}) Predicate {
	return FieldPredicate{Field: field, Op: OpGte, Value: value}
}

// Lte builds a <= predicate.
func Lte(field string, value interface{}) Predicate {
	return FieldPredicate{Field: field, Op: OpLte, Value: value}
}

// Contains builds a document-substring predicate.
func Contains(substring string) Predicate {
	return ContainsPredicate{Substring: substring}
}

// And composes predicates: a nil list yields nil (no filter), a single
// predicate is returned unwrapped, and two or more are conjoined.
func And(preds ...Predicate) Predicate {
	var nonNil []Predicate
	for _, p := range preds {
		if p != nil {
			nonNil = append(nonNil, p)
		}
	}
	switch len(nonNil) {
	case 0:
		return nil
	case 1:
		return nonNil[0]
	default:
		return AndPredicate{Predicates: nonNil}
	}
}

// Or composes predicates disjunctively with the same nil/single-element
// collapsing rules as And.
func Or(preds ...Predicate) Predicate {
	var nonNil []Predicate
	for _, p := range preds {
		if p != nil {
			nonNil = append(nonNil, p)
		}
	}
	switch len(nonNil) {
	case 0:
		return nil
	case 1:
		return nonNil[0]
	default:
		return OrPredicate{Predicates: nonNil}
	}
}
