package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnd_CollapsesNilAndSingle(t *testing.T) {
	assert.Nil(t, And())
	assert.Nil(t, And(nil, nil))

	single := Eq("a", 1)
	assert.Equal(t, single, And(single))
	assert.Equal(t, single, And(nil, single, nil))
}

func TestAnd_ConjoinsMultiple(t *testing.T) {
	p1 := Eq("a", 1)
	p2 := Gte("b", 2)
	combined := And(p1, p2)

	and, ok := combined.(AndPredicate)
	assert.True(t, ok)
	assert.Equal(t, []Predicate{p1, p2}, and.Predicates)
}

func TestOr_CollapsesNilAndSingle(t *testing.T) {
	assert.Nil(t, Or())
	single := Eq("a", 1)
	assert.Equal(t, single, Or(single))
}

func TestOr_DisjoinsMultiple(t *testing.T) {
	p1 := Eq("a", 1)
	p2 := Eq("b", 2)
	combined := Or(p1, p2)

	or, ok := combined.(OrPredicate)
	assert.True(t, ok)
	assert.Equal(t, []Predicate{p1, p2}, or.Predicates)
}

func TestFieldPredicate_Builders(t *testing.T) {
	eq := Eq("field", "value").(FieldPredicate)
	assert.Equal(t, OpEq, eq.Op)

	gte := Gte("field", 5).(FieldPredicate)
	assert.Equal(t, OpGte, gte.Op)

	lte := Lte("field", 5).(FieldPredicate)
	assert.Equal(t, OpLte, lte.Op)
}

func TestContains_BuildsSubstringPredicate(t *testing.T) {
	c := Contains("needle").(ContainsPredicate)
	assert.Equal(t, "needle", c.Substring)
}
