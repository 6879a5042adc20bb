package prepare

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlattenMetadata_DropsNil(t *testing.T) {
	out := FlattenMetadata(map[string]interface{}{"a": nil, "b": "kept"})
	_, hasA := out["a"]
	assert.False(t, hasA)
	assert.Equal(t, "kept", out["b"])
}

func TestFlattenMetadata_PassesThroughPrimitives(t *testing.T) {
	out := FlattenMetadata(map[string]interface{}{
		"s": "text",
		"n": 42,
		"f": 3.14,
		"b": true,
	})
	assert.Equal(t, "text", out["s"])
	assert.Equal(t, 42, out["n"])
	assert.Equal(t, 3.14, out["f"])
	assert.Equal(t, true, out["b"])
}

func TestFlattenMetadata_EncodesArraysAndObjects(t *testing.T) {
	out := FlattenMetadata(map[string]interface{}{
		"tags":   []interface{}{"a", "b"},
		"nested": map[string]interface{}{"x": 1},
	})
	assert.Equal(t, `["a","b"]`, out["tags"])
	assert.Equal(t, `{"x":1}`, out["nested"])
}

func TestFlattenMetadata_AddsTimestampCompanionKeys(t *testing.T) {
	out := FlattenMetadata(map[string]interface{}{
		"createdAt": "2024-01-15T10:00:00Z",
		"updatedAt": "not-a-timestamp",
	})
	assert.Contains(t, out, "createdAtTs")
	assert.NotContains(t, out, "updatedAtTs")
}

func TestFlattenMetadata_EmptyMap(t *testing.T) {
	out := FlattenMetadata(map[string]interface{}{})
	assert.Empty(t, out)
}
