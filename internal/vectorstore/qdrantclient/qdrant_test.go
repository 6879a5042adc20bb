package qdrantclient

import (
	"testing"

	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"

	"collector/internal/vectorstore"
)

func TestStringToPointID_RoundTripsAsUUID(t *testing.T) {
	id := stringToPointID("jira-1")
	assert.Equal(t, "jira-1", pointIDToString(id))
}

func TestFloat64ToFloat32_Converts(t *testing.T) {
	out := float64ToFloat32([]float64{0.1, 0.2, 0.3})
	assert.Len(t, out, 3)
	assert.InDelta(t, float32(0.1), out[0], 1e-6)
}

func TestItemToPoint_EmbedsContentInPayload(t *testing.T) {
	point := itemToPoint(vectorstore.UpsertItem{
		ID:        "jira-1",
		Content:   "an issue",
		Metadata:  map[string]interface{}{"title": "Bug"},
		Embedding: []float64{0.1, 0.2},
	})
	assert.Equal(t, "jira-1", pointIDToString(point.GetId()))
	assert.Equal(t, "an issue", point.GetPayload()["content"].GetStringValue())
	assert.Equal(t, "Bug", point.GetPayload()["title"].GetStringValue())
}

func TestGetString_MissingKeyReturnsEmpty(t *testing.T) {
	assert.Equal(t, "", getString(map[string]*qdrant.Value{}, "content"))
}
