package upsert

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collector/internal/datasource"
	"collector/internal/prepare"
	"collector/internal/vectorstore"
)

func TestUpsert_ShortDocSingleChunk(t *testing.T) {
	store := vectorstore.NewMemStore()
	registry := vectorstore.NewRegistry(store, nil)
	pipeline := New(registry, nil)

	doc := prepare.LogicalDocument{
		ID:      "jira-1",
		Content: "Short issue",
		Metadata: map[string]interface{}{
			"title":     "Bug",
			"createdAt": "2024-01-15T10:00:00Z",
		},
	}

	result, err := pipeline.Upsert(context.Background(), datasource.Jira, []prepare.LogicalDocument{doc})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Upserted)

	col, err := registry.Open(context.Background(), datasource.Jira)
	require.NoError(t, err)
	items, err := col.Get(context.Background(), []string{"jira-1"})
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, "Short issue", item.Content)
	assert.Equal(t, "Bug", item.Metadata["title"])
	assert.Equal(t, "2024-01-15T10:00:00Z", item.Metadata["createdAt"])
	assert.EqualValues(t, 1705312800000, item.Metadata["createdAtTs"])
	assert.Equal(t, prepare.ContentHash("Short issue"), item.Metadata["_contentHash"])
}

func TestUpsert_LongDocChunks(t *testing.T) {
	store := vectorstore.NewMemStore()
	registry := vectorstore.NewRegistry(store, nil)
	pipeline := New(registry, nil)

	doc := prepare.LogicalDocument{
		ID:      "doc-long",
		Content: strings.Repeat("x", 9000),
	}

	_, err := pipeline.Upsert(context.Background(), datasource.Jira, []prepare.LogicalDocument{doc})
	require.NoError(t, err)

	col, err := registry.Open(context.Background(), datasource.Jira)
	require.NoError(t, err)
	items, err := col.Get(context.Background(), []string{"doc-long_chunk_0", "doc-long_chunk_1"})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(items), 2)

	for _, item := range items {
		assert.Equal(t, "doc-long", item.Metadata["parentDocId"])
		assert.GreaterOrEqual(t, item.Metadata["totalChunks"], 2)
	}
}

func TestUpsert_UnchangedContentTakesMetadataOnlyPath(t *testing.T) {
	store := vectorstore.NewMemStore()
	registry := vectorstore.NewRegistry(store, nil)
	pipeline := New(registry, nil)

	doc := prepare.LogicalDocument{ID: "jira-2", Content: "stable content", Metadata: map[string]interface{}{"title": "v1"}}

	_, err := pipeline.Upsert(context.Background(), datasource.Jira, []prepare.LogicalDocument{doc})
	require.NoError(t, err)

	doc.Metadata["title"] = "v2"
	result, err := pipeline.Upsert(context.Background(), datasource.Jira, []prepare.LogicalDocument{doc})
	require.NoError(t, err)
	assert.Equal(t, 1, result.MetadataOnly)
	assert.Equal(t, 0, result.Upserted)

	col, err := registry.Open(context.Background(), datasource.Jira)
	require.NoError(t, err)
	items, err := col.Get(context.Background(), []string{"jira-2"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "stable content", items[0].Content)
	assert.Equal(t, "v2", items[0].Metadata["title"])
}

func TestUpsert_ShrinkingChunkCountDeletesStaleChunks(t *testing.T) {
	store := vectorstore.NewMemStore()
	registry := vectorstore.NewRegistry(store, nil)
	pipeline := New(registry, nil)

	long := prepare.LogicalDocument{ID: "doc-shrink", Content: strings.Repeat("a", 9000)}
	_, err := pipeline.Upsert(context.Background(), datasource.Jira, []prepare.LogicalDocument{long})
	require.NoError(t, err)

	short := prepare.LogicalDocument{ID: "doc-shrink", Content: "now short"}
	result, err := pipeline.Upsert(context.Background(), datasource.Jira, []prepare.LogicalDocument{short})
	require.NoError(t, err)
	assert.Greater(t, result.Deleted, 0)

	col, err := registry.Open(context.Background(), datasource.Jira)
	require.NoError(t, err)
	items, err := col.Get(context.Background(), []string{"doc-shrink_chunk_1"})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestUpsert_EmptyDocsIsNoOp(t *testing.T) {
	pipeline := New(vectorstore.NewRegistry(vectorstore.NewMemStore(), nil), nil)
	result, err := pipeline.Upsert(context.Background(), datasource.Jira, nil)
	require.NoError(t, err)
	assert.Equal(t, Result{}, result)
}

func TestCollectionDelete_ThenGetReturnsNothing(t *testing.T) {
	store := vectorstore.NewMemStore()
	registry := vectorstore.NewRegistry(store, nil)
	pipeline := New(registry, nil)

	doc := prepare.LogicalDocument{ID: "jira-3", Content: "to be deleted"}
	_, err := pipeline.Upsert(context.Background(), datasource.Jira, []prepare.LogicalDocument{doc})
	require.NoError(t, err)

	col, err := registry.Open(context.Background(), datasource.Jira)
	require.NoError(t, err)
	require.NoError(t, col.Delete(context.Background(), []string{"jira-3"}))

	items, err := col.Get(context.Background(), []string{"jira-3"})
	require.NoError(t, err)
	assert.Empty(t, items)
}
