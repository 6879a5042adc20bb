package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collector/internal/datasource"
	"collector/internal/engineerr"
	"collector/internal/navigate"
	"collector/internal/prepare"
	"collector/internal/query"
	"collector/internal/vectorstore"
)

func TestEngine_UpsertGetDeleteRoundTrip(t *testing.T) {
	e := New(vectorstore.NewMemStore(), nil, nil)
	ctx := context.Background()

	doc := prepare.LogicalDocument{
		ID:      "jira-100",
		Content: "an issue about a flaky build",
		Metadata: map[string]interface{}{
			"title": "Flaky build",
		},
	}

	result, err := e.UpsertDocuments(ctx, datasource.Jira, []prepare.LogicalDocument{doc})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Upserted)

	got, err := e.GetDocument(ctx, datasource.Jira, "jira-100")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1.0, got.Score)
	assert.Equal(t, "an issue about a flaky build", got.Content)

	require.NoError(t, e.DeleteDocument(ctx, datasource.Jira, "jira-100"))

	gone, err := e.GetDocument(ctx, datasource.Jira, "jira-100")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestEngine_GetDocumentMissingIsNilNotError(t *testing.T) {
	e := New(vectorstore.NewMemStore(), nil, nil)
	got, err := e.GetDocument(context.Background(), datasource.Jira, "no-such-id")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestEngine_InvalidSourceIsMalformedInput(t *testing.T) {
	e := New(vectorstore.NewMemStore(), nil, nil)
	_, err := e.GetDocument(context.Background(), datasource.DataSource("bogus"), "x")
	require.Error(t, err)
	assert.True(t, engineerr.IsCode(err, engineerr.CodeMalformedInput))
}

func TestEngine_GetDocumentsByMetadataScoresOne(t *testing.T) {
	e := New(vectorstore.NewMemStore(), nil, nil)
	ctx := context.Background()

	docs := []prepare.LogicalDocument{
		{ID: "jira-1", Content: "a", Metadata: map[string]interface{}{"project": "PROJ"}},
		{ID: "jira-2", Content: "b", Metadata: map[string]interface{}{"project": "PROJ"}},
	}
	_, err := e.UpsertDocuments(ctx, datasource.Jira, docs)
	require.NoError(t, err)

	items, err := e.GetDocumentsByMetadata(ctx, datasource.Jira, vectorstore.Eq("project", "PROJ"), 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, it := range items {
		assert.Equal(t, 1.0, it.Score)
	}
}

func TestEngine_DeleteDocumentSweepsChunks(t *testing.T) {
	e := New(vectorstore.NewMemStore(), nil, nil)
	ctx := context.Background()

	col, err := e.registry.Open(ctx, datasource.Jira)
	require.NoError(t, err)
	require.NoError(t, col.Upsert(ctx, []vectorstore.UpsertItem{
		{ID: "doc-1_chunk_0", Content: "first", Metadata: map[string]interface{}{"parentDocId": "doc-1"}},
		{ID: "doc-1_chunk_1", Content: "second", Metadata: map[string]interface{}{"parentDocId": "doc-1"}},
	}))

	require.NoError(t, e.DeleteDocument(ctx, datasource.Jira, "doc-1"))

	items, err := col.Get(ctx, []string{"doc-1_chunk_0", "doc-1_chunk_1"})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestEngine_SearchDelegatesToQueryEngine(t *testing.T) {
	e := New(vectorstore.NewMemStore(), nil, nil)
	ctx := context.Background()

	_, err := e.UpsertDocuments(ctx, datasource.Jira, []prepare.LogicalDocument{
		{ID: "jira-9", Content: "payment gateway timeout incident"},
	})
	require.NoError(t, err)

	results, err := e.Search(ctx, "timeout", query.Options{
		Sources:    []datasource.DataSource{datasource.Jira},
		SearchType: query.SearchKeyword,
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(results.Results), 1)
}

func TestEngine_NavigateDelegatesToNavigator(t *testing.T) {
	e := New(vectorstore.NewMemStore(), nil, nil)
	ctx := context.Background()

	col, err := e.registry.Open(ctx, datasource.Jira)
	require.NoError(t, err)
	require.NoError(t, col.Upsert(ctx, []vectorstore.UpsertItem{
		{ID: "doc-2_chunk_0", Content: "a", Metadata: map[string]interface{}{
			"parentDocId": "doc-2", "chunkIndex": 0, "totalChunks": 2,
		}},
		{ID: "doc-2_chunk_1", Content: "b", Metadata: map[string]interface{}{
			"parentDocId": "doc-2", "chunkIndex": 1, "totalChunks": 2,
		}},
	}))

	result, err := e.Navigate(ctx, "doc-2_chunk_0", navigate.DirNext, navigate.ScopeChunk, 10)
	require.NoError(t, err)
	require.Len(t, result.Related, 1)
	assert.Equal(t, "doc-2_chunk_1", result.Related[0].ID)
	assert.True(t, result.Navigation.HasNext)
}
