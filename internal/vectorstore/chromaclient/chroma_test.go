package chromaclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collector/internal/vectorstore"
)

func TestToItems_ZipsIDsDocumentsMetadatasDistances(t *testing.T) {
	items := toItems(getOrQueryResponse{
		IDs:       []string{"a", "b"},
		Documents: []string{"doc a", "doc b"},
		Metadatas: []map[string]interface{}{{"k": "v1"}, {"k": "v2"}},
		Distances: []float64{0.1, 0.2},
	})
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, "doc a", items[0].Content)
	assert.Equal(t, "v2", items[1].Metadata["k"])
	assert.Equal(t, 0.2, items[1].Distance)
}

func TestToItems_EmptyInput(t *testing.T) {
	items := toItems(getOrQueryResponse{})
	assert.Empty(t, items)
}

func newTestServer(t *testing.T) (*httptest.Server, *Store) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/collections", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode([]chromaCollectionInfo{})
		case http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(chromaCollectionInfo{Name: "collector_jira"})
		}
	})
	mux.HandleFunc("/api/v1/collections/collector_jira/upsert", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{})
	})
	mux.HandleFunc("/api/v1/collections/collector_jira/get", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(getOrQueryResponse{
			IDs:       []string{"jira-1"},
			Documents: []string{"an issue"},
			Metadatas: []map[string]interface{}{{"title": "Bug"}},
		})
	})
	mux.HandleFunc("/api/v1/collections/collector_jira/query", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"ids":       [][]string{{"jira-1"}},
			"documents": [][]string{{"an issue"}},
			"metadatas": [][]map[string]interface{}{{{"title": "Bug"}}},
			"distances": [][]float64{{0.25}},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	store := New(Config{Endpoint: srv.URL, TimeoutSeconds: 5})
	return srv, store
}

func TestStore_OpenCollectionCreatesWhenMissing(t *testing.T) {
	_, store := newTestServer(t)
	col, err := store.OpenCollection(context.Background(), "collector_jira")
	require.NoError(t, err)
	assert.Equal(t, "collector_jira", col.Name())
}

func TestCollection_UpsertAndGet(t *testing.T) {
	_, store := newTestServer(t)
	col, err := store.OpenCollection(context.Background(), "collector_jira")
	require.NoError(t, err)

	require.NoError(t, col.Upsert(context.Background(), []vectorstore.UpsertItem{
		{ID: "jira-1", Content: "an issue", Embedding: []float64{0.1, 0.2}},
	}))

	items, err := col.Get(context.Background(), []string{"jira-1"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "an issue", items[0].Content)
}

func TestCollection_QueryByEmbeddingUnwrapsBatchedResponse(t *testing.T) {
	_, store := newTestServer(t)
	col, err := store.OpenCollection(context.Background(), "collector_jira")
	require.NoError(t, err)

	items, err := col.QueryByEmbedding(context.Background(), []float64{0.1, 0.2}, 5, nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 0.25, items[0].Distance)
}
