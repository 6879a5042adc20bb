// Package chromaclient implements the vectorstore.VectorStore port as an
// HTTP client against a Chroma-compatible server: a resty client against
// the /api/v1/collections REST surface with Upsert/Update/Get/Query/Delete
// request shapes.
package chromaclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"collector/internal/vectorstore"
)

// Config configures the Chroma HTTP client.
type Config struct {
	Endpoint       string
	APIKey         string
	TimeoutSeconds int
	RetryAttempts  int
}

// Store is a vectorstore.VectorStore backed by a Chroma server.
type Store struct {
	client *resty.Client
}

// New builds a Store against cfg.Endpoint.
func New(cfg Config) *Store {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	client := resty.New()
	client.SetBaseURL(cfg.Endpoint)
	client.SetTimeout(time.Duration(timeout) * time.Second)
	client.SetRetryCount(cfg.RetryAttempts)
	client.SetRetryWaitTime(1 * time.Second)
	client.SetRetryMaxWaitTime(5 * time.Second)
	if cfg.APIKey != "" {
		client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	}
	return &Store{client: client}
}

type chromaCollectionInfo struct {
	Name string `json:"name"`
}

// OpenCollection creates name if it does not already exist, and returns a
// handle to it either way.
func (s *Store) OpenCollection(ctx context.Context, name string) (vectorstore.Collection, error) {
	resp, err := s.client.R().SetContext(ctx).Get("/api/v1/collections")
	if err != nil {
		return nil, fmt.Errorf("chromaclient: list collections: %w", err)
	}

	var collections []chromaCollectionInfo
	if err := json.Unmarshal(resp.Body(), &collections); err != nil {
		return nil, fmt.Errorf("chromaclient: parse collections response: %w", err)
	}
	for _, c := range collections {
		if c.Name == name {
			return &collection{client: s.client, name: name}, nil
		}
	}

	createReq := map[string]interface{}{
		"name":     name,
		"metadata": map[string]interface{}{"created_at": time.Now().UTC().Format(time.RFC3339)},
	}
	resp, err = s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(createReq).
		Post("/api/v1/collections")
	if err != nil {
		return nil, fmt.Errorf("chromaclient: create collection %s: %w", name, err)
	}
	if resp.StatusCode() != 200 && resp.StatusCode() != 201 {
		return nil, fmt.Errorf("chromaclient: create collection %s: status %d: %s", name, resp.StatusCode(), resp.Body())
	}
	return &collection{client: s.client, name: name}, nil
}

// DropCollection deletes name. A not-found response is not an error.
func (s *Store) DropCollection(ctx context.Context, name string) error {
	resp, err := s.client.R().SetContext(ctx).Delete("/api/v1/collections/" + name)
	if err != nil {
		return fmt.Errorf("chromaclient: drop collection %s: %w", name, err)
	}
	if resp.StatusCode() != 200 && resp.StatusCode() != 404 {
		return fmt.Errorf("chromaclient: drop collection %s: status %d: %s", name, resp.StatusCode(), resp.Body())
	}
	return nil
}

type collection struct {
	client *resty.Client
	name   string
}

func (c *collection) Name() string { return c.name }

type getOrQueryResponse struct {
	IDs       []string                 `json:"ids"`
	Documents []string                 `json:"documents"`
	Metadatas []map[string]interface{} `json:"metadatas"`
	Distances []float64                `json:"distances,omitempty"`
}

func (c *collection) path(op string) string {
	return fmt.Sprintf("/api/v1/collections/%s/%s", c.name, op)
}

func (c *collection) Upsert(ctx context.Context, items []vectorstore.UpsertItem) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]string, len(items))
	embeddings := make([][]float64, len(items))
	documents := make([]string, len(items))
	metadatas := make([]map[string]interface{}, len(items))
	for i, it := range items {
		ids[i] = it.ID
		embeddings[i] = it.Embedding
		documents[i] = it.Content
		metadatas[i] = it.Metadata
	}

	req := map[string]interface{}{
		"ids":        ids,
		"embeddings": embeddings,
		"documents":  documents,
		"metadatas":  metadatas,
	}
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(c.path("upsert"))
	if err != nil {
		return fmt.Errorf("chromaclient: upsert: %w", err)
	}
	if resp.StatusCode() != 200 && resp.StatusCode() != 201 {
		return fmt.Errorf("chromaclient: upsert: status %d: %s", resp.StatusCode(), resp.Body())
	}
	return nil
}

func (c *collection) UpdateMetadata(ctx context.Context, ids []string, metadatas []map[string]interface{}) error {
	if len(ids) == 0 {
		return nil
	}
	req := map[string]interface{}{
		"ids":       ids,
		"metadatas": metadatas,
	}
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(c.path("update"))
	if err != nil {
		return fmt.Errorf("chromaclient: update metadata: %w", err)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("chromaclient: update metadata: status %d: %s", resp.StatusCode(), resp.Body())
	}
	return nil
}

func (c *collection) Get(ctx context.Context, ids []string) ([]vectorstore.Item, error) {
	req := map[string]interface{}{"ids": ids}
	return c.get(ctx, req)
}

func (c *collection) GetByPredicate(ctx context.Context, pred vectorstore.Predicate, limit int) ([]vectorstore.Item, error) {
	req := map[string]interface{}{}
	if where := compileMetadataWhere(pred); where != nil {
		req["where"] = where
	}
	if whereDoc := compileDocumentWhere(pred); whereDoc != nil {
		req["where_document"] = whereDoc
	}
	if limit > 0 {
		req["limit"] = limit
	}
	return c.get(ctx, req)
}

func (c *collection) get(ctx context.Context, req map[string]interface{}) ([]vectorstore.Item, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(c.path("get"))
	if err != nil {
		return nil, fmt.Errorf("chromaclient: get: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("chromaclient: get: status %d: %s", resp.StatusCode(), resp.Body())
	}
	var parsed getOrQueryResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("chromaclient: parse get response: %w", err)
	}
	return toItems(parsed), nil
}

func (c *collection) QueryByEmbedding(ctx context.Context, embedding []float64, nResults int, pred vectorstore.Predicate) ([]vectorstore.Item, error) {
	if nResults <= 0 {
		nResults = 10
	}
	req := map[string]interface{}{
		"query_embeddings": [][]float64{embedding},
		"n_results":        nResults,
	}
	if where := compileMetadataWhere(pred); where != nil {
		req["where"] = where
	}
	if whereDoc := compileDocumentWhere(pred); whereDoc != nil {
		req["where_document"] = whereDoc
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(c.path("query"))
	if err != nil {
		return nil, fmt.Errorf("chromaclient: query: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("chromaclient: query: status %d: %s", resp.StatusCode(), resp.Body())
	}

	// Chroma's /query wraps each field in an outer per-query-embedding
	// slice since it supports batched queries; we only ever send one.
	var batched struct {
		IDs       [][]string                 `json:"ids"`
		Documents [][]string                 `json:"documents"`
		Metadatas [][]map[string]interface{} `json:"metadatas"`
		Distances [][]float64                `json:"distances,omitempty"`
	}
	if err := json.Unmarshal(resp.Body(), &batched); err != nil {
		return nil, fmt.Errorf("chromaclient: parse query response: %w", err)
	}
	if len(batched.IDs) == 0 {
		return nil, nil
	}
	parsed := getOrQueryResponse{}
	parsed.IDs = batched.IDs[0]
	if len(batched.Documents) > 0 {
		parsed.Documents = batched.Documents[0]
	}
	if len(batched.Metadatas) > 0 {
		parsed.Metadatas = batched.Metadatas[0]
	}
	if len(batched.Distances) > 0 {
		parsed.Distances = batched.Distances[0]
	}
	return toItems(parsed), nil
}

func (c *collection) QueryByText(ctx context.Context, pred vectorstore.Predicate, limit int) ([]vectorstore.Item, error) {
	return c.GetByPredicate(ctx, pred, limit)
}

func (c *collection) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	req := map[string]interface{}{"ids": ids}
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(c.path("delete"))
	if err != nil {
		return fmt.Errorf("chromaclient: delete: %w", err)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("chromaclient: delete: status %d: %s", resp.StatusCode(), resp.Body())
	}
	return nil
}

func (c *collection) DeleteByPredicate(ctx context.Context, pred vectorstore.Predicate) error {
	req := map[string]interface{}{}
	if where := compileMetadataWhere(pred); where != nil {
		req["where"] = where
	}
	if whereDoc := compileDocumentWhere(pred); whereDoc != nil {
		req["where_document"] = whereDoc
	}
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(c.path("delete"))
	if err != nil {
		return fmt.Errorf("chromaclient: delete by predicate: %w", err)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("chromaclient: delete by predicate: status %d: %s", resp.StatusCode(), resp.Body())
	}
	return nil
}

func toItems(r getOrQueryResponse) []vectorstore.Item {
	items := make([]vectorstore.Item, 0, len(r.IDs))
	for i, id := range r.IDs {
		it := vectorstore.Item{ID: id}
		if i < len(r.Documents) {
			it.Content = r.Documents[i]
		}
		if i < len(r.Metadatas) {
			it.Metadata = r.Metadatas[i]
		}
		if i < len(r.Distances) {
			it.Distance = r.Distances[i]
		}
		items = append(items, it)
	}
	return items
}
