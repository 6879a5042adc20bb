// Package engine exposes the caller-facing operations over the
// Collection Registry, Upsert Pipeline, Query Engine, and Navigator:
// upsertDocuments, deleteDocument, deleteCollection, getDocument,
// getDocumentsByMetadata, search, and navigate — one entry point instead
// of reaching into the individual packages directly.
package engine

import (
	"context"

	"collector/internal/datasource"
	"collector/internal/embedprovider"
	"collector/internal/engineerr"
	"collector/internal/logging"
	"collector/internal/navigate"
	"collector/internal/prepare"
	"collector/internal/query"
	"collector/internal/upsert"
	"collector/internal/vectorstore"
)

// Engine is the single entry point callers use instead of reaching
// into the individual packages directly.
type Engine struct {
	registry *vectorstore.Registry
	upsert   *upsert.Pipeline
	query    *query.Engine
	navigate *navigate.Navigator
	log      logging.Logger
}

// New wires an Engine over a backing VectorStore and embedding Provider.
func New(store vectorstore.VectorStore, embedder embedprovider.Provider, log logging.Logger) *Engine {
	if log == nil {
		log = logging.NewNop()
	}
	log = log.WithComponent("engine")
	registry := vectorstore.NewRegistry(store, log)
	return &Engine{
		registry: registry,
		upsert:   upsert.New(registry, log),
		query:    query.New(registry, embedder, log),
		navigate: navigate.New(registry, log),
		log:      log,
	}
}

// UpsertDocuments pushes docs for source through the Document Preparer
// and Upsert Pipeline.
func (e *Engine) UpsertDocuments(ctx context.Context, source datasource.DataSource, docs []prepare.LogicalDocument) (upsert.Result, error) {
	if !source.Valid() {
		return upsert.Result{}, engineerr.NewMalformedInput("invalid data source")
	}
	return e.upsert.Upsert(ctx, source, docs)
}

// DeleteDocument deletes id, then sweeps every item whose parentDocId
// equals id. Both steps tolerate not-found.
func (e *Engine) DeleteDocument(ctx context.Context, source datasource.DataSource, id string) error {
	if !source.Valid() {
		return engineerr.NewMalformedInput("invalid data source")
	}
	col, err := e.registry.Open(ctx, source)
	if err != nil {
		return err
	}
	if err := col.Delete(ctx, []string{id}); err != nil {
		return engineerr.NewStoreUnavailable(source, err)
	}
	if err := col.DeleteByPredicate(ctx, vectorstore.Eq("parentDocId", id)); err != nil {
		return engineerr.NewStoreUnavailable(source, err)
	}
	return nil
}

// DeleteCollection drops the entire collection backing source.
func (e *Engine) DeleteCollection(ctx context.Context, source datasource.DataSource) error {
	if !source.Valid() {
		return engineerr.NewMalformedInput("invalid data source")
	}
	if err := e.registry.Drop(ctx, source); err != nil {
		return engineerr.NewStoreUnavailable(source, err)
	}
	return nil
}

// GetDocument returns the item with score = 1 when found, nil otherwise —
// a miss is not an error.
func (e *Engine) GetDocument(ctx context.Context, source datasource.DataSource, id string) (*vectorstore.Item, error) {
	if !source.Valid() {
		return nil, engineerr.NewMalformedInput("invalid data source")
	}
	col, err := e.registry.Open(ctx, source)
	if err != nil {
		return nil, err
	}
	items, err := col.Get(ctx, []string{id})
	if err != nil {
		return nil, engineerr.NewStoreUnavailable(source, err)
	}
	if len(items) == 0 {
		return nil, nil
	}
	item := items[0]
	item.Score = 1
	return &item, nil
}

// GetDocumentsByMetadata returns every item matching pred, each scored 1.
func (e *Engine) GetDocumentsByMetadata(ctx context.Context, source datasource.DataSource, pred vectorstore.Predicate, limit int) ([]vectorstore.Item, error) {
	if !source.Valid() {
		return nil, engineerr.NewMalformedInput("invalid data source")
	}
	col, err := e.registry.Open(ctx, source)
	if err != nil {
		return nil, err
	}
	items, err := col.GetByPredicate(ctx, pred, limit)
	if err != nil {
		return nil, engineerr.NewStoreUnavailable(source, err)
	}
	for i := range items {
		items[i].Score = 1
	}
	return items, nil
}

// Search runs the Query Engine's full fan-out/score/coalesce/sort/
// paginate pipeline.
func (e *Engine) Search(ctx context.Context, queryText string, opts query.Options) (query.Results, error) {
	return e.query.Search(ctx, queryText, opts)
}

// Navigate runs the Navigator's current-document resolution and
// relation walk.
func (e *Engine) Navigate(ctx context.Context, documentID string, direction navigate.Direction, scope navigate.Scope, limit int) (navigate.Result, error) {
	return e.navigate.Navigate(ctx, documentID, direction, scope, limit)
}
