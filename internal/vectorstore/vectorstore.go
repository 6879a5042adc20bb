// Package vectorstore defines the storage port and the Collection
// Registry that the rest of the engine is built against, with chroma and
// qdrant as its two concrete adapters.
package vectorstore

import "context"

// Item is a stored unit returned from the vector store, carrying
// whatever flattened metadata it was upserted with plus a Score the
// caller assigns (similarity, keyword score, or 1 for direct lookups).
type Item struct {
	ID       string
	Content  string
	Metadata map[string]interface{}
	Score    float64
	Distance float64 // raw store distance, only meaningful after QueryByEmbedding
}

// UpsertItem is the input shape for Collection.Upsert: a StoredItem plus
// its embedding (nil for a metadata-only update, which goes through
// UpdateMetadata instead).
type UpsertItem struct {
	ID        string
	Content   string
	Metadata  map[string]interface{}
	Embedding []float64
}

// Collection is a per-source partition of the vector store.
// Implementations must honor the full capability list: upsert,
// metadata-only update, id/predicate fetch, embedding/substring query,
// delete by id or predicate, and collection drop (handled by VectorStore,
// not Collection, since it needs no open handle).
type Collection interface {
	Name() string

	// Upsert writes items (including replacement of existing content and
	// metadata for ids that already exist).
	Upsert(ctx context.Context, items []UpsertItem) error

	// UpdateMetadata replaces metadata for already-stored ids without
	// touching their content.
	UpdateMetadata(ctx context.Context, ids []string, metadatas []map[string]interface{}) error

	// Get fetches items by id; missing ids are simply absent from the
	// result, not an error.
	Get(ctx context.Context, ids []string) ([]Item, error)

	// GetByPredicate fetches up to limit items matching pred (limit <= 0
	// means unbounded).
	GetByPredicate(ctx context.Context, pred Predicate, limit int) ([]Item, error)

	// QueryByEmbedding performs a vector similarity search, returning
	// nResults items with Distance populated (score conversion is the
	// Query Engine's job, not the store's).
	QueryByEmbedding(ctx context.Context, embedding []float64, nResults int, pred Predicate) ([]Item, error)

	// QueryByText performs a document-substring search honoring pred
	// (which should embed the $contains clauses), used by keyword search.
	QueryByText(ctx context.Context, pred Predicate, limit int) ([]Item, error)

	// Delete removes items by id. Deleting a nonexistent id is not an error.
	Delete(ctx context.Context, ids []string) error

	// DeleteByPredicate removes every item matching pred.
	DeleteByPredicate(ctx context.Context, pred Predicate) error
}

// VectorStore is the engine's dependency on the vector database itself:
// open-or-create a collection by name, and drop one entirely.
type VectorStore interface {
	OpenCollection(ctx context.Context, name string) (Collection, error)
	DropCollection(ctx context.Context, name string) error
}
