package vectorstore

import (
	"context"
	"strings"
	"sync"
)

// MemStore is a hand-written in-memory VectorStore used by tests in place
// of a mocking framework.
type MemStore struct {
	mu          sync.Mutex
	collections map[string]*memCollection
}

// NewMemStore creates an empty in-memory VectorStore.
func NewMemStore() *MemStore {
	return &MemStore{collections: make(map[string]*memCollection)}
}

func (m *MemStore) OpenCollection(_ context.Context, name string) (Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.collections[name]; ok {
		return c, nil
	}
	c := &memCollection{name: name, items: make(map[string]Item)}
	m.collections[name] = c
	return c, nil
}

func (m *MemStore) DropCollection(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.collections, name)
	return nil
}

type memCollection struct {
	name string
	mu   sync.Mutex
	// embeddings mirrors items by id, kept separate since Item doesn't
	// carry a vector (only Distance/Score, populated at query time).
	items      map[string]Item
	embeddings map[string][]float64
}

func (c *memCollection) Name() string { return c.name }

func (c *memCollection) Upsert(_ context.Context, items []UpsertItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.embeddings == nil {
		c.embeddings = make(map[string][]float64)
	}
	for _, it := range items {
		c.items[it.ID] = Item{ID: it.ID, Content: it.Content, Metadata: copyMeta(it.Metadata)}
		if it.Embedding != nil {
			c.embeddings[it.ID] = it.Embedding
		}
	}
	return nil
}

func (c *memCollection) UpdateMetadata(_ context.Context, ids []string, metadatas []map[string]interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, id := range ids {
		existing, ok := c.items[id]
		if !ok {
			continue
		}
		existing.Metadata = copyMeta(metadatas[i])
		c.items[id] = existing
	}
	return nil
}

func (c *memCollection) Get(_ context.Context, ids []string) ([]Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Item
	for _, id := range ids {
		if it, ok := c.items[id]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

func (c *memCollection) GetByPredicate(_ context.Context, pred Predicate, limit int) ([]Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Item
	for _, it := range c.items {
		if matches(pred, it) {
			out = append(out, it)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (c *memCollection) QueryByEmbedding(_ context.Context, embedding []float64, nResults int, pred Predicate) ([]Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Item
	for id, it := range c.items {
		if !matches(pred, it) {
			continue
		}
		vec, ok := c.embeddings[id]
		if !ok {
			continue
		}
		it.Distance = cosineDistance(embedding, vec)
		out = append(out, it)
	}
	sortByDistance(out)
	if nResults > 0 && len(out) > nResults {
		out = out[:nResults]
	}
	return out, nil
}

func (c *memCollection) QueryByText(_ context.Context, pred Predicate, limit int) ([]Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Item
	for _, it := range c.items {
		if !matches(pred, it) {
			continue
		}
		out = append(out, it)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (c *memCollection) Delete(_ context.Context, ids []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.items, id)
		delete(c.embeddings, id)
	}
	return nil
}

func (c *memCollection) DeleteByPredicate(_ context.Context, pred Predicate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, it := range c.items {
		if matches(pred, it) {
			delete(c.items, id)
			delete(c.embeddings, id)
		}
	}
	return nil
}

func copyMeta(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func matches(pred Predicate, it Item) bool {
	switch p := pred.(type) {
	case nil:
		return true
	case FieldPredicate:
		v, ok := it.Metadata[p.Field]
		if !ok {
			return false
		}
		return compareValues(v, p.Op, p.Value)
	case ContainsPredicate:
		return strings.Contains(strings.ToLower(it.Content), strings.ToLower(p.Substring))
	case AndPredicate:
		for _, sub := range p.Predicates {
			if !matches(sub, it) {
				return false
			}
		}
		return true
	case OrPredicate:
		for _, sub := range p.Predicates {
			if matches(sub, it) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func compareValues(actual interface{}, op CompareOp, want interface{}) bool {
	switch op {
	case OpEq:
		return actual == want
	case OpGte, OpLte:
		af, aok := toFloat(actual)
		wf, wok := toFloat(want)
		if !aok || !wok {
			return false
		}
		if op == OpGte {
			return af >= wf
		}
		return af <= wf
	default:
		return false
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func cosineDistance(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 1
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 1
	}
	cos := dot / (sqrt(na) * sqrt(nb))
	return 1 - cos
}

func sqrt(f float64) float64 {
	if f <= 0 {
		return 0
	}
	// Newton's method is plenty for test-fixture-sized vectors; the real
	// backends (chromaclient/qdrantclient) never compute this in-process.
	x := f
	for i := 0; i < 40; i++ {
		x = 0.5 * (x + f/x)
	}
	return x
}

func sortByDistance(items []Item) {
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && items[j].Distance < items[j-1].Distance; j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
}
