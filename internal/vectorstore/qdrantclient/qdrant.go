// Package qdrantclient implements the vectorstore.VectorStore port over
// github.com/qdrant/go-client: PointStruct/Value payload conversion,
// Filter/Condition/FieldCondition/Match/Range construction, and the
// Upsert/Query/Get/Scroll/Delete/DeleteCollection call shapes.
package qdrantclient

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"collector/internal/vectorstore"
)

const defaultVectorSize = 1536

// Config configures the Qdrant client.
type Config struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	VectorSize int
}

// Store is a vectorstore.VectorStore backed by a Qdrant instance.
type Store struct {
	client     *qdrant.Client
	vectorSize uint64
}

// New dials a Qdrant client per cfg.
func New(cfg Config) (*Store, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:                   cfg.Host,
		Port:                   cfg.Port,
		APIKey:                 cfg.APIKey,
		UseTLS:                 cfg.UseTLS,
		SkipCompatibilityCheck: true,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrantclient: connect: %w", err)
	}
	size := uint64(cfg.VectorSize)
	if size == 0 {
		size = defaultVectorSize
	}
	return &Store{client: client, vectorSize: size}, nil
}

// OpenCollection creates name if it does not already exist.
func (s *Store) OpenCollection(ctx context.Context, name string) (vectorstore.Collection, error) {
	names, err := s.client.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("qdrantclient: list collections: %w", err)
	}
	exists := false
	for _, n := range names {
		if n == name {
			exists = true
			break
		}
	}
	if !exists {
		err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: name,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     s.vectorSize,
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return nil, fmt.Errorf("qdrantclient: create collection %s: %w", name, err)
		}
	}
	return &collection{client: s.client, name: name}, nil
}

// DropCollection deletes name.
func (s *Store) DropCollection(ctx context.Context, name string) error {
	if err := s.client.DeleteCollection(ctx, name); err != nil {
		return fmt.Errorf("qdrantclient: drop collection %s: %w", name, err)
	}
	return nil
}

type collection struct {
	client *qdrant.Client
	name   string
}

func (c *collection) Name() string { return c.name }

func (c *collection) Upsert(ctx context.Context, items []vectorstore.UpsertItem) error {
	if len(items) == 0 {
		return nil
	}
	points := make([]*qdrant.PointStruct, len(items))
	for i, it := range items {
		points[i] = itemToPoint(it)
	}
	_, err := c.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: c.name,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("qdrantclient: upsert: %w", err)
	}
	return nil
}

func (c *collection) UpdateMetadata(ctx context.Context, ids []string, metadatas []map[string]interface{}) error {
	for i, id := range ids {
		_, err := c.client.SetPayload(ctx, &qdrant.SetPayloadPoints{
			CollectionName: c.name,
			Payload:        metadataToPayload(metadatas[i]),
			PointsSelector: &qdrant.PointsSelector{
				PointsSelectorOneOf: &qdrant.PointsSelector_Points{
					Points: &qdrant.PointsIdsList{Ids: []*qdrant.PointId{stringToPointID(id)}},
				},
			},
		})
		if err != nil {
			return fmt.Errorf("qdrantclient: update metadata for %s: %w", id, err)
		}
	}
	return nil
}

func (c *collection) Get(ctx context.Context, ids []string) ([]vectorstore.Item, error) {
	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = stringToPointID(id)
	}
	points, err := c.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: c.name,
		Ids:            pointIDs,
		WithPayload:    &qdrant.WithPayloadSelector{SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("qdrantclient: get: %w", err)
	}
	items := make([]vectorstore.Item, 0, len(points))
	for _, p := range points {
		items = append(items, retrievedPointToItem(p))
	}
	return items, nil
}

func (c *collection) GetByPredicate(ctx context.Context, pred vectorstore.Predicate, limit int) ([]vectorstore.Item, error) {
	scrollLimit := uint32(10000)
	if limit > 0 && limit < 10000 {
		scrollLimit = uint32(limit)
	}
	points, err := c.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: c.name,
		Filter:         compileFilter(pred),
		Limit:          qdrant.PtrOf(scrollLimit),
		WithPayload:    &qdrant.WithPayloadSelector{SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("qdrantclient: scroll: %w", err)
	}
	items := make([]vectorstore.Item, 0, len(points))
	for _, p := range points {
		items = append(items, retrievedPointToItem(p))
	}
	return items, nil
}

func (c *collection) QueryByEmbedding(ctx context.Context, embedding []float64, nResults int, pred vectorstore.Predicate) ([]vectorstore.Item, error) {
	if nResults <= 0 {
		nResults = 10
	}
	scored, err := c.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: c.name,
		Query:          qdrant.NewQuery(float64ToFloat32(embedding)...),
		Limit:          qdrant.PtrOf(uint64(nResults)),
		WithPayload:    qdrant.NewWithPayload(true),
		Filter:         compileFilter(pred),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrantclient: query: %w", err)
	}
	items := make([]vectorstore.Item, 0, len(scored))
	for _, p := range scored {
		it := scoredPointToItem(p)
		it.Distance = 1 - float64(p.GetScore())
		items = append(items, it)
	}
	return items, nil
}

// QueryByText has no Qdrant full-text equivalent wired here: it delegates
// to GetByPredicate, and compileFilter drops the Contains clauses, so the
// result is every item matching pred's metadata conditions, unfiltered by
// substring.
func (c *collection) QueryByText(ctx context.Context, pred vectorstore.Predicate, limit int) ([]vectorstore.Item, error) {
	return c.GetByPredicate(ctx, pred, limit)
}

func (c *collection) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = stringToPointID(id)
	}
	_, err := c.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: c.name,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Points{
				Points: &qdrant.PointsIdsList{Ids: pointIDs},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("qdrantclient: delete: %w", err)
	}
	return nil
}

func (c *collection) DeleteByPredicate(ctx context.Context, pred vectorstore.Predicate) error {
	_, err := c.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: c.name,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: compileFilter(pred),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("qdrantclient: delete by predicate: %w", err)
	}
	return nil
}

func itemToPoint(it vectorstore.UpsertItem) *qdrant.PointStruct {
	payload := metadataToPayload(it.Metadata)
	payload["content"] = stringValue(it.Content)
	return &qdrant.PointStruct{
		Id:      stringToPointID(it.ID),
		Vectors: qdrant.NewVectors(float64ToFloat32(it.Embedding)...),
		Payload: payload,
	}
}

func retrievedPointToItem(p *qdrant.RetrievedPoint) vectorstore.Item {
	payload := p.GetPayload()
	return vectorstore.Item{
		ID:       pointIDToString(p.GetId()),
		Content:  getString(payload, "content"),
		Metadata: payloadToMetadata(payload),
	}
}

func scoredPointToItem(p *qdrant.ScoredPoint) vectorstore.Item {
	payload := p.GetPayload()
	return vectorstore.Item{
		ID:       pointIDToString(p.GetId()),
		Content:  getString(payload, "content"),
		Metadata: payloadToMetadata(payload),
	}
}

func stringToPointID(s string) *qdrant.PointId {
	return &qdrant.PointId{PointIdOptions: &qdrant.PointId_Uuid{Uuid: s}}
}

func pointIDToString(id *qdrant.PointId) string {
	if uuid := id.GetUuid(); uuid != "" {
		return uuid
	}
	return fmt.Sprintf("%d", id.GetNum())
}

func float64ToFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}

func getString(payload map[string]*qdrant.Value, key string) string {
	if v, ok := payload[key]; ok {
		return v.GetStringValue()
	}
	return ""
}
