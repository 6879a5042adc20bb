// Package upsert implements the Upsert Pipeline: bulk existing-hash
// lookup, metadata-only vs content-changed classification, batched
// writes of at most 100 items, and stale-chunk cleanup, all against a
// source-agnostic Collection.
package upsert

import (
	"context"
	"sort"

	"collector/internal/datasource"
	"collector/internal/engineerr"
	"collector/internal/logging"
	"collector/internal/prepare"
	"collector/internal/vectorstore"
)

const maxBatchSize = 100

// Pipeline runs the Upsert Pipeline against a Collection Registry.
type Pipeline struct {
	registry *vectorstore.Registry
	log      logging.Logger
}

// New builds a Pipeline over registry.
func New(registry *vectorstore.Registry, log logging.Logger) *Pipeline {
	if log == nil {
		log = logging.NewNop()
	}
	return &Pipeline{registry: registry, log: log.WithComponent("upsert.pipeline")}
}

// Result summarizes one Upsert call.
type Result struct {
	MetadataOnly int
	Upserted     int
	Deleted      int
}

// Upsert writes docs. An empty docs is a no-op.
func (p *Pipeline) Upsert(ctx context.Context, source datasource.DataSource, docs []prepare.LogicalDocument) (Result, error) {
	if len(docs) == 0 {
		return Result{}, nil
	}

	col, err := p.registry.Open(ctx, source)
	if err != nil {
		return Result{}, err
	}

	prospective := make(map[string][]prepare.PreparedChunk, len(docs))
	for _, doc := range docs {
		prospective[doc.ID] = prepare.Prepare(source, doc)
	}

	existing, err := fetchExistingHashes(ctx, col, docs, source)
	if err != nil {
		return Result{}, err
	}

	var metadataOnlyItems []vectorstore.UpsertItem
	var fullUpsertItems []vectorstore.UpsertItem
	var staleDeletes []string
	var result Result

	for _, doc := range docs {
		chunks := prospective[doc.ID]
		priorIDs, priorHashes := existing[doc.ID].ids, existing[doc.ID].hashes

		if isMetadataOnly(chunks, priorIDs, priorHashes) {
			for _, c := range chunks {
				metadataOnlyItems = append(metadataOnlyItems, vectorstore.UpsertItem{
					ID:       c.ID,
					Metadata: c.Metadata,
				})
			}
			result.MetadataOnly++
			continue
		}

		for _, c := range chunks {
			fullUpsertItems = append(fullUpsertItems, vectorstore.UpsertItem{
				ID:       c.ID,
				Content:  c.Content,
				Metadata: c.Metadata,
			})
		}
		result.Upserted++

		prospectiveIDs := make(map[string]struct{}, len(chunks))
		for _, c := range chunks {
			prospectiveIDs[c.ID] = struct{}{}
		}
		for _, id := range priorIDs {
			if _, ok := prospectiveIDs[id]; !ok {
				staleDeletes = append(staleDeletes, id)
			}
		}
	}

	if err := updateMetadataBatched(ctx, col, metadataOnlyItems, source); err != nil {
		return result, err
	}
	if err := upsertBatched(ctx, col, fullUpsertItems, source); err != nil {
		return result, err
	}

	if len(staleDeletes) > 0 {
		if err := col.Delete(ctx, staleDeletes); err != nil {
			p.log.WarnContext(ctx, "stale chunk cleanup failed", "source", source, "error", err)
		} else {
			result.Deleted = len(staleDeletes)
		}
	}

	return result, nil
}

type priorState struct {
	ids    []string
	hashes map[string]string
}

// fetchExistingHashes reads the stored items for every incoming logical id
// in two store calls: a direct Get of the logical ids and one
// parentDocId predicate fetch for their chunks. Each item is keyed back
// to its logical id by direct id match or by its parentDocId metadata.
func fetchExistingHashes(ctx context.Context, col vectorstore.Collection, docs []prepare.LogicalDocument, source datasource.DataSource) (map[string]priorState, error) {
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	preds := make([]vectorstore.Predicate, 0, len(ids))
	for _, id := range ids {
		preds = append(preds, vectorstore.Eq("parentDocId", id))
	}

	byDoc := make(map[string]priorState, len(docs))

	direct, err := col.Get(ctx, ids)
	if err != nil {
		return nil, engineerr.NewStoreUnavailable(source, err)
	}
	for _, item := range direct {
		st := byDoc[item.ID]
		st.ids = append(st.ids, item.ID)
		if st.hashes == nil {
			st.hashes = make(map[string]string)
		}
		if h, ok := item.Metadata["_contentHash"].(string); ok {
			st.hashes[item.ID] = h
		}
		byDoc[item.ID] = st
	}

	if len(preds) > 0 {
		children, err := col.GetByPredicate(ctx, vectorstore.Or(preds...), 0)
		if err != nil {
			return nil, engineerr.NewStoreUnavailable(source, err)
		}
		for _, item := range children {
			parent, _ := item.Metadata["parentDocId"].(string)
			if parent == "" {
				continue
			}
			st := byDoc[parent]
			st.ids = append(st.ids, item.ID)
			if st.hashes == nil {
				st.hashes = make(map[string]string)
			}
			if h, ok := item.Metadata["_contentHash"].(string); ok {
				st.hashes[item.ID] = h
			}
			byDoc[parent] = st
		}
	}

	for k, st := range byDoc {
		sort.Strings(st.ids)
		byDoc[k] = st
	}
	return byDoc, nil
}

func isMetadataOnly(chunks []prepare.PreparedChunk, priorIDs []string, priorHashes map[string]string) bool {
	if len(priorIDs) != len(chunks) {
		return false
	}
	prospectiveIDs := make([]string, len(chunks))
	hashByID := make(map[string]string, len(chunks))
	for i, c := range chunks {
		prospectiveIDs[i] = c.ID
		hashByID[c.ID] = c.ContentHash
	}
	sort.Strings(prospectiveIDs)
	for i, id := range prospectiveIDs {
		if priorIDs[i] != id {
			return false
		}
	}
	for id, hash := range hashByID {
		if priorHashes[id] != hash {
			return false
		}
	}
	return true
}

func upsertBatched(ctx context.Context, col vectorstore.Collection, items []vectorstore.UpsertItem, source datasource.DataSource) error {
	for start := 0; start < len(items); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(items) {
			end = len(items)
		}
		if err := col.Upsert(ctx, items[start:end]); err != nil {
			return engineerr.NewPartialBatchFailure(source, start/maxBatchSize, err)
		}
	}
	return nil
}

func updateMetadataBatched(ctx context.Context, col vectorstore.Collection, items []vectorstore.UpsertItem, source datasource.DataSource) error {
	for start := 0; start < len(items); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(items) {
			end = len(items)
		}
		batch := items[start:end]
		ids := make([]string, len(batch))
		metas := make([]map[string]interface{}, len(batch))
		for i, it := range batch {
			ids[i] = it.ID
			metas[i] = it.Metadata
		}
		if err := col.UpdateMetadata(ctx, ids, metas); err != nil {
			return engineerr.NewPartialBatchFailure(source, start/maxBatchSize, err)
		}
	}
	return nil
}
