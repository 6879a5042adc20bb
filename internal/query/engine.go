// Package query implements the Query Engine: where-clause composition,
// per-source parallel fan-out across vector/keyword/hybrid search types,
// keyword scoring, multi-chunk coalescing, relevancy boosts, and
// pagination. Fan-out uses golang.org/x/sync/errgroup over independent
// per-source tasks, so that one source's failure never cancels the
// others.
package query

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"collector/internal/datasource"
	"collector/internal/embedprovider"
	"collector/internal/logging"
	"collector/internal/vectorstore"
)

// Engine runs Search over the Collection Registry and an embedding provider.
type Engine struct {
	registry *vectorstore.Registry
	embedder embedprovider.Provider
	log      logging.Logger
}

// New builds an Engine.
func New(registry *vectorstore.Registry, embedder embedprovider.Provider, log logging.Logger) *Engine {
	if log == nil {
		log = logging.NewNop()
	}
	return &Engine{registry: registry, embedder: embedder, log: log.WithComponent("query.engine")}
}

// Results is the return shape of Search.
type Results struct {
	Results []Item
	Total   int
}

// Search runs the full Query Engine pipeline for one call.
func (e *Engine) Search(ctx context.Context, queryText string, opts Options) (Results, error) {
	sources := opts.sources()
	searchType := opts.searchType()
	pred := opts.buildPredicate()
	nResults := opts.limit() + opts.offset()

	var queryEmbedding []float64
	if searchType == SearchVector || searchType == SearchHybrid {
		emb, err := e.embedder.Embed(ctx, queryText)
		if err != nil {
			return Results{}, err
		}
		queryEmbedding = emb
	}

	perSource := make([][]Item, len(sources))

	var g errgroup.Group
	for i, source := range sources {
		i, source := i, source
		g.Go(func() error {
			items := e.searchSource(ctx, source, queryText, searchType, queryEmbedding, pred, nResults)
			perSource[i] = items
			return nil
		})
	}
	_ = g.Wait() // per-source errors are already swallowed in searchSource

	var merged []Item
	for _, items := range perSource {
		merged = append(merged, items...)
	}

	coalesced := coalesce(merged)
	boosted := applyBoosts(queryText, coalesced, time.Now())

	sort.Slice(boosted, func(i, j int) bool {
		if boosted[i].Score != boosted[j].Score {
			return boosted[i].Score > boosted[j].Score
		}
		return boosted[i].ID < boosted[j].ID
	})

	total := len(boosted)
	limit, offset := opts.limit(), opts.offset()
	start := offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return Results{Results: boosted[start:end], Total: total}, nil
}

// searchSource runs one source's query and never returns an error: any
// failure is logged and the source contributes zero results.
func (e *Engine) searchSource(
	ctx context.Context,
	source datasource.DataSource,
	queryText string,
	searchType SearchType,
	queryEmbedding []float64,
	pred vectorstore.Predicate,
	nResults int,
) []Item {
	col, err := e.registry.Open(ctx, source)
	if err != nil {
		e.log.WarnContext(ctx, "search: failed to open collection", "source", source, "error", err)
		return nil
	}

	switch searchType {
	case SearchKeyword:
		return e.keywordSearch(ctx, col, source, queryText, pred, nResults)
	case SearchHybrid:
		vec := e.vectorSearch(ctx, col, source, queryEmbedding, pred, nResults)
		kw := e.keywordSearch(ctx, col, source, queryText, pred, nResults)
		return mergeByID(vec, kw)
	default:
		return e.vectorSearch(ctx, col, source, queryEmbedding, pred, nResults)
	}
}

func (e *Engine) vectorSearch(ctx context.Context, col vectorstore.Collection, source datasource.DataSource, queryEmbedding []float64, pred vectorstore.Predicate, nResults int) []Item {
	storeItems, err := col.QueryByEmbedding(ctx, queryEmbedding, nResults, pred)
	if err != nil {
		e.log.WarnContext(ctx, "vector search failed", "source", source, "error", err)
		return nil
	}
	out := make([]Item, 0, len(storeItems))
	for _, si := range storeItems {
		score := 1 - si.Distance
		if score < 0 {
			score = 0
		}
		out = append(out, Item{
			ID:       si.ID,
			Content:  si.Content,
			Source:   source,
			Score:    score,
			Metadata: newItemMetadata(si.Metadata),
		})
	}
	return out
}

func (e *Engine) keywordSearch(ctx context.Context, col vectorstore.Collection, source datasource.DataSource, queryText string, pred vectorstore.Predicate, limit int) []Item {
	terms := splitTerms(queryText)
	if len(terms) == 0 {
		return nil
	}

	var containsPreds []vectorstore.Predicate
	for _, term := range terms {
		containsPreds = append(containsPreds, vectorstore.Contains(term))
	}
	textPred := vectorstore.And(containsPreds...)
	combined := vectorstore.And(pred, textPred)

	storeItems, err := col.QueryByText(ctx, combined, limit)
	if err != nil {
		e.log.WarnContext(ctx, "keyword search failed", "source", source, "error", err)
		return nil
	}
	out := make([]Item, 0, len(storeItems))
	for _, si := range storeItems {
		score := keywordScore(terms, si.Content)
		if score == 0 {
			continue
		}
		out = append(out, Item{
			ID:       si.ID,
			Content:  si.Content,
			Source:   source,
			Score:    score,
			Metadata: newItemMetadata(si.Metadata),
		})
	}
	return out
}

// mergeByID merges two result sets for the hybrid search type, keeping
// the higher score for ids present in both.
func mergeByID(a, b []Item) []Item {
	byID := make(map[string]Item, len(a)+len(b))
	order := make([]string, 0, len(a)+len(b))
	for _, item := range a {
		byID[item.ID] = item
		order = append(order, item.ID)
	}
	for _, item := range b {
		existing, ok := byID[item.ID]
		if !ok {
			byID[item.ID] = item
			order = append(order, item.ID)
			continue
		}
		if item.Score > existing.Score {
			byID[item.ID] = item
		}
	}
	out := make([]Item, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}
	return out
}

func applyBoosts(queryText string, items []Item, now time.Time) []Item {
	out := make([]Item, len(items))
	for i, item := range items {
		blend := relevanceBlend(item.Metadata.Raw)
		title := titleBoost(queryText, item.Metadata.Raw)
		recency := recencyBoost(item.Source, item.Metadata.Raw, now)
		item.Score = clamp01(item.Score * blend * title * recency)
		out[i] = item
	}
	return out
}
