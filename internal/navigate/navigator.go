package navigate

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"collector/internal/datasource"
	"collector/internal/logging"
	"collector/internal/vectorstore"
)

// Navigator resolves a document and walks its structural, chunk,
// datapoint, or context relations.
type Navigator struct {
	registry *vectorstore.Registry
	log      logging.Logger
}

// New builds a Navigator.
func New(registry *vectorstore.Registry, log logging.Logger) *Navigator {
	if log == nil {
		log = logging.NewNop()
	}
	return &Navigator{registry: registry, log: log.WithComponent("navigate.navigator")}
}

// Navigate resolves documentID against every source and walks the
// relation named by direction and scope, returning up to limit related
// items.
func (n *Navigator) Navigate(ctx context.Context, documentID string, direction Direction, scope Scope, limit int) (Result, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	item, source, ok := n.resolveCurrent(ctx, documentID)
	if !ok {
		return nullResult(), nil
	}

	parentID := resolveParent(source, item.Metadata)
	nav := Navigation{
		ParentID:    parentID,
		ContextType: contextType(source, item.Metadata),
	}

	var related []vectorstore.Item

	switch direction {
	case DirParent:
		related = n.navigateParent(ctx, source, parentID)
	case DirChildren:
		related = n.navigateChildren(ctx, source, item, limit)
	default:
		switch scope {
		case ScopeChunk:
			related, nav.TotalSiblings = n.navigateChunk(ctx, source, item, direction, limit)
		case ScopeContext:
			if direction == DirSiblings {
				if parentDocID, ok := getString(item.Metadata, "parentDocId"); ok {
					related, nav.TotalSiblings = n.siblingsByParentDoc(ctx, source, parentDocID, item.ID, limit)
				}
			} else {
				related = n.navigateContext(ctx, source, item, limit)
				nav.TotalSiblings = len(related)
			}
		default:
			related, nav.TotalSiblings = n.navigateDatapoint(ctx, source, item, direction, limit)
		}
	}

	// hasPrev/hasNext depend only on direction and whether the fetch
	// actually produced anything.
	hasResults := len(related) > 0
	nav.HasPrev = hasResults && (direction == DirPrev || direction == DirSiblings)
	nav.HasNext = hasResults && (direction == DirNext || direction == DirSiblings)

	return Result{Current: item, Related: related, Navigation: nav}, nil
}

// resolveCurrent probes every source in parallel and returns the hit
// from the fixed probe order in datasource.All.
func (n *Navigator) resolveCurrent(ctx context.Context, documentID string) (*vectorstore.Item, datasource.DataSource, bool) {
	sources := datasource.All()
	hits := make([]*vectorstore.Item, len(sources))

	var g errgroup.Group
	for i, source := range sources {
		i, source := i, source
		g.Go(func() error {
			col, err := n.registry.Open(ctx, source)
			if err != nil {
				n.log.WarnContext(ctx, "navigate: failed to open collection", "source", source, "error", err)
				return nil
			}
			items, err := col.Get(ctx, []string{documentID})
			if err != nil {
				n.log.WarnContext(ctx, "navigate: probe failed", "source", source, "error", err)
				return nil
			}
			if len(items) > 0 {
				item := items[0]
				item.Score = 1
				hits[i] = &item
			}
			return nil
		})
	}
	_ = g.Wait()

	for i, source := range sources {
		if hits[i] != nil {
			return hits[i], source, true
		}
	}
	return nil, "", false
}

func (n *Navigator) navigateParent(ctx context.Context, source datasource.DataSource, parentID string) []vectorstore.Item {
	if parentID == "" {
		return nil
	}
	col, err := n.registry.Open(ctx, source)
	if err != nil {
		n.log.WarnContext(ctx, "navigate parent: failed to open collection", "source", source, "error", err)
		return nil
	}
	items, err := col.Get(ctx, []string{parentID})
	if err != nil {
		n.log.WarnContext(ctx, "navigate parent: fetch failed", "source", source, "error", err)
		return nil
	}
	for i := range items {
		items[i].Score = 1
	}
	return items
}

func (n *Navigator) navigateChildren(ctx context.Context, source datasource.DataSource, current *vectorstore.Item, limit int) []vectorstore.Item {
	col, err := n.registry.Open(ctx, source)
	if err != nil {
		n.log.WarnContext(ctx, "navigate children: failed to open collection", "source", source, "error", err)
		return nil
	}
	logicalID := childLogicalID(source, current.Metadata, current.ID)

	byParentID, err := col.GetByPredicate(ctx, vectorstore.Eq("parentId", logicalID), 0)
	if err != nil {
		n.log.WarnContext(ctx, "navigate children: parentId fetch failed", "source", source, "error", err)
	}
	byParentDocID, err := col.GetByPredicate(ctx, vectorstore.Eq("parentDocId", current.ID), 0)
	if err != nil {
		n.log.WarnContext(ctx, "navigate children: parentDocId fetch failed", "source", source, "error", err)
	}

	combined := append(byParentID, byParentDocID...)
	for i := range combined {
		combined[i].Score = 1
	}
	if len(combined) > limit {
		combined = combined[:limit]
	}
	return combined
}

func (n *Navigator) navigateChunk(ctx context.Context, source datasource.DataSource, current *vectorstore.Item, direction Direction, limit int) (related []vectorstore.Item, total int) {
	parentDocID, ok := getString(current.Metadata, "parentDocId")
	if !ok {
		return nil, 0
	}
	chunkIndex, ok := toInt(current.Metadata["chunkIndex"])
	if !ok {
		return nil, 0
	}

	col, err := n.registry.Open(ctx, source)
	if err != nil {
		n.log.WarnContext(ctx, "navigate chunk: failed to open collection", "source", source, "error", err)
		return nil, 0
	}

	switch direction {
	case DirPrev:
		if chunkIndex <= 0 {
			return nil, 0
		}
		id := chunkID(parentDocID, chunkIndex-1)
		items, err := col.Get(ctx, []string{id})
		if err != nil {
			n.log.WarnContext(ctx, "navigate chunk prev: fetch failed", "source", source, "error", err)
			return nil, 0
		}
		setScore1(items)
		return items, 0

	case DirNext:
		totalChunks, _ := toInt(current.Metadata["totalChunks"])
		if chunkIndex+1 >= totalChunks {
			return nil, 0
		}
		id := chunkID(parentDocID, chunkIndex+1)
		items, err := col.Get(ctx, []string{id})
		if err != nil {
			n.log.WarnContext(ctx, "navigate chunk next: fetch failed", "source", source, "error", err)
			return nil, 0
		}
		setScore1(items)
		return items, 0

	default: // siblings
		return n.siblingsByParentDoc(ctx, source, parentDocID, current.ID, limit)
	}
}

// siblingsByParentDoc fetches every item sharing parentDocID, excluding
// selfID, capped at limit. Used for chunk siblings and for context-scope
// siblings, which resolve the same way.
func (n *Navigator) siblingsByParentDoc(ctx context.Context, source datasource.DataSource, parentDocID, selfID string, limit int) (related []vectorstore.Item, total int) {
	col, err := n.registry.Open(ctx, source)
	if err != nil {
		n.log.WarnContext(ctx, "navigate siblings: failed to open collection", "source", source, "error", err)
		return nil, 0
	}
	items, err := col.GetByPredicate(ctx, vectorstore.Eq("parentDocId", parentDocID), 0)
	if err != nil {
		n.log.WarnContext(ctx, "navigate siblings: fetch failed", "source", source, "error", err)
		return nil, 0
	}
	total = len(items)
	items = excludeID(items, selfID)
	setScore1(items)
	if len(items) > limit {
		items = items[:limit]
	}
	return items, total
}

func chunkID(parentDocID string, index int) string {
	return parentDocID + "_chunk_" + strconv.Itoa(index)
}

func (n *Navigator) navigateDatapoint(ctx context.Context, source datasource.DataSource, current *vectorstore.Item, direction Direction, limit int) (related []vectorstore.Item, total int) {
	pred, ok := datapointPredicate(source, current.Metadata)
	if !ok {
		return nil, 0
	}
	col, err := n.registry.Open(ctx, source)
	if err != nil {
		n.log.WarnContext(ctx, "navigate datapoint: failed to open collection", "source", source, "error", err)
		return nil, 0
	}
	items, err := col.GetByPredicate(ctx, pred, limit+10)
	if err != nil {
		n.log.WarnContext(ctx, "navigate datapoint: fetch failed", "source", source, "error", err)
		return nil, 0
	}

	field := datasource.PrimaryTimestampField(source)
	sort.SliceStable(items, func(i, j int) bool {
		vi, _ := items[i].Metadata[field].(string)
		vj, _ := items[j].Metadata[field].(string)
		return vi < vj
	})

	pos := -1
	for i, it := range items {
		if it.ID == current.ID {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil, 0
	}

	switch direction {
	case DirPrev:
		start := pos - limit
		if start < 0 {
			start = 0
		}
		window := items[start:pos]
		setScore1(window)
		return window, 0
	case DirNext:
		end := pos + 1 + limit
		if end > len(items) {
			end = len(items)
		}
		window := items[pos+1 : end]
		setScore1(window)
		return window, 0
	default: // siblings
		others := make([]vectorstore.Item, 0, len(items)-1)
		for i, it := range items {
			if i != pos {
				others = append(others, it)
			}
		}
		total = len(others)
		if len(others) > limit {
			others = others[:limit]
		}
		setScore1(others)
		return others, total
	}
}

func (n *Navigator) navigateContext(ctx context.Context, source datasource.DataSource, current *vectorstore.Item, limit int) []vectorstore.Item {
	pred, ok := contextPredicate(source, current.Metadata)
	if !ok {
		return nil
	}
	col, err := n.registry.Open(ctx, source)
	if err != nil {
		n.log.WarnContext(ctx, "navigate context: failed to open collection", "source", source, "error", err)
		return nil
	}
	items, err := col.GetByPredicate(ctx, pred, limit)
	if err != nil {
		n.log.WarnContext(ctx, "navigate context: fetch failed", "source", source, "error", err)
		return nil
	}
	items = excludeID(items, current.ID)
	setScore1(items)
	return items
}

func excludeID(items []vectorstore.Item, id string) []vectorstore.Item {
	out := make([]vectorstore.Item, 0, len(items))
	for _, it := range items {
		if it.ID != id {
			out = append(out, it)
		}
	}
	return out
}

func setScore1(items []vectorstore.Item) {
	for i := range items {
		items[i].Score = 1
	}
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}
