package query

import (
	"time"

	"collector/internal/datasource"
	"collector/internal/vectorstore"
)

// SearchType selects the retrieval strategy for a search call.
type SearchType string

const (
	SearchVector  SearchType = "vector"
	SearchKeyword SearchType = "keyword"
	SearchHybrid  SearchType = "hybrid"
)

// Options configures a Search call.
type Options struct {
	Sources    []datasource.DataSource
	SearchType SearchType
	Limit      int
	Offset     int
	Where      map[string]interface{}
	StartDate  string
	EndDate    string
}

func (o Options) sources() []datasource.DataSource {
	if len(o.Sources) == 0 {
		return datasource.All()
	}
	return o.Sources
}

func (o Options) searchType() SearchType {
	if o.SearchType == "" {
		return SearchVector
	}
	return o.SearchType
}

func (o Options) limit() int {
	if o.Limit <= 0 {
		return 20
	}
	return o.Limit
}

func (o Options) offset() int {
	if o.Offset < 0 {
		return 0
	}
	return o.Offset
}

// buildPredicate composes the where-clause: only primitive where values
// are honored, plus createdAtTs bounds derived from startDate/endDate.
func (o Options) buildPredicate() vectorstore.Predicate {
	var preds []vectorstore.Predicate
	for field, v := range o.Where {
		switch v.(type) {
		case string, bool, int, int32, int64, float32, float64:
			preds = append(preds, vectorstore.Eq(field, v))
		default:
			// Silently ignored per spec.
		}
	}
	if o.StartDate != "" {
		if ms, ok := parseDateMs(o.StartDate, false); ok {
			preds = append(preds, vectorstore.Gte("createdAtTs", ms))
		}
	}
	if o.EndDate != "" {
		if ms, ok := parseDateMs(o.EndDate, true); ok {
			preds = append(preds, vectorstore.Lte("createdAtTs", ms))
		}
	}
	return vectorstore.And(preds...)
}

func parseDateMs(dateStr string, endOfDay bool) (int64, bool) {
	t, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return 0, false
	}
	if endOfDay {
		t = t.Add(23*time.Hour + 59*time.Minute + 59*time.Second + 999*time.Millisecond)
	}
	return t.UnixMilli(), true
}
