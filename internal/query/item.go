package query

import "collector/internal/datasource"

// ItemMetadata is the subset of a stored item's flattened metadata the
// Query Engine inspects directly; the full map is also carried for
// callers that want everything.
type ItemMetadata struct {
	ParentDocID string
	Raw         map[string]interface{}
}

// Item is one entry in a search result.
type Item struct {
	ID       string
	Content  string
	Source   datasource.DataSource
	Score    float64
	Metadata ItemMetadata
}

func newItemMetadata(raw map[string]interface{}) ItemMetadata {
	parent, _ := raw["parentDocId"].(string)
	return ItemMetadata{ParentDocID: parent, Raw: raw}
}
