package prepare

import (
	"strconv"

	"collector/internal/datasource"
)

// LogicalDocument is the caller-supplied input to the Document Preparer:
// an id unique within its source, free-form content, a metadata
// value-map, and an optional pre-chunked override.
type LogicalDocument struct {
	ID       string
	Content  string
	Metadata map[string]interface{}

	// PreChunked, when it holds 2 or more entries, replaces the chunking
	// algorithm's output.
	PreChunked []string
}

// PreparedChunk is one sanitized, hashed chunk ready to become a
// StoredItem: either the whole document (TotalChunks == 1, no
// ParentDocID) or one of totalChunks siblings of a chunked document.
type PreparedChunk struct {
	ID          string
	Content     string
	Metadata    map[string]interface{}
	ContentHash string

	ParentDocID string // empty when TotalChunks == 1
	ChunkIndex  int
	TotalChunks int
}

// Prepare turns a LogicalDocument into its prospective PreparedChunks: the
// shape the Upsert Pipeline would write if it decided this document's
// content had changed. source drives no chunking behavior — it is carried
// onto every chunk's metadata as the "source" key.
func Prepare(source datasource.DataSource, doc LogicalDocument) []PreparedChunk {
	raw := rawChunks(doc)
	flatMeta := FlattenMetadata(doc.Metadata)
	flatMeta["source"] = string(source)

	if len(raw) == 1 {
		content := Sanitize(raw[0])
		meta := cloneMeta(flatMeta)
		meta["_contentHash"] = ContentHash(content)
		return []PreparedChunk{{
			ID:          doc.ID,
			Content:     content,
			Metadata:    meta,
			ContentHash: meta["_contentHash"].(string),
			TotalChunks: 1,
		}}
	}

	total := len(raw)
	out := make([]PreparedChunk, 0, total)
	for i, chunkContent := range raw {
		content := Sanitize(chunkContent)
		meta := cloneMeta(flatMeta)
		hash := ContentHash(content)
		meta["_contentHash"] = hash
		meta["chunkIndex"] = i
		meta["totalChunks"] = total
		meta["parentDocId"] = doc.ID

		out = append(out, PreparedChunk{
			ID:          chunkID(doc.ID, i),
			Content:     content,
			Metadata:    meta,
			ContentHash: hash,
			ParentDocID: doc.ID,
			ChunkIndex:  i,
			TotalChunks: total,
		})
	}
	return out
}

func rawChunks(doc LogicalDocument) []string {
	if len(doc.PreChunked) >= 2 {
		return doc.PreChunked
	}
	return Chunk(doc.Content)
}

func chunkID(logicalID string, index int) string {
	return logicalID + "_chunk_" + strconv.Itoa(index)
}

func cloneMeta(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m)+4)
	for k, v := range m {
		out[k] = v
	}
	return out
}
