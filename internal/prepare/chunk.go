package prepare

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	maxSingleChunkSize = 8000
	targetChunkSize    = 4000
	chunkOverlap       = 200
	backShiftWindow    = targetChunkSize - 800 // preferred region starts at start+3200
)

// Chunk splits content into overlapping sliding-window chunks. A document
// of length ≤ 8000 is returned as a single chunk equal to its full
// content.
func Chunk(content string) []string {
	n := len(content)
	if n <= maxSingleChunkSize {
		return []string{content}
	}

	var chunks []string
	start := 0
	for {
		end := start + targetChunkSize
		if end > n {
			end = n
		}
		if end < n {
			end = backShift(content, start, end)
		}
		chunks = append(chunks, content[start:end])
		if end >= n {
			break
		}
		nextStart := end - chunkOverlap
		if nextStart+chunkOverlap >= n {
			break
		}
		start = nextStart
	}
	return chunks
}

// backShift looks for a preferred break point within [start+3200, end)
// and returns the cut offset immediately after it, or end unchanged if
// none of the preferred separators appear in that region.
func backShift(content string, start, end int) int {
	regionStart := start + backShiftWindow
	if regionStart < start {
		regionStart = start
	}
	if regionStart >= end {
		return end
	}
	region := content[regionStart:end]

	if idx := strings.LastIndex(region, "\n\n"); idx >= 0 {
		return regionStart + idx + len("\n\n")
	}
	if idx := strings.LastIndex(region, "\n"); idx >= 0 {
		return regionStart + idx + len("\n")
	}
	if idx := strings.LastIndex(region, ". "); idx >= 0 {
		return regionStart + idx + len(". ")
	}
	if idx := strings.LastIndex(region, " "); idx >= 0 {
		return regionStart + idx + len(" ")
	}
	return end
}

// ContentHash returns the first 16 lowercase-hex characters of the
// SHA-256 digest of text, used to detect unchanged content on re-upsert.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:16]
}
