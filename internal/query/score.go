package query

import (
	"math"
	"strings"
	"time"

	"collector/internal/datasource"
)

// keywordScore scores terms against content by blending term coverage,
// normalized term frequency, and a document-length factor.
func keywordScore(terms []string, content string) float64 {
	n := len(terms)
	if n == 0 {
		return 0
	}
	docLength := len(content)
	if docLength < 2000 {
		docLength = 2000
	}
	lowerContent := strings.ToLower(content)

	var matched int
	var tfSum float64
	for _, term := range terms {
		count := strings.Count(lowerContent, strings.ToLower(term))
		if count == 0 {
			continue
		}
		matched++
		tfSum += 1 + math.Log(float64(count))
	}
	if matched == 0 {
		return 0
	}

	coverage := float64(matched) / float64(n)
	normTF := math.Min(1, tfSum/float64(n)/3)
	lengthFactor := 1 / (1 + math.Log(float64(docLength)/2000))

	score := 0.6*coverage + 0.3*normTF + 0.1*lengthFactor
	return clamp01(score)
}

// splitTerms tokenizes a query on whitespace for the keyword and
// title-boost paths.
func splitTerms(query string) []string {
	return strings.Fields(query)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// relevanceBlend reads metadata.relevance_score.
func relevanceBlend(metadata map[string]interface{}) float64 {
	v, ok := metadata["relevance_score"]
	if !ok {
		return 1
	}
	f, ok := toFloat(v)
	if !ok || f < 0 || f > 1 {
		return 1
	}
	return 0.85 + 0.35*f
}

// titleBoost compares query against metadata.title or metadata.subject
// (title wins when both are present).
func titleBoost(query string, metadata map[string]interface{}) float64 {
	field, ok := metadata["title"].(string)
	if !ok || field == "" {
		field, ok = metadata["subject"].(string)
		if !ok || field == "" {
			return 1
		}
	}

	lowerField := strings.ToLower(field)
	lowerQuery := strings.ToLower(query)
	if lowerField == lowerQuery {
		return 1.3
	}

	tokens := splitTerms(lowerQuery)
	if len(tokens) == 0 {
		return 1
	}
	matched := 0
	for _, tok := range tokens {
		if strings.Contains(lowerField, tok) {
			matched++
		}
	}
	if matched == 0 {
		return 1
	}
	return 1 + 0.2*(float64(matched)/float64(len(tokens)))
}

// recencyBoost parses metadata.updatedAt and applies the source's
// half-life decay.
func recencyBoost(source datasource.DataSource, metadata map[string]interface{}, now time.Time) float64 {
	raw, ok := metadata["updatedAt"].(string)
	if !ok || raw == "" {
		return 1
	}
	t, ok := parseAnyTimestamp(raw)
	if !ok {
		return 1
	}
	days := now.Sub(t).Hours() / 24
	if days < 0 {
		days = 0
	}
	halfLife := datasource.HalfLife(source)
	if halfLife <= 0 {
		return 1
	}
	recency := math.Pow(0.5, days/halfLife)
	return 1 + 0.08*recency
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseAnyTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
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
