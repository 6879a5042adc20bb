package prepare

import (
	"encoding/json"
	"time"
)

// FlattenMetadata flattens a document's metadata map for storage: nil
// values are dropped, strings/numbers/booleans pass through
// (sanitized for strings), arrays and objects are JSON-encoded then
// sanitized, and createdAt/updatedAt get a companion *Ts epoch-millis key
// when they parse as a timestamp.
func FlattenMetadata(meta map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(meta))
	for k, v := range meta {
		if v == nil {
			continue
		}
		flat, ok := flattenValue(v)
		if !ok {
			continue
		}
		out[k] = flat

		if k == "createdAt" || k == "updatedAt" {
			if s, ok := flat.(string); ok {
				if ms, ok := parseTimestampMs(s); ok {
					out[k+"Ts"] = ms
				}
			}
		}
	}
	return out
}

func flattenValue(v interface{}) (interface{}, bool) {
	switch val := v.(type) {
	case string:
		return Sanitize(val), true
	case bool, int, int32, int64, float32, float64:
		return val, true
	case []interface{}, map[string]interface{}:
		encoded, err := json.Marshal(val)
		if err != nil {
			return nil, false
		}
		return Sanitize(string(encoded)), true
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return nil, false
		}
		return Sanitize(string(encoded)), true
	}
}

// timestampLayouts lists the formats a createdAt/updatedAt string is
// tried against, in order, mirroring the loose RFC3339-family parsing the
// upstream connectors actually emit.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseTimestampMs(s string) (int64, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UnixMilli(), true
		}
	}
	return 0, false
}
