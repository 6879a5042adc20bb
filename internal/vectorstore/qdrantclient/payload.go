package qdrantclient

import (
	"encoding/json"

	"github.com/qdrant/go-client/qdrant"
)

// metadataToPayload converts a flattened, JSON-safe metadata map into
// Qdrant payload values.
func metadataToPayload(meta map[string]interface{}) map[string]*qdrant.Value {
	payload := make(map[string]*qdrant.Value, len(meta))
	for k, v := range meta {
		payload[k] = toValue(v)
	}
	return payload
}

func toValue(v interface{}) *qdrant.Value {
	switch val := v.(type) {
	case nil:
		return &qdrant.Value{Kind: &qdrant.Value_NullValue{}}
	case string:
		return stringValue(val)
	case bool:
		return &qdrant.Value{Kind: &qdrant.Value_BoolValue{BoolValue: val}}
	case int:
		return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(val)}}
	case int64:
		return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: val}}
	case float64:
		return &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: val}}
	default:
		// Arrays/objects reach here already JSON-encoded by the preparer;
		// anything else is stored as its JSON form so no payload write is
		// ever rejected outright.
		b, err := json.Marshal(val)
		if err != nil {
			return stringValue("")
		}
		return stringValue(string(b))
	}
}

func stringValue(s string) *qdrant.Value {
	return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: s}}
}

func payloadToMetadata(payload map[string]*qdrant.Value) map[string]interface{} {
	meta := make(map[string]interface{}, len(payload))
	for k, v := range payload {
		meta[k] = fromValue(v)
	}
	return meta
}

func fromValue(v *qdrant.Value) interface{} {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_NullValue:
		return nil
	default:
		return nil
	}
}
