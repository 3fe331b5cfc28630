package document

import (
	"encoding/json"
	"fmt"
	"time"
)

// Document represents an unstructured row flowing through an aggregation
// pipeline as map[string]any. Values are restricted to the canonical
// primitive set (int64, float64, string, bool, nil) plus nested []any and
// map[string]any. Timestamps are carried as RFC 3339 strings, which sort
// lexicographically in timestamp order.
type Document = map[string]any

// New creates an empty document.
func New() Document { return make(Document) }

// FromPairs creates a document from alternating key-value pairs.
func FromPairs(pairs ...any) (Document, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("FromPairs requires an even number of arguments, got %d", len(pairs))
	}

	doc := make(Document)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("key at position %d must be a string", i)
		}
		doc[key] = Normalize(pairs[i+1])
	}

	return doc, nil
}

// Normalize converts a value into the canonical primitive set. Integers
// widen to int64, float32 to float64, time.Time to an RFC 3339 string, and
// containers are normalized recursively.
func Normalize(val any) any {
	switch v := val.(type) {
	case map[string]any:
		result := make(map[string]any, len(v))
		for k, subVal := range v {
			result[k] = Normalize(subVal)
		}
		return result

	case []any:
		result := make([]any, len(v))
		for i, subVal := range v {
			result[i] = Normalize(subVal)
		}
		return result

	case []string:
		result := make([]any, len(v))
		for i := range v {
			result[i] = v[i]
		}
		return result

	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case uint:
		return int64(v)
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		return int64(v)
	case float32:
		return float64(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case time.Time:
		return v.UTC().Format(time.RFC3339)

	case int64, float64, string, bool, nil:
		return v

	default:
		return v
	}
}

// Key creates a deterministic JSON representation for document identity.
// Two documents with equal keys are the same row.
func Key(doc Document) (string, error) {
	bytes, err := json.Marshal(Normalize(doc))
	if err != nil {
		return "", fmt.Errorf("failed to marshal document to JSON: %w", err)
	}

	return string(bytes), nil
}

// KeyAny creates a deterministic JSON representation for an arbitrary value.
func KeyAny(val any) (string, error) {
	bytes, err := json.Marshal(Normalize(val))
	if err != nil {
		return "", fmt.Errorf("failed to marshal value to JSON: %w", err)
	}

	return string(bytes), nil
}

// DeepEqual checks whether two documents are equal using JSON comparison.
func DeepEqual(a, b Document) bool {
	keyA, errA := Key(a)
	keyB, errB := Key(b)
	return errA == nil && errB == nil && keyA == keyB
}

// DeepCopyAny creates a deep copy of a document value or any nested
// structure.
func DeepCopyAny(val any) any {
	switch v := val.(type) {
	case map[string]any:
		result := make(map[string]any, len(v))
		for k, subVal := range v {
			result[k] = DeepCopyAny(subVal)
		}
		return result

	case []any:
		result := make([]any, len(v))
		for i, subVal := range v {
			result[i] = DeepCopyAny(subVal)
		}
		return result

	default:
		// primitives are immutable
		return v
	}
}

// DeepCopy creates a deep copy of a document.
func DeepCopy(doc Document) Document {
	c, ok := DeepCopyAny(doc).(Document)
	if !ok {
		return New()
	}
	return c
}
