// Package document implements the JSON document operations shared by the
// document store adapters. Every adapter loads the stored bytes, applies
// one of these functions and writes the result back.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nteezflix/nteezflix/src/internal/domain"
)

// Normalize converts v to its plain JSON form (maps, slices, float64,
// string, bool, nil) so values from callers compare equal to stored ones.
func Normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return out, nil
}

// Decode parses stored bytes. Empty input yields an empty document.
func Decode(data []byte) (domain.Document, error) {
	doc := domain.Document{}
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

// Encode serializes doc for storage.
func Encode(doc domain.Document) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}

// Into converts a document into a typed value such as domain.UserDocument.
func Into(doc domain.Document, out any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

// Merge deep-merges fields into doc. Nested objects merge key by key;
// every other value replaces what was there.
func Merge(doc, fields domain.Document) (domain.Document, error) {
	normalized, err := Normalize(fields)
	if err != nil {
		return nil, err
	}
	src, _ := normalized.(map[string]any)
	out := clone(doc)
	mergeInto(out, src)
	return out, nil
}

func mergeInto(dst, src map[string]any) {
	for k, v := range src {
		if srcMap, ok := v.(map[string]any); ok {
			if dstMap, ok := dst[k].(map[string]any); ok {
				mergeInto(dstMap, srcMap)
				continue
			}
		}
		dst[k] = v
	}
}

// SetField replaces the value at a dotted path, creating intermediate
// objects as needed.
func SetField(doc domain.Document, path string, value any) (domain.Document, error) {
	keys, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	normalized, err := Normalize(value)
	if err != nil {
		return nil, err
	}

	out := clone(doc)
	cur := map[string]any(out)
	for _, k := range keys[:len(keys)-1] {
		next, ok := cur[k].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[k] = next
		}
		cur = next
	}
	cur[keys[len(keys)-1]] = normalized
	return out, nil
}

// Union appends each value not already present in the array at field.
// A missing or non-array field is replaced by a new array.
func Union(doc domain.Document, field string, values ...any) (domain.Document, error) {
	out := clone(doc)
	arr, _ := out[field].([]any)
	for _, v := range values {
		n, err := Normalize(v)
		if err != nil {
			return nil, err
		}
		if indexOf(arr, n) < 0 {
			arr = append(arr, n)
		}
	}
	if arr == nil {
		arr = []any{}
	}
	out[field] = arr
	return out, nil
}

// Remove drops every element equal to one of values from the array at
// field. A missing or non-array field becomes an empty array.
func Remove(doc domain.Document, field string, values ...any) (domain.Document, error) {
	out := clone(doc)
	arr, _ := out[field].([]any)

	targets := make([]any, 0, len(values))
	for _, v := range values {
		n, err := Normalize(v)
		if err != nil {
			return nil, err
		}
		targets = append(targets, n)
	}

	kept := make([]any, 0, len(arr))
	for _, el := range arr {
		if indexOf(targets, el) < 0 {
			kept = append(kept, el)
		}
	}
	out[field] = kept
	return out, nil
}

// Equal compares two normalized values by their canonical JSON encoding.
// encoding/json sorts map keys, so key order never matters.
func Equal(a, b any) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	return errA == nil && errB == nil && bytes.Equal(ja, jb)
}

func indexOf(arr []any, v any) int {
	for i, el := range arr {
		if Equal(el, v) {
			return i
		}
	}
	return -1
}

func splitPath(path string) ([]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("empty field path")
	}
	keys := strings.Split(path, ".")
	for _, k := range keys {
		if k == "" {
			return nil, fmt.Errorf("invalid field path %q", path)
		}
	}
	return keys, nil
}

// clone deep-copies doc through a JSON round trip.
func clone(doc domain.Document) domain.Document {
	if doc == nil {
		return domain.Document{}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return domain.Document{}
	}
	out := domain.Document{}
	_ = json.Unmarshal(data, &out)
	return out
}
