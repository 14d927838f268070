// Package document provides an open JSON document type with dotted-path
// access, used for configuration-driven FHIR templates whose field set is
// not known at compile time.
package document

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrPathNotFound is returned when a path segment does not exist in the
// document.
var ErrPathNotFound = errors.New("path not found")

// Document is a decoded JSON object. Values are the usual encoding/json
// shapes: map[string]any, []any, string, float64, bool, nil.
type Document map[string]any

// Clone returns a deep copy. Mutating the copy never affects the original,
// so one immutable template can seed many per-instance fragments.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return deepCopyMap(d)
}

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyMap(t)
	case Document:
		return deepCopyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopyValue(e)
		}
		return out
	default:
		return v
	}
}

// ParsePath splits a dotted path into segments. Numeric segments index
// arrays: "identifier.0.value" addresses doc["identifier"][0]["value"].
func ParsePath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// Get returns the value at the dotted path.
func (d Document) Get(path string) (any, bool) {
	var cur any = map[string]any(d)
	for _, seg := range ParsePath(path) {
		next, ok := step(cur, seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Set writes v at the dotted path. Every intermediate segment must already
// exist: templates declare the full field skeleton, so a missing segment
// means the projection table and the template disagree.
func (d Document) Set(path string, v any) error {
	segs := ParsePath(path)
	if len(segs) == 0 {
		return fmt.Errorf("set %q: %w", path, ErrPathNotFound)
	}

	var cur any = map[string]any(d)
	for _, seg := range segs[:len(segs)-1] {
		next, ok := step(cur, seg)
		if !ok {
			return fmt.Errorf("set %q: segment %q: %w", path, seg, ErrPathNotFound)
		}
		cur = next
	}

	last := segs[len(segs)-1]
	switch t := cur.(type) {
	case map[string]any:
		if _, ok := t[last]; !ok {
			return fmt.Errorf("set %q: segment %q: %w", path, last, ErrPathNotFound)
		}
		t[last] = v
		return nil
	case []any:
		i, err := strconv.Atoi(last)
		if err != nil || i < 0 || i >= len(t) {
			return fmt.Errorf("set %q: index %q: %w", path, last, ErrPathNotFound)
		}
		t[i] = v
		return nil
	default:
		return fmt.Errorf("set %q: segment %q is a leaf: %w", path, last, ErrPathNotFound)
	}
}

// step resolves one path segment against a container value.
func step(cur any, seg string) (any, bool) {
	switch t := cur.(type) {
	case map[string]any:
		v, ok := t[seg]
		return v, ok
	case Document:
		v, ok := t[seg]
		return v, ok
	case []any:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= len(t) {
			return nil, false
		}
		return t[i], true
	default:
		return nil, false
	}
}
