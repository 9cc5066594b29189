// Package cachekey builds deterministic cache keys for request payloads.
//
// A key is derived from a logical request name plus a set of named field
// values. The same (name, fields) set always produces a byte-identical key
// regardless of the order fields are listed in, and any differing value
// produces a different key. Requests supply their fields explicitly, so key
// derivation never inspects payloads via reflection.
package cachekey

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cast"
)

// Separator delimits the request name and the field segments of a key.
const Separator = "::"

// Field is a single named value participating in key derivation.
type Field struct {
	Name  string
	Value any
}

// F is a shorthand constructor for Field.
func F(name string, value any) Field {
	return Field{Name: name, Value: value}
}

// Build derives a cache key from a logical request name and its fields.
// Field segments are rendered as "<name>:<value>" and sorted by name, so the
// result is invariant to declaration order.
func Build(name string, fields ...Field) string {
	if len(fields) == 0 {
		return name
	}

	segments := make([]string, 0, len(fields))
	for _, f := range fields {
		segments = append(segments, f.Name+":"+renderValue(f.Value))
	}
	sort.Strings(segments)

	return name + Separator + strings.Join(segments, Separator)
}

// renderValue converts a field value to its canonical string form.
// Basic types go through cast; everything else falls back to compact JSON,
// which is deterministic for structs and sorts map keys.
func renderValue(v any) string {
	if v == nil {
		return "nil"
	}

	if s, err := cast.ToStringE(v); err == nil {
		return s
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
