// Package record holds the value model for JSON-Lines records: ordered
// objects, arrays, and scalars decoded one line at a time.
package record

import (
	"encoding/json"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// DefaultMaxDepth bounds how deeply a record may nest before it is rejected.
const DefaultMaxDepth = 512

// Object is a JSON object that keeps its keys in source order.
type Object = orderedmap.OrderedMap[string, any]

// NewObject returns an empty ordered object.
func NewObject() *Object {
	return orderedmap.New[string, any]()
}

// Kind identifies the JSON type of a decoded value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// KindOf reports the JSON kind of a value produced by Decode.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case json.Number:
		return KindNumber
	case string:
		return KindString
	case []any:
		return KindArray
	case *Object:
		return KindObject
	default:
		return KindNull
	}
}

// Coerce converts a value to the string a loosely typed scripting runtime
// would produce for it: null becomes "null", arrays are joined with commas
// (nulls inside them become empty), and objects become "[object Object]".
func Coerce(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case bool:
		if t {
			return "true"
		}
		return "false"
	case json.Number:
		return t.String()
	case string:
		return t
	case []any:
		return joinArray(t, 0)
	case *Object:
		return "[object Object]"
	default:
		return ""
	}
}

func joinArray(items []any, depth int) string {
	if depth >= DefaultMaxDepth {
		return ""
	}
	parts := make([]string, len(items))
	for i, item := range items {
		switch t := item.(type) {
		case nil:
			parts[i] = ""
		case []any:
			parts[i] = joinArray(t, depth+1)
		default:
			parts[i] = Coerce(t)
		}
	}
	return strings.Join(parts, ",")
}

// ToNative converts a decoded value into plain Go maps, slices, and scalars.
// Numbers become int64 when integral and float64 otherwise.
func ToNative(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = ToNative(item)
		}
		return out
	case *Object:
		out := make(map[string]any, t.Len())
		for pair := t.Oldest(); pair != nil; pair = pair.Next() {
			out[pair.Key] = ToNative(pair.Value)
		}
		return out
	default:
		return t
	}
}

// Equal reports whether two decoded values are structurally equal. Object
// key order is ignored; numbers compare by numeric value.
func Equal(a, b any) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case json.Number:
		y, ok := b.(json.Number)
		if !ok {
			return false
		}
		if x == y {
			return true
		}
		fx, errX := x.Float64()
		fy, errY := y.Float64()
		return errX == nil && errY == nil && fx == fy
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case *Object:
		y, ok := b.(*Object)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for pair := x.Oldest(); pair != nil; pair = pair.Next() {
			other, present := y.Get(pair.Key)
			if !present || !Equal(pair.Value, other) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
