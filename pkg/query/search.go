package query

import (
	"strings"

	"github.com/oakwood-commons/jsonlv/pkg/keypath"
	"github.com/oakwood-commons/jsonlv/pkg/record"
)

// Matches reports whether any value in rec contains query, case-insensitively.
// Object properties are walked recursively. Arrays are compared through
// their comma-joined string form; their elements are never matched one by
// one. A non-object record is compared through its string form. The empty
// query matches every record.
func Matches(rec any, query string) bool {
	q := strings.ToLower(query)
	if q == "" {
		return true
	}
	obj, ok := rec.(*record.Object)
	if !ok {
		return containsFold(rec, q)
	}
	return matchObject(obj, q, 0)
}

func matchObject(obj *record.Object, q string, depth int) bool {
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		if child, ok := pair.Value.(*record.Object); ok {
			if depth+1 < record.DefaultMaxDepth && matchObject(child, q, depth+1) {
				return true
			}
			continue
		}
		if containsFold(pair.Value, q) {
			return true
		}
	}
	return false
}

// containsFold expects q to be lower-cased already.
func containsFold(v any, q string) bool {
	return strings.Contains(strings.ToLower(record.Coerce(v)), q)
}

// HasKeyPath reports whether path resolves in rec, including to null.
func HasKeyPath(rec any, path string) bool {
	return keypath.Has(rec, path)
}
