// Package keypath addresses values nested inside record objects with
// dotted paths such as "user.address.city".
package keypath

import (
	"sort"
	"strings"

	"github.com/oakwood-commons/jsonlv/pkg/record"
)

// Separator joins property names into a path.
const Separator = "."

// Set is an unordered collection of key paths.
type Set map[string]struct{}

// Add inserts a path.
func (s Set) Add(path string) {
	s[path] = struct{}{}
}

// Has reports whether the path is a member.
func (s Set) Has(path string) bool {
	_, ok := s[path]
	return ok
}

// Sorted returns the members in lexicographic order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Join appends a property name to a prefix path.
func Join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + Separator + key
}

// Split breaks a path into its property names.
func Split(path string) []string {
	return strings.Split(path, Separator)
}

// Extract returns every key path reachable in rec. Arrays are leaves: their
// elements never contribute paths. Non-object records yield an empty set.
func Extract(rec any) Set {
	set := Set{}
	ExtractInto(set, rec)
	return set
}

// ExtractInto adds the key paths of rec to set.
func ExtractInto(set Set, rec any) {
	obj, ok := rec.(*record.Object)
	if !ok {
		return
	}
	walk(set, obj, "", 0)
}

func walk(set Set, obj *record.Object, prefix string, depth int) {
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		full := Join(prefix, pair.Key)
		set.Add(full)
		if child, ok := pair.Value.(*record.Object); ok && depth+1 < record.DefaultMaxDepth {
			walk(set, child, full, depth+1)
		}
	}
}

// Resolve walks path through rec. It reports false when any segment is
// missing or when an intermediate value is not an object. A null stored at
// the final segment is present.
func Resolve(rec any, path string) (any, bool) {
	cur := rec
	for _, seg := range Split(path) {
		obj, ok := cur.(*record.Object)
		if !ok {
			return nil, false
		}
		next, present := obj.Get(seg)
		if !present {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Has reports whether path resolves to a present value in rec.
func Has(rec any, path string) bool {
	_, ok := Resolve(rec, path)
	return ok
}
