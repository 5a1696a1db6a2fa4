// Package projection tracks which key paths are shown as table columns.
package projection

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownPath is returned when a path outside the key universe is toggled.
var ErrUnknownPath = errors.New("key path is not in the key universe")

// Set is the column visibility state over a key universe. Visible paths are
// always a subset of the universe.
type Set struct {
	universe []string
	known    map[string]struct{}
	visible  map[string]struct{}
}

// New returns a Set with an empty universe.
func New() *Set {
	return &Set{
		known:   map[string]struct{}{},
		visible: map[string]struct{}{},
	}
}

// Reset installs a new key universe and marks every path visible. Paths
// from the previous universe are dropped.
func (s *Set) Reset(universe []string) {
	sorted := make([]string, len(universe))
	copy(sorted, universe)
	sort.Strings(sorted)

	s.universe = sorted
	s.known = make(map[string]struct{}, len(sorted))
	s.visible = make(map[string]struct{}, len(sorted))
	for _, p := range sorted {
		s.known[p] = struct{}{}
		s.visible[p] = struct{}{}
	}
}

// Clear empties the universe.
func (s *Set) Clear() {
	s.Reset(nil)
}

// SetVisible shows or hides a single path. Paths outside the universe are
// rejected and leave the state untouched.
func (s *Set) SetVisible(path string, visible bool) error {
	if _, ok := s.known[path]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPath, path)
	}
	if visible {
		s.visible[path] = struct{}{}
	} else {
		delete(s.visible, path)
	}
	return nil
}

// Toggle flips the visibility of a path and returns the new state.
func (s *Set) Toggle(path string) (bool, error) {
	next := !s.IsVisible(path)
	if err := s.SetVisible(path, next); err != nil {
		return false, err
	}
	return next, nil
}

// SetAllVisible shows or hides every path in the universe.
func (s *Set) SetAllVisible(visible bool) {
	s.visible = make(map[string]struct{}, len(s.universe))
	if !visible {
		return
	}
	for _, p := range s.universe {
		s.visible[p] = struct{}{}
	}
}

// IsVisible reports whether path is a visible column.
func (s *Set) IsVisible(path string) bool {
	_, ok := s.visible[path]
	return ok
}

// VisiblePaths returns the visible paths in lexicographic order.
func (s *Set) VisiblePaths() []string {
	out := make([]string, 0, len(s.visible))
	for _, p := range s.universe {
		if _, ok := s.visible[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Universe returns every known path in lexicographic order.
func (s *Set) Universe() []string {
	out := make([]string, len(s.universe))
	copy(out, s.universe)
	return out
}

// Option is one entry offered by a column picker.
type Option struct {
	Path    string
	Visible bool
}

// Picker lists the paths a column picker should offer for filter, a
// case-insensitive substring. It only narrows what is offered; visibility
// is unaffected.
func (s *Set) Picker(filter string) []Option {
	f := strings.ToLower(strings.TrimSpace(filter))
	out := make([]Option, 0, len(s.universe))
	for _, p := range s.universe {
		if f != "" && !strings.Contains(strings.ToLower(p), f) {
			continue
		}
		out = append(out, Option{Path: p, Visible: s.IsVisible(p)})
	}
	return out
}
