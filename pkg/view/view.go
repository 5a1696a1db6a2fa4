// Package view shapes the active view set into presentation-agnostic
// structures for table, tree, pretty JSON, and raw output.
package view

import (
	"encoding/json"

	"github.com/oakwood-commons/jsonlv/pkg/keypath"
	"github.com/oakwood-commons/jsonlv/pkg/record"
)

// Entry is one record of the active view set together with its index in
// the record store.
type Entry struct {
	Index  int
	Record any
}

// Status reports why a table has nothing to show.
type Status int

const (
	StatusOK Status = iota
	// StatusNoColumns means every column is hidden.
	StatusNoColumns
	// StatusNoData means there are columns but no rows.
	StatusNoData
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNoColumns:
		return "no columns selected"
	case StatusNoData:
		return "no data"
	default:
		return "unknown"
	}
}

// Cell is the value at one column of one row. Present is false when the
// path does not resolve in the record.
type Cell struct {
	Value   any
	Present bool
}

// Row is one table row. Position is the row's place in the active view
// set; Index is the record's place in the store.
type Row struct {
	Position int
	Index    int
	Cells    []Cell
}

// Table is the tabular shape of the active view set.
type Table struct {
	Columns []string
	Rows    []Row
	Status  Status
}

// BuildTable aligns each entry's values to columns. With no columns the
// table reports StatusNoColumns regardless of rows; with columns but no
// entries it reports StatusNoData.
func BuildTable(entries []Entry, columns []string) Table {
	t := Table{Columns: columns}
	if len(columns) == 0 {
		t.Status = StatusNoColumns
		return t
	}
	if len(entries) == 0 {
		t.Status = StatusNoData
		return t
	}
	t.Rows = make([]Row, len(entries))
	for pos, entry := range entries {
		cells := make([]Cell, len(columns))
		for i, col := range columns {
			v, ok := keypath.Resolve(entry.Record, col)
			cells[i] = Cell{Value: v, Present: ok}
		}
		t.Rows[pos] = Row{Position: pos, Index: entry.Index, Cells: cells}
	}
	return t
}

// FormatCell renders a cell as display text: absent and null values print
// as null, strings are quoted, objects and arrays are compact JSON.
func FormatCell(c Cell) string {
	if !c.Present {
		return "null"
	}
	switch t := c.Value.(type) {
	case nil:
		return "null"
	case string:
		return `"` + t + `"`
	case json.Number, bool:
		return record.Coerce(t)
	default:
		return Marshal(t, "")
	}
}

// Node is one element of a record's tree. Key is set for object
// properties; Index is the element position for array children and -1
// otherwise. Leaves carry their display text.
type Node struct {
	Key      string
	Index    int
	Kind     record.Kind
	Text     string
	Children []*Node
}

// IsLeaf reports whether the node is a scalar.
func (n *Node) IsLeaf() bool {
	return n.Kind != record.KindArray && n.Kind != record.KindObject
}

// TreeRecord is the tree shape of one entry.
type TreeRecord struct {
	Position int
	Index    int
	Root     *Node
}

// BuildTree converts entries to trees that keep source key order.
func BuildTree(entries []Entry) []TreeRecord {
	out := make([]TreeRecord, len(entries))
	for pos, entry := range entries {
		out[pos] = TreeRecord{Position: pos, Index: entry.Index, Root: NewNode("", -1, entry.Record)}
	}
	return out
}

// NewNode builds the subtree for v.
func NewNode(key string, index int, v any) *Node {
	n := &Node{Key: key, Index: index, Kind: record.KindOf(v)}
	switch t := v.(type) {
	case []any:
		n.Children = make([]*Node, len(t))
		for i, item := range t {
			n.Children[i] = NewNode("", i, item)
		}
	case *record.Object:
		n.Children = make([]*Node, 0, t.Len())
		for pair := t.Oldest(); pair != nil; pair = pair.Next() {
			n.Children = append(n.Children, NewNode(pair.Key, -1, pair.Value))
		}
	default:
		n.Text = record.Coerce(t)
	}
	return n
}

// Pretty is the indented, tokenized JSON of one entry.
type Pretty struct {
	Position int
	Index    int
	Text     string
	Tokens   []Token
}

// BuildPretty serializes each entry with Indent and tokenizes it.
func BuildPretty(entries []Entry) []Pretty {
	out := make([]Pretty, len(entries))
	for pos, entry := range entries {
		text, tokens := Highlight(entry.Record, Indent)
		out[pos] = Pretty{Position: pos, Index: entry.Index, Text: text, Tokens: tokens}
	}
	return out
}

// BuildRaw serializes all entries as one indented JSON array.
func BuildRaw(entries []Entry) string {
	return Marshal(Records(entries), Indent)
}

// Records returns the bare record values of entries.
func Records(entries []Entry) []any {
	out := make([]any, len(entries))
	for i, e := range entries {
		out[i] = e.Record
	}
	return out
}

// Output is the shaped result for one mode; only the field for Mode is set.
type Output struct {
	Mode   Mode
	Table  *Table
	Tree   []TreeRecord
	Pretty []Pretty
	Raw    string
}

// Render shapes entries for mode. Columns are used by table mode only.
func Render(mode Mode, entries []Entry, columns []string) Output {
	out := Output{Mode: mode}
	switch mode {
	case ModeTree:
		out.Tree = BuildTree(entries)
	case ModeJSON:
		out.Pretty = BuildPretty(entries)
	case ModeRaw:
		out.Raw = BuildRaw(entries)
	default:
		out.Mode = ModeTable
		t := BuildTable(entries, columns)
		out.Table = &t
	}
	return out
}
