package view

import (
	"fmt"
	"strings"
)

// Mode selects one of the four presentations of the active view set.
type Mode string

const (
	ModeTable Mode = "table"
	ModeTree  Mode = "tree"
	ModeJSON  Mode = "json"
	ModeRaw   Mode = "raw"
)

// Modes lists every mode in cycling order.
var Modes = []Mode{ModeTable, ModeTree, ModeJSON, ModeRaw}

// ParseMode accepts a mode name case-insensitively. "pretty" is an alias
// for json.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "table":
		return ModeTable, nil
	case "tree":
		return ModeTree, nil
	case "json", "pretty":
		return ModeJSON, nil
	case "raw":
		return ModeRaw, nil
	default:
		return "", fmt.Errorf("invalid view mode %q: valid values are table, tree, json, raw", s)
	}
}

// Next returns the mode after m in cycling order.
func (m Mode) Next() Mode {
	for i, candidate := range Modes {
		if candidate == m {
			return Modes[(i+1)%len(Modes)]
		}
	}
	return ModeTable
}
