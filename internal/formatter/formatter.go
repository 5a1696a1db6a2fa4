// Package formatter paints shaped views as terminal text.
package formatter

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/xlab/treeprint"
	"golang.org/x/term"

	"github.com/oakwood-commons/jsonlv/pkg/core"
	"github.com/oakwood-commons/jsonlv/pkg/record"
	"github.com/oakwood-commons/jsonlv/pkg/view"
)

const (
	colSep   = "  "
	ellipsis = "…"
)

// Messages shown in place of an empty table.
const (
	NoColumnsMessage = "No columns selected. Choose columns to display."
	NoDataMessage    = "No data to display."
)

// Options controls painting.
type Options struct {
	Palette Palette
	// MaxCellWidth truncates table cells; 0 disables truncation.
	MaxCellWidth int
	ShowIndex    bool
	// Highlight marks the record at position Selected in table, tree and
	// json output.
	Highlight bool
	Selected  int
}

// TerminalWidth returns the width of stdout, or fallback when it is not a
// terminal.
func TerminalWidth(fallback int) int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return fallback
}

// Render paints out in its mode.
func Render(out view.Output, opts Options) string {
	switch out.Mode {
	case view.ModeTree:
		return RenderTree(out.Tree, opts)
	case view.ModeJSON:
		return RenderPretty(out.Pretty, opts)
	case view.ModeRaw:
		return RenderRaw(out.Raw, opts)
	default:
		if out.Table == nil {
			return ""
		}
		return RenderTable(*out.Table, opts)
	}
}

var cellEscaper = strings.NewReplacer("\n", `\n`, "\r", `\r`, "\t", `\t`)

// CellText is the single-line text of a cell, truncated to max display
// columns when max is positive.
func CellText(c view.Cell, max int) string {
	s := cellEscaper.Replace(view.FormatCell(c))
	if max > 0 && runewidth.StringWidth(s) > max {
		s = runewidth.Truncate(s, max, ellipsis)
	}
	return s
}

// RenderTable paints a table with a header row and one line per record.
func RenderTable(t view.Table, opts Options) string {
	switch t.Status {
	case view.StatusNoColumns:
		return opts.Palette.Status.Render(NoColumnsMessage) + "\n"
	case view.StatusNoData:
		return opts.Palette.Status.Render(NoDataMessage) + "\n"
	}

	headers := t.Columns
	cells := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		cells[i] = make([]string, len(row.Cells))
		for j, c := range row.Cells {
			cells[i][j] = CellText(c, opts.MaxCellWidth)
		}
	}

	widths := make([]int, len(headers))
	for j, h := range headers {
		widths[j] = runewidth.StringWidth(h)
	}
	for _, row := range cells {
		for j, s := range row {
			if w := runewidth.StringWidth(s); w > widths[j] {
				widths[j] = w
			}
		}
	}

	indexWidth := 0
	if opts.ShowIndex {
		indexWidth = len("#")
		for _, row := range t.Rows {
			if w := len(fmt.Sprint(row.Index)); w > indexWidth {
				indexWidth = w
			}
		}
	}

	gutter := ""
	if opts.Highlight {
		gutter = strings.Repeat(" ", len(SelectedMarker))
	}

	var b strings.Builder
	var line []string
	if opts.ShowIndex {
		line = append(line, runewidth.FillRight("#", indexWidth))
	}
	for j, h := range headers {
		line = append(line, runewidth.FillRight(h, widths[j]))
	}
	b.WriteString(gutter + opts.Palette.Header.Render(strings.Join(line, colSep)))
	b.WriteByte('\n')

	total := 0
	for _, w := range widths {
		total += w + len(colSep)
	}
	if opts.ShowIndex {
		total += indexWidth + len(colSep)
	}
	b.WriteString(gutter + opts.Palette.Separator.Render(strings.Repeat("─", total-len(colSep))))
	b.WriteByte('\n')

	for i, row := range t.Rows {
		line = line[:0]
		if opts.ShowIndex {
			line = append(line, opts.Palette.Index.Render(runewidth.FillLeft(fmt.Sprint(row.Index), indexWidth)))
		}
		for j, s := range cells[i] {
			line = append(line, styleCell(opts.Palette, row.Cells[j]).Render(runewidth.FillRight(s, widths[j])))
		}
		text := gutter + strings.Join(line, colSep)
		if opts.selected(row.Position) {
			text = SelectedMarker + strings.Join(line, colSep)
		}
		b.WriteString(text)
		b.WriteByte('\n')
	}
	return b.String()
}

// SelectedMarker prefixes the highlighted record.
const SelectedMarker = "> "

func (o Options) selected(pos int) bool {
	return o.Highlight && pos == o.Selected
}

func styleCell(p Palette, c view.Cell) styler {
	if !c.Present {
		return p.Token(view.TokenNull)
	}
	switch record.KindOf(c.Value) {
	case record.KindString:
		return p.Token(view.TokenString)
	case record.KindNumber:
		return p.Token(view.TokenNumber)
	case record.KindBool:
		return p.Token(view.TokenBoolean)
	case record.KindNull:
		return p.Token(view.TokenNull)
	}
	return p.Token(view.TokenBracket)
}

type styler interface {
	Render(strs ...string) string
}

// RenderTree paints each record as a branch labelled with its index.
// Properties keep source order.
func RenderTree(trees []view.TreeRecord, opts Options) string {
	if len(trees) == 0 {
		return opts.Palette.Status.Render(NoDataMessage) + "\n"
	}
	var b strings.Builder
	for _, tr := range trees {
		label := opts.Palette.Index.Render(fmt.Sprintf("Record %d", tr.Index))
		if opts.selected(tr.Position) {
			label = SelectedMarker + label
		}
		root := treeprint.NewWithRoot(label)
		if tr.Root.IsLeaf() {
			root.AddNode(leafText(opts.Palette, tr.Root))
		} else {
			addChildren(root, tr.Root, opts.Palette, 0)
		}
		b.WriteString(root.String())
	}
	return b.String()
}

func addChildren(branch treeprint.Tree, n *view.Node, p Palette, depth int) {
	if depth >= record.DefaultMaxDepth {
		branch.AddNode("…")
		return
	}
	for _, child := range n.Children {
		label := nodeLabel(p, child)
		switch {
		case child.IsLeaf():
			branch.AddNode(label + ": " + leafText(p, child))
		case len(child.Children) == 0:
			empty := "{}"
			if child.Kind == record.KindArray {
				empty = "[]"
			}
			branch.AddNode(label + ": " + p.Token(view.TokenBracket).Render(empty))
		default:
			addChildren(branch.AddBranch(label), child, p, depth+1)
		}
	}
}

func nodeLabel(p Palette, n *view.Node) string {
	if n.Index >= 0 {
		return p.Index.Render(fmt.Sprintf("[%d]", n.Index))
	}
	return p.Token(view.TokenKey).Render(n.Key)
}

func leafText(p Palette, n *view.Node) string {
	switch n.Kind {
	case record.KindString:
		return p.Token(view.TokenString).Render(view.Marshal(n.Text, ""))
	case record.KindNumber:
		return p.Token(view.TokenNumber).Render(n.Text)
	case record.KindBool:
		return p.Token(view.TokenBoolean).Render(n.Text)
	default:
		return p.Token(view.TokenNull).Render("null")
	}
}

// RenderPretty paints each record's indented JSON with token colors, one
// record after another separated by a blank line.
func RenderPretty(docs []view.Pretty, opts Options) string {
	if len(docs) == 0 {
		return opts.Palette.Status.Render(NoDataMessage) + "\n"
	}
	var b strings.Builder
	for i, d := range docs {
		if i > 0 {
			b.WriteByte('\n')
		}
		header := fmt.Sprintf("// record %d", d.Index)
		if opts.selected(d.Position) {
			header = SelectedMarker + header
		}
		b.WriteString(opts.Palette.Index.Render(header))
		b.WriteByte('\n')
		b.WriteString(Colorize(d.Text, d.Tokens, opts.Palette))
		b.WriteByte('\n')
	}
	return b.String()
}

// Colorize applies token styles to text. Bytes outside any token are kept
// as they are.
func Colorize(text string, tokens []view.Token, p Palette) string {
	var b strings.Builder
	pos := 0
	for _, tok := range tokens {
		if tok.Start < pos || tok.End > len(text) {
			continue
		}
		b.WriteString(text[pos:tok.Start])
		b.WriteString(p.Token(tok.Kind).Render(text[tok.Start:tok.End]))
		pos = tok.End
	}
	b.WriteString(text[pos:])
	return b.String()
}

// RenderRaw returns the raw document followed by a newline.
func RenderRaw(raw string, _ Options) string {
	return raw + "\n"
}

// RenderStats summarizes a session's counts on one line.
func RenderStats(s core.Stats) string {
	parts := []string{
		fmt.Sprintf("%d records", s.Total),
		fmt.Sprintf("%d shown", s.Filtered),
	}
	if s.Skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", s.Skipped))
	}
	if s.SizeLabel != "" {
		parts = append(parts, s.SizeLabel)
	}
	return strings.Join(parts, " · ")
}
