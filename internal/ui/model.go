// Package ui is the interactive terminal viewer built on Bubble Tea.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/oakwood-commons/jsonlv/internal/formatter"
	"github.com/oakwood-commons/jsonlv/internal/watch"
	"github.com/oakwood-commons/jsonlv/pkg/core"
	"github.com/oakwood-commons/jsonlv/pkg/export"
	"github.com/oakwood-commons/jsonlv/pkg/projection"
	"github.com/oakwood-commons/jsonlv/pkg/view"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	// chromeLines is the header, criteria and footer rows around the body.
	chromeLines = 3
)

// Options configures the viewer.
type Options struct {
	// Source is the file being viewed; empty for stdin or pasted text.
	Source            string
	NoColor           bool
	MaxCellWidth      int
	ShowIndex         bool
	ClipboardFallback bool
	ExportDir         string
	ExportFilename    string
	// Watcher, when set, reloads Source whenever it changes.
	Watcher *watch.Watcher
}

// panel is what currently owns the keyboard.
type panel int

const (
	panelRecords panel = iota
	panelSearch
	panelExpression
	panelKeyFilter
	panelColumns
	panelHelp
)

// Model is the Bubble Tea model of the viewer.
type Model struct {
	Session *core.Session
	Opts    Options

	SearchInput   textinput.Model
	ExprInput     textinput.Model
	ColumnFilter  textinput.Model
	panel         panel
	cursor        int
	offset        int
	pickCursor    int
	width, height int
	status        string
	statusIsError bool
	ctx           context.Context
	quitting      bool
}

// fileChangedMsg reports a write to the watched file.
type fileChangedMsg struct{ path string }

// watchErrMsg reports that watching stopped.
type watchErrMsg struct{ err error }

// NewModel returns a viewer over session.
func NewModel(ctx context.Context, session *core.Session, opts Options) *Model {
	newInput := func(placeholder string) textinput.Model {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = placeholder
		ti.SetWidth(defaultWidth)
		return ti
	}
	m := &Model{
		Session:      session,
		Opts:         opts,
		SearchInput:  newInput("search all values"),
		ExprInput:    newInput(`CEL over _, e.g. _.level == "error"`),
		ColumnFilter: newInput("filter columns"),
		width:        defaultWidth,
		height:       defaultHeight,
		ctx:          ctx,
	}
	m.SearchInput.SetValue(session.Criteria().Search)
	m.ExprInput.SetValue(session.Criteria().Expression)
	return m
}

// Init starts watching the source file when configured.
func (m *Model) Init() tea.Cmd {
	return m.waitForChange()
}

func (m *Model) waitForChange() tea.Cmd {
	w := m.Opts.Watcher
	if w == nil {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		path, err := w.Wait(ctx)
		if err != nil {
			return watchErrMsg{err: err}
		}
		return fileChangedMsg{path: path}
	}
}

// Update handles one message.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		for _, in := range []*textinput.Model{&m.SearchInput, &m.ExprInput, &m.ColumnFilter} {
			in.SetWidth(max(10, msg.Width-12))
		}
		return m, nil
	case fileChangedMsg:
		m.reload(msg.path)
		return m, m.waitForChange()
	case watchErrMsg:
		if !errors.Is(msg.err, context.Canceled) && !errors.Is(msg.err, watch.ErrClosed) {
			m.setError(fmt.Errorf("stopped watching: %w", msg.err))
		}
		return m, nil
	case tea.KeyPressMsg:
		return m.handleKey(msg)
	}
	return m, m.updateFocusedInput(msg)
}

func (m *Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	m.status, m.statusIsError = "", false
	if key == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}
	switch m.panel {
	case panelSearch:
		return m, m.handleSearchKey(msg, key)
	case panelExpression:
		return m, m.handleExpressionKey(msg, key)
	case panelKeyFilter:
		m.handleKeyFilterKey(key)
		return m, nil
	case panelColumns:
		return m, m.handleColumnsKey(msg, key)
	case panelHelp:
		m.panel = panelRecords
		return m, nil
	}
	return m.handleRecordsKey(key)
}

func (m *Model) handleRecordsKey(key string) (tea.Model, tea.Cmd) {
	if len(key) == 1 && key >= "1" && key <= "4" {
		m.setMode(view.Modes[key[0]-'1'])
		return m, nil
	}
	switch ResolveAction(key) {
	case ActionQuit:
		m.quitting = true
		return m, tea.Quit
	case ActionNextMode:
		m.setMode(m.Session.Mode().Next())
	case ActionDown:
		m.moveCursor(1)
	case ActionUp:
		m.moveCursor(-1)
	case ActionTop:
		m.cursor = 0
	case ActionBottom:
		m.cursor = max(0, m.Session.Stats().Filtered-1)
	case ActionSearch:
		m.panel = panelSearch
		return m, m.SearchInput.Focus()
	case ActionExpression:
		m.panel = panelExpression
		return m, m.ExprInput.Focus()
	case ActionKeyFilter:
		m.panel = panelKeyFilter
		m.pickCursor = 0
		opts := m.Session.FilterOptions()
		for i, p := range opts {
			if p == m.Session.Criteria().Key {
				m.pickCursor = i + 1
			}
		}
	case ActionColumns:
		m.panel = panelColumns
		m.pickCursor = 0
		m.ColumnFilter.SetValue("")
		return m, m.ColumnFilter.Focus()
	case ActionCopy:
		m.copySelected()
	case ActionExport:
		m.exportView()
	case ActionTheme:
		if th, err := m.Session.ToggleTheme(); err != nil {
			m.setError(err)
		} else {
			m.setStatus("theme: " + string(th))
		}
	case ActionClear:
		m.Session.Clear()
		m.SearchInput.SetValue("")
		m.ExprInput.SetValue("")
		m.cursor, m.offset = 0, 0
		m.setStatus("cleared")
	case ActionReload:
		if m.Opts.Source == "" {
			m.setError(errors.New("nothing to reload: input did not come from a file"))
		} else {
			m.reload(m.Opts.Source)
		}
	case ActionHelp:
		m.panel = panelHelp
	case ActionClearSearch:
		if m.Session.Criteria().Search != "" {
			m.SearchInput.SetValue("")
			m.Session.SetSearch("")
			m.clampCursor()
		}
	}
	return m, nil
}

func (m *Model) handleSearchKey(msg tea.KeyPressMsg, key string) tea.Cmd {
	switch key {
	case "enter", "esc":
		m.SearchInput.Blur()
		m.panel = panelRecords
		return nil
	}
	var cmd tea.Cmd
	m.SearchInput, cmd = m.SearchInput.Update(msg)
	if m.SearchInput.Value() != m.Session.Criteria().Search {
		m.Session.SetSearch(m.SearchInput.Value())
		m.clampCursor()
	}
	return cmd
}

func (m *Model) handleExpressionKey(msg tea.KeyPressMsg, key string) tea.Cmd {
	switch key {
	case "esc":
		m.ExprInput.SetValue(m.Session.Criteria().Expression)
		m.ExprInput.Blur()
		m.panel = panelRecords
		return nil
	case "enter":
		if err := m.Session.SetExpression(m.ExprInput.Value()); err != nil {
			m.setError(err)
			return nil
		}
		m.ExprInput.Blur()
		m.panel = panelRecords
		m.clampCursor()
		status := fmt.Sprintf("%d records match", m.Session.Stats().Filtered)
		if unknown := m.Session.UnknownExpressionPaths(); len(unknown) > 0 {
			status += "; unknown keys: " + strings.Join(unknown, ", ")
		}
		m.setStatus(status)
		return nil
	}
	var cmd tea.Cmd
	m.ExprInput, cmd = m.ExprInput.Update(msg)
	return cmd
}

// handleKeyFilterKey drives the key filter list. Entry 0 is "All keys".
func (m *Model) handleKeyFilterKey(key string) {
	n := len(m.Session.FilterOptions()) + 1
	switch key {
	case "j", "down":
		m.pickCursor = min(n-1, m.pickCursor+1)
	case "k", "up":
		m.pickCursor = max(0, m.pickCursor-1)
	case "enter":
		path := ""
		if m.pickCursor > 0 {
			path = m.Session.FilterOptions()[m.pickCursor-1]
		}
		m.Session.SetKeyFilter(path)
		m.clampCursor()
		m.panel = panelRecords
	case "esc", "q":
		m.panel = panelRecords
	}
}

func (m *Model) handleColumnsKey(msg tea.KeyPressMsg, key string) tea.Cmd {
	cols := m.Session.Columns()
	options := cols.Picker(m.ColumnFilter.Value())
	switch key {
	case "esc", "enter":
		m.ColumnFilter.Blur()
		m.panel = panelRecords
		return nil
	case "down":
		m.pickCursor = min(max(0, len(options)-1), m.pickCursor+1)
		return nil
	case "up":
		m.pickCursor = max(0, m.pickCursor-1)
		return nil
	case "space", " ":
		if m.pickCursor < len(options) {
			if _, err := m.Session.ToggleColumn(options[m.pickCursor].Path); err != nil {
				m.setError(err)
			}
		}
		return nil
	case "ctrl+a":
		m.Session.SetAllColumnsVisible(true)
		return nil
	case "ctrl+x":
		m.Session.SetAllColumnsVisible(false)
		return nil
	}
	var cmd tea.Cmd
	m.ColumnFilter, cmd = m.ColumnFilter.Update(msg)
	if n := len(cols.Picker(m.ColumnFilter.Value())); m.pickCursor >= n {
		m.pickCursor = max(0, n-1)
	}
	return cmd
}

func (m *Model) updateFocusedInput(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.panel {
	case panelSearch:
		m.SearchInput, cmd = m.SearchInput.Update(msg)
	case panelExpression:
		m.ExprInput, cmd = m.ExprInput.Update(msg)
	case panelColumns:
		m.ColumnFilter, cmd = m.ColumnFilter.Update(msg)
	}
	return cmd
}

func (m *Model) setMode(mode view.Mode) {
	if err := m.Session.SetMode(mode); err != nil {
		m.setError(err)
		return
	}
	m.offset = 0
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	m.clampCursor()
}

func (m *Model) clampCursor() {
	n := m.Session.Stats().Filtered
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// Cursor returns the selected position in the active view set.
func (m *Model) Cursor() int {
	return m.cursor
}

// Status returns the last feedback message and whether it is an error.
func (m *Model) Status() (string, bool) {
	return m.status, m.statusIsError
}

func (m *Model) setStatus(s string) {
	m.status, m.statusIsError = s, false
}

func (m *Model) setError(err error) {
	m.status, m.statusIsError = err.Error(), true
}

func (m *Model) copySelected() {
	method, err := m.Session.CopyRecord(m.cursor, m.Opts.ClipboardFallback)
	if err != nil {
		m.setError(err)
		return
	}
	m.setStatus(fmt.Sprintf("copied record to clipboard (%s)", method))
}

func (m *Model) exportView() {
	data, err := m.Session.ExportJSON()
	if err != nil {
		m.setError(err)
		return
	}
	path, err := export.ToFile(m.Opts.ExportDir, m.Opts.ExportFilename, data)
	if err != nil {
		m.setError(err)
		return
	}
	m.setStatus(fmt.Sprintf("exported %d records to %s", m.Session.Stats().Filtered, path))
}

func (m *Model) reload(path string) {
	stats, err := m.Session.IngestFile(path)
	if err != nil {
		m.setError(err)
		return
	}
	m.clampCursor()
	m.setStatus("reloaded: " + formatter.RenderStats(stats))
}

// View renders the screen.
func (m *Model) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	return v
}

func (m *Model) palette() formatter.Palette {
	return formatter.NewPalette(m.Session.Theme(), m.Opts.NoColor)
}

func (m *Model) render() string {
	if m.quitting {
		return ""
	}
	p := m.palette()
	var b strings.Builder
	b.WriteString(m.headerLine(p))
	b.WriteByte('\n')
	b.WriteString(m.criteriaLine())
	b.WriteByte('\n')

	bodyHeight := max(1, m.height-chromeLines)
	var body []string
	switch m.panel {
	case panelKeyFilter:
		body = m.keyFilterLines(bodyHeight)
	case panelColumns:
		body = m.columnLines(bodyHeight)
	case panelHelp:
		body = helpLines
	default:
		body = m.recordLines(p, bodyHeight)
	}
	clip := lipgloss.NewStyle().MaxWidth(max(1, m.width))
	for i := 0; i < bodyHeight; i++ {
		if i < len(body) {
			b.WriteString(clip.Render(body[i]))
		}
		b.WriteByte('\n')
	}
	b.WriteString(m.footerLine(p))
	return b.String()
}

func (m *Model) headerLine(p formatter.Palette) string {
	title := "jsonlv"
	if m.Opts.Source != "" {
		title += " " + m.Opts.Source
	}
	return p.Header.Render(title) + "  " + formatter.RenderStats(m.Session.Stats()) + "  [" + string(m.Session.Mode()) + "]"
}

func (m *Model) criteriaLine() string {
	c := m.Session.Criteria()
	key := c.Key
	if key == "" {
		key = "all keys"
	}
	parts := []string{"search: " + m.SearchInput.View(), "key: " + key}
	if m.panel == panelExpression {
		parts = append(parts, "where: "+m.ExprInput.View())
	} else if c.Expression != "" {
		parts = append(parts, "where: "+c.Expression)
	}
	return strings.Join(parts, "  │  ")
}

func (m *Model) footerLine(p formatter.Palette) string {
	if m.status != "" {
		if m.statusIsError {
			return p.Status.Render(m.status)
		}
		return m.status
	}
	switch m.panel {
	case panelSearch:
		return "type to search · enter/esc done"
	case panelExpression:
		return "enter apply · esc cancel"
	case panelKeyFilter:
		return "j/k move · enter select · esc cancel"
	case panelColumns:
		return "type to filter · ↑/↓ move · space toggle · ctrl+a all · ctrl+x none · esc done"
	}
	return "? help · tab mode · / search · : where · f key · c columns · y copy · e export · q quit"
}

// recordLines paints the active view and scrolls it so the selected record
// stays visible.
func (m *Model) recordLines(p formatter.Palette, height int) []string {
	out := m.Session.Render()
	text := formatter.Render(out, formatter.Options{
		Palette:      p,
		MaxCellWidth: m.Opts.MaxCellWidth,
		ShowIndex:    m.Opts.ShowIndex,
		Highlight:    out.Mode != view.ModeRaw,
		Selected:     m.cursor,
	})
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")

	// Table headers stay pinned.
	pinned := 0
	if out.Mode == view.ModeTable && out.Table != nil && out.Table.Status == view.StatusOK {
		pinned = 2
	}
	if len(lines) <= height {
		return lines
	}
	scroll := lines[pinned:]
	room := height - pinned
	for i, l := range scroll {
		if strings.HasPrefix(l, formatter.SelectedMarker) {
			if i < m.offset {
				m.offset = i
			} else if i >= m.offset+room {
				m.offset = i - room + 1
			}
			break
		}
	}
	m.offset = min(m.offset, max(0, len(scroll)-room))
	return append(lines[:pinned:pinned], scroll[m.offset:min(len(scroll), m.offset+room)]...)
}

func (m *Model) keyFilterLines(height int) []string {
	items := append([]string{"All keys"}, m.Session.FilterOptions()...)
	return pickerWindow(items, m.pickCursor, height, func(i int, s string) string {
		mark := "  "
		if (i == 0 && m.Session.Criteria().Key == "") || (i > 0 && s == m.Session.Criteria().Key) {
			mark = "● "
		}
		return mark + s
	})
}

func (m *Model) columnLines(height int) []string {
	options := m.Session.Columns().Picker(m.ColumnFilter.Value())
	header := "columns: " + m.ColumnFilter.View()
	if len(options) == 0 {
		return []string{header, "  no matching columns"}
	}
	items := make([]string, len(options))
	for i, o := range options {
		items[i] = o.Path
	}
	lines := pickerWindow(items, m.pickCursor, height-1, func(i int, s string) string {
		return checkbox(options[i]) + " " + s
	})
	return append([]string{header}, lines...)
}

func checkbox(o projection.Option) string {
	if o.Visible {
		return "[x]"
	}
	return "[ ]"
}

// pickerWindow renders the slice of items around cursor that fits height.
func pickerWindow(items []string, cursor, height int, label func(int, string) string) []string {
	start := 0
	if cursor >= height {
		start = cursor - height + 1
	}
	end := min(len(items), start+max(1, height))
	out := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		prefix := "  "
		if i == cursor {
			prefix = formatter.SelectedMarker
		}
		out = append(out, prefix+label(i, items[i]))
	}
	return out
}

// Run starts the viewer and blocks until the user quits.
func Run(ctx context.Context, session *core.Session, opts Options, progOpts ...tea.ProgramOption) error {
	m := NewModel(ctx, session, opts)
	progOpts = append([]tea.ProgramOption{tea.WithContext(ctx)}, progOpts...)
	_, err := tea.NewProgram(m, progOpts...).Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
