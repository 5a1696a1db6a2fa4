package ui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/jsonlv/pkg/clipboard"
	"github.com/oakwood-commons/jsonlv/pkg/core"
	"github.com/oakwood-commons/jsonlv/pkg/export"
	"github.com/oakwood-commons/jsonlv/pkg/prefs"
	"github.com/oakwood-commons/jsonlv/pkg/view"
)

const sample = `{"level":"info","msg":"started","meta":{"pid":1}}
{"level":"error","msg":"disk full","meta":{"pid":2,"disk":"/dev/sda"}}
{"level":"info","msg":"stopped"}`

func TestMain(m *testing.M) {
	restore := clipboard.Stub(nil, nil)
	code := m.Run()
	restore()
	os.Exit(code)
}

func newTestModel(t *testing.T, opts Options) *Model {
	t.Helper()
	s, err := core.New(core.WithPrefs(prefs.NewMemoryStore()))
	require.NoError(t, err)
	_, err = s.IngestText(sample)
	require.NoError(t, err)
	opts.NoColor = true
	m := NewModel(context.Background(), s, opts)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	return m
}

func press(m *Model, keys ...string) {
	for _, k := range keys {
		m.Update(keyMsg(k))
	}
}

func keyMsg(k string) tea.KeyPressMsg {
	switch k {
	case "enter":
		return tea.KeyPressMsg{Code: tea.KeyEnter}
	case "esc":
		return tea.KeyPressMsg{Code: tea.KeyEscape}
	case "tab":
		return tea.KeyPressMsg{Code: tea.KeyTab}
	case "down":
		return tea.KeyPressMsg{Code: tea.KeyDown}
	case "up":
		return tea.KeyPressMsg{Code: tea.KeyUp}
	case "space":
		return tea.KeyPressMsg{Code: tea.KeySpace, Text: " "}
	case "ctrl+c":
		return tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl}
	}
	r := []rune(k)[0]
	return tea.KeyPressMsg{Code: r, Text: k}
}

func typeText(m *Model, s string) {
	for _, r := range s {
		m.Update(tea.KeyPressMsg{Code: r, Text: string(r)})
	}
}

func TestTabCyclesModes(t *testing.T) {
	m := newTestModel(t, Options{})
	assert.Equal(t, view.ModeTable, m.Session.Mode())
	press(m, "tab")
	assert.Equal(t, view.ModeTree, m.Session.Mode())
	press(m, "tab", "tab", "tab")
	assert.Equal(t, view.ModeTable, m.Session.Mode())
	press(m, "3")
	assert.Equal(t, view.ModeJSON, m.Session.Mode())
}

func TestSearchFiltersAsYouType(t *testing.T) {
	m := newTestModel(t, Options{})
	press(m, "/")
	typeText(m, "DISK")
	assert.Equal(t, "DISK", m.Session.Criteria().Search)
	assert.Equal(t, 1, m.Session.Stats().Filtered)

	// Keys typed into the search box are not commands.
	typeText(m, "q")
	assert.False(t, m.quitting)

	press(m, "enter")
	assert.Equal(t, panelRecords, m.panel)
	press(m, "esc")
	assert.Empty(t, m.Session.Criteria().Search)
	assert.Equal(t, 3, m.Session.Stats().Filtered)
}

func TestExpression(t *testing.T) {
	m := newTestModel(t, Options{})
	press(m, ":")
	typeText(m, `_.level == "info"`)
	press(m, "enter")
	assert.Equal(t, 2, m.Session.Stats().Filtered)
	status, isErr := m.Status()
	assert.False(t, isErr)
	assert.Contains(t, status, "2 records match")

	press(m, ":")
	typeText(m, " &&")
	press(m, "enter")
	_, isErr = m.Status()
	assert.True(t, isErr)
	assert.Equal(t, panelExpression, m.panel, "stays open on error")
	assert.Equal(t, 2, m.Session.Stats().Filtered)
	press(m, "esc")
	assert.Equal(t, `_.level == "info"`, m.ExprInput.Value())
}

func TestKeyFilterPicker(t *testing.T) {
	m := newTestModel(t, Options{})
	press(m, "f")
	require.Equal(t, panelKeyFilter, m.panel)
	// Options: All keys, level, meta, meta.disk, meta.pid, msg
	press(m, "j", "j", "j", "enter")
	assert.Equal(t, "meta.disk", m.Session.Criteria().Key)
	assert.Equal(t, 1, m.Session.Stats().Filtered)

	press(m, "f")
	assert.Equal(t, 3, m.pickCursor, "opens on the active filter")
	press(m, "k", "k", "k", "k", "enter")
	assert.Empty(t, m.Session.Criteria().Key)
}

func TestColumnPicker(t *testing.T) {
	m := newTestModel(t, Options{})
	press(m, "c")
	require.Equal(t, panelColumns, m.panel)

	typeText(m, "meta")
	opts := m.Session.Columns().Picker(m.ColumnFilter.Value())
	require.Len(t, opts, 3)
	press(m, "space")
	assert.False(t, m.Session.Columns().IsVisible("meta"))

	press(m, "down", "space")
	assert.False(t, m.Session.Columns().IsVisible("meta.disk"))

	m.Update(tea.KeyPressMsg{Code: 'x', Mod: tea.ModCtrl})
	assert.Empty(t, m.Session.Columns().VisiblePaths())
	assert.Contains(t, m.render(), "columns:")

	press(m, "esc")
	assert.Contains(t, m.render(), "No columns selected")

	press(m, "c")
	m.Update(tea.KeyPressMsg{Code: 'a', Mod: tea.ModCtrl})
	assert.Len(t, m.Session.Columns().VisiblePaths(), 5)
}

func TestCursorAndCopy(t *testing.T) {
	m := newTestModel(t, Options{})
	var copied string
	restore := clipboard.Stub(func(s string) error { copied = s; return nil }, nil)
	defer restore()

	press(m, "j", "j", "j", "j")
	assert.Equal(t, 2, m.Cursor(), "cursor stops at the last record")
	press(m, "k", "y")
	assert.Contains(t, copied, `"msg": "disk full"`)
	status, _ := m.Status()
	assert.Contains(t, status, "copied")

	press(m, "g")
	assert.Equal(t, 0, m.Cursor())
	press(m, "G")
	assert.Equal(t, 2, m.Cursor())
}

func TestCopyFailureReported(t *testing.T) {
	m := newTestModel(t, Options{})
	restore := clipboard.Stub(
		func(string) error { return errors.New("no display") },
		func(string) error { return errors.New("not a tty") },
	)
	defer restore()

	press(m, "y")
	status, isErr := m.Status()
	assert.True(t, isErr)
	assert.Contains(t, status, "clipboard unavailable")
}

func TestCursorClampedBySearch(t *testing.T) {
	m := newTestModel(t, Options{})
	press(m, "G", "/")
	typeText(m, "disk")
	assert.Equal(t, 0, m.Cursor())
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	m := newTestModel(t, Options{ExportDir: dir})
	press(m, "e")

	data, err := os.ReadFile(filepath.Join(dir, export.DefaultFilename))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "[\n  {"))
	status, _ := m.Status()
	assert.Contains(t, status, "exported 3 records")

	press(m, "/")
	typeText(m, "zzz")
	press(m, "enter", "e")
	status, isErr := m.Status()
	assert.True(t, isErr)
	assert.Equal(t, core.ErrNoData.Error(), status)
}

func TestThemeToggle(t *testing.T) {
	m := newTestModel(t, Options{})
	press(m, "t")
	assert.Equal(t, prefs.ThemeDark, m.Session.Theme())
	press(m, "t")
	assert.Equal(t, prefs.ThemeLight, m.Session.Theme())
}

func TestClear(t *testing.T) {
	m := newTestModel(t, Options{})
	press(m, "X")
	assert.Equal(t, 0, m.Session.Stats().Total)
	assert.Contains(t, m.render(), "0 records · 0 shown")
	status, _ := m.Status()
	assert.Equal(t, "cleared", status)
}

func TestReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"a":1}`), 0o600))

	m := newTestModel(t, Options{Source: path})
	m.Update(fileChangedMsg{path: path})
	assert.Equal(t, 1, m.Session.Stats().Total)

	require.NoError(t, os.WriteFile(path, []byte("{\"a\":1}\n{\"a\":2}"), 0o600))
	press(m, "r")
	assert.Equal(t, 2, m.Session.Stats().Total)

	require.NoError(t, os.Remove(path))
	press(m, "r")
	_, isErr := m.Status()
	assert.True(t, isErr)
	assert.Equal(t, 2, m.Session.Stats().Total, "failed reload keeps data")
}

func TestReloadWithoutSource(t *testing.T) {
	m := newTestModel(t, Options{})
	press(m, "r")
	_, isErr := m.Status()
	assert.True(t, isErr)
}

func TestQuit(t *testing.T) {
	m := newTestModel(t, Options{})
	_, cmd := m.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.render())

	m = newTestModel(t, Options{})
	press(m, "/")
	_, cmd = m.Update(keyMsg("ctrl+c"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestViewLayout(t *testing.T) {
	m := newTestModel(t, Options{Source: "app.jsonl", ShowIndex: true})
	out := m.render()
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 30)
	assert.Contains(t, lines[0], "jsonlv app.jsonl")
	assert.Contains(t, lines[0], "3 records · 3 shown")
	assert.Contains(t, lines[1], "key: all keys")
	assert.Contains(t, out, "> ")

	v := m.View()
	assert.True(t, v.AltScreen)
}

func TestScrollKeepsCursorVisible(t *testing.T) {
	s, err := core.New()
	require.NoError(t, err)
	var b strings.Builder
	for i := 0; i < 50; i++ {
		b.WriteString(`{"n":` + strings.Repeat("1", i%5+1) + "}\n")
	}
	_, err = s.IngestText(b.String())
	require.NoError(t, err)

	m := NewModel(context.Background(), s, Options{NoColor: true})
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 12})
	press(m, "G")
	out := m.render()
	assert.Contains(t, out, "> ")
	assert.Contains(t, out, "n", "header stays pinned")
}

func TestHelp(t *testing.T) {
	m := newTestModel(t, Options{})
	press(m, "?")
	assert.Contains(t, m.render(), "cycle table / tree / json / raw")
	press(m, "j")
	assert.Equal(t, panelRecords, m.panel)
	assert.Equal(t, 0, m.Cursor(), "closing help does not move")
}

func TestResolveAction(t *testing.T) {
	assert.Equal(t, ActionQuit, ResolveAction("q"))
	assert.Equal(t, ActionNextMode, ResolveAction("tab"))
	assert.Equal(t, ActionNone, ResolveAction("z"))
}
