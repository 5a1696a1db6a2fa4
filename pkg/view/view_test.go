package view

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/jsonlv/pkg/record"
)

func entries(t *testing.T, lines ...string) []Entry {
	t.Helper()
	out := make([]Entry, len(lines))
	for i, l := range lines {
		out[i] = Entry{Index: i * 10, Record: decode(t, l)}
	}
	return out
}

func TestBuildTable(t *testing.T) {
	es := entries(t, `{"a":{"b":null},"c":"x"}`, `{"c":1}`)
	tbl := BuildTable(es, []string{"a.b", "c"})

	require.Equal(t, StatusOK, tbl.Status)
	assert.Equal(t, []string{"a.b", "c"}, tbl.Columns)
	require.Len(t, tbl.Rows, 2)

	assert.Equal(t, 0, tbl.Rows[0].Position)
	assert.Equal(t, 0, tbl.Rows[0].Index)
	assert.Equal(t, Cell{Value: nil, Present: true}, tbl.Rows[0].Cells[0])
	assert.Equal(t, Cell{Value: "x", Present: true}, tbl.Rows[0].Cells[1])

	assert.Equal(t, 1, tbl.Rows[1].Position)
	assert.Equal(t, 10, tbl.Rows[1].Index)
	assert.False(t, tbl.Rows[1].Cells[0].Present)
	assert.Equal(t, json.Number("1"), tbl.Rows[1].Cells[1].Value)
}

func TestBuildTableStatus(t *testing.T) {
	es := entries(t, `{"a":1}`)

	noCols := BuildTable(es, nil)
	assert.Equal(t, StatusNoColumns, noCols.Status)
	assert.Empty(t, noCols.Rows)

	noRows := BuildTable(nil, []string{"a"})
	assert.Equal(t, StatusNoData, noRows.Status)

	both := BuildTable(nil, nil)
	assert.Equal(t, StatusNoColumns, both.Status)

	assert.Equal(t, "no columns selected", StatusNoColumns.String())
	assert.Equal(t, "no data", StatusNoData.String())
}

func TestFormatCell(t *testing.T) {
	obj := decode(t, `{"k":[1,2]}`).(*record.Object)
	tests := []struct {
		name string
		cell Cell
		want string
	}{
		{name: "absent", cell: Cell{}, want: "null"},
		{name: "null", cell: Cell{Present: true}, want: "null"},
		{name: "string", cell: Cell{Value: "hi", Present: true}, want: `"hi"`},
		{name: "number", cell: Cell{Value: json.Number("4.5"), Present: true}, want: "4.5"},
		{name: "bool", cell: Cell{Value: false, Present: true}, want: "false"},
		{name: "object", cell: Cell{Value: obj, Present: true}, want: `{"k":[1,2]}`},
		{name: "array", cell: Cell{Value: []any{"a"}, Present: true}, want: `["a"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCell(tt.cell))
		})
	}
}

func TestBuildTree(t *testing.T) {
	trees := BuildTree(entries(t, `{"z":1,"a":[true,{"x":null}],"s":"str"}`))
	require.Len(t, trees, 1)
	root := trees[0].Root
	require.Equal(t, record.KindObject, root.Kind)
	require.Len(t, root.Children, 3)

	assert.Equal(t, "z", root.Children[0].Key, "source key order is kept")
	assert.Equal(t, record.KindNumber, root.Children[0].Kind)
	assert.Equal(t, "1", root.Children[0].Text)
	assert.Equal(t, -1, root.Children[0].Index)

	arr := root.Children[1]
	assert.Equal(t, record.KindArray, arr.Kind)
	require.Len(t, arr.Children, 2)
	assert.Equal(t, 0, arr.Children[0].Index)
	assert.Equal(t, record.KindBool, arr.Children[0].Kind)
	assert.Equal(t, 1, arr.Children[1].Index)
	assert.Equal(t, record.KindNull, arr.Children[1].Children[0].Kind)
	assert.False(t, arr.IsLeaf())

	str := root.Children[2]
	assert.True(t, str.IsLeaf())
	assert.Equal(t, record.KindString, str.Kind)
	assert.Equal(t, "str", str.Text)
}

func TestBuildPretty(t *testing.T) {
	ps := BuildPretty(entries(t, `{"a":1}`, `[2]`))
	require.Len(t, ps, 2)
	assert.Equal(t, "{\n  \"a\": 1\n}", ps[0].Text)
	assert.Equal(t, "[\n  2\n]", ps[1].Text)
	assert.Equal(t, 10, ps[1].Index)
	assert.NotEmpty(t, ps[0].Tokens)
}

func TestBuildRawRoundTrips(t *testing.T) {
	es := entries(t, `{"b":1,"a":{"c":[1,"x",null]}}`, `{"d":true}`, `"s"`)
	raw := BuildRaw(es)

	var back []json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &back))
	require.Len(t, back, len(es))
	for i, msg := range back {
		v, err := record.Decode(string(msg), 0)
		require.NoError(t, err)
		assert.True(t, record.Equal(es[i].Record, v), "entry %d", i)
	}
	assert.Equal(t, "[]", BuildRaw(nil))
}

func TestRender(t *testing.T) {
	es := entries(t, `{"a":1}`)
	assert.NotNil(t, Render(ModeTable, es, []string{"a"}).Table)
	assert.Len(t, Render(ModeTree, es, nil).Tree, 1)
	assert.Len(t, Render(ModeJSON, es, nil).Pretty, 1)
	assert.Contains(t, Render(ModeRaw, es, nil).Raw, `"a": 1`)

	fallback := Render(Mode("bogus"), es, []string{"a"})
	assert.Equal(t, ModeTable, fallback.Mode)
}

func TestParseModeAndNext(t *testing.T) {
	m, err := ParseMode("Pretty")
	require.NoError(t, err)
	assert.Equal(t, ModeJSON, m)
	_, err = ParseMode("grid")
	assert.Error(t, err)

	assert.Equal(t, ModeTree, ModeTable.Next())
	assert.Equal(t, ModeTable, ModeRaw.Next())
	assert.Equal(t, ModeTable, Mode("x").Next())
}
