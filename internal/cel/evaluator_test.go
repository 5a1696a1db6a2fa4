package cel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileAndMatch(t *testing.T) {
	e, err := NewEvaluator()
	require.NoError(t, err)

	tests := []struct {
		name string
		expr string
		data any
		want bool
	}{
		{name: "field equality", expr: `_.level == "error"`, data: map[string]any{"level": "error"}, want: true},
		{name: "field mismatch", expr: `_.level == "error"`, data: map[string]any{"level": "info"}, want: false},
		{name: "has macro", expr: `has(_.user)`, data: map[string]any{"id": int64(1)}, want: false},
		{name: "numeric compare", expr: `_.n > 2`, data: map[string]any{"n": int64(3)}, want: true},
		{name: "string ext", expr: `_.msg.lowerAscii().contains("boom")`, data: map[string]any{"msg": "BOOM!"}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := e.Compile(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.expr, p.String())
			got, err := p.Match(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompileError(t *testing.T) {
	e, err := NewEvaluator()
	require.NoError(t, err)
	_, err = e.Compile(`_.a ==`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compilation error")
}

func TestMatchNonBool(t *testing.T) {
	e, err := NewEvaluator()
	require.NoError(t, err)
	p, err := e.Compile(`_.a`)
	require.NoError(t, err)
	_, err = p.Match(map[string]any{"a": "text"})
	require.Error(t, err)
}

func TestMatchMissingField(t *testing.T) {
	e, err := NewEvaluator()
	require.NoError(t, err)
	p, err := e.Compile(`_.missing == 1`)
	require.NoError(t, err)
	_, err = p.Match(map[string]any{"a": int64(1)})
	require.Error(t, err)
}

func TestEvaluateConvertsCollections(t *testing.T) {
	e, err := NewEvaluator()
	require.NoError(t, err)
	p, err := e.Compile(`[1, 2].map(x, x * 2)`)
	require.NoError(t, err)
	got, err := p.Evaluate(nil)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(2), int64(4)}, got)
}

func TestFunctionsExcludeOperators(t *testing.T) {
	e, err := NewEvaluator()
	require.NoError(t, err)
	funcs := e.Functions()
	assert.Contains(t, funcs, "size")
	assert.Contains(t, funcs, "has")
	for _, f := range funcs {
		assert.NotEqual(t, "@in", f)
		assert.NotEqual(t, "_==_", f)
	}
}
