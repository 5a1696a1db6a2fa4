package projection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetMakesEverythingVisible(t *testing.T) {
	s := New()
	s.Reset([]string{"c", "a", "a.b"})
	assert.Equal(t, []string{"a", "a.b", "c"}, s.VisiblePaths())

	require.NoError(t, s.SetVisible("a", false))
	s.Reset([]string{"x", "a"})
	assert.Equal(t, []string{"a", "x"}, s.VisiblePaths())
	assert.False(t, s.IsVisible("c"), "paths from the old universe are dropped")
}

func TestSetVisible(t *testing.T) {
	s := New()
	s.Reset([]string{"a", "b"})

	require.NoError(t, s.SetVisible("a", false))
	assert.Equal(t, []string{"b"}, s.VisiblePaths())

	require.NoError(t, s.SetVisible("a", true))
	assert.Equal(t, []string{"a", "b"}, s.VisiblePaths())
}

func TestSetVisibleUnknownPath(t *testing.T) {
	s := New()
	s.Reset([]string{"a"})
	err := s.SetVisible("zzz", true)
	require.ErrorIs(t, err, ErrUnknownPath)
	assert.Equal(t, []string{"a"}, s.VisiblePaths())
	assert.False(t, s.IsVisible("zzz"))
}

func TestToggle(t *testing.T) {
	s := New()
	s.Reset([]string{"a"})
	v, err := s.Toggle("a")
	require.NoError(t, err)
	assert.False(t, v)
	v, err = s.Toggle("a")
	require.NoError(t, err)
	assert.True(t, v)
	_, err = s.Toggle("nope")
	assert.ErrorIs(t, err, ErrUnknownPath)
}

func TestSetAllVisibleIdempotent(t *testing.T) {
	s := New()
	s.Reset([]string{"b", "a"})
	s.SetAllVisible(false)
	assert.Empty(t, s.VisiblePaths())

	s.SetAllVisible(true)
	once := s.VisiblePaths()
	s.SetAllVisible(true)
	assert.Equal(t, once, s.VisiblePaths())
	assert.Equal(t, []string{"a", "b"}, once)
}

func TestPickerDoesNotChangeVisibility(t *testing.T) {
	s := New()
	s.Reset([]string{"user.name", "user.id", "level"})
	require.NoError(t, s.SetVisible("user.id", false))

	opts := s.Picker("USER")
	assert.Equal(t, []Option{
		{Path: "user.id", Visible: false},
		{Path: "user.name", Visible: true},
	}, opts)
	assert.Equal(t, []string{"level", "user.name"}, s.VisiblePaths())
	assert.Len(t, s.Picker(""), 3)
}

func TestClear(t *testing.T) {
	s := New()
	s.Reset([]string{"a"})
	s.Clear()
	assert.Empty(t, s.Universe())
	assert.Empty(t, s.VisiblePaths())
}
