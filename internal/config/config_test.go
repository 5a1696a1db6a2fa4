package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/jsonlv/pkg/view"
)

func write(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)
	assert.Equal(t, "table", cfg.View)
	assert.Empty(t, cfg.Theme)
	assert.Equal(t, 512, cfg.MaxDepth)
	assert.Equal(t, 40, cfg.Table.MaxCellWidth)
	assert.True(t, cfg.Table.ShowIndex)
	assert.Equal(t, "exported_data.json", cfg.Export.Filename)
	assert.True(t, cfg.Clipboard.Fallback)
	require.NoError(t, cfg.Validate())
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	def, _ := Default()
	assert.Equal(t, def, cfg)
}

func TestLoadMergesOverDefaults(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{
			name: "yaml",
			file: "c.yaml",
			body: "view: tree\ntable:\n  max_cell_width: 12\nclipboard:\n  fallback: false\n",
		},
		{
			name: "toml",
			file: "c.toml",
			body: "view = \"tree\"\n[table]\nmax_cell_width = 12\n[clipboard]\nfallback = false\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(write(t, tt.file, tt.body))
			require.NoError(t, err)
			assert.Equal(t, view.ModeTree, cfg.Mode())
			assert.Equal(t, 12, cfg.Table.MaxCellWidth)
			assert.False(t, cfg.Clipboard.Fallback)

			// Untouched keys keep their defaults.
			assert.True(t, cfg.Table.ShowIndex)
			assert.Equal(t, 512, cfg.MaxDepth)
			assert.Equal(t, "exported_data.json", cfg.Export.Filename)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
		want string
	}{
		{name: "missing", path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "none.yaml") }, want: "read config"},
		{name: "bad yaml", path: func(t *testing.T) string { return write(t, "b.yaml", "view: [") }, want: "decode config"},
		{name: "bad view", path: func(t *testing.T) string { return write(t, "v.yaml", "view: grid") }, want: "invalid view mode"},
		{name: "bad theme", path: func(t *testing.T) string { return write(t, "t.yaml", "theme: neon") }, want: "unknown theme"},
		{name: "negative depth", path: func(t *testing.T) string { return write(t, "d.yaml", "max_depth: -1") }, want: "max_depth"},
		{name: "nested filename", path: func(t *testing.T) string { return write(t, "f.yaml", "export:\n  filename: a/b.json") }, want: "export.filename"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path(t))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "toml", Format("x.TOML"))
	assert.Equal(t, "yaml", Format("x.yml"))
	assert.Equal(t, "yaml", Format("config"))
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)
	cfg.View = "raw"

	for _, format := range []string{"yaml", "toml"} {
		data, err := Encode(cfg, format)
		require.NoError(t, err)
		var back Config
		require.NoError(t, Decode(data, format, &back))
		assert.Equal(t, cfg, back, format)
	}
}
