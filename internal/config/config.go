// Package config loads the viewer configuration file, merged over embedded
// defaults.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/jsonlv/pkg/prefs"
	"github.com/oakwood-commons/jsonlv/pkg/view"
)

//go:embed default.yaml
var defaultYAML []byte

// Config is the full set of configurable options.
type Config struct {
	View      string          `yaml:"view" toml:"view"`
	Theme     string          `yaml:"theme" toml:"theme"`
	MaxDepth  int             `yaml:"max_depth" toml:"max_depth"`
	Table     TableConfig     `yaml:"table" toml:"table"`
	Export    ExportConfig    `yaml:"export" toml:"export"`
	Clipboard ClipboardConfig `yaml:"clipboard" toml:"clipboard"`
}

type TableConfig struct {
	MaxCellWidth int  `yaml:"max_cell_width" toml:"max_cell_width"`
	ShowIndex    bool `yaml:"show_index" toml:"show_index"`
}

type ExportConfig struct {
	Filename string `yaml:"filename" toml:"filename"`
}

type ClipboardConfig struct {
	Fallback bool `yaml:"fallback" toml:"fallback"`
}

// DefaultYAML returns the embedded defaults.
func DefaultYAML() []byte {
	return defaultYAML
}

// Default returns the embedded defaults.
func Default() (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(defaultYAML, &cfg); err != nil {
		return cfg, fmt.Errorf("decode default config: %w", err)
	}
	return cfg, nil
}

// Load reads path over the defaults. An empty path returns the defaults.
// Files ending in .toml are parsed as TOML, everything else as YAML.
func Load(path string) (Config, error) {
	cfg, err := Default()
	if err != nil {
		return cfg, err
	}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := Decode(data, Format(path), &cfg); err != nil {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Format returns "toml" or "yaml" based on the file extension.
func Format(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return "toml"
	}
	return "yaml"
}

// Decode unmarshals data onto cfg, leaving fields absent from data unchanged.
func Decode(data []byte, format string, cfg *Config) error {
	if format == "toml" {
		return toml.Unmarshal(data, cfg)
	}
	return yaml.Unmarshal(data, cfg)
}

// Encode renders cfg in the given format.
func Encode(cfg Config, format string) ([]byte, error) {
	if format == "toml" {
		return toml.Marshal(cfg)
	}
	return yaml.Marshal(cfg)
}

// Validate checks enumerated and numeric fields.
func (c Config) Validate() error {
	if _, err := view.ParseMode(c.View); err != nil {
		return err
	}
	if c.Theme != "" {
		if _, err := prefs.ParseTheme(c.Theme); err != nil {
			return err
		}
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth must not be negative, got %d", c.MaxDepth)
	}
	if c.Table.MaxCellWidth < 0 {
		return fmt.Errorf("table.max_cell_width must not be negative, got %d", c.Table.MaxCellWidth)
	}
	if c.Export.Filename != "" && filepath.Base(c.Export.Filename) != c.Export.Filename {
		return fmt.Errorf("export.filename %q must not contain a directory", c.Export.Filename)
	}
	return nil
}

// Mode returns the configured view mode, falling back to table.
func (c Config) Mode() view.Mode {
	m, err := view.ParseMode(c.View)
	if err != nil {
		return view.ModeTable
	}
	return m
}
