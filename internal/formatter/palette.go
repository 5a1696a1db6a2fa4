package formatter

import (
	"image/color"

	"charm.land/lipgloss/v2"

	"github.com/oakwood-commons/jsonlv/pkg/prefs"
	"github.com/oakwood-commons/jsonlv/pkg/view"
)

// Colors is one theme's color set.
type Colors struct {
	HeaderFG  color.Color
	HeaderBG  color.Color
	Index     color.Color
	Key       color.Color
	String    color.Color
	Number    color.Color
	Boolean   color.Color
	Null      color.Color
	Punct     color.Color
	Separator color.Color
	Status    color.Color
}

var (
	lightColors = Colors{
		HeaderFG:  lipgloss.Color("#1f2937"),
		HeaderBG:  lipgloss.Color("#e5e7eb"),
		Index:     lipgloss.Color("#6b7280"),
		Key:       lipgloss.Color("#7c3aed"),
		String:    lipgloss.Color("#059669"),
		Number:    lipgloss.Color("#d97706"),
		Boolean:   lipgloss.Color("#dc2626"),
		Null:      lipgloss.Color("#6b7280"),
		Punct:     lipgloss.Color("#374151"),
		Separator: lipgloss.Color("#d1d5db"),
		Status:    lipgloss.Color("#b91c1c"),
	}
	darkColors = Colors{
		HeaderFG:  lipgloss.Color("#f9fafb"),
		HeaderBG:  lipgloss.Color("#374151"),
		Index:     lipgloss.Color("#9ca3af"),
		Key:       lipgloss.Color("#a78bfa"),
		String:    lipgloss.Color("#34d399"),
		Number:    lipgloss.Color("#fbbf24"),
		Boolean:   lipgloss.Color("#f87171"),
		Null:      lipgloss.Color("#9ca3af"),
		Punct:     lipgloss.Color("#d1d5db"),
		Separator: lipgloss.Color("#4b5563"),
		Status:    lipgloss.Color("#fca5a5"),
	}
)

// ColorsFor returns the color set of a theme.
func ColorsFor(theme prefs.Theme) Colors {
	if theme == prefs.ThemeDark {
		return darkColors
	}
	return lightColors
}

// Palette holds the styles used to paint every view.
type Palette struct {
	Header    lipgloss.Style
	Index     lipgloss.Style
	Separator lipgloss.Style
	Status    lipgloss.Style
	tokens    map[view.TokenKind]lipgloss.Style
}

// NewPalette builds styles for theme. With noColor every style is plain.
func NewPalette(theme prefs.Theme, noColor bool) Palette {
	if noColor {
		plain := lipgloss.NewStyle()
		return Palette{Header: plain, Index: plain, Separator: plain, Status: plain, tokens: map[view.TokenKind]lipgloss.Style{}}
	}
	c := ColorsFor(theme)
	fg := func(col color.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(col) }
	return Palette{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(c.HeaderFG).Background(c.HeaderBG),
		Index:     fg(c.Index),
		Separator: fg(c.Separator),
		Status:    fg(c.Status).Italic(true),
		tokens: map[view.TokenKind]lipgloss.Style{
			view.TokenKey:     fg(c.Key),
			view.TokenString:  fg(c.String),
			view.TokenNumber:  fg(c.Number),
			view.TokenBoolean: fg(c.Boolean),
			view.TokenNull:    fg(c.Null).Italic(true),
			view.TokenBracket: fg(c.Punct),
			view.TokenComma:   fg(c.Punct),
			view.TokenColon:   fg(c.Punct),
		},
	}
}

// Token returns the style for a token kind.
func (p Palette) Token(kind view.TokenKind) lipgloss.Style {
	if s, ok := p.tokens[kind]; ok {
		return s
	}
	return lipgloss.NewStyle()
}
