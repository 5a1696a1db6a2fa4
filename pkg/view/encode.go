package view

import (
	"encoding/json"
	"strings"

	"github.com/mailru/easyjson/jwriter"

	"github.com/oakwood-commons/jsonlv/pkg/record"
)

// Indent is the indentation unit used for pretty and raw output.
const Indent = "  "

// TokenKind classifies a highlighted span of serialized JSON.
type TokenKind string

const (
	TokenString  TokenKind = "string"
	TokenKey     TokenKind = "key"
	TokenNumber  TokenKind = "number"
	TokenBoolean TokenKind = "boolean"
	TokenNull    TokenKind = "null"
	TokenBracket TokenKind = "bracket"
	TokenComma   TokenKind = "comma"
	TokenColon   TokenKind = "colon"
)

// Token annotates the byte range [Start, End) of a serialized document.
// Whitespace between tokens is never annotated.
type Token struct {
	Kind  TokenKind
	Start int
	End   int
}

// Marshal serializes v, keeping object key order. An empty indent produces
// compact output; otherwise each nesting level is indented by one unit and
// keys are followed by ": ".
func Marshal(v any, indent string) string {
	e := encoder{indent: indent}
	e.value(v, 0)
	return e.b.String()
}

// Highlight serializes v like Marshal and returns the token spans covering
// every non-whitespace byte of the text.
func Highlight(v any, indent string) (string, []Token) {
	e := encoder{indent: indent, track: true}
	e.value(v, 0)
	return e.b.String(), e.tokens
}

type encoder struct {
	b      strings.Builder
	indent string
	track  bool
	tokens []Token
}

func (e *encoder) emit(kind TokenKind, text string) {
	start := e.b.Len()
	e.b.WriteString(text)
	if e.track {
		e.tokens = append(e.tokens, Token{Kind: kind, Start: start, End: e.b.Len()})
	}
}

func (e *encoder) newline(depth int) {
	if e.indent == "" {
		return
	}
	e.b.WriteByte('\n')
	for i := 0; i < depth; i++ {
		e.b.WriteString(e.indent)
	}
}

func (e *encoder) value(v any, depth int) {
	switch t := v.(type) {
	case nil:
		e.emit(TokenNull, "null")
	case bool:
		if t {
			e.emit(TokenBoolean, "true")
		} else {
			e.emit(TokenBoolean, "false")
		}
	case json.Number:
		e.emit(TokenNumber, t.String())
	case string:
		e.emit(TokenString, quote(t))
	case []any:
		e.array(t, depth)
	case *record.Object:
		e.object(t, depth)
	default:
		e.emit(TokenNull, "null")
	}
}

func (e *encoder) array(items []any, depth int) {
	e.emit(TokenBracket, "[")
	if len(items) == 0 {
		e.emit(TokenBracket, "]")
		return
	}
	for i, item := range items {
		if i > 0 {
			e.emit(TokenComma, ",")
		}
		e.newline(depth + 1)
		e.value(item, depth+1)
	}
	e.newline(depth)
	e.emit(TokenBracket, "]")
}

func (e *encoder) object(obj *record.Object, depth int) {
	e.emit(TokenBracket, "{")
	if obj.Len() == 0 {
		e.emit(TokenBracket, "}")
		return
	}
	first := true
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		if !first {
			e.emit(TokenComma, ",")
		}
		first = false
		e.newline(depth + 1)
		e.emit(TokenKey, quote(pair.Key))
		e.emit(TokenColon, ":")
		if e.indent != "" {
			e.b.WriteByte(' ')
		}
		e.value(pair.Value, depth+1)
	}
	e.newline(depth)
	e.emit(TokenBracket, "}")
}

func quote(s string) string {
	w := jwriter.Writer{NoEscapeHTML: true}
	w.String(s)
	out, err := w.BuildBytes()
	if err != nil {
		return `""`
	}
	return string(out)
}
