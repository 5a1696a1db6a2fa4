package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/buger/jsonparser"
)

// ErrTooDeep is returned when a value nests deeper than the configured limit.
var ErrTooDeep = errors.New("nesting exceeds maximum depth")

// LineParseError describes one input line that could not be decoded.
// Line is the 1-based physical line number in the ingested text.
type LineParseError struct {
	Line int
	Err  error
}

func (e *LineParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineParseError) Unwrap() error {
	return e.Err
}

// Decode parses one line as a single JSON value. Objects keep their key
// order; a repeated key keeps its first position and its last value.
// Values nested deeper than maxDepth are rejected with ErrTooDeep; a
// non-positive maxDepth selects DefaultMaxDepth.
func Decode(line string, maxDepth int) (any, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	data := []byte(strings.TrimSpace(line))

	// Validate the whole line first; jsonparser is permissive about
	// trailing content and would accept partial values.
	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	value, typ, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, err
	}
	return build(value, typ, 0, maxDepth)
}

func build(data []byte, typ jsonparser.ValueType, depth, maxDepth int) (any, error) {
	switch typ {
	case jsonparser.Null:
		return nil, nil
	case jsonparser.Boolean:
		return jsonparser.ParseBoolean(data)
	case jsonparser.Number:
		return json.Number(string(data)), nil
	case jsonparser.String:
		return jsonparser.ParseString(data)
	case jsonparser.Array:
		if depth >= maxDepth {
			return nil, ErrTooDeep
		}
		return buildArray(data, depth, maxDepth)
	case jsonparser.Object:
		if depth >= maxDepth {
			return nil, ErrTooDeep
		}
		return buildObject(data, depth, maxDepth)
	case jsonparser.NotExist, jsonparser.Unknown:
		return nil, fmt.Errorf("unrecognized JSON value %q", data)
	default:
		return nil, fmt.Errorf("unsupported JSON value type %v", typ)
	}
}

func buildArray(data []byte, depth, maxDepth int) ([]any, error) {
	items := []any{}
	var inner error
	_, err := jsonparser.ArrayEach(data, func(value []byte, typ jsonparser.ValueType, _ int, cbErr error) {
		if inner != nil {
			return
		}
		if cbErr != nil {
			inner = cbErr
			return
		}
		item, err := build(value, typ, depth+1, maxDepth)
		if err != nil {
			inner = err
			return
		}
		items = append(items, item)
	})
	if inner != nil {
		return nil, inner
	}
	if err != nil {
		return nil, err
	}
	return items, nil
}

func buildObject(data []byte, depth, maxDepth int) (*Object, error) {
	obj := NewObject()
	// jsonparser hands keys over already unescaped.
	err := jsonparser.ObjectEach(data, func(key, value []byte, typ jsonparser.ValueType, _ int) error {
		item, err := build(value, typ, depth+1, maxDepth)
		if err != nil {
			return err
		}
		obj.Set(string(key), item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return obj, nil
}
