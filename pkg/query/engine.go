// Package query derives the active view set from the record store using a
// free-text search, a key-presence filter, and an optional CEL expression.
package query

import (
	"fmt"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/go-logr/logr"

	"github.com/oakwood-commons/jsonlv/internal/cel"
	"github.com/oakwood-commons/jsonlv/pkg/record"
)

// Criteria is the full predicate state. Zero values match everything.
type Criteria struct {
	Search     string
	Key        string
	Expression string
}

// Engine holds the current criteria. Every change is applied by re-scanning
// the full record set through Evaluate.
type Engine struct {
	criteria  Criteria
	evaluator *cel.Evaluator
	program   *cel.Program
	log       logr.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for expression evaluation failures.
func WithLogger(lgr logr.Logger) Option {
	return func(e *Engine) {
		e.log = lgr
	}
}

// WithEvaluator sets the CEL evaluator used for expressions.
func WithEvaluator(ev *cel.Evaluator) Option {
	return func(e *Engine) {
		e.evaluator = ev
	}
}

// NewEngine creates an Engine whose criteria match every record.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{log: logr.Discard()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Criteria returns the current criteria.
func (e *Engine) Criteria() Criteria {
	return e.criteria
}

// SetSearch replaces the free-text query.
func (e *Engine) SetSearch(q string) {
	e.criteria.Search = q
}

// SetKey replaces the key filter; the empty path disables it.
func (e *Engine) SetKey(path string) {
	e.criteria.Key = path
}

// SetExpression compiles and installs a CEL predicate. The empty string
// removes it. On a compile error the previous expression stays in place.
func (e *Engine) SetExpression(expr string) error {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		e.criteria.Expression = ""
		e.program = nil
		return nil
	}
	if e.evaluator == nil {
		ev, err := cel.NewEvaluator()
		if err != nil {
			return err
		}
		e.evaluator = ev
	}
	prg, err := e.evaluator.Compile(expr)
	if err != nil {
		return fmt.Errorf("invalid expression %q: %w", expr, err)
	}
	e.criteria.Expression = expr
	e.program = prg
	return nil
}

// ExpressionPaths returns the key paths the current expression selects.
func (e *Engine) ExpressionPaths() []string {
	if e.program == nil {
		return nil
	}
	return e.program.Paths()
}

// Reset restores criteria that match everything.
func (e *Engine) Reset() {
	e.criteria = Criteria{}
	e.program = nil
}

// Evaluate scans records and returns the indices matching every active
// predicate, in ingestion order.
func (e *Engine) Evaluate(records []any) *Result {
	all := roaring.New()
	all.AddRange(0, uint64(len(records)))

	set := all
	if e.criteria.Search != "" {
		set = roaring.And(set, e.scan(records, func(rec any) bool {
			return Matches(rec, e.criteria.Search)
		}))
	}
	if e.criteria.Key != "" {
		set = roaring.And(set, e.scan(records, func(rec any) bool {
			return HasKeyPath(rec, e.criteria.Key)
		}))
	}
	if e.program != nil {
		set = roaring.And(set, e.scan(records, e.matchExpression))
	}
	return &Result{bits: set}
}

func (e *Engine) scan(records []any, pred func(any) bool) *roaring.Bitmap {
	bm := roaring.New()
	for i, rec := range records {
		if pred(rec) {
			bm.Add(uint32(i))
		}
	}
	return bm
}

// matchExpression treats evaluation errors (missing fields, non-boolean
// results) as a non-match.
func (e *Engine) matchExpression(rec any) bool {
	ok, err := e.program.Match(record.ToNative(rec))
	if err != nil {
		e.log.V(1).Info("expression did not evaluate", "expression", e.program.String(), "error", err.Error())
		return false
	}
	return ok
}

// Result is the set of matching record indices.
type Result struct {
	bits *roaring.Bitmap
}

// Len returns the number of matching records.
func (r *Result) Len() int {
	if r == nil || r.bits == nil {
		return 0
	}
	return int(r.bits.GetCardinality())
}

// Contains reports whether the record at index i matched.
func (r *Result) Contains(i int) bool {
	if r == nil || r.bits == nil || i < 0 {
		return false
	}
	return r.bits.Contains(uint32(i))
}

// Indices returns matching record indices in ascending order.
func (r *Result) Indices() []int {
	if r == nil || r.bits == nil {
		return nil
	}
	out := make([]int, 0, r.bits.GetCardinality())
	it := r.bits.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}

// Equal reports whether two results hold the same indices.
func (r *Result) Equal(other *Result) bool {
	if r.Len() == 0 && other.Len() == 0 {
		return true
	}
	if r == nil || other == nil {
		return false
	}
	return r.bits.Equals(other.bits)
}
