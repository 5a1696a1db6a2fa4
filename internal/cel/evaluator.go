// Package cel compiles CEL expressions into record predicates.
package cel

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	celext "github.com/google/cel-go/ext"
)

// RootVariable is the name a record is bound to inside an expression.
const RootVariable = "_"

// Evaluator compiles CEL expressions against a shared environment.
type Evaluator struct {
	env *cel.Env
}

// NewEvaluator creates an evaluator with the standard extension libraries.
func NewEvaluator() (*Evaluator, error) {
	env, err := newStandardCELEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Evaluator{env: env}, nil
}

func newStandardCELEnv(opts ...cel.EnvOption) (*cel.Env, error) {
	allOpts := make([]cel.EnvOption, 0, 5+len(opts))
	allOpts = append(allOpts,
		cel.Variable(RootVariable, cel.DynType),
		celext.Strings(),
		celext.Encoders(),
		celext.Lists(),
		celext.Math(),
	)
	allOpts = append(allOpts, opts...)
	return cel.NewEnv(allOpts...)
}

// Program is a compiled expression.
type Program struct {
	expr  string
	prg   cel.Program
	paths []string
}

// Compile parses and checks expr.
func (e *Evaluator) Compile(expr string) (*Program, error) {
	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compilation error: %w", issues.Err())
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Program{expr: expr, prg: prg, paths: referencedPaths(ast)}, nil
}

// String returns the source expression.
func (p *Program) String() string {
	return p.expr
}

// Paths returns the record fields the expression selects, as dot-separated
// key paths.
func (p *Program) Paths() []string {
	return append([]string(nil), p.paths...)
}

// Evaluate runs the program with data bound to "_" and returns the result
// converted to Go types.
func (p *Program) Evaluate(data any) (any, error) {
	result, _, err := p.prg.Eval(map[string]any{RootVariable: data})
	if err != nil {
		return nil, fmt.Errorf("eval error: %w", err)
	}
	return ToGo(result), nil
}

// Match evaluates the program as a predicate. A non-boolean result is an
// error.
func (p *Program) Match(data any) (bool, error) {
	out, err := p.Evaluate(data)
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("expression %q returned %T, want bool", p.expr, out)
	}
	return b, nil
}

// ToGo converts CEL values to Go native values recursively.
func ToGo(val ref.Val) any {
	if val == nil {
		return nil
	}
	switch v := val.(type) {
	case types.Bool:
		return bool(v)
	case types.Int:
		return int64(v)
	case types.Uint:
		return uint64(v)
	case types.Double:
		return float64(v)
	case types.String:
		return string(v)
	case types.Bytes:
		return []byte(v)
	case types.Null:
		return nil
	}

	if valuer, ok := val.(interface{ Value() any }); ok {
		inner := valuer.Value()
		switch t := inner.(type) {
		case []ref.Val:
			out := make([]any, len(t))
			for i, elem := range t {
				out[i] = ToGo(elem)
			}
			return out
		case map[ref.Val]ref.Val:
			out := make(map[string]any, len(t))
			for k, v := range t {
				out[fmt.Sprintf("%v", ToGo(k))] = ToGo(v)
			}
			return out
		default:
			return inner
		}
	}
	return val
}

// Functions lists the non-operator functions and macros available to
// expressions, sorted by name.
func (e *Evaluator) Functions() []string {
	seen := make(map[string]bool)
	for _, fn := range e.env.Functions() {
		if !isOperator(fn.Name()) {
			seen[fn.Name()] = true
		}
	}
	for _, m := range e.env.Macros() {
		if !isOperator(m.Function()) {
			seen[m.Function()] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func isOperator(name string) bool {
	if strings.HasPrefix(name, "@") {
		return true
	}
	if strings.HasPrefix(name, "_") && strings.HasSuffix(name, "_") {
		return true
	}
	return name == "!_" || name == "-_" || name == "_[_]" || name == "_?_:_"
}
