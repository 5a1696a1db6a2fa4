package cel

import (
	"strings"

	"github.com/google/cel-go/cel"
	exprpb "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// referencedPaths returns the dot-separated field paths selected from the
// root variable, in first-seen order. Only plain field selection counts:
// _.a.b yields "a.b", while _["a"] and x.a inside a macro yield nothing.
func referencedPaths(ast *cel.Ast) []string {
	parsed, err := cel.AstToParsedExpr(ast)
	if err != nil || parsed.GetExpr() == nil {
		return nil
	}
	var out []string
	seen := map[string]bool{}
	walkExpr(parsed.GetExpr(), func(path string) {
		if !seen[path] {
			seen[path] = true
			out = append(out, path)
		}
	})
	return out
}

func walkExpr(e *exprpb.Expr, add func(string)) {
	if e == nil {
		return
	}
	if path, ok := rootSelectPath(e); ok {
		add(path)
		return
	}
	switch k := e.GetExprKind().(type) {
	case *exprpb.Expr_SelectExpr:
		walkExpr(k.SelectExpr.GetOperand(), add)
	case *exprpb.Expr_CallExpr:
		walkExpr(k.CallExpr.GetTarget(), add)
		for _, arg := range k.CallExpr.GetArgs() {
			walkExpr(arg, add)
		}
	case *exprpb.Expr_ListExpr:
		for _, el := range k.ListExpr.GetElements() {
			walkExpr(el, add)
		}
	case *exprpb.Expr_StructExpr:
		for _, entry := range k.StructExpr.GetEntries() {
			walkExpr(entry.GetMapKey(), add)
			walkExpr(entry.GetValue(), add)
		}
	case *exprpb.Expr_ComprehensionExpr:
		c := k.ComprehensionExpr
		walkExpr(c.GetIterRange(), add)
		walkExpr(c.GetAccuInit(), add)
		walkExpr(c.GetLoopCondition(), add)
		walkExpr(c.GetLoopStep(), add)
		walkExpr(c.GetResult(), add)
	}
}

// rootSelectPath unwinds a chain of field selections ending at the root
// variable.
func rootSelectPath(e *exprpb.Expr) (string, bool) {
	var fields []string
	for {
		sel := e.GetSelectExpr()
		if sel == nil {
			break
		}
		fields = append(fields, sel.GetField())
		e = sel.GetOperand()
	}
	if len(fields) == 0 || e.GetIdentExpr().GetName() != RootVariable {
		return "", false
	}
	for i, j := 0, len(fields)-1; i < j; i, j = i+1, j-1 {
		fields[i], fields[j] = fields[j], fields[i]
	}
	return strings.Join(fields, "."), true
}
