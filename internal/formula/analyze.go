package formula

import (
	"slices"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
)

// References returns the sorted, unique root names of every variable the
// expression reads, e.g. `strength` for `floor(strength / 10)`.
func References(expr hcl.Expression) []string {
	if expr == nil {
		return nil
	}
	seen := make(map[string]struct{})
	for _, traversal := range expr.Variables() {
		seen[traversal.RootName()] = struct{}{}
	}
	return sortedKeys(seen)
}

// CalledFunctions returns the sorted, unique names of every function the
// expression calls. Only native syntax expressions are walked.
func CalledFunctions(expr hcl.Expression) []string {
	functions := make(map[string]struct{})
	if syntaxExpr, ok := expr.(hclsyntax.Expression); ok {
		walkForFunctions(syntaxExpr, functions)
	}
	return sortedKeys(functions)
}

// ReadsContext reports whether the expression calls a function that reads
// tags or recency facts, so its value can change without any input changing.
func ReadsContext(expr hcl.Expression) bool {
	for _, fn := range CalledFunctions(expr) {
		if slices.Contains(contextFuncNames, fn) {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// walkForFunctions recursively walks the AST, looking only for function calls.
func walkForFunctions(expr hclsyntax.Expression, functions map[string]struct{}) {
	if expr == nil {
		return
	}
	switch e := expr.(type) {
	case *hclsyntax.FunctionCallExpr:
		functions[e.Name] = struct{}{}
		for _, arg := range e.Args {
			walkForFunctions(arg, functions)
		}
	case *hclsyntax.BinaryOpExpr:
		walkForFunctions(e.LHS, functions)
		walkForFunctions(e.RHS, functions)
	case *hclsyntax.ConditionalExpr:
		walkForFunctions(e.Condition, functions)
		walkForFunctions(e.TrueResult, functions)
		walkForFunctions(e.FalseResult, functions)
	case *hclsyntax.UnaryOpExpr:
		walkForFunctions(e.Val, functions)
	case *hclsyntax.TupleConsExpr:
		for _, item := range e.Exprs {
			walkForFunctions(item, functions)
		}
	case *hclsyntax.IndexExpr:
		walkForFunctions(e.Collection, functions)
		walkForFunctions(e.Key, functions)
	case *hclsyntax.ParenthesesExpr:
		walkForFunctions(e.Expression, functions)
	case *hclsyntax.TemplateWrapExpr:
		walkForFunctions(e.Wrapped, functions)
	}
}
