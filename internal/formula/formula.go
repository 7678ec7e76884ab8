// Package formula compiles HCL expressions from stat sheets into combine
// functions and predicates.
//
// A formula sees every declared parent by id, `base` (the node's static
// base) and `value` (the sum of contributing parents). A conditional parent
// whose predicate is currently false reads as 0. Besides arithmetic and
// conditionals, formulas may call the functions listed by FunctionNames.
package formula

import (
	"fmt"
	"slices"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/statgraph/internal/eval"
	"github.com/vk/statgraph/internal/node"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Reserved variable names.
const (
	VarBase  = "base"
	VarValue = "value"
)

// Formula is a compiled numeric expression.
type Formula struct {
	expr   hcl.Expression
	params []string
}

// Compile checks that expr reads only params, base and value, and calls only
// known functions.
func Compile(expr hcl.Expression, params []string) (*Formula, error) {
	allowed := append([]string{VarBase, VarValue}, params...)
	if err := validate(expr, allowed); err != nil {
		return nil, err
	}
	return &Formula{expr: expr, params: append([]string(nil), params...)}, nil
}

// Parse compiles a formula from source text.
func Parse(src string, params []string) (*Formula, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(src), "formula", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse formula %q: %w", src, diags)
	}
	return Compile(expr, params)
}

func validate(expr hcl.Expression, allowed []string) error {
	if expr == nil {
		return fmt.Errorf("formula expression is missing")
	}
	for _, ref := range References(expr) {
		if !slices.Contains(allowed, ref) {
			return fmt.Errorf("%s: formula references unknown variable %q", expr.Range(), ref)
		}
	}
	known := FunctionNames()
	for _, fn := range CalledFunctions(expr) {
		if !slices.Contains(known, fn) {
			return fmt.Errorf("%s: formula calls unknown function %q", expr.Range(), fn)
		}
	}
	return nil
}

// ReadsContext reports whether the formula calls has_tag, has_any_tag,
// has_tag_matching or is_recent.
func (f *Formula) ReadsContext() bool { return ReadsContext(f.expr) }

// Combine evaluates the formula. It satisfies node.CombineFunc. Evaluation
// errors panic; formulas are validated at load time and are not sandboxed.
func (f *Formula) Combine(ctx eval.Context, in node.Inputs) float64 {
	vars := make(map[string]cty.Value, len(f.params)+2)
	for _, p := range f.params {
		vars[p] = cty.Zero
	}
	for i, id := range in.From {
		vars[id] = cty.NumberFloatVal(in.Values[i])
	}
	vars[VarBase] = cty.NumberFloatVal(in.Base)
	vars[VarValue] = cty.NumberFloatVal(in.Sum())

	v, diags := f.expr.Value(&hcl.EvalContext{Variables: vars, Functions: functions(ctx)})
	if diags.HasErrors() {
		panic(fmt.Errorf("formula for %s: %w", in.ID, diags))
	}
	num, err := convert.Convert(v, cty.Number)
	if err != nil || num.IsNull() || !num.IsKnown() {
		panic(fmt.Errorf("formula for %s did not produce a number", in.ID))
	}
	out, _ := num.AsBigFloat().Float64()
	return out
}

// Condition is a compiled boolean expression over the evaluation context.
// It may call functions but not read variables.
type Condition struct {
	expr hcl.Expression
}

// CompileCondition validates expr as a condition.
func CompileCondition(expr hcl.Expression) (*Condition, error) {
	if err := validate(expr, nil); err != nil {
		return nil, err
	}
	return &Condition{expr: expr}, nil
}

// ParseCondition compiles a condition from source text.
func ParseCondition(src string) (*Condition, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(src), "condition", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse condition %q: %w", src, diags)
	}
	return CompileCondition(expr)
}

// Eval satisfies eval.Predicate. Evaluation errors panic.
func (c *Condition) Eval(ctx eval.Context) bool {
	v, diags := c.expr.Value(&hcl.EvalContext{Functions: functions(ctx)})
	if diags.HasErrors() {
		panic(fmt.Errorf("condition: %w", diags))
	}
	b, err := convert.Convert(v, cty.Bool)
	if err != nil || b.IsNull() || !b.IsKnown() {
		panic(fmt.Errorf("condition did not produce a bool"))
	}
	return b.True()
}
