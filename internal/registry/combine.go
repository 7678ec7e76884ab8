package registry

import (
	"github.com/vk/statgraph/internal/eval"
	"github.com/vk/statgraph/internal/node"
)

// Modified sums the inputs, adds the node's static base and applies the
// node's modifier stack.
func Modified(ctx eval.Context, in node.Inputs) float64 {
	return ctx.Apply(in.ID, in.Sum()+in.Base)
}

// ThenModifiers runs fn and applies the node's modifier stack to its result.
func ThenModifiers(fn node.CombineFunc) node.CombineFunc {
	if fn == nil {
		return Modified
	}
	return func(ctx eval.Context, in node.Inputs) float64 {
		return ctx.Apply(in.ID, fn(ctx, in))
	}
}

// Apply implements eval.Modifiers.
func (r *Registry) Apply(target string, base float64, ctx eval.Context) float64 {
	agg, ok := r.aggregators[target]
	if !ok {
		return base
	}
	return agg.Calculate(base, ctx)
}
