package formula

import (
	"github.com/vk/statgraph/internal/eval"
	"github.com/vk/statgraph/internal/tag"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// numberFuncs are the context-free functions available to formulas.
var numberFuncs = map[string]function.Function{
	"floor": stdlib.FloorFunc,
	"ceil":  stdlib.CeilFunc,
	"min":   stdlib.MinFunc,
	"max":   stdlib.MaxFunc,
	"abs":   stdlib.AbsoluteFunc,
}

// contextFuncNames are bound to an eval.Context per evaluation.
var contextFuncNames = []string{"has_tag", "has_any_tag", "has_tag_matching", "is_recent"}

// FunctionNames lists every function a formula may call.
func FunctionNames() []string {
	names := make(map[string]struct{}, len(numberFuncs)+len(contextFuncNames))
	for name := range numberFuncs {
		names[name] = struct{}{}
	}
	for _, name := range contextFuncNames {
		names[name] = struct{}{}
	}
	return sortedKeys(names)
}

func functions(ctx eval.Context) map[string]function.Function {
	fns := make(map[string]function.Function, len(numberFuncs)+len(contextFuncNames))
	for name, fn := range numberFuncs {
		fns[name] = fn
	}
	fns["has_tag"] = tagFunc(ctx.HasTag)
	fns["has_tag_matching"] = tagFunc(ctx.HasTagMatching)
	fns["has_any_tag"] = function.New(&function.Spec{
		VarParam: &function.Parameter{Name: "tags", Type: cty.String},
		Type:     function.StaticReturnType(cty.Bool),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			tags := make([]tag.Tag, 0, len(args))
			for _, arg := range args {
				t, err := tag.Parse(arg.AsString())
				if err != nil {
					return cty.NilVal, err
				}
				tags = append(tags, t)
			}
			return cty.BoolVal(ctx.HasAnyTag(tags...)), nil
		},
	})
	fns["is_recent"] = function.New(&function.Spec{
		Params: []function.Parameter{{Name: "fact", Type: cty.String}},
		Type:   function.StaticReturnType(cty.Bool),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			return cty.BoolVal(ctx.IsRecent(args[0].AsString())), nil
		},
	})
	return fns
}

func tagFunc(query func(tag.Tag) bool) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{{Name: "tag", Type: cty.String}},
		Type:   function.StaticReturnType(cty.Bool),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			t, err := tag.Parse(args[0].AsString())
			if err != nil {
				return cty.NilVal, err
			}
			return cty.BoolVal(query(t)), nil
		},
	})
}
