package schemafile

import (
	"context"
	"fmt"

	"github.com/expr-lang/expr"

	treespec "github.com/reoring/treespec"
)

// compileGenerator turns a default_expr string into a context generator. The
// expression sees four variables: node (siblings resolved so far), parent
// (nearest ancestor or nil), stack (all ancestors, root first) and kwargs.
// Each is an exported plain map, so expressions never touch live nodes.
func compileGenerator(field, src string) (treespec.Generator, error) {
	program, err := expr.Compile(src, expr.Env(exprEnv(nil, nil, nil)))
	if err != nil {
		return nil, fmt.Errorf("field %s: compile default_expr: %w", field, err)
	}
	return func(ctx context.Context, g treespec.GenCtx) (any, error) {
		out, err := expr.Run(program, exprEnv(g.Stack, g.Node, g.Kwargs))
		if err != nil {
			return nil, fmt.Errorf("default_expr for %s: %w", field, err)
		}
		return out, nil
	}, nil
}

func exprEnv(stack treespec.Stack, node *treespec.Node, kwargs treespec.Kwargs) map[string]any {
	env := map[string]any{
		"stack":  []any{},
		"parent": nil,
		"node":   map[string]any{},
		"kwargs": map[string]any{},
	}
	if node != nil {
		env["node"] = node.Export()
	}
	if len(stack) > 0 {
		ancestors := make([]any, len(stack))
		for i, n := range stack {
			ancestors[i] = n.Export()
		}
		env["stack"] = ancestors
		env["parent"] = ancestors[len(ancestors)-1]
	}
	if kwargs != nil {
		env["kwargs"] = map[string]any(kwargs)
	}
	return env
}
