package middleware

import (
	"context"

	treespec "github.com/reoring/treespec"
)

// ctxKeyNode is a typed context key for storing the validated node.
type ctxKeyNode struct{}

// ContextWithNode attaches a validated node to the context.
func ContextWithNode(ctx context.Context, n *treespec.Node) context.Context {
	return context.WithValue(ctx, ctxKeyNode{}, n)
}

// NodeFromContext retrieves the validated node from context.
func NodeFromContext(ctx context.Context) (*treespec.Node, bool) {
	n, ok := ctx.Value(ctxKeyNode{}).(*treespec.Node)
	return n, ok
}

// DefaultValidateOpt returns a recommended default for HTTP JSON boundaries:
// unknown keys are errors rather than silently dropped.
func DefaultValidateOpt() treespec.ValidateOpt {
	return treespec.ValidateOpt{Unknown: treespec.UnknownStrict}
}

// ErrorPayload shapes Issues for JSON responses.
func ErrorPayload(issues treespec.Issues) map[string]any {
	return map[string]any{"issues": issues}
}
