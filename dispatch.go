package treespec

import (
	"context"
	"fmt"
	"slices"

	"github.com/reoring/treespec/internal/suggest"
)

// OpFunc is an operation implementation. Errors it returns reach the
// Dispatch caller: an Issues error passes through unchanged, anything else
// is wrapped once as a dispatch_failure issue with the original as Cause.
type OpFunc func(ctx context.Context, oc OpCtx) (any, error)

// Op binds a named operation to an implementation. Wants declares the kwargs
// keys the implementation reads; Dispatch rejects a call that omits any of
// them, so the requirement is part of the registered contract instead of a
// runtime surprise inside the closure.
type Op struct {
	Name  string
	Wants []string
	Fn    OpFunc
}

// OpCtx carries everything an operation implementation may consult. Recursion
// into children is the implementation's own job: call oc.Registry.Dispatch on
// the child node with oc.Stack.Push(oc.Node).
type OpCtx struct {
	Registry *Registry
	Schema   *Schema
	Node     *Node
	Stack    Stack
	Kwargs   Kwargs
}

// RegisterOp binds an operation to a schema name. Registering the same
// operation name again replaces the implementation; sharing one closure
// across schemas means registering it under each name. Bindings are part of
// the single-threaded setup phase and must complete before concurrent
// dispatch begins, though the registry may already be frozen.
func (r *Registry) RegisterOp(schemaName string, op Op) error {
	if op.Name == "" {
		return fmt.Errorf("treespec: operation name is empty")
	}
	if op.Fn == nil {
		return fmt.Errorf("treespec: operation %q has no implementation", op.Name)
	}
	if _, ok := r.schemas[schemaName]; !ok {
		iss := Path{}.Schema(schemaName).Issue(CodeSchemaNotFound, "name", schemaName)
		if alt := suggest.Closest(schemaName, r.names()); alt != "" {
			iss.Hint = fmt.Sprintf("did you mean %q?", alt)
		}
		return Issues{iss}
	}
	ops := r.ops[schemaName]
	if ops == nil {
		ops = make(map[string]Op)
		r.ops[schemaName] = ops
	}
	ops[op.Name] = op
	r.log.Debug().Str("schema", schemaName).Str("op", op.Name).Msg("operation registered")
	return nil
}

// Ops returns the operation names bound to a schema, sorted.
func (r *Registry) Ops(schemaName string) []string {
	return sortedOpNames(r.ops[schemaName])
}

// Dispatch invokes the operation bound to the node's schema. stack holds the
// node's ancestors, root first; top-level calls pass nil. The dispatcher
// resolves purely by schema-name tag and never recurses on its own.
func (r *Registry) Dispatch(ctx context.Context, operation string, node *Node, stack Stack, kwargs Kwargs) (any, error) {
	if !r.frozen {
		return nil, ErrRegistryOpen
	}
	if node == nil {
		return nil, ErrNilNode
	}
	s := node.schema
	at := dispatchPath(stack, s)
	op, ok := r.ops[s.name][operation]
	if !ok {
		iss := at.Issue(CodeUnknownOperation, "operation", operation, "schema", s.name)
		if alt := suggest.Closest(operation, sortedOpNames(r.ops[s.name])); alt != "" {
			iss.Hint = fmt.Sprintf("did you mean %q?", alt)
		}
		return nil, Issues{iss}
	}
	var missing Issues
	for _, want := range op.Wants {
		if _, ok := kwargs[want]; !ok {
			missing = append(missing, at.Issue(CodeMissingArgument, "operation", operation, "key", want))
		}
	}
	if len(missing) > 0 {
		return nil, missing
	}
	out, err := op.Fn(ctx, OpCtx{Registry: r, Schema: s, Node: node, Stack: stack, Kwargs: kwargs})
	if err != nil {
		if is, ok := AsIssues(err); ok {
			return nil, is
		}
		iss := at.Issue(CodeDispatchFailure, "operation", operation, "schema", s.name)
		iss.Cause = err
		return nil, Issues{iss}
	}
	return out, nil
}

func dispatchPath(stack Stack, s *Schema) Path {
	p := Path{}
	for _, n := range stack {
		p = p.Schema(n.SchemaName())
	}
	return p.Schema(s.name)
}

func sortedOpNames(ops map[string]Op) []string {
	if len(ops) == 0 {
		return nil
	}
	out := make([]string, 0, len(ops))
	for name := range ops {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}
