package treespec_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	treespec "github.com/reoring/treespec"
	g "github.com/reoring/treespec/dsl"
)

// newListRegistry builds a linked-list style registry with a "depth" op: 1
// when next is null, otherwise 1 plus the depth of the child.
func newListRegistry(t *testing.T) *treespec.Registry {
	t.Helper()
	reg := treespec.NewRegistry()
	node := g.Schema("node").
		Field("value", g.Numeric()).Default(0).
		Field("next", g.Ref("node").Nullable()).Default(nil).
		MustBuild()
	if err := reg.Register(node); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Freeze(); err != nil {
		t.Fatalf("freeze: %v", err)
	}

	depth := treespec.Op{Name: "depth", Fn: func(ctx context.Context, oc treespec.OpCtx) (any, error) {
		next, _ := oc.Node.Get("next")
		if next == nil {
			return 1, nil
		}
		sub, err := oc.Registry.Dispatch(ctx, "depth", next.(*treespec.Node), oc.Stack.Push(oc.Node), oc.Kwargs)
		if err != nil {
			return nil, err
		}
		return 1 + sub.(int), nil
	}}
	if err := reg.RegisterOp("node", depth); err != nil {
		t.Fatalf("register op: %v", err)
	}
	return reg
}

func TestDispatch_SelfReferenceDepth(t *testing.T) {
	ctx := context.Background()
	reg := newListRegistry(t)

	node, err := reg.Validate(ctx, "node", map[string]any{
		"next": map[string]any{"next": map[string]any{"next": nil}},
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	got, err := reg.Dispatch(ctx, "depth", node, nil, nil)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if got != 3 {
		t.Fatalf("depth: want 3, got %v", got)
	}

	one, err := reg.Validate(ctx, "node", map[string]any{"next": nil})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	got, err = reg.Dispatch(ctx, "depth", one, nil, nil)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if got != 1 {
		t.Fatalf("depth: want 1, got %v", got)
	}
}

func TestDispatch_UnknownOperation(t *testing.T) {
	ctx := context.Background()
	reg := newListRegistry(t)

	node, err := reg.Validate(ctx, "node", map[string]any{"next": nil})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	_, err = reg.Dispatch(ctx, "depht", node, nil, nil)
	is := issuesOf(t, err)
	if len(is) != 1 || is[0].Code != treespec.CodeUnknownOperation {
		t.Fatalf("expected unknown_operation, got %v", is)
	}
	if !strings.Contains(is[0].Hint, "depth") {
		t.Fatalf("expected a did-you-mean hint, got %q", is[0].Hint)
	}
	if is[0].Path != "/node" {
		t.Fatalf("expected path /node, got %s", is[0].Path)
	}
}

func TestDispatch_WantsContract(t *testing.T) {
	ctx := context.Background()
	reg := newListRegistry(t)

	scale := treespec.Op{
		Name:  "scale",
		Wants: []string{"factor", "unit"},
		Fn: func(ctx context.Context, oc treespec.OpCtx) (any, error) {
			f, _ := oc.Kwargs.Float("factor")
			v, _ := oc.Node.Get("value")
			return v.(float64) * f, nil
		},
	}
	if err := reg.RegisterOp("node", scale); err != nil {
		t.Fatalf("register op: %v", err)
	}

	node, err := reg.Validate(ctx, "node", map[string]any{"value": 3, "next": nil})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}

	_, err = reg.Dispatch(ctx, "scale", node, nil, treespec.Kwargs{"factor": 2})
	is := issuesOf(t, err)
	if len(is) != 1 || is[0].Code != treespec.CodeMissingArgument {
		t.Fatalf("expected one missing_argument, got %v", is)
	}
	if is[0].Params["key"] != "unit" {
		t.Fatalf("expected the missing key named, got %v", is[0].Params)
	}

	_, err = reg.Dispatch(ctx, "scale", node, nil, nil)
	if is := issuesOf(t, err); len(is) != 2 {
		t.Fatalf("expected both missing kwargs reported, got %v", is)
	}

	got, err := reg.Dispatch(ctx, "scale", node, nil, treespec.Kwargs{"factor": 2, "unit": "x"})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if got != float64(6) {
		t.Fatalf("scale: want 6, got %v", got)
	}
}

func TestDispatch_ErrorPropagation(t *testing.T) {
	ctx := context.Background()
	reg := newListRegistry(t)
	plain := errors.New("backend unavailable")
	structured := treespec.Issues{{Path: "/node", Code: "custom_code", Message: "custom"}}

	ops := []treespec.Op{
		{Name: "fail_plain", Fn: func(ctx context.Context, oc treespec.OpCtx) (any, error) {
			return nil, plain
		}},
		{Name: "fail_issues", Fn: func(ctx context.Context, oc treespec.OpCtx) (any, error) {
			return nil, structured
		}},
	}
	for _, op := range ops {
		if err := reg.RegisterOp("node", op); err != nil {
			t.Fatalf("register op: %v", err)
		}
	}
	node, err := reg.Validate(ctx, "node", map[string]any{"next": nil})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}

	_, err = reg.Dispatch(ctx, "fail_plain", node, nil, nil)
	is := issuesOf(t, err)
	if len(is) != 1 || is[0].Code != treespec.CodeDispatchFailure {
		t.Fatalf("expected dispatch_failure, got %v", is)
	}
	if !errors.Is(err, plain) {
		t.Fatalf("cause must stay reachable, got %v", err)
	}

	_, err = reg.Dispatch(ctx, "fail_issues", node, nil, nil)
	is = issuesOf(t, err)
	if len(is) != 1 || is[0].Code != "custom_code" {
		t.Fatalf("structured errors must pass through unchanged, got %v", is)
	}
}

func TestDispatch_EntryErrors(t *testing.T) {
	ctx := context.Background()

	open := treespec.NewRegistry()
	if _, err := open.Dispatch(ctx, "depth", nil, nil, nil); !errors.Is(err, treespec.ErrRegistryOpen) {
		t.Fatalf("expected ErrRegistryOpen, got %v", err)
	}

	reg := newListRegistry(t)
	if _, err := reg.Dispatch(ctx, "depth", nil, nil, nil); !errors.Is(err, treespec.ErrNilNode) {
		t.Fatalf("expected ErrNilNode, got %v", err)
	}
}

func TestRegisterOp_Validation(t *testing.T) {
	reg := newListRegistry(t)
	noop := func(ctx context.Context, oc treespec.OpCtx) (any, error) { return nil, nil }

	if err := reg.RegisterOp("node", treespec.Op{Name: "", Fn: noop}); err == nil {
		t.Fatalf("expected an error for an empty operation name")
	}
	if err := reg.RegisterOp("node", treespec.Op{Name: "x"}); err == nil {
		t.Fatalf("expected an error for a nil implementation")
	}

	err := reg.RegisterOp("nodes", treespec.Op{Name: "depth", Fn: noop})
	is := issuesOf(t, err)
	if !hasCode(is, treespec.CodeSchemaNotFound) {
		t.Fatalf("expected schema_not_found, got %v", is)
	}
	if !strings.Contains(is[0].Hint, "node") {
		t.Fatalf("expected a did-you-mean hint, got %q", is[0].Hint)
	}
}

// Re-registering an operation name replaces the implementation; that is the
// override mechanism for shared closures.
func TestRegisterOp_Override(t *testing.T) {
	ctx := context.Background()
	reg := newListRegistry(t)

	override := treespec.Op{Name: "depth", Fn: func(ctx context.Context, oc treespec.OpCtx) (any, error) {
		return -1, nil
	}}
	if err := reg.RegisterOp("node", override); err != nil {
		t.Fatalf("re-register: %v", err)
	}

	node, err := reg.Validate(ctx, "node", map[string]any{"next": nil})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	got, err := reg.Dispatch(ctx, "depth", node, nil, nil)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if got != -1 {
		t.Fatalf("override must win, got %v", got)
	}
	if ops := reg.Ops("node"); len(ops) != 1 || ops[0] != "depth" {
		t.Fatalf("override must not duplicate the binding, got %v", ops)
	}
}

// The stack threaded through nested dispatch calls shows up in error paths,
// so a failure deep in a tree names the chain that led there.
func TestDispatch_StackInErrorPath(t *testing.T) {
	ctx := context.Background()
	reg := newListRegistry(t)

	fail := treespec.Op{Name: "boom", Fn: func(ctx context.Context, oc treespec.OpCtx) (any, error) {
		next, _ := oc.Node.Get("next")
		if next == nil {
			return nil, errors.New("bottom reached")
		}
		return oc.Registry.Dispatch(ctx, "boom", next.(*treespec.Node), oc.Stack.Push(oc.Node), oc.Kwargs)
	}}
	if err := reg.RegisterOp("node", fail); err != nil {
		t.Fatalf("register op: %v", err)
	}

	node, err := reg.Validate(ctx, "node", map[string]any{
		"next": map[string]any{"next": nil},
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	_, err = reg.Dispatch(ctx, "boom", node, nil, nil)
	is := issuesOf(t, err)
	if is[0].Path != "/node/node" {
		t.Fatalf("expected the ancestor chain in the path, got %s", is[0].Path)
	}
}
