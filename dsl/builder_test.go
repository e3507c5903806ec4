package dsl_test

import (
	"context"
	"strings"
	"testing"

	treespec "github.com/reoring/treespec"
	g "github.com/reoring/treespec/dsl"
)

func TestBuilder_FullSchema(t *testing.T) {
	ctx := context.Background()
	reg := treespec.NewRegistry()

	err := g.Schema("node").
		Doc("one node of a linked structure").
		Field("field_1", g.Numeric().Min(-1000).Max(1000)).Default(0).Help("weight").
		Field("field_2", g.Text()).Required().
		Field("field_3", g.Ref("node").Nullable()).Default(nil).
		Register(reg)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Freeze(); err != nil {
		t.Fatalf("freeze: %v", err)
	}

	s, err := reg.Lookup("node")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if s.Doc() != "one node of a linked structure" {
		t.Fatalf("doc lost: %q", s.Doc())
	}
	f, ok := s.Field("field_1")
	if !ok || f.Help != "weight" {
		t.Fatalf("help lost: %+v", f)
	}
	if !f.HasDefault {
		t.Fatalf("default lost")
	}

	node, err := reg.Validate(ctx, "node", map[string]any{"field_2": "x"})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if v, _ := node.Get("field_1"); v != float64(0) {
		t.Fatalf("default not applied: %v", v)
	}
}

func TestBuilder_BuildErrors(t *testing.T) {
	if _, err := g.Schema("").Field("v", g.Numeric()).Build(); err == nil {
		t.Fatalf("empty schema name must fail")
	}
	if _, err := g.Schema("s").Field("v", g.Numeric()).Field("v", g.Text()).Build(); err == nil {
		t.Fatalf("duplicate field must fail")
	}
	if _, err := g.Schema("s").Shortform("nope").Field("v", g.Numeric()).Build(); err == nil {
		t.Fatalf("shortform naming an undeclared field must fail")
	}
}

func TestBuilder_MustBuildPanics(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("MustBuild must panic on a declaration error")
		}
		if !strings.Contains(r.(string), "duplicate field") {
			t.Fatalf("panic must carry the declaration error, got %v", r)
		}
	}()
	g.Schema("s").Field("v", g.Numeric()).Field("v", g.Text()).MustBuild()
}

// Type values are immutable: deriving two constrained variants from one base
// must not let them leak into each other.
func TestType_Immutability(t *testing.T) {
	base := g.Numeric().Min(0)
	small := base.Max(10)
	large := base.Max(1000)

	reg := treespec.NewRegistry()
	err := g.Schema("pair").
		Field("small", small).Required().
		Field("large", large).Required().
		Register(reg)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Freeze(); err != nil {
		t.Fatalf("freeze: %v", err)
	}

	ctx := context.Background()
	if _, err := reg.Validate(ctx, "pair", map[string]any{"small": 5, "large": 500}); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if _, err := reg.Validate(ctx, "pair", map[string]any{"small": 500, "large": 500}); err == nil {
		t.Fatalf("small must keep its own Max")
	}
}

func TestChoiceBuilder(t *testing.T) {
	reg := treespec.NewRegistry()
	if err := g.Schema("a").Field("v", g.Numeric()).Required().Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := g.Schema("b").Field("w", g.Text()).Required().Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := g.Choice("pick", "a", "b").Discriminator("kind").Register(reg); err != nil {
		t.Fatalf("register choice: %v", err)
	}
	if err := reg.Freeze(); err != nil {
		t.Fatalf("freeze: %v", err)
	}

	c, err := reg.LookupChoice("pick")
	if err != nil {
		t.Fatalf("lookup choice: %v", err)
	}
	if c.Discriminator() != "kind" {
		t.Fatalf("discriminator lost: %q", c.Discriminator())
	}

	ctx := context.Background()
	node, err := reg.Validate(ctx, "pick", map[string]any{"kind": "b", "w": "hello"})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if node.SchemaName() != "b" {
		t.Fatalf("want b, got %s", node.SchemaName())
	}
}

func TestChoiceBuilder_Errors(t *testing.T) {
	if _, err := g.Choice("pick").Build(); err == nil {
		t.Fatalf("a choice needs members")
	}
	if _, err := g.Choice("pick", "a", "a").Build(); err == nil {
		t.Fatalf("duplicate members must fail")
	}
}

// Nested containers compose: a list of maps of numerics round-trips through
// the builder into element specs.
func TestType_NestedContainers(t *testing.T) {
	ctx := context.Background()
	reg := treespec.NewRegistry()
	err := g.Schema("matrix").
		Field("rows", g.ListOf(g.MapOf(g.Numeric())).MinItems(1)).Required().
		Register(reg)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Freeze(); err != nil {
		t.Fatalf("freeze: %v", err)
	}

	_, err = reg.Validate(ctx, "matrix", map[string]any{
		"rows": []any{map[string]any{"x": 1}},
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	_, err = reg.Validate(ctx, "matrix", map[string]any{
		"rows": []any{map[string]any{"x": "not a number"}},
	})
	if err == nil {
		t.Fatalf("inner element violations must surface")
	}
}
