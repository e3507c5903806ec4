package treespec_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"testing"

	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	treespec "github.com/reoring/treespec"
	g "github.com/reoring/treespec/dsl"
)

// ---- Helpers ----

func benchRegistry(tb testing.TB) *treespec.Registry {
	tb.Helper()
	reg := treespec.NewRegistry()
	node := g.Schema("node").
		Field("field_1", g.Numeric().Min(-1000).Max(1000)).Default(0).
		Field("field_2", g.Text()).Required().
		Field("field_3", g.Ref("node").Nullable()).Default(nil).
		MustBuild()
	box := g.Schema("box").
		Field("name", g.Text()).Required().
		Field("items", g.ListOf(g.Ref("node"))).
		MustBuild()
	for _, s := range []*treespec.Schema{node, box} {
		if err := reg.Register(s); err != nil {
			tb.Fatalf("register: %v", err)
		}
	}
	if err := reg.Freeze(); err != nil {
		tb.Fatalf("freeze: %v", err)
	}
	return reg
}

// chainRegistry declares a self-referential item whose depth is computed
// from the parent during validation.
func chainRegistry(tb testing.TB) *treespec.Registry {
	tb.Helper()
	reg := treespec.NewRegistry()
	depthGen := func(ctx context.Context, gc treespec.GenCtx) (any, error) {
		parent := gc.Parent()
		if parent == nil {
			return 1, nil
		}
		d, _ := parent.Get("depth")
		return d.(float64) + 1, nil
	}
	item := g.Schema("item").
		Field("name", g.Text()).Required().
		Field("depth", g.Numeric()).Generate(depthGen).
		Field("child", g.Ref("item").Nullable()).Default(nil).
		MustBuild()
	if err := reg.Register(item); err != nil {
		tb.Fatalf("register: %v", err)
	}
	if err := reg.Freeze(); err != nil {
		tb.Fatalf("freeze: %v", err)
	}
	return reg
}

func smallNodeJSON() []byte {
	return []byte(`{"field_1":5,"field_2":"alice","field_3":null}`)
}

// generateChain nests node documents depth levels deep through field_3.
func generateChain(depth int) map[string]any {
	doc := map[string]any{"field_2": "leaf"}
	for i := 1; i < depth; i++ {
		doc = map[string]any{"field_2": "n" + strconv.Itoa(i), "field_3": doc}
	}
	return doc
}

// generateNamedChain is the same shape for the item schema, leaving depth to
// the generator.
func generateNamedChain(depth int) map[string]any {
	doc := map[string]any{"name": "leaf"}
	for i := 1; i < depth; i++ {
		doc = map[string]any{"name": "n" + strconv.Itoa(i), "child": doc}
	}
	return doc
}

// generateBoxJSON returns a box document with numItems complete leaf nodes:
// {"name":"bench","items":[{"field_1":0,"field_2":"n0","field_3":null},...]}
func generateBoxJSON(numItems int) []byte {
	var buf bytes.Buffer
	buf.Grow(numItems * 48)
	buf.WriteString(`{"name":"bench","items":[`)
	for i := 0; i < numItems; i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, `{"field_1":%d,"field_2":"n%d","field_3":null}`, i%1000, i)
	}
	buf.WriteString("]}")
	return buf.Bytes()
}

// ---- Micro benchmarks (small inputs) ----

func Benchmark_Validate_Node_Small(b *testing.B) {
	ctx := context.Background()
	reg := benchRegistry(b)
	doc := map[string]any{"field_1": 5, "field_2": "alice", "field_3": nil}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := reg.Validate(ctx, "node", doc); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_Validate_Node_Small_Strict(b *testing.B) {
	ctx := context.Background()
	reg := benchRegistry(b)
	doc := map[string]any{"field_1": 5, "field_2": "alice", "field_3": nil}
	opt := treespec.ValidateOpt{Unknown: treespec.UnknownStrict}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := reg.Validate(ctx, "node", doc, opt); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_ValidateJSON_Node_Small(b *testing.B) {
	ctx := context.Background()
	reg := benchRegistry(b)
	data := smallNodeJSON()
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := reg.ValidateJSON(ctx, "node", data); err != nil {
			b.Fatal(err)
		}
	}
}

// ---- Macro benchmarks (deep and wide trees) ----

// 10k list items and a 256-level ref chain, both well under the default
// depth cap.
const (
	boxItems   = 10000
	chainDepth = 256
)

func Benchmark_Validate_Node_DeepChain(b *testing.B) {
	ctx := context.Background()
	reg := benchRegistry(b)
	doc := generateChain(chainDepth)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := reg.Validate(ctx, "node", doc); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_Validate_GeneratorChain(b *testing.B) {
	ctx := context.Background()
	reg := chainRegistry(b)
	doc := generateNamedChain(chainDepth)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := reg.Validate(ctx, "item", doc); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_Validate_Box_WideList(b *testing.B) {
	ctx := context.Background()
	reg := benchRegistry(b)
	data := generateBoxJSON(boxItems)
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := reg.Validate(ctx, "box", doc); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_ValidateJSON_Box_WideList(b *testing.B) {
	ctx := context.Background()
	reg := benchRegistry(b)
	data := generateBoxJSON(boxItems)
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := reg.ValidateJSON(ctx, "box", data); err != nil {
			b.Fatal(err)
		}
	}
}

// ---- Dispatch ----

func Benchmark_Dispatch_DepthChain(b *testing.B) {
	ctx := context.Background()
	reg := benchRegistry(b)
	depth := treespec.Op{Name: "depth", Fn: func(ctx context.Context, oc treespec.OpCtx) (any, error) {
		child, _ := oc.Node.Get("field_3")
		if child == nil {
			return 1, nil
		}
		sub, err := oc.Registry.Dispatch(ctx, "depth", child.(*treespec.Node), oc.Stack.Push(oc.Node), oc.Kwargs)
		if err != nil {
			return nil, err
		}
		return 1 + sub.(int), nil
	}}
	if err := reg.RegisterOp("node", depth); err != nil {
		b.Fatalf("register op: %v", err)
	}
	node, err := reg.Validate(ctx, "node", generateChain(chainDepth))
	if err != nil {
		b.Fatal(err)
	}
	got, err := reg.Dispatch(ctx, "depth", node, nil, nil)
	if err != nil {
		b.Fatal(err)
	}
	if got != chainDepth {
		b.Fatalf("depth: want %d, got %v", chainDepth, got)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := reg.Dispatch(ctx, "depth", node, nil, nil); err != nil {
			b.Fatal(err)
		}
	}
}

// ---- Baseline: encoding/json ----

func Benchmark_encodingJSON_Unmarshal_Node_Small(b *testing.B) {
	data := smallNodeJSON()
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var v map[string]any
		if err := json.Unmarshal(data, &v); err != nil {
			b.Fatal(err)
		}
	}
}

func Benchmark_encodingJSON_Unmarshal_Box_WideList(b *testing.B) {
	data := generateBoxJSON(boxItems)
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var v map[string]any
		if err := json.Unmarshal(data, &v); err != nil {
			b.Fatal(err)
		}
	}
}

// ---- Comparison: compiled JSON Schema ----

// The projected schema feeds a compiled JSON Schema validator over the same
// decoded document, as a reference point for the tree walk above.
func Benchmark_CompiledJSONSchema_Box_WideList(b *testing.B) {
	reg := benchRegistry(b)
	projected, err := reg.JSONSchema("box")
	if err != nil {
		b.Fatalf("project: %v", err)
	}
	raw, err := json.Marshal(projected)
	if err != nil {
		b.Fatalf("marshal: %v", err)
	}
	var schemaDoc any
	if err := json.Unmarshal(raw, &schemaDoc); err != nil {
		b.Fatalf("round trip: %v", err)
	}
	c := sjsonschema.NewCompiler()
	if err := c.AddResource("box.json", schemaDoc); err != nil {
		b.Fatalf("add resource: %v", err)
	}
	sch, err := c.Compile("box.json")
	if err != nil {
		b.Fatalf("compile: %v", err)
	}
	data := generateBoxJSON(boxItems)
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := sch.Validate(doc); err != nil {
			b.Fatal(err)
		}
	}
}
