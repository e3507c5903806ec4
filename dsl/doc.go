// Package dsl provides a fluent builder for treespec schemas.
//
// Overview
//   - Builder API: declare a schema's fields in order with Schema()/Field()/Required()/Default()/MustBuild().
//   - Field types: Numeric()/Text()/Bool()/Ref(target)/ListOf(elem)/MapOf(elem); constraints chain off the type (Min/Max, MinLen/MaxLen/Enum/Pattern, Nullable).
//   - Context defaults: Generate(fn) installs a generator that reads ancestors, earlier siblings and call kwargs.
//   - Choice groups: Choice(name, members...) with an optional Discriminator key.
//   - Custom kinds: Custom(kind) with Param(key, value) for validators registered on a TypeRegistry.
//
// Entry points
//   - Schema(name): start a schema builder; chain Field steps, then Build/MustBuild/Register.
//   - Choice(name, members...): start a choice builder; Build/MustBuild/Register.
//
// Design guidelines
//   - Builders only collect declarations; every check that needs the whole
//     registry (reference targets, pattern compilation, default values)
//     happens at Registry.Freeze.
//   - Type values are immutable, so shared constraint stubs cannot leak
//     between fields.
//
// Example
//
//	node := dsl.Schema("node").
//	    Field("field_1", dsl.Numeric().Min(-1000).Max(1000)).Default(0).
//	    Field("field_2", dsl.Text()).Required().
//	    Field("field_3", dsl.Ref("node").Nullable()).Default(nil).
//	    MustBuild()
//
//	reg := treespec.NewRegistry()
//	_ = reg.Register(node)
//	if err := reg.Freeze(); err != nil { ... }
package dsl
