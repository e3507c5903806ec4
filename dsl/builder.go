package dsl

import (
	"fmt"

	treespec "github.com/reoring/treespec"
)

// SchemaBuilder assembles a schema declaratively. Chain Field steps and
// finish with Build, MustBuild or Register.
type SchemaBuilder struct {
	name      string
	doc       string
	shortform string
	dropKeys  []string
	fields    []treespec.FieldSpec
}

// Schema starts a builder for the named schema.
func Schema(name string) *SchemaBuilder { return &SchemaBuilder{name: name} }

// Doc attaches schema-level documentation.
func (b *SchemaBuilder) Doc(text string) *SchemaBuilder { b.doc = text; return b }

// Shortform nominates the declared field a bare scalar expands into.
func (b *SchemaBuilder) Shortform(field string) *SchemaBuilder {
	b.shortform = field
	return b
}

// DropKeys names input keys to discard silently even under strict unknown
// handling.
func (b *SchemaBuilder) DropKeys(keys ...string) *SchemaBuilder {
	b.dropKeys = append(b.dropKeys, keys...)
	return b
}

// Field appends a field declaration. Declaration order is the order
// validation and defaulting follow.
func (b *SchemaBuilder) Field(name string, t Type) *FieldStep {
	b.fields = append(b.fields, t.spec(name))
	return &FieldStep{b: b, idx: len(b.fields) - 1}
}

// Build assembles the schema.
func (b *SchemaBuilder) Build() (*treespec.Schema, error) {
	var opts []treespec.SchemaOption
	if b.doc != "" {
		opts = append(opts, treespec.WithDoc(b.doc))
	}
	if b.shortform != "" {
		opts = append(opts, treespec.WithShortform(b.shortform))
	}
	if len(b.dropKeys) > 0 {
		opts = append(opts, treespec.WithDropKeys(b.dropKeys...))
	}
	return treespec.NewSchema(b.name, b.fields, opts...)
}

// MustBuild assembles the schema and panics on a declaration error.
func (b *SchemaBuilder) MustBuild() *treespec.Schema {
	s, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("dsl: %v", err))
	}
	return s
}

// Register builds the schema and registers it in one step.
func (b *SchemaBuilder) Register(r *treespec.Registry) error {
	s, err := b.Build()
	if err != nil {
		return err
	}
	return r.Register(s)
}

// FieldStep scopes attribute setters to the field just declared.
type FieldStep struct {
	b   *SchemaBuilder
	idx int
}

// Required marks the field as required.
func (f *FieldStep) Required() *FieldStep {
	f.b.fields[f.idx].Required = true
	return f
}

// Default installs a static default. The registry checks it against the
// field declaration at freeze.
func (f *FieldStep) Default(v any) *FieldStep {
	f.b.fields[f.idx].Default = v
	f.b.fields[f.idx].HasDefault = true
	return f
}

// Generate installs a context generator consulted when the input omits the
// field.
func (f *FieldStep) Generate(fn treespec.Generator) *FieldStep {
	f.b.fields[f.idx].Generate = fn
	return f
}

// Help attaches human-readable field documentation.
func (f *FieldStep) Help(text string) *FieldStep {
	f.b.fields[f.idx].Help = text
	return f
}

func (f *FieldStep) Field(name string, t Type) *FieldStep   { return f.b.Field(name, t) }
func (f *FieldStep) Doc(text string) *SchemaBuilder         { return f.b.Doc(text) }
func (f *FieldStep) Shortform(field string) *SchemaBuilder  { return f.b.Shortform(field) }
func (f *FieldStep) DropKeys(keys ...string) *SchemaBuilder { return f.b.DropKeys(keys...) }
func (f *FieldStep) Build() (*treespec.Schema, error)       { return f.b.Build() }
func (f *FieldStep) MustBuild() *treespec.Schema            { return f.b.MustBuild() }
func (f *FieldStep) Register(r *treespec.Registry) error    { return f.b.Register(r) }

// ChoiceBuilder assembles a choice group.
type ChoiceBuilder struct {
	name          string
	members       []string
	discriminator string
}

// Choice starts a builder for a choice group over the named members. Members
// may be schemas or other choice groups; names resolve at freeze.
func Choice(name string, members ...string) *ChoiceBuilder {
	return &ChoiceBuilder{name: name, members: members}
}

// Discriminator overrides the member-selecting key (default "type").
func (b *ChoiceBuilder) Discriminator(key string) *ChoiceBuilder {
	b.discriminator = key
	return b
}

// Build assembles the choice group.
func (b *ChoiceBuilder) Build() (*treespec.Choice, error) {
	var opts []treespec.ChoiceOption
	if b.discriminator != "" {
		opts = append(opts, treespec.WithDiscriminator(b.discriminator))
	}
	return treespec.NewChoice(b.name, b.members, opts...)
}

// MustBuild assembles the choice group and panics on a declaration error.
func (b *ChoiceBuilder) MustBuild() *treespec.Choice {
	c, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("dsl: %v", err))
	}
	return c
}

// Register builds the choice group and registers it in one step.
func (b *ChoiceBuilder) Register(r *treespec.Registry) error {
	c, err := b.Build()
	if err != nil {
		return err
	}
	return r.RegisterChoice(c)
}
