package treespec

import (
	"fmt"
	"slices"
)

// Schema is a named, ordered set of field specifications describing one node
// type. Schemas are built once, registered, and never mutated after the
// registry freezes.
type Schema struct {
	name      string
	fields    []FieldSpec
	index     map[string]int
	doc       string
	shortform string
	dropKeys  map[string]struct{}
}

// SchemaOption configures optional schema metadata.
type SchemaOption func(*Schema)

// WithDoc attaches documentation metadata read by documentation consumers.
func WithDoc(text string) SchemaOption {
	return func(s *Schema) { s.doc = text }
}

// WithShortform names the field a bare primitive expands into when this
// schema is the target of a recursive reference.
func WithShortform(field string) SchemaOption {
	return func(s *Schema) { s.shortform = field }
}

// WithDropKeys lists input keys silently removed before unknown-key checking,
// even in strict mode. Useful for annotation keys like "comment".
func WithDropKeys(keys ...string) SchemaOption {
	return func(s *Schema) {
		if s.dropKeys == nil {
			s.dropKeys = make(map[string]struct{}, len(keys))
		}
		for _, k := range keys {
			s.dropKeys[k] = struct{}{}
		}
	}
}

// NewSchema builds a schema from ordered field specifications. Declaration
// order is preserved; it drives validation order, generator evaluation, and
// serialization.
func NewSchema(name string, fields []FieldSpec, opts ...SchemaOption) (*Schema, error) {
	if name == "" {
		return nil, fmt.Errorf("treespec: schema name must not be empty")
	}
	s := &Schema{
		name:   name,
		fields: slices.Clone(fields),
		index:  make(map[string]int, len(fields)),
	}
	for i, f := range s.fields {
		if f.Name == "" {
			return nil, fmt.Errorf("treespec: schema %q: field %d has no name", name, i)
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, fmt.Errorf("treespec: schema %q: duplicate field %q", name, f.Name)
		}
		if f.Kind == "" {
			return nil, fmt.Errorf("treespec: schema %q: field %q has no kind", name, f.Name)
		}
		s.index[f.Name] = i
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.shortform != "" {
		if _, ok := s.index[s.shortform]; !ok {
			return nil, fmt.Errorf("treespec: schema %q: shortform field %q is not declared", name, s.shortform)
		}
	}
	return s, nil
}

// Name returns the unique schema name.
func (s *Schema) Name() string { return s.name }

// Doc returns the documentation metadata.
func (s *Schema) Doc() string { return s.doc }

// Shortform returns the shortform field name, or "".
func (s *Schema) Shortform() string { return s.shortform }

// Fields returns the declared fields in declaration order. The slice is a
// copy; schemas stay immutable.
func (s *Schema) Fields() []FieldSpec { return slices.Clone(s.fields) }

// Field looks up one field specification by name.
func (s *Schema) Field(name string) (FieldSpec, bool) {
	i, ok := s.index[name]
	if !ok {
		return FieldSpec{}, false
	}
	return s.fields[i], true
}

// FieldNames returns the declared field names in declaration order.
func (s *Schema) FieldNames() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Name
	}
	return out
}

// DropKeys returns the quiet-drop key set in sorted order.
func (s *Schema) DropKeys() []string {
	out := make([]string, 0, len(s.dropKeys))
	for k := range s.dropKeys {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func (s *Schema) dropsKey(k string) bool {
	_, ok := s.dropKeys[k]
	return ok
}

// Choice is a named group of schemas a recursive reference may target. The
// input selects the member via the discriminator key, or by inference when
// the key is absent and exactly one member accepts the value.
type Choice struct {
	name          string
	members       []string
	discriminator string
	resolved      []*Schema // member schemas after Freeze, nested groups flattened
}

// ChoiceOption configures optional choice metadata.
type ChoiceOption func(*Choice)

// WithDiscriminator overrides the discriminator key (default "type").
func WithDiscriminator(key string) ChoiceOption {
	return func(c *Choice) { c.discriminator = key }
}

// NewChoice builds a choice group over the named member schemas. Member names
// resolve at freeze time, so forward references are fine.
func NewChoice(name string, members []string, opts ...ChoiceOption) (*Choice, error) {
	if name == "" {
		return nil, fmt.Errorf("treespec: choice name must not be empty")
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("treespec: choice %q has no members", name)
	}
	seen := make(map[string]struct{}, len(members))
	for _, m := range members {
		if m == "" {
			return nil, fmt.Errorf("treespec: choice %q: empty member name", name)
		}
		if _, dup := seen[m]; dup {
			return nil, fmt.Errorf("treespec: choice %q: duplicate member %q", name, m)
		}
		seen[m] = struct{}{}
	}
	c := &Choice{name: name, members: slices.Clone(members), discriminator: "type"}
	for _, opt := range opts {
		opt(c)
	}
	if c.discriminator == "" {
		c.discriminator = "type"
	}
	return c, nil
}

// Name returns the unique choice name.
func (c *Choice) Name() string { return c.name }

// Members returns the member schema names in declaration order.
func (c *Choice) Members() []string { return slices.Clone(c.members) }

// Discriminator returns the key that selects a member.
func (c *Choice) Discriminator() string { return c.discriminator }

// memberNames lists the resolved member schemas, nested groups flattened.
// Only meaningful after the owning registry froze.
func (c *Choice) memberNames() []string {
	out := make([]string, len(c.resolved))
	for i, s := range c.resolved {
		out[i] = s.name
	}
	return out
}
