package treespec

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// JSONSchema projects the frozen registry onto a JSON Schema Draft 2020-12
// document rooted at name. Every schema reachable through references lands in
// $defs and choice groups become oneOf. Context generators have no static
// projection, so generated fields appear without a default. Unknown-key
// handling is a per-call policy, so the projection leaves additionalProperties
// open.
func (r *Registry) JSONSchema(name string) (*jsonschema.Schema, error) {
	if !r.frozen {
		return nil, ErrRegistryOpen
	}
	if !r.taken(name) {
		_, err := r.Lookup(name)
		return nil, err
	}
	defs := jsonschema.Definitions{}
	r.collectDefs(name, defs)
	return &jsonschema.Schema{
		Version:     jsonschema.Version,
		Ref:         "#/$defs/" + name,
		Definitions: defs,
	}, nil
}

func (r *Registry) collectDefs(name string, defs jsonschema.Definitions) {
	if _, ok := defs[name]; ok {
		return
	}
	if s, ok := r.schemas[name]; ok {
		// reserve the slot first so self-references terminate
		defs[name] = nil
		defs[name] = r.schemaDef(s, defs)
		return
	}
	if c, ok := r.choices[name]; ok {
		defs[name] = nil
		oneOf := make([]*jsonschema.Schema, 0, len(c.resolved))
		for _, m := range c.resolved {
			r.collectDefs(m.name, defs)
			oneOf = append(oneOf, &jsonschema.Schema{Ref: "#/$defs/" + m.name})
		}
		defs[name] = &jsonschema.Schema{OneOf: oneOf}
	}
}

func (r *Registry) schemaDef(s *Schema, defs jsonschema.Definitions) *jsonschema.Schema {
	props := jsonschema.NewProperties()
	var required []string
	for i := range s.fields {
		f := &s.fields[i]
		props.Set(f.Name, r.fieldDef(f, defs))
		if f.Required && !f.HasDefault && f.Generate == nil {
			required = append(required, f.Name)
		}
	}
	return &jsonschema.Schema{
		Type:        "object",
		Description: s.doc,
		Properties:  props,
		Required:    required,
	}
}

func (r *Registry) fieldDef(f *FieldSpec, defs jsonschema.Definitions) *jsonschema.Schema {
	out := r.kindDef(f, defs)
	out.Description = f.Help
	if f.HasDefault {
		out.Default = f.Default
	}
	return out
}

func (r *Registry) kindDef(f *FieldSpec, defs jsonschema.Definitions) *jsonschema.Schema {
	c := f.Constraints
	switch f.Kind {
	case KindNumeric:
		out := &jsonschema.Schema{Type: "number"}
		if c.Min != nil {
			out.Minimum = json.Number(formatFloat(*c.Min))
		}
		if c.Max != nil {
			out.Maximum = json.Number(formatFloat(*c.Max))
		}
		return out
	case KindText:
		out := &jsonschema.Schema{Type: "string"}
		if c.MinLen != nil {
			out.MinLength = uintPtr(*c.MinLen)
		}
		if c.MaxLen != nil {
			out.MaxLength = uintPtr(*c.MaxLen)
		}
		if c.Pattern != "" {
			out.Pattern = c.Pattern
		}
		if len(c.Enum) > 0 {
			enum := make([]any, len(c.Enum))
			for i, e := range c.Enum {
				enum[i] = e
			}
			out.Enum = enum
		}
		return out
	case KindBool:
		return &jsonschema.Schema{Type: "boolean"}
	case KindRef:
		r.collectDefs(c.Target, defs)
		ref := &jsonschema.Schema{Ref: "#/$defs/" + c.Target}
		alts := []*jsonschema.Schema{ref}
		if s, ok := r.schemas[c.Target]; ok && s.shortform != "" {
			if sf, ok := s.Field(s.shortform); ok {
				alts = append(alts, r.kindDef(&sf, defs))
			}
		}
		if c.Nullable {
			alts = append(alts, &jsonschema.Schema{Type: "null"})
		}
		if len(alts) == 1 {
			return ref
		}
		return &jsonschema.Schema{OneOf: alts}
	case KindList:
		out := &jsonschema.Schema{Type: "array"}
		if f.Elem != nil {
			out.Items = r.fieldDef(f.Elem, defs)
		}
		if c.MinItems != nil {
			out.MinItems = uintPtr(*c.MinItems)
		}
		if c.MaxItems != nil {
			out.MaxItems = uintPtr(*c.MaxItems)
		}
		return out
	case KindMap:
		out := &jsonschema.Schema{Type: "object"}
		if f.Elem != nil {
			out.AdditionalProperties = r.fieldDef(f.Elem, defs)
		}
		return out
	default:
		// custom kinds validate in-process only; project as unconstrained
		return &jsonschema.Schema{}
	}
}

func uintPtr(n int) *uint64 {
	u := uint64(n)
	return &u
}
