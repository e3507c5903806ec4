package treespec

import (
	"fmt"
	"regexp"

	"github.com/rs/zerolog"

	"github.com/reoring/treespec/internal/suggest"
)

// Registry holds schemas, choice groups and operation bindings for one schema
// family. It has two phases: open, where Register and RegisterChoice are
// allowed, and frozen, where cross-references have been resolved and
// validation and dispatch become available.
//
// A Registry is not safe for concurrent mutation. Once Freeze has succeeded
// it is safe for concurrent use.
type Registry struct {
	types   *TypeRegistry
	schemas map[string]*Schema
	choices map[string]*Choice
	order   []string
	ops     map[string]map[string]Op
	frozen  bool
	log     zerolog.Logger
}

// RegistryOption configures a Registry at construction time.
type RegistryOption func(*Registry)

// WithLogger routes registry lifecycle events to the given logger. The
// default logger discards everything.
func WithLogger(log zerolog.Logger) RegistryOption {
	return func(r *Registry) { r.log = log }
}

// WithTypes substitutes the field type registry consulted during freeze and
// validation. The default carries the built-in kinds.
func WithTypes(t *TypeRegistry) RegistryOption {
	return func(r *Registry) {
		if t != nil {
			r.types = t
		}
	}
}

// NewRegistry returns an empty, open registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		types:   NewTypeRegistry(),
		schemas: make(map[string]*Schema),
		choices: make(map[string]*Choice),
		ops:     make(map[string]map[string]Op),
		log:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Types returns the field type registry used by this registry.
func (r *Registry) Types() *TypeRegistry { return r.types }

// Frozen reports whether Freeze has completed successfully.
func (r *Registry) Frozen() bool { return r.frozen }

// Register adds a schema under its name. Names are unique across schemas and
// choice groups; a collision fails with a duplicate_schema issue and leaves
// the registry unchanged.
func (r *Registry) Register(s *Schema) error {
	if r.frozen {
		return ErrRegistryFrozen
	}
	if s == nil {
		return fmt.Errorf("treespec: nil schema")
	}
	if r.taken(s.name) {
		return Issues{Path{}.Schema(s.name).Issue(CodeDuplicateSchema, "name", s.name)}
	}
	r.schemas[s.name] = s
	r.order = append(r.order, s.name)
	r.log.Debug().Str("schema", s.name).Int("fields", len(s.fields)).Msg("schema registered")
	return nil
}

// RegisterChoice adds a choice group under its name. The same uniqueness rule
// as Register applies.
func (r *Registry) RegisterChoice(c *Choice) error {
	if r.frozen {
		return ErrRegistryFrozen
	}
	if c == nil {
		return fmt.Errorf("treespec: nil choice")
	}
	if r.taken(c.name) {
		return Issues{Path{}.Schema(c.name).Issue(CodeDuplicateSchema, "name", c.name)}
	}
	r.choices[c.name] = c
	r.order = append(r.order, c.name)
	r.log.Debug().Str("choice", c.name).Int("members", len(c.members)).Msg("choice registered")
	return nil
}

func (r *Registry) taken(name string) bool {
	if _, ok := r.schemas[name]; ok {
		return true
	}
	_, ok := r.choices[name]
	return ok
}

// Freeze resolves every cross-schema reference, checks field kinds, compiles
// text patterns and verifies static defaults. On success the registry flips
// to frozen and stays immutable. On failure it returns all problems as one
// Issues value, in registration order, and remains open so callers can fix
// the definitions and try again. Freezing a frozen registry is an error.
func (r *Registry) Freeze() error {
	if r.frozen {
		return ErrRegistryFrozen
	}
	var issues Issues
	for _, name := range r.order {
		if s, ok := r.schemas[name]; ok {
			issues = append(issues, r.freezeSchema(s)...)
			continue
		}
		issues = append(issues, r.freezeChoice(r.choices[name])...)
	}
	if len(issues) > 0 {
		r.log.Debug().Int("issues", len(issues)).Msg("freeze failed")
		return issues
	}
	r.frozen = true
	r.log.Debug().Int("schemas", len(r.schemas)).Int("choices", len(r.choices)).Msg("registry frozen")
	return nil
}

func (r *Registry) freezeSchema(s *Schema) Issues {
	var issues Issues
	for i := range s.fields {
		f := &s.fields[i]
		issues = append(issues, r.freezeSpec(Path{}.Field(s.name, f.Name), f)...)
	}
	return issues
}

func (r *Registry) freezeSpec(path Path, f *FieldSpec) Issues {
	var issues Issues
	if !r.types.Has(f.Kind) {
		iss := path.Issue(CodeUnknownKind, "kind", string(f.Kind))
		if alt := suggest.Closest(string(f.Kind), kindNames(r.types.Kinds())); alt != "" {
			iss.Hint = fmt.Sprintf("did you mean %q?", alt)
		}
		issues = append(issues, iss)
	}
	if f.Kind == KindRef {
		target := f.Constraints.Target
		if !r.taken(target) {
			iss := path.Issue(CodeUnresolvedReference, "target", target)
			if alt := suggest.Closest(target, r.names()); alt != "" {
				iss.Hint = fmt.Sprintf("did you mean %q?", alt)
			}
			issues = append(issues, iss)
		}
	}
	if f.Constraints.Pattern != "" && f.Constraints.compiled == nil {
		re, err := regexp.Compile(f.Constraints.Pattern)
		if err != nil {
			iss := path.Issue(CodeInvalidPattern, "pattern", f.Constraints.Pattern)
			iss.Cause = err
			issues = append(issues, iss)
		} else {
			f.Constraints.compiled = re
		}
	}
	if f.HasDefault && f.Generate != nil {
		issues = append(issues, path.Issue(CodeInvalidDefault, "reason", "field declares both a default and a generator"))
	}
	if f.HasDefault {
		issues = append(issues, r.freezeDefault(path, f)...)
	}
	if f.Elem != nil {
		issues = append(issues, r.freezeSpec(path, f.Elem)...)
	}
	return issues
}

// freezeDefault checks a static default against its own field declaration so
// that validation never has to re-check it.
func (r *Registry) freezeDefault(path Path, f *FieldSpec) Issues {
	if f.Kind == KindRef {
		if f.Default != nil {
			return Issues{path.Issue(CodeInvalidDefault, "reason", "reference fields only take null as a default")}
		}
		if !f.Constraints.Nullable {
			return Issues{path.Issue(CodeInvalidDefault, "reason", "null default on a non-nullable reference")}
		}
		return nil
	}
	norm, kiss := r.types.Validate(f.Kind, f.Constraints, f.Default)
	if kiss != nil {
		iss := path.Issue(CodeInvalidDefault, "reason", kiss.Message)
		iss.Hint = kiss.Hint
		iss.Cause = kiss.Cause
		return Issues{iss}
	}
	f.Default = norm
	return nil
}

// freezeChoice resolves every member name to its schemas, following nested
// choice groups and rejecting unknown names and membership cycles.
func (r *Registry) freezeChoice(c *Choice) Issues {
	var issues Issues
	seen := map[string]bool{c.name: true}
	var resolved []*Schema
	var walk func(path Path, members []string)
	walk = func(path Path, members []string) {
		for _, m := range members {
			if s, ok := r.schemas[m]; ok {
				resolved = append(resolved, s)
				continue
			}
			if nested, ok := r.choices[m]; ok {
				if seen[m] {
					issues = append(issues, path.Issue(CodeUnresolvedReference, "target", m, "reason", "choice membership cycle"))
					continue
				}
				seen[m] = true
				walk(path, nested.members)
				continue
			}
			iss := path.Issue(CodeUnresolvedReference, "target", m)
			if alt := suggest.Closest(m, r.names()); alt != "" {
				iss.Hint = fmt.Sprintf("did you mean %q?", alt)
			}
			issues = append(issues, iss)
		}
	}
	walk(Path{}.Schema(c.name), c.members)
	if len(issues) > 0 {
		return issues
	}
	c.resolved = dedupSchemas(resolved)
	return nil
}

func dedupSchemas(in []*Schema) []*Schema {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if seen[s.name] {
			continue
		}
		seen[s.name] = true
		out = append(out, s)
	}
	return out
}

// Lookup returns the schema registered under name. A miss fails with a
// schema_not_found issue carrying a nearest-name hint when one is close.
func (r *Registry) Lookup(name string) (*Schema, error) {
	if s, ok := r.schemas[name]; ok {
		return s, nil
	}
	iss := Path{}.Schema(name).Issue(CodeSchemaNotFound, "name", name)
	if alt := suggest.Closest(name, r.names()); alt != "" {
		iss.Hint = fmt.Sprintf("did you mean %q?", alt)
	}
	return nil, Issues{iss}
}

// LookupChoice returns the choice group registered under name.
func (r *Registry) LookupChoice(name string) (*Choice, error) {
	if c, ok := r.choices[name]; ok {
		return c, nil
	}
	iss := Path{}.Schema(name).Issue(CodeSchemaNotFound, "name", name)
	if alt := suggest.Closest(name, r.names()); alt != "" {
		iss.Hint = fmt.Sprintf("did you mean %q?", alt)
	}
	return nil, Issues{iss}
}

// Schemas returns the registered schema names in registration order.
func (r *Registry) Schemas() []string {
	var out []string
	for _, name := range r.order {
		if _, ok := r.schemas[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

// Choices returns the registered choice group names in registration order.
func (r *Registry) Choices() []string {
	var out []string
	for _, name := range r.order {
		if _, ok := r.choices[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

func (r *Registry) names() []string { return r.order }

func kindNames(ks []Kind) []string {
	out := make([]string, len(ks))
	for i, k := range ks {
		out[i] = string(k)
	}
	return out
}
