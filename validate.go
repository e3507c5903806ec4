package treespec

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"github.com/reoring/treespec/internal/decode"
	"github.com/reoring/treespec/internal/suggest"
)

// DefaultMaxDepth bounds node nesting when ValidateOpt.MaxDepth is zero.
const DefaultMaxDepth = 1000

// Validate checks input against the named schema or choice group, fills
// static and generated defaults and returns the validated node. input is the
// decoded form JSON drivers produce: map[string]any, []any, string, bool,
// nil, and json.Number or native numerics.
//
// Issues accumulate across the whole tree unless ValidateOpt.FailFast is set.
// The returned node is non-nil only when no issue was recorded.
func (r *Registry) Validate(ctx context.Context, name string, input any, opts ...ValidateOpt) (*Node, error) {
	if !r.frozen {
		return nil, ErrRegistryOpen
	}
	v := &validator{
		reg: r,
		opt: resolveOpt(opts),
		col: &collector{},
		ctx: ctx,
	}
	v.col.failFast = v.opt.FailFast
	node := v.root(name, input)
	if len(v.col.issues) > 0 {
		r.log.Debug().Str("schema", name).Int("issues", len(v.col.issues)).Msg("validation failed")
		return nil, v.col.issues
	}
	return node, nil
}

// ValidateJSON decodes data with the configured JSON driver and validates the
// result. Decoding keeps numbers as json.Number so large integers survive
// until the numeric validator canonicalizes them.
func (r *Registry) ValidateJSON(ctx context.Context, name string, data []byte, opts ...ValidateOpt) (*Node, error) {
	if !r.frozen {
		return nil, ErrRegistryOpen
	}
	raw, err := decode.Unmarshal(data)
	if err != nil {
		iss := Path{}.Schema(name).Issue(CodeParseError)
		iss.Cause = err
		return nil, Issues{iss}
	}
	return r.Validate(ctx, name, raw, opts...)
}

func resolveOpt(opts []ValidateOpt) ValidateOpt {
	var opt ValidateOpt
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	if opt.MaxDepth <= 0 {
		opt.MaxDepth = DefaultMaxDepth
	}
	return opt
}

type collector struct {
	issues   Issues
	failFast bool
	stopped  bool
}

func (c *collector) add(iss Issue) {
	if c.stopped {
		return
	}
	c.issues = append(c.issues, iss)
	if c.failFast {
		c.stopped = true
	}
}

type validator struct {
	reg *Registry
	opt ValidateOpt
	col *collector
	ctx context.Context
}

func (v *validator) root(name string, input any) *Node {
	if s, ok := v.reg.schemas[name]; ok {
		raw, ok := v.object(s, input, Path{}.Schema(s.name))
		if !ok {
			return nil
		}
		return v.node(s, raw, nil, Path{})
	}
	if c, ok := v.reg.choices[name]; ok {
		raw, ok := input.(map[string]any)
		if !ok {
			v.col.add(Path{}.Schema(c.name).Issue(CodeTypeMismatch, "expected", "object", "got", typeName(input)))
			return nil
		}
		s, pruned, ok := v.choose(c, raw, nil, Path{}.Schema(c.name))
		if !ok {
			return nil
		}
		return v.node(s, pruned, nil, Path{})
	}
	if _, err := v.reg.Lookup(name); err != nil {
		if is, ok := AsIssues(err); ok {
			for _, iss := range is {
				v.col.add(iss)
			}
		}
	}
	return nil
}

// object coerces input into a field map for s, expanding the schema's
// shortform when a bare scalar stands in for the whole object.
func (v *validator) object(s *Schema, input any, at Path) (map[string]any, bool) {
	if m, ok := input.(map[string]any); ok {
		return m, true
	}
	if input != nil && s.shortform != "" {
		return map[string]any{s.shortform: input}, true
	}
	v.col.add(at.Issue(CodeTypeMismatch, "expected", "object", "got", typeName(input)))
	return nil, false
}

// node validates one object against s. base is the path prefix for this
// node's fields; stack holds the ancestors, root first.
func (v *validator) node(s *Schema, raw map[string]any, stack Stack, base Path) *Node {
	if stack.Depth() >= v.opt.MaxDepth {
		v.col.add(base.Issue(CodeMaxDepth, "limit", v.opt.MaxDepth))
		return nil
	}
	node := newNode(s)

	// Reference fields and containers of references resolve last, after the
	// generators, so a child's generators can read every computed field of
	// its ancestors.
	type descent struct {
		f     *FieldSpec
		value any
	}
	var deferred []descent

	// Pass A: explicit values and static defaults, declaration order.
	for i := range s.fields {
		if v.col.stopped {
			return node
		}
		f := &s.fields[i]
		if value, ok := raw[f.Name]; ok {
			if f.descends() {
				deferred = append(deferred, descent{f, value})
				continue
			}
			if out, ok := v.value(f, value, base.Field(s.name, f.Name), stack, node); ok {
				node.set(f.Name, out, PresenceSeen)
			}
			continue
		}
		if f.HasDefault {
			node.set(f.Name, exportValue(f.Default), PresenceDefaultApplied)
		}
	}

	// Unknown keys, scanned in sorted order so reports are deterministic.
	if v.opt.Unknown == UnknownStrict {
		for _, k := range sortedKeys(raw) {
			if v.col.stopped {
				return node
			}
			if _, ok := s.index[k]; ok {
				continue
			}
			if s.dropsKey(k) {
				continue
			}
			iss := base.Field(s.name, k).Issue(CodeUnknownField, "field", k)
			if alt := suggest.Closest(k, s.FieldNames()); alt != "" {
				iss.Hint = fmt.Sprintf("did you mean %q?", alt)
			}
			v.col.add(iss)
		}
	}

	// Pass B: context generators, declaration order. Running after every
	// static default lets a generator read any statically resolvable
	// sibling, not just earlier ones.
	for i := range s.fields {
		if v.col.stopped {
			return node
		}
		f := &s.fields[i]
		if f.Generate == nil || node.Has(f.Name) {
			continue
		}
		if _, present := raw[f.Name]; present {
			// the explicit value was handled, or deferred, above
			continue
		}
		fieldPath := base.Field(s.name, f.Name)
		value, err := f.Generate(v.ctx, GenCtx{Stack: stack, Node: node, Kwargs: v.opt.Kwargs})
		if err != nil {
			iss := fieldPath.Issue(CodeGeneratorFailure, "field", f.Name)
			iss.Cause = err
			v.col.add(iss)
			continue
		}
		// generated values obey the same rules as explicit input
		if out, ok := v.value(f, value, fieldPath, stack, node); ok {
			node.set(f.Name, out, PresenceDefaultApplied)
		}
	}

	// Pass C: descend into child objects, declaration order.
	for _, d := range deferred {
		if v.col.stopped {
			return node
		}
		if out, ok := v.value(d.f, d.value, base.Field(s.name, d.f.Name), stack, node); ok {
			node.set(d.f.Name, out, PresenceSeen)
		}
	}

	// A field is missing only when the input omitted it and no default
	// mechanism could produce it. Failed explicit values and failed
	// generators were already reported above.
	for i := range s.fields {
		if v.col.stopped {
			return node
		}
		f := &s.fields[i]
		if !f.Required || node.Has(f.Name) || f.Generate != nil {
			continue
		}
		if _, present := raw[f.Name]; present {
			continue
		}
		v.col.add(base.Field(s.name, f.Name).Issue(CodeMissingField, "field", f.Name))
	}
	return node
}

// value validates one value against its field spec, descending into
// references and container elements. The bool result reports whether a
// value should be stored on the node.
func (v *validator) value(f *FieldSpec, value any, at Path, stack Stack, owner *Node) (any, bool) {
	switch f.Kind {
	case KindRef:
		return v.ref(f, value, at, stack, owner)
	case KindList:
		norm, kiss := v.reg.types.Validate(f.Kind, f.Constraints, value)
		if kiss != nil {
			v.col.add(rebase(*kiss, at))
			return nil, false
		}
		items := norm.([]any)
		if f.Elem == nil {
			return items, true
		}
		out := make([]any, 0, len(items))
		ok := true
		for i, e := range items {
			if v.col.stopped {
				return nil, false
			}
			ev, eok := v.value(f.Elem, e, at.Index(i), stack, owner)
			if !eok {
				ok = false
				continue
			}
			out = append(out, ev)
		}
		return out, ok
	case KindMap:
		norm, kiss := v.reg.types.Validate(f.Kind, f.Constraints, value)
		if kiss != nil {
			v.col.add(rebase(*kiss, at))
			return nil, false
		}
		m := norm.(map[string]any)
		if f.Elem == nil {
			return m, true
		}
		out := make(map[string]any, len(m))
		ok := true
		for _, k := range sortedKeys(m) {
			if v.col.stopped {
				return nil, false
			}
			ev, eok := v.value(f.Elem, m[k], at.Key(k), stack, owner)
			if !eok {
				ok = false
				continue
			}
			out[k] = ev
		}
		return out, ok
	default:
		norm, kiss := v.reg.types.Validate(f.Kind, f.Constraints, value)
		if kiss != nil {
			v.col.add(rebase(*kiss, at))
			return nil, false
		}
		return norm, true
	}
}

// ref descends into a reference field, pushing the owning node onto the
// stack so generators and operations in the child can see their ancestors.
func (v *validator) ref(f *FieldSpec, value any, at Path, stack Stack, owner *Node) (any, bool) {
	target := f.Constraints.Target
	if value != nil {
		if _, isMap := value.(map[string]any); !isMap {
			if s, ok := v.reg.schemas[target]; ok && s.shortform != "" {
				value = map[string]any{s.shortform: value}
			}
		}
	}
	norm, kiss := v.reg.types.Validate(KindRef, f.Constraints, value)
	if kiss != nil {
		v.col.add(rebase(*kiss, at))
		return nil, false
	}
	if norm == nil {
		return nil, true
	}
	raw := norm.(map[string]any)
	if s, ok := v.reg.schemas[target]; ok {
		child := v.node(s, raw, stack.Push(owner), at)
		return child, child != nil
	}
	if c, ok := v.reg.choices[target]; ok {
		s, pruned, ok := v.choose(c, raw, stack, at)
		if !ok {
			return nil, false
		}
		child := v.node(s, pruned, stack.Push(owner), at)
		return child, child != nil
	}
	// freeze guarantees targets resolve; reaching here is a registry bug
	v.col.add(at.Issue(CodeUnresolvedReference, "target", target))
	return nil, false
}

// choose resolves which member schema a choice value conforms to: by the
// discriminator key when present, by trial validation otherwise. A matched
// discriminator key is consumed and never counts as an unknown field.
func (v *validator) choose(c *Choice, raw map[string]any, stack Stack, at Path) (*Schema, map[string]any, bool) {
	if dv, ok := raw[c.discriminator]; ok {
		name, ok := dv.(string)
		if !ok {
			v.col.add(at.Issue(CodeDiscriminatorUnknown, "key", c.discriminator, "got", typeName(dv)))
			return nil, nil, false
		}
		for _, s := range c.resolved {
			if s.name == name {
				pruned := maps.Clone(raw)
				delete(pruned, c.discriminator)
				return s, pruned, true
			}
		}
		iss := at.Issue(CodeDiscriminatorUnknown, "key", c.discriminator, "got", name)
		if alt := suggest.Closest(name, c.memberNames()); alt != "" {
			iss.Hint = fmt.Sprintf("did you mean %q?", alt)
		}
		v.col.add(iss)
		return nil, nil, false
	}
	// No discriminator: the value is accepted iff exactly one member takes
	// it. Trials run generators, which the generator contract keeps pure.
	var matches []*Schema
	for _, s := range c.resolved {
		if v.trial(s, raw, stack) {
			matches = append(matches, s)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], raw, true
	case 0:
		iss := at.Issue(CodeDiscriminatorMissing, "key", c.discriminator)
		iss.Hint = fmt.Sprintf("add a %q key naming one of: %s", c.discriminator, strings.Join(c.memberNames(), ", "))
		v.col.add(iss)
		return nil, nil, false
	default:
		names := make([]string, len(matches))
		for i, s := range matches {
			names[i] = s.name
		}
		iss := at.Issue(CodeChoiceAmbiguous, "matches", strings.Join(names, ", "))
		iss.Hint = fmt.Sprintf("add a %q key to disambiguate", c.discriminator)
		v.col.add(iss)
		return nil, nil, false
	}
}

// trial silently checks whether raw validates against s.
func (v *validator) trial(s *Schema, raw map[string]any, stack Stack) bool {
	opt := v.opt
	opt.FailFast = true
	t := &validator{reg: v.reg, opt: opt, col: &collector{failFast: true}, ctx: v.ctx}
	t.node(s, raw, stack, Path{})
	return len(t.col.issues) == 0
}

func rebase(iss Issue, at Path) Issue {
	iss.Path = at.String()
	return iss
}
