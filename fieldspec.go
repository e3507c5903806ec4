package treespec

import "context"

// Generator computes a context-dependent default for a field the input left
// out. Generators run after every statically resolvable field of their node,
// in declaration order, and before the node's child objects are entered, so a
// generator may read statically resolvable siblings and any computed field of
// an ancestor. A depth counter that reads the parent's depth and adds one is
// the canonical use. The engine does not enforce purity; it does guarantee
// the evaluation order.
type Generator func(ctx context.Context, g GenCtx) (any, error)

// GenCtx is the window a Generator gets into the validation in progress.
type GenCtx struct {
	Stack  Stack // ancestors of the node under construction, root first
	Node   *Node // the node under construction; only earlier fields are set
	Kwargs Kwargs
}

// Parent returns the immediate ancestor, or nil at the root.
func (g GenCtx) Parent() *Node {
	return g.Stack.Top()
}

// FieldSpec declares one field of a schema: its kind, constraints,
// optionality, and default policy. A field with neither a default nor a
// generator and Required set yields a missing_field issue when absent.
type FieldSpec struct {
	Name        string
	Kind        Kind
	Required    bool
	Default     any         // static default, applied when HasDefault
	HasDefault  bool        // distinguishes "default is null" from "no default"
	Generate    Generator
	Constraints Constraints
	// Elem describes the element of a list or map kind. Its Name is unused.
	Elem *FieldSpec
	Help string
}

// descends reports whether validating the field can enter a child object.
func (f *FieldSpec) descends() bool {
	if f.Kind == KindRef {
		return true
	}
	if f.Elem != nil {
		return f.Elem.descends()
	}
	return false
}
