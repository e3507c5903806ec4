package treespec

import (
	"bytes"
	"sort"

	"github.com/reoring/treespec/internal/decode"
)

// Node is a schema-conformant, defaulted instance of one tree node. Field
// values are primitives, nil, owned child *Node values, or []any /
// map[string]any containers of those. Nodes are call-local: validation builds
// them, the caller owns them, nothing is shared.
type Node struct {
	schema   *Schema
	fields   map[string]any
	presence map[string]Presence
}

func newNode(s *Schema) *Node {
	return &Node{
		schema:   s,
		fields:   make(map[string]any, len(s.fields)),
		presence: make(map[string]Presence, len(s.fields)),
	}
}

func (n *Node) set(field string, v any, p Presence) {
	n.fields[field] = v
	n.presence[field] |= p
}

// SchemaName returns the name of the schema this node conforms to.
func (n *Node) SchemaName() string { return n.schema.name }

// Schema returns the schema this node conforms to.
func (n *Node) Schema() *Schema { return n.schema }

// Get returns the value of a field and whether it is set. Nullable fields
// explicitly set to null return (nil, true).
func (n *Node) Get(field string) (any, bool) {
	v, ok := n.fields[field]
	return v, ok
}

// Has reports whether the field is set on this node.
func (n *Node) Has(field string) bool {
	_, ok := n.fields[field]
	return ok
}

// Presence returns the presence flags recorded for a field.
func (n *Node) Presence(field string) Presence { return n.presence[field] }

// Defaulted reports whether the field's value came from a static default or a
// context generator rather than the input.
func (n *Node) Defaulted(field string) bool {
	return n.presence[field]&PresenceDefaultApplied != 0
}

// DefaultedFields returns the defaulted field names in declaration order.
func (n *Node) DefaultedFields() []string {
	var out []string
	for _, f := range n.schema.fields {
		if n.Defaulted(f.Name) {
			out = append(out, f.Name)
		}
	}
	return out
}

// Export renders the node as plain nested maps, losing the defaulted markers.
// Validating the result against the same schema reproduces the node.
func (n *Node) Export() map[string]any {
	out := make(map[string]any, len(n.fields))
	for name, v := range n.fields {
		out[name] = exportValue(v)
	}
	return out
}

func exportValue(v any) any {
	switch t := v.(type) {
	case *Node:
		return t.Export()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = exportValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = exportValue(e)
		}
		return out
	default:
		return v
	}
}

// ExportExplicit renders the node like Export but drops every field whose
// value came from a default, recursively. Validating the result against the
// same schema reproduces the node, defaulted markers included.
func (n *Node) ExportExplicit() map[string]any {
	out := make(map[string]any, len(n.fields))
	for name, v := range n.fields {
		if n.Defaulted(name) {
			continue
		}
		out[name] = exportExplicitValue(v)
	}
	return out
}

func exportExplicitValue(v any) any {
	switch t := v.(type) {
	case *Node:
		return t.ExportExplicit()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = exportExplicitValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = exportExplicitValue(e)
		}
		return out
	default:
		return v
	}
}

// MarshalJSON emits the node with keys in declaration order, children
// included. Defaulted markers are not serialized.
func (n *Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, f := range n.schema.fields {
		v, ok := n.fields[f.Name]
		if !ok {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		key, err := decode.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := marshalValue(v)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalValue(v any) ([]byte, error) {
	switch t := v.(type) {
	case *Node:
		return t.MarshalJSON()
	case []any:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := marshalValue(e)
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case map[string]any:
		// container values may hold child nodes, so descend instead of
		// handing the whole map to the codec
		var buf bytes.Buffer
		buf.WriteByte('{')
		first := true
		for _, k := range sortedKeys(t) {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			key, err := decode.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			b, err := marshalValue(t[k])
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	default:
		return decode.Marshal(v)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Stack is the ordered ancestor chain, root first, threaded through
// validation and dispatch. It is passed by value and must never be retained
// beyond the call that received it.
type Stack []*Node

// Top returns the nearest ancestor, or nil for an empty stack.
func (s Stack) Top() *Node {
	if len(s) == 0 {
		return nil
	}
	return s[len(s)-1]
}

// Root returns the outermost ancestor, or nil for an empty stack.
func (s Stack) Root() *Node {
	if len(s) == 0 {
		return nil
	}
	return s[0]
}

// Depth returns the number of ancestors on the stack.
func (s Stack) Depth() int { return len(s) }

// Push returns the stack extended with n. The result shares backing storage
// with the receiver, which is fine for the intended call-local use.
func (s Stack) Push(n *Node) Stack { return append(s, n) }
