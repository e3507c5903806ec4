package dsl

import (
	"maps"

	treespec "github.com/reoring/treespec"
)

// Type carries one field's kind and constraints while a schema is being
// built. Setters return modified copies, so a Type value is safe to reuse
// across fields.
type Type struct {
	kind treespec.Kind
	c    treespec.Constraints
	elem *Type
}

// Numeric declares a numeric field.
func Numeric() Type { return Type{kind: treespec.KindNumeric} }

// Min bounds a numeric field from below (inclusive).
func (t Type) Min(v float64) Type { t.c.Min = &v; return t }

// Max bounds a numeric field from above (inclusive).
func (t Type) Max(v float64) Type { t.c.Max = &v; return t }

// Text declares a text field.
func Text() Type { return Type{kind: treespec.KindText} }

// MinLen bounds the rune count from below.
func (t Type) MinLen(n int) Type { t.c.MinLen = &n; return t }

// MaxLen bounds the rune count from above.
func (t Type) MaxLen(n int) Type { t.c.MaxLen = &n; return t }

// Enum restricts a text field to the given values.
func (t Type) Enum(values ...string) Type {
	t.c.Enum = append([]string(nil), values...)
	return t
}

// Pattern restricts a text field to a regular expression. The pattern
// compiles at freeze, so a bad expression is a freeze error rather than a
// per-document one.
func (t Type) Pattern(expr string) Type { t.c.Pattern = expr; return t }

// Bool declares a boolean field.
func Bool() Type { return Type{kind: treespec.KindBool} }

// Ref declares a reference to another schema or choice group by name. The
// target may be registered later; names resolve at freeze.
func Ref(target string) Type {
	return Type{kind: treespec.KindRef, c: treespec.Constraints{Target: target}}
}

// Nullable lets a reference field accept null.
func (t Type) Nullable() Type { t.c.Nullable = true; return t }

// ListOf declares a list field whose elements obey elem.
func ListOf(elem Type) Type { return Type{kind: treespec.KindList, elem: &elem} }

// MinItems bounds the element count from below.
func (t Type) MinItems(n int) Type { t.c.MinItems = &n; return t }

// MaxItems bounds the element count from above.
func (t Type) MaxItems(n int) Type { t.c.MaxItems = &n; return t }

// MapOf declares a string-keyed map field whose values obey elem.
func MapOf(elem Type) Type { return Type{kind: treespec.KindMap, elem: &elem} }

// Custom declares a field of a kind registered on the type registry outside
// the built-ins. Pass validator-specific knobs through Param.
func Custom(kind treespec.Kind) Type { return Type{kind: kind} }

// Param attaches a named constraint parameter for custom kind validators.
func (t Type) Param(key string, v any) Type {
	params := make(map[string]any, len(t.c.Params)+1)
	maps.Copy(params, t.c.Params)
	params[key] = v
	t.c.Params = params
	return t
}

func (t Type) spec(name string) treespec.FieldSpec {
	fs := treespec.FieldSpec{Name: name, Kind: t.kind, Constraints: t.c}
	if t.elem != nil {
		es := t.elem.spec("")
		fs.Elem = &es
	}
	return fs
}
