package treespec

import (
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/reoring/treespec/internal/suggest"
)

// Kind tags a field's value category. New kinds are added by registering a
// validator under a fresh tag; replacing the validator of an existing tag
// overrides its behavior.
type Kind string

const (
	KindNumeric Kind = "numeric"
	KindText    Kind = "text"
	KindBool    Kind = "boolean"
	KindRef     Kind = "ref"
	KindList    Kind = "list"
	KindMap     Kind = "map"
)

// Constraints carries the per-kind validation parameters of one field. Only
// the fields relevant to the kind are consulted.
type Constraints struct {
	Min *float64 // numeric lower bound, inclusive
	Max *float64 // numeric upper bound, inclusive

	MinLen  *int     // text minimum length in runes
	MaxLen  *int     // text maximum length in runes
	Enum    []string // text allowed values
	Pattern string   // text regexp, anchored by the author if desired

	Target   string // ref: schema or choice name, resolved at freeze
	Nullable bool   // ref: permit explicit null

	MinItems *int // list minimum element count
	MaxItems *int // list maximum element count

	// Params is an open bag for custom kinds registered by callers.
	Params map[string]any

	compiled *regexp.Regexp // set by Freeze
}

// KindValidator checks and canonicalizes one raw value. It is a pure function
// of its inputs; the returned Issue carries no path (the engine rebases it
// onto the field being validated).
type KindValidator func(c Constraints, v any) (any, *Issue)

// TypeRegistry maps kind tags to validators. Mutation is confined to the
// single-threaded registration phase; after the owning Registry freezes it is
// read-only.
type TypeRegistry struct {
	m map[Kind]KindValidator
}

// NewTypeRegistry returns a registry preloaded with the built-in kinds.
func NewTypeRegistry() *TypeRegistry {
	t := &TypeRegistry{m: make(map[Kind]KindValidator, 8)}
	t.Register(KindNumeric, validateNumeric)
	t.Register(KindText, validateText)
	t.Register(KindBool, validateBool)
	t.Register(KindRef, validateRefShape)
	t.Register(KindList, validateListShape)
	t.Register(KindMap, validateMapShape)
	return t
}

// Register adds a validator for a kind tag, replacing any existing one.
func (t *TypeRegistry) Register(k Kind, fn KindValidator) {
	if fn == nil {
		delete(t.m, k)
		return
	}
	t.m[k] = fn
}

// Has reports whether the kind tag has a validator.
func (t *TypeRegistry) Has(k Kind) bool {
	_, ok := t.m[k]
	return ok
}

// Kinds lists the registered tags in sorted order.
func (t *TypeRegistry) Kinds() []Kind {
	out := make([]Kind, 0, len(t.m))
	for k := range t.m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Validate dispatches to the validator registered for k.
func (t *TypeRegistry) Validate(k Kind, c Constraints, v any) (any, *Issue) {
	fn, ok := t.m[k]
	if !ok {
		iss := newKindIssue(CodeUnknownKind, "kind", string(k))
		return nil, iss
	}
	return fn(c, v)
}

// ---- built-in validators ----

func validateNumeric(c Constraints, v any) (any, *Issue) {
	f, ok := toFloat(v)
	if !ok {
		return nil, newKindIssue(CodeTypeMismatch, "expected", "numeric", "got", typeName(v))
	}
	if c.Min != nil && f < *c.Min {
		iss := newKindIssue(CodeConstraintViolation, "min", *c.Min, "got", f)
		iss.Hint = "closest valid value is " + formatFloat(*c.Min)
		return nil, iss
	}
	if c.Max != nil && f > *c.Max {
		iss := newKindIssue(CodeConstraintViolation, "max", *c.Max, "got", f)
		iss.Hint = "closest valid value is " + formatFloat(*c.Max)
		return nil, iss
	}
	return f, nil
}

func validateText(c Constraints, v any) (any, *Issue) {
	s, ok := v.(string)
	if !ok {
		return nil, newKindIssue(CodeTypeMismatch, "expected", "text", "got", typeName(v))
	}
	n := utf8.RuneCountInString(s)
	if c.MinLen != nil && n < *c.MinLen {
		return nil, newKindIssue(CodeConstraintViolation, "min_len", *c.MinLen, "got", n)
	}
	if c.MaxLen != nil && n > *c.MaxLen {
		return nil, newKindIssue(CodeConstraintViolation, "max_len", *c.MaxLen, "got", n)
	}
	if len(c.Enum) > 0 && !slices.Contains(c.Enum, s) {
		iss := newKindIssue(CodeConstraintViolation, "got", s, "enum", strings.Join(c.Enum, ", "))
		if m := suggest.Closest(s, c.Enum); m != "" {
			iss.Hint = fmt.Sprintf("did you mean %q?", m)
		}
		return nil, iss
	}
	if c.Pattern != "" {
		re := c.compiled
		if re == nil {
			var err error
			re, err = regexp.Compile(c.Pattern)
			if err != nil {
				iss := newKindIssue(CodeInvalidPattern, "pattern", c.Pattern)
				iss.Cause = err
				return nil, iss
			}
		}
		if !re.MatchString(s) {
			return nil, newKindIssue(CodeConstraintViolation, "pattern", c.Pattern, "got", s)
		}
	}
	return s, nil
}

func validateBool(c Constraints, v any) (any, *Issue) {
	b, ok := v.(bool)
	if !ok {
		return nil, newKindIssue(CodeTypeMismatch, "expected", "boolean", "got", typeName(v))
	}
	return b, nil
}

// validateRefShape checks only null/object shape; descending into the target
// schema is the engine's job because a pure validator cannot recurse.
func validateRefShape(c Constraints, v any) (any, *Issue) {
	if v == nil {
		if c.Nullable {
			return nil, nil
		}
		return nil, newKindIssue(CodeTypeMismatch, "expected", "object", "got", "null")
	}
	if _, ok := v.(map[string]any); ok {
		return v, nil
	}
	return nil, newKindIssue(CodeTypeMismatch, "expected", "object", "got", typeName(v))
}

func validateListShape(c Constraints, v any) (any, *Issue) {
	items, ok := v.([]any)
	if !ok {
		return nil, newKindIssue(CodeTypeMismatch, "expected", "list", "got", typeName(v))
	}
	if c.MinItems != nil && len(items) < *c.MinItems {
		return nil, newKindIssue(CodeConstraintViolation, "min_items", *c.MinItems, "got", len(items))
	}
	if c.MaxItems != nil && len(items) > *c.MaxItems {
		return nil, newKindIssue(CodeConstraintViolation, "max_items", *c.MaxItems, "got", len(items))
	}
	return items, nil
}

func validateMapShape(c Constraints, v any) (any, *Issue) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, newKindIssue(CodeTypeMismatch, "expected", "map", "got", typeName(v))
	}
	return m, nil
}

// ---- helpers ----

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func typeName(v any) string {
	if v == nil {
		return "null"
	}
	switch v.(type) {
	case map[string]any:
		return "object"
	case []any:
		return "list"
	case string:
		return "text"
	case bool:
		return "boolean"
	case json.Number, float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "numeric"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// newKindIssue builds a path-less issue; callers rebase Path afterwards.
func newKindIssue(code string, kv ...any) *Issue {
	iss := Path{}.Issue(code, kv...)
	iss.Path = ""
	return &iss
}
