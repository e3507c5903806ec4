package treespec

// UnknownPolicy controls how input keys not declared by the schema are handled.
type UnknownPolicy int

const (
	UnknownLenient UnknownPolicy = iota // Drop unknown keys (default).
	UnknownStrict                       // Report unknown keys as issues.
)

// Presence is the bit flag recorded per field of a validated node.
type Presence uint8

const (
	PresenceSeen           Presence = 1 << iota // Field appeared in the input.
	PresenceDefaultApplied                      // A static default or generator filled the field.
)

// ValidateOpt bundles validation options.
type ValidateOpt struct {
	Unknown  UnknownPolicy // unknown-key handling, lenient unless set
	FailFast bool          // stop at the first issue instead of batching
	Kwargs   Kwargs        // caller values readable by context generators
	MaxDepth int           // when >0, bound on recursion depth
}

// Kwargs is the open key-value bag threaded from a top-level Validate or
// Dispatch call into context generators and operation implementations.
type Kwargs map[string]any

// Get returns the raw value for key.
func (k Kwargs) Get(key string) (any, bool) {
	v, ok := k[key]
	return v, ok
}

// String returns the value for key when it is a string.
func (k Kwargs) String(key string) (string, bool) {
	v, ok := k[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Float returns the value for key coerced to float64 (ints and json.Number
// included).
func (k Kwargs) Float(key string) (float64, bool) {
	v, ok := k[key]
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

// Int returns the value for key coerced to int.
func (k Kwargs) Int(key string) (int, bool) {
	f, ok := k.Float(key)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// Bool returns the value for key when it is a bool.
func (k Kwargs) Bool(key string) (bool, bool) {
	v, ok := k[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// With returns a copy of the bag with key set; the receiver is unchanged so
// implementations can thread adjusted kwargs to children safely.
func (k Kwargs) With(key string, v any) Kwargs {
	out := make(Kwargs, len(k)+1)
	for kk, vv := range k {
		out[kk] = vv
	}
	out[key] = v
	return out
}
