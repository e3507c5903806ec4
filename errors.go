package treespec

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeDuplicateSchema     = "duplicate_schema"
	CodeUnresolvedReference = "unresolved_reference"
	CodeSchemaNotFound      = "schema_not_found"
	CodeUnknownField        = "unknown_field"
	CodeTypeMismatch        = "type_mismatch"
	CodeConstraintViolation = "constraint_violation"
	CodeMissingField        = "missing_field"
	CodeUnknownOperation    = "unknown_operation"
	CodeDispatchFailure     = "dispatch_failure"
	// Choice resolution
	CodeDiscriminatorMissing = "discriminator_missing"
	CodeDiscriminatorUnknown = "discriminator_unknown"
	CodeChoiceAmbiguous      = "choice_ambiguous"
	// Dispatch kwargs contract
	CodeMissingArgument = "missing_argument"
	// Context generators
	CodeGeneratorFailure = "generator_failure"
	// Engine guards and input decoding
	CodeMaxDepth   = "max_depth"
	CodeParseError = "parse_error"
	// Registration-time declaration errors (surfaced by Freeze and bundle loading)
	CodeInvalidBundle  = "invalid_bundle"
	CodeInvalidDefault = "invalid_default"
	CodeInvalidPattern = "invalid_pattern"
	CodeUnknownKind    = "unknown_kind"
)

// Phase errors. These signal programmer mistakes rather than bad input and
// are returned as plain sentinel errors, not Issues.
var (
	ErrRegistryFrozen = errors.New("treespec: registry is frozen")
	ErrRegistryOpen   = errors.New("treespec: registry is not frozen yet")
	ErrNilNode        = errors.New("treespec: nil node")
)

// Issue represents a single validation entry.
type Issue struct {
	Path    string // Field path from the root (for example: /node.field_3/node.field_2).
	Code    string // One of the codes listed above.
	Message string
	Hint    string // Optional: nearest bound, did-you-mean, member listings.
	Cause   error  // Optional: underlying error.
	// Params carries structured parameters (e.g., {"min":-1000, "max":1000, "got":5000})
	// for i18n and logging.
	Params map[string]any
}

// Issues is a collection of validation errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. missing_field at /node.field_2
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Unwrap exposes issue causes so errors.Is/As can reach errors wrapped by
// dispatch_failure or generator_failure entries.
func (iss Issues) Unwrap() []error {
	var out []error
	for _, it := range iss {
		if it.Cause != nil {
			out = append(out, it.Cause)
		}
	}
	return out
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}
