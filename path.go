package treespec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/reoring/treespec/i18n"
)

// Path builds field paths for Issues in a chain-safe way. A segment is a
// schema.field pair from the root; list and map elements append an index to
// the segment that produced them (for example /node.items[2]/node.field_1).
type Path struct {
	segs []string
}

// Field appends a schema.field segment.
func (p Path) Field(schema, field string) Path {
	seg := escapeSeg(schema) + "." + escapeSeg(field)
	return Path{segs: append(append([]string{}, p.segs...), seg)}
}

// Schema appends a bare schema segment. Dispatch traces use this form because
// the originating field is not known at dispatch time.
func (p Path) Schema(name string) Path {
	return Path{segs: append(append([]string{}, p.segs...), escapeSeg(name))}
}

// Index marks the preceding segment with a list position.
func (p Path) Index(i int) Path {
	return p.mark("[" + strconv.Itoa(i) + "]")
}

// Key marks the preceding segment with a map key.
func (p Path) Key(k string) Path {
	return p.mark("[" + escapeSeg(k) + "]")
}

func (p Path) mark(suffix string) Path {
	segs := append([]string{}, p.segs...)
	if len(segs) == 0 {
		segs = []string{suffix}
	} else {
		segs[len(segs)-1] += suffix
	}
	return Path{segs: segs}
}

// String renders the path with a leading slash; the empty path renders as "/".
func (p Path) String() string {
	if len(p.segs) == 0 {
		return "/"
	}
	return "/" + strings.Join(p.segs, "/")
}

// Issue builds an Issue at this path. kv pairs populate Params and feed the
// translated message.
func (p Path) Issue(code string, kv ...any) Issue {
	var params map[string]any
	var data map[string]string
	if len(kv) >= 2 {
		params = make(map[string]any, len(kv)/2)
		data = make(map[string]string, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			k := fmt.Sprint(kv[i])
			params[k] = kv[i+1]
			data[k] = fmt.Sprint(kv[i+1])
		}
	}
	return Issue{Path: p.String(), Code: code, Message: i18n.T(code, data), Params: params}
}

// escape '~' -> '~0', '/' -> '~1' so names cannot fake path separators
func escapeSeg(name string) string {
	return strings.ReplaceAll(strings.ReplaceAll(name, "~", "~0"), "/", "~1")
}
