package fastskema

import (
	"fmt"
	"strconv"
	"strings"
)

// Path is an ordered sequence of segments from the root to the offending
// value. Segments are string object keys or int array indexes.
type Path []any

// Key returns a copy of p extended with an object key.
func (p Path) Key(name string) Path { return p.Append(name) }

// Index returns a copy of p extended with an array index.
func (p Path) Index(i int) Path { return p.Append(i) }

// Append returns a new Path with segs added at the leaf end.
func (p Path) Append(segs ...any) Path {
	out := make(Path, 0, len(p)+len(segs))
	out = append(out, p...)
	return append(out, segs...)
}

// Prepend returns a new Path with segs added at the root end.
func (p Path) Prepend(segs ...any) Path {
	out := make(Path, 0, len(p)+len(segs))
	out = append(out, segs...)
	return append(out, p...)
}

// Pointer renders p as an RFC 6901 JSON Pointer ("/" for the root).
func (p Path) Pointer() string {
	if len(p) == 0 {
		return "/"
	}
	b := &strings.Builder{}
	for _, seg := range p {
		b.WriteByte('/')
		// escape '~' -> '~0', '/' -> '~1' per RFC6901
		b.WriteString(strings.ReplaceAll(strings.ReplaceAll(segmentString(seg), "~", "~0"), "/", "~1"))
	}
	return b.String()
}

// Dotted renders p as a dot-joined key ("items.2.price"), the form used by
// Flatten.
func (p Path) Dotted() string {
	parts := make([]string, len(p))
	for i, seg := range p {
		parts[i] = segmentString(seg)
	}
	return strings.Join(parts, ".")
}

func (p Path) String() string { return p.Pointer() }

// Equal reports segment-wise equality.
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

func segmentString(seg any) string {
	switch s := seg.(type) {
	case string:
		return s
	case int:
		return strconv.Itoa(s)
	default:
		return fmt.Sprint(s)
	}
}

// ---- refinement path builder ----

// PathRef builds paths in a chain-safe way and creates Issues. It is handed to
// SuperRefine callbacks so they can address nested fields.
type PathRef interface {
	Field(name string) PathRef
	Index(i int) PathRef
	Path() Path
	Issue(code, msg string, kv ...any) Issue
}

// NewPathRef anchors a PathRef at base.
func NewPathRef(base Path) PathRef { return pathRef{parts: base} }

type pathRef struct {
	parts Path
}

func (p pathRef) Field(name string) PathRef {
	if name == "" {
		return p
	}
	return pathRef{parts: p.parts.Key(name)}
}

func (p pathRef) Index(i int) PathRef { return pathRef{parts: p.parts.Index(i)} }

func (p pathRef) Path() Path { return p.parts.Append() }

func (p pathRef) Issue(code, msg string, kv ...any) Issue {
	var m map[string]any
	if len(kv) > 1 {
		m = make(map[string]any, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			m[fmt.Sprint(kv[i])] = kv[i+1]
		}
	}
	return Issue{Path: p.Path(), Code: code, Message: msg, Params: m}
}
