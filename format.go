package fastskema

import (
	"sort"

	json "github.com/goccy/go-json"
)

// FormattedError mirrors the schema shape: each path segment becomes a nested
// node and Errors holds the messages whose path terminates at that node.
type FormattedError struct {
	Errors []string
	Fields map[string]*FormattedError
}

// Get walks down the tree by segments and returns nil when a node is missing.
func (f *FormattedError) Get(segs ...any) *FormattedError {
	cur := f
	for _, seg := range segs {
		if cur == nil || cur.Fields == nil {
			return nil
		}
		cur = cur.Fields[segmentString(seg)]
	}
	return cur
}

// MarshalJSON renders {"_errors": [...], "<segment>": {...}}.
func (f *FormattedError) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(f.Fields)+1)
	errs := f.Errors
	if errs == nil {
		errs = []string{}
	}
	m["_errors"] = errs
	for k, v := range f.Fields {
		m[k] = v
	}
	return json.Marshal(m)
}

// Format builds the nested-by-path view of the issues. It is a pure derivation
// of the issue list.
func (iss Issues) Format() *FormattedError {
	root := &FormattedError{Errors: []string{}}
	for _, it := range iss {
		cur := root
		for _, seg := range it.Path {
			if cur.Fields == nil {
				cur.Fields = map[string]*FormattedError{}
			}
			k := segmentString(seg)
			next, ok := cur.Fields[k]
			if !ok {
				next = &FormattedError{Errors: []string{}}
				cur.Fields[k] = next
			}
			cur = next
		}
		cur.Errors = append(cur.Errors, it.Message)
	}
	return root
}

// FlattenedError is the flat view: root-level messages plus messages grouped
// by dotted path.
type FlattenedError struct {
	FormErrors  []string            `json:"formErrors"`
	FieldErrors map[string][]string `json:"fieldErrors"`
}

// Flatten groups issues with an empty path into FormErrors and all others by
// their dot-joined path.
func (iss Issues) Flatten() FlattenedError {
	out := FlattenedError{FormErrors: []string{}, FieldErrors: map[string][]string{}}
	for _, it := range iss {
		if len(it.Path) == 0 {
			out.FormErrors = append(out.FormErrors, it.Message)
			continue
		}
		k := it.Path.Dotted()
		out.FieldErrors[k] = append(out.FieldErrors[k], it.Message)
	}
	return out
}

// Fields returns the dotted paths present in the flattened view in sorted
// order.
func (f FlattenedError) Fields() []string {
	keys := make([]string, 0, len(f.FieldErrors))
	for k := range f.FieldErrors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
