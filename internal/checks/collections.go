package checks

import (
	"fmt"
	"sort"
	"strconv"

	fastskema "github.com/reoring/fastskema"
)

// UniqueIssue reports the first element equal to an earlier one.
func UniqueIssue(arr []any) (fastskema.Issue, bool) {
	seen := make(map[string]int, len(arr))
	for i, e := range arr {
		k := UniqueKey(e)
		if first, ok := seen[k]; ok {
			return fastskema.NewIssue(fastskema.CodeNotUnique, map[string]any{"index": i, "duplicateOf": first}), true
		}
		seen[k] = i
	}
	return fastskema.Issue{}, false
}

// TupleBounds reports a length mismatch. Without a rest schema the length is
// exact.
func TupleBounds(n, want int, hasRest bool) fastskema.Issues {
	switch {
	case n < want:
		return fastskema.Issues{fastskema.NewIssue(fastskema.CodeTooSmall, map[string]any{
			"type": "array", "minimum": want, "inclusive": true, "exact": !hasRest,
		})}
	case n > want && !hasRest:
		return fastskema.Issues{fastskema.NewIssue(fastskema.CodeTooBig, map[string]any{
			"type": "array", "maximum": want, "inclusive": true, "exact": true,
		})}
	}
	return nil
}

// UnionIssue summarizes a union where no option matched. With diagnostics
// the per-option issues are attached under option_<i> segments.
func UnionIssue(perOption []fastskema.Issues, diagnostics bool) fastskema.Issue {
	it := fastskema.NewIssue(fastskema.CodeInvalidUnion, map[string]any{"options": len(perOption)})
	if diagnostics {
		for i, iss := range perOption {
			it.Details = append(it.Details, iss.Prefix("option_"+strconv.Itoa(i))...)
		}
	}
	return it
}

// DiscriminatorIssue reports a missing or unknown tag at [field].
func DiscriminatorIssue(field string, tags []any) fastskema.Issue {
	it := fastskema.NewIssue(fastskema.CodeInvalidUnionDiscriminator, map[string]any{"options": tags})
	it.Path = fastskema.Path{field}
	return it
}

// DiscriminatorTags extracts the tags a branch accepts on field: a literal
// yields one tag, an enum all of its values.
func DiscriminatorTags(branch *fastskema.Descriptor, field string) ([]any, bool) {
	prop, ok := branch.Unwrap().Property(field)
	if !ok {
		return nil, false
	}
	prop = prop.Unwrap()
	switch prop.Type {
	case fastskema.TypeLiteral:
		if prop.Value == nil {
			return []any{nil}, true
		}
		return []any{*prop.Value}, true
	case fastskema.TypeEnum:
		return prop.Values, len(prop.Values) > 0
	}
	return nil, false
}

// IntersectionIssue reports outputs that could not be merged.
func IntersectionIssue() fastskema.Issue {
	return fastskema.NewIssue(fastskema.CodeInvalidIntersectionTypes, nil)
}

// LiteralIssue reports v not matching the declared literal.
func LiteralIssue(expected, v any) fastskema.Issue {
	it := fastskema.NewIssue(fastskema.CodeInvalidLiteral, map[string]any{"expected": expected, "received": v})
	it.Expected = fmt.Sprint(expected)
	it.Received = TypeName(v)
	return it
}

// EnumIssue reports v not being one of options.
func EnumIssue(options []any, v any) fastskema.Issue {
	it := fastskema.NewIssue(fastskema.CodeInvalidEnumValue, map[string]any{"options": options, "received": v})
	it.Received = TypeName(v)
	return it
}

// RequiredAt reports a missing object key whose schema is d.
func RequiredAt(key string, d *fastskema.Descriptor) fastskema.Issue {
	it := fastskema.RequiredIssue(ExpectedName(d))
	it.Path = fastskema.Path{key}
	return it
}

// UnrecognizedKeysIssue reports the unknown keys of a strict object.
func UnrecognizedKeysIssue(keys []string) fastskema.Issue {
	return fastskema.NewIssue(fastskema.CodeUnrecognizedKeys, map[string]any{"keys": keys})
}

// UnknownKeys returns the keys of m not in declared, sorted.
func UnknownKeys(m map[string]any, declared func(string) bool) []string {
	var extra []string
	for k := range m {
		if !declared(k) {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return extra
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone deep-copies JSON-shaped values so that a transform mutating a
// result cannot alter a declared default.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = Clone(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Clone(e)
		}
		return out
	}
	return v
}
