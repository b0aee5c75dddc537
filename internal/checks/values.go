// Package checks holds the primitive predicates shared by the interpreted and
// accelerated backends: type names, numeric normalization, equality, the
// string format catalog and compiled constraint programs.
package checks

import (
	"math"
	"reflect"
	"strconv"

	json "github.com/goccy/go-json"

	fastskema "github.com/reoring/fastskema"
)

// TypeName returns the JSON-ish type name used in invalid_type issues.
func TypeName(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case json.Number:
		return "number"
	case float64:
		return floatName(t)
	case float32:
		return floatName(float64(t))
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "number"
	}
	if fastskema.IsUndefined(v) {
		return "undefined"
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Func:
		return "function"
	}
	return "unknown"
}

func floatName(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 0):
		return "infinity"
	}
	return "number"
}

// ToFloat converts any numeric representation to float64. NaN and infinities
// are rejected.
func ToFloat(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int8:
		f = float64(t)
	case int16:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint:
		f = float64(t)
	case uint8:
		f = float64(t)
	case uint16:
		f = float64(t)
	case uint32:
		f = float64(t)
	case uint64:
		f = float64(t)
	case json.Number:
		p, err := strconv.ParseFloat(string(t), 64)
		if err != nil {
			return 0, false
		}
		f = p
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Normalize rewrites every number in v to float64 so that values decoded by
// different drivers compare equal.
func Normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = Normalize(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Normalize(e)
		}
		return out
	}
	if f, ok := ToFloat(v); ok {
		return f
	}
	return v
}

// Equal is deep equality with numeric normalization.
func Equal(a, b any) bool {
	if fa, ok := ToFloat(a); ok {
		fb, ok := ToFloat(b)
		return ok && fa == fb
	}
	switch ta := a.(type) {
	case map[string]any:
		tb, ok := b.(map[string]any)
		if !ok || len(ta) != len(tb) {
			return false
		}
		for k, va := range ta {
			vb, ok := tb[k]
			if !ok || !Equal(va, vb) {
				return false
			}
		}
		return true
	case []any:
		tb, ok := b.([]any)
		if !ok || len(ta) != len(tb) {
			return false
		}
		for i := range ta {
			if !Equal(ta[i], tb[i]) {
				return false
			}
		}
		return true
	}
	if fastskema.IsUndefined(a) || fastskema.IsUndefined(b) {
		return fastskema.IsUndefined(a) && fastskema.IsUndefined(b)
	}
	return reflect.DeepEqual(a, b)
}

// UniqueKey returns a canonical string for v: equal values (under Equal)
// produce equal keys.
func UniqueKey(v any) string {
	b, err := json.Marshal(Normalize(v))
	if err != nil {
		return TypeName(v) + ":" + err.Error()
	}
	return string(b)
}

// Contains reports whether v equals one of the candidates.
func Contains(candidates []any, v any) (any, bool) {
	for _, c := range candidates {
		if Equal(c, v) {
			return c, true
		}
	}
	return nil, false
}

// AsSlice accepts []any directly and other slice kinds through reflection.
func AsSlice(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// AsMap accepts map[string]any directly and other string-keyed maps through
// reflection.
func AsMap(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

// Merge combines the outputs of both sides of an intersection. Objects merge
// key by key with the right side winning on scalar collisions, arrays of equal
// length merge elementwise, and other values must be equal.
func Merge(a, b any) (any, bool) {
	if ma, ok := a.(map[string]any); ok {
		mb, ok := b.(map[string]any)
		if !ok {
			return nil, false
		}
		out := make(map[string]any, len(ma)+len(mb))
		for k, v := range ma {
			out[k] = v
		}
		for k, vb := range mb {
			va, shared := out[k]
			if !shared {
				out[k] = vb
				continue
			}
			if merged, ok := Merge(va, vb); ok {
				out[k] = merged
			} else {
				out[k] = vb
			}
		}
		return out, true
	}
	if sa, ok := a.([]any); ok {
		sb, ok := b.([]any)
		if !ok || len(sa) != len(sb) {
			return nil, false
		}
		out := make([]any, len(sa))
		for i := range sa {
			m, ok := Merge(sa[i], sb[i])
			if !ok {
				return nil, false
			}
			out[i] = m
		}
		return out, true
	}
	if Equal(a, b) {
		return b, true
	}
	return nil, false
}

// ExpectedName names the type a descriptor expects, looking through wrappers
// and effects. It feeds the "expected" field of required issues.
func ExpectedName(d *fastskema.Descriptor) string {
	for d != nil {
		switch d.Type {
		case fastskema.TypeOptional, fastskema.TypeNullable, fastskema.TypeNullish,
			fastskema.TypeDefault, fastskema.TypeEffects:
			d = d.Inner
		case fastskema.TypeTuple:
			return "array"
		case fastskema.TypeRecord:
			return "object"
		default:
			return d.Type
		}
	}
	return "unknown"
}

// AcceptsUndefined mirrors fastskema.ModifierOf on a descriptor: effects and
// nullable wrappers forward the tag of the schema they wrap.
func AcceptsUndefined(d *fastskema.Descriptor) bool {
	for d != nil {
		switch d.Type {
		case fastskema.TypeOptional, fastskema.TypeNullish, fastskema.TypeDefault,
			fastskema.TypeAny, fastskema.TypeUnknown, fastskema.TypeUndefined:
			return true
		case fastskema.TypeEffects, fastskema.TypeNullable:
			d = d.Inner
		default:
			return false
		}
	}
	return false
}
