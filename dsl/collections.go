package dsl

import (
	"context"

	fastskema "github.com/reoring/fastskema"
	"github.com/reoring/fastskema/internal/checks"
)

// ---- array ----

// ArraySchema validates homogeneous arrays. Bounds issues and element issues
// are all collected.
type ArraySchema struct {
	base
	elem   fastskema.Schema
	checks []fastskema.Check
	bounds *checks.LengthProgram
	unique bool
	err    error
}

// Array returns an array schema with the given element schema.
func Array(elem fastskema.Schema) *ArraySchema {
	a := &ArraySchema{elem: elem}
	a.bind(a)
	a.compile()
	return a
}

func (a *ArraySchema) add(c fastskema.Check, msg []string) *ArraySchema {
	if len(msg) > 0 {
		c.Message = msg[0]
	}
	a.checks = append(a.checks, c)
	a.compile()
	return a
}

func (a *ArraySchema) compile() { a.bounds, a.err = checks.CompileArrayLength(a.checks) }

func (a *ArraySchema) Min(n int, msg ...string) *ArraySchema {
	return a.add(fastskema.Check{Kind: "min", Number: f64(float64(n))}, msg)
}
func (a *ArraySchema) Max(n int, msg ...string) *ArraySchema {
	return a.add(fastskema.Check{Kind: "max", Number: f64(float64(n))}, msg)
}
func (a *ArraySchema) Length(n int, msg ...string) *ArraySchema {
	return a.add(fastskema.Check{Kind: "length", Number: f64(float64(n))}, msg)
}
func (a *ArraySchema) Nonempty(msg ...string) *ArraySchema { return a.Min(1, msg...) }

// Unique rejects arrays containing equal elements.
func (a *ArraySchema) Unique() *ArraySchema { a.unique = true; return a }

// Element returns the element schema.
func (a *ArraySchema) Element() fastskema.Schema { return a.elem }

func (a *ArraySchema) Describe(text string) *ArraySchema { a.description = text; return a }

func (a *ArraySchema) Parse(ctx context.Context, v any) (any, error) {
	if a.err != nil {
		return nil, fastskema.ToIssues(nil, a.err)
	}
	arr, ok := checks.AsSlice(v)
	if !ok {
		return nil, typeIssue("array", v)
	}
	failFast := fastskema.IsFailFast(ctx)
	iss := a.bounds.Run(len(arr))
	if failFast && len(iss) > 0 {
		return nil, iss
	}
	out := make([]any, len(arr))
	for i, e := range arr {
		res, err := a.elem.Parse(ctx, e)
		if err != nil {
			iss = collect(iss, err, i)
			if failFast {
				return nil, iss
			}
			continue
		}
		out[i] = res
	}
	if a.unique {
		if it, dup := checks.UniqueIssue(arr); dup {
			iss = append(iss, it)
		}
	}
	if len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}

func (a *ArraySchema) Descriptor() *fastskema.Descriptor {
	return a.describe(&fastskema.Descriptor{
		Type:    fastskema.TypeArray,
		Element: a.elem.Descriptor(),
		Checks:  append([]fastskema.Check(nil), a.checks...),
		Unique:  a.unique,
	})
}

// ---- tuple ----

// TupleSchema validates fixed positional items plus an optional rest schema.
type TupleSchema struct {
	base
	items []fastskema.Schema
	rest  fastskema.Schema
}

// Tuple returns a tuple of the given positional schemas.
func Tuple(items ...fastskema.Schema) *TupleSchema {
	t := &TupleSchema{items: items}
	t.bind(t)
	return t
}

// Rest accepts any number of trailing items validated by s.
func (t *TupleSchema) Rest(s fastskema.Schema) *TupleSchema { t.rest = s; return t }

func (t *TupleSchema) Describe(text string) *TupleSchema { t.description = text; return t }

func (t *TupleSchema) Parse(ctx context.Context, v any) (any, error) {
	arr, ok := checks.AsSlice(v)
	if !ok {
		return nil, typeIssue("array", v)
	}
	iss := checks.TupleBounds(len(arr), len(t.items), t.rest != nil)
	failFast := fastskema.IsFailFast(ctx)
	if failFast && len(iss) > 0 {
		return nil, iss
	}
	n := len(arr)
	if t.rest == nil {
		n = min(n, len(t.items))
	}
	out := make([]any, n)
	for i := 0; i < n; i++ {
		s := t.rest
		if i < len(t.items) {
			s = t.items[i]
		}
		res, err := s.Parse(ctx, arr[i])
		if err != nil {
			iss = collect(iss, err, i)
			if failFast {
				return nil, iss
			}
			continue
		}
		out[i] = res
	}
	if len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}

func (t *TupleSchema) Descriptor() *fastskema.Descriptor {
	d := &fastskema.Descriptor{Type: fastskema.TypeTuple, Items: make([]*fastskema.Descriptor, len(t.items))}
	for i, s := range t.items {
		d.Items[i] = s.Descriptor()
	}
	if t.rest != nil {
		d.Rest = t.rest.Descriptor()
	}
	return t.describe(d)
}

// ---- record ----

// RecordSchema validates objects with dynamic keys: every value against one
// value schema and, when set, every key against a key schema.
type RecordSchema struct {
	base
	key   fastskema.Schema
	value fastskema.Schema
}

// Record returns a record whose values are validated by value.
func Record(value fastskema.Schema) *RecordSchema {
	r := &RecordSchema{value: value}
	r.bind(r)
	return r
}

// Keys validates every key with s (typically a String with constraints).
func (r *RecordSchema) Keys(s fastskema.Schema) *RecordSchema { r.key = s; return r }

func (r *RecordSchema) Describe(text string) *RecordSchema { r.description = text; return r }

func (r *RecordSchema) Parse(ctx context.Context, v any) (any, error) {
	m, ok := checks.AsMap(v)
	if !ok {
		return nil, typeIssue("object", v)
	}
	keys := checks.SortedKeys(m)
	failFast := fastskema.IsFailFast(ctx)
	out := make(map[string]any, len(m))
	var iss fastskema.Issues
	for _, k := range keys {
		outKey := k
		if r.key != nil {
			kv, err := r.key.Parse(ctx, k)
			if err != nil {
				iss = collect(iss, err, k)
				if failFast {
					return nil, iss
				}
				continue
			}
			if s, ok := kv.(string); ok {
				outKey = s
			}
		}
		res, err := r.value.Parse(ctx, m[k])
		if err != nil {
			iss = collect(iss, err, k)
			if failFast {
				return nil, iss
			}
			continue
		}
		if !fastskema.IsUndefined(res) {
			out[outKey] = res
		}
	}
	if len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}

func (r *RecordSchema) Descriptor() *fastskema.Descriptor {
	d := &fastskema.Descriptor{Type: fastskema.TypeRecord, ValueType: r.value.Descriptor()}
	if r.key != nil {
		d.KeyType = r.key.Descriptor()
	}
	return r.describe(d)
}
