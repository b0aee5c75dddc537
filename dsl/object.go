package dsl

import (
	"context"

	fastskema "github.com/reoring/fastskema"
	"github.com/reoring/fastskema/internal/checks"
)

type property struct {
	name   string
	schema fastskema.Schema
}

// ObjectSchema validates keyed objects. Keys are validated in declaration
// order; unknown keys are stripped unless Strict or Passthrough is set.
type ObjectSchema struct {
	base
	props   []property
	index   map[string]int
	unknown fastskema.UnknownPolicy
}

// Object creates an empty object schema; add keys with Field.
func Object() *ObjectSchema {
	o := &ObjectSchema{index: map[string]int{}}
	o.bind(o)
	return o
}

// Field declares key name. Redeclaring a key replaces its schema and keeps its
// original position.
func (o *ObjectSchema) Field(name string, s fastskema.Schema) *ObjectSchema {
	if i, ok := o.index[name]; ok {
		o.props[i].schema = s
		return o
	}
	o.index[name] = len(o.props)
	o.props = append(o.props, property{name: name, schema: s})
	return o
}

// Strict rejects unknown keys with a single unrecognized_keys issue.
func (o *ObjectSchema) Strict() *ObjectSchema { o.unknown = fastskema.UnknownStrict; return o }

// Strip drops unknown keys from the output (the default).
func (o *ObjectSchema) Strip() *ObjectSchema { o.unknown = fastskema.UnknownStrip; return o }

// Passthrough copies unknown keys into the output unchanged.
func (o *ObjectSchema) Passthrough() *ObjectSchema {
	o.unknown = fastskema.UnknownPassthrough
	return o
}

// UnknownPolicy reports the configured policy.
func (o *ObjectSchema) UnknownPolicy() fastskema.UnknownPolicy { return o.unknown }

func (o *ObjectSchema) Describe(text string) *ObjectSchema { o.description = text; return o }

// Keys lists declared keys in order.
func (o *ObjectSchema) Keys() []string {
	out := make([]string, len(o.props))
	for i, p := range o.props {
		out[i] = p.name
	}
	return out
}

// Get returns the schema declared for name.
func (o *ObjectSchema) Get(name string) (fastskema.Schema, bool) {
	i, ok := o.index[name]
	if !ok {
		return nil, false
	}
	return o.props[i].schema, true
}

func (o *ObjectSchema) clone() *ObjectSchema {
	c := Object()
	for _, p := range o.props {
		c.Field(p.name, p.schema)
	}
	c.unknown = o.unknown
	c.description = o.description
	return c
}

// Extend returns a new schema with the keys of o followed by the keys of
// other; keys of other win.
func (o *ObjectSchema) Extend(other *ObjectSchema) *ObjectSchema {
	c := o.clone()
	for _, p := range other.props {
		c.Field(p.name, p.schema)
	}
	return c
}

// Pick returns a new schema limited to names.
func (o *ObjectSchema) Pick(names ...string) *ObjectSchema {
	keep := make(map[string]bool, len(names))
	for _, n := range names {
		keep[n] = true
	}
	c := Object()
	for _, p := range o.props {
		if keep[p.name] {
			c.Field(p.name, p.schema)
		}
	}
	c.unknown = o.unknown
	return c
}

// Omit returns a new schema without names.
func (o *ObjectSchema) Omit(names ...string) *ObjectSchema {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	c := Object()
	for _, p := range o.props {
		if !drop[p.name] {
			c.Field(p.name, p.schema)
		}
	}
	c.unknown = o.unknown
	return c
}

// Partial returns a new schema where every key may be absent.
func (o *ObjectSchema) Partial() *ObjectSchema {
	c := o.clone()
	for i, p := range c.props {
		if !fastskema.ModifierOf(p.schema).AcceptsUndefined() {
			c.props[i].schema = Optional(p.schema)
		}
	}
	return c
}

func (o *ObjectSchema) Parse(ctx context.Context, v any) (any, error) {
	m, ok := checks.AsMap(v)
	if !ok {
		return nil, typeIssue("object", v)
	}
	failFast := fastskema.IsFailFast(ctx)
	out := make(map[string]any, len(o.props))
	var iss fastskema.Issues
	for _, p := range o.props {
		val, present := m[p.name]
		if !present {
			if !fastskema.ModifierOf(p.schema).AcceptsUndefined() {
				iss = append(iss, checks.RequiredAt(p.name, p.schema.Descriptor()))
				if failFast {
					return nil, iss
				}
				continue
			}
			val = fastskema.Undefined
		}
		res, err := p.schema.Parse(ctx, val)
		if err != nil {
			iss = collect(iss, err, p.name)
			if failFast {
				return nil, iss
			}
			continue
		}
		if !fastskema.IsUndefined(res) {
			out[p.name] = res
		}
	}
	if o.unknown != fastskema.UnknownStrip {
		extra := checks.UnknownKeys(m, o.declared)
		switch {
		case len(extra) == 0:
		case o.unknown == fastskema.UnknownStrict:
			iss = append(iss, checks.UnrecognizedKeysIssue(extra))
		default:
			for _, k := range extra {
				out[k] = m[k]
			}
		}
	}
	if len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}

func (o *ObjectSchema) declared(k string) bool {
	_, ok := o.index[k]
	return ok
}

func (o *ObjectSchema) Descriptor() *fastskema.Descriptor {
	d := &fastskema.Descriptor{Type: fastskema.TypeObject, Shape: make([]fastskema.Property, len(o.props))}
	for i, p := range o.props {
		d.Shape[i] = fastskema.Property{Name: p.name, Schema: p.schema.Descriptor()}
	}
	if o.unknown != fastskema.UnknownStrip {
		d.UnknownKeys = o.unknown.String()
	}
	return o.describe(d)
}
