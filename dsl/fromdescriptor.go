package dsl

import (
	"errors"
	"fmt"

	fastskema "github.com/reoring/fastskema"
)

// ErrOpaque is returned when a descriptor contains a node backed by a Go
// closure (refine, transform) that cannot be rebuilt.
var ErrOpaque = errors.New("dsl: opaque descriptor node")

// FromDescriptor rebuilds an interpreted schema from d. Lazy references are
// rejected; use Registry.FromDescriptor to resolve them.
func FromDescriptor(d *fastskema.Descriptor) (fastskema.Schema, error) {
	return build(nil, d)
}

// FromDescriptor rebuilds d, resolving lazy references against r.
func (r *Registry) FromDescriptor(d *fastskema.Descriptor) (fastskema.Schema, error) {
	return build(r, d)
}

func build(reg *Registry, d *fastskema.Descriptor) (fastskema.Schema, error) {
	if d == nil {
		return nil, errors.New("dsl: nil descriptor")
	}
	s, err := buildNode(reg, d)
	if err != nil {
		return nil, err
	}
	if d.Description != "" {
		if ds, ok := s.(interface{ setDescription(string) }); ok {
			ds.setDescription(d.Description)
		}
	}
	return s, nil
}

func buildNode(reg *Registry, d *fastskema.Descriptor) (fastskema.Schema, error) {
	if d.Opaque {
		return nil, fmt.Errorf("%w: %s", ErrOpaque, d.Type)
	}
	switch d.Type {
	case fastskema.TypeString:
		s := String()
		s.checks = append(s.checks, d.Checks...)
		s.compile()
		return s, s.err
	case fastskema.TypeNumber:
		n := Number()
		n.checks = append(n.checks, d.Checks...)
		n.compile()
		return n, n.err
	case fastskema.TypeBoolean, fastskema.TypeNull, fastskema.TypeAny, fastskema.TypeUnknown, fastskema.TypeNever,
		fastskema.TypeUndefined:
		return primitive(d.Type), nil
	case fastskema.TypeLiteral:
		var v any
		if d.Value != nil {
			v = *d.Value
		}
		return Literal(v), nil
	case fastskema.TypeEnum:
		return Enum(d.Values...), nil
	case fastskema.TypeObject:
		return buildObject(reg, d)
	case fastskema.TypeArray:
		elem, err := build(reg, d.Element)
		if err != nil {
			return nil, fmt.Errorf("element: %w", err)
		}
		a := Array(elem)
		a.checks = append(a.checks, d.Checks...)
		a.compile()
		a.unique = d.Unique
		return a, a.err
	case fastskema.TypeTuple:
		items, err := buildAll(reg, d.Items)
		if err != nil {
			return nil, err
		}
		t := Tuple(items...)
		if d.Rest != nil {
			rest, err := build(reg, d.Rest)
			if err != nil {
				return nil, fmt.Errorf("rest: %w", err)
			}
			t.Rest(rest)
		}
		return t, nil
	case fastskema.TypeRecord:
		val, err := build(reg, d.ValueType)
		if err != nil {
			return nil, fmt.Errorf("valueType: %w", err)
		}
		rec := Record(val)
		if d.KeyType != nil {
			key, err := build(reg, d.KeyType)
			if err != nil {
				return nil, fmt.Errorf("keyType: %w", err)
			}
			rec.Keys(key)
		}
		return rec, nil
	case fastskema.TypeUnion:
		opts, err := buildAll(reg, d.Options)
		if err != nil {
			return nil, err
		}
		u := Union(opts...)
		u.diagnostics = d.Diagnostics
		return u, nil
	case fastskema.TypeDiscriminatedUnion:
		branches := make([]*ObjectSchema, len(d.Options))
		for i, od := range d.Options {
			s, err := build(reg, od)
			if err != nil {
				return nil, fmt.Errorf("options[%d]: %w", i, err)
			}
			o, ok := s.(*ObjectSchema)
			if !ok {
				return nil, fmt.Errorf("options[%d]: discriminated union option must be an object, got %s", i, od.Type)
			}
			branches[i] = o
		}
		return newDiscriminatedUnion(d.Discriminator, branches)
	case fastskema.TypeIntersection:
		l, err := build(reg, d.Left)
		if err != nil {
			return nil, fmt.Errorf("left: %w", err)
		}
		r, err := build(reg, d.Right)
		if err != nil {
			return nil, fmt.Errorf("right: %w", err)
		}
		return Intersection(l, r), nil
	case fastskema.TypeOptional, fastskema.TypeNullable, fastskema.TypeNullish, fastskema.TypeDefault:
		inner, err := build(reg, d.Inner)
		if err != nil {
			return nil, err
		}
		switch d.Type {
		case fastskema.TypeOptional:
			return Optional(inner), nil
		case fastskema.TypeNullable:
			return Nullable(inner), nil
		case fastskema.TypeNullish:
			return Nullish(inner), nil
		}
		var def any
		if d.Default != nil {
			def = *d.Default
		}
		return Default(inner, def), nil
	case fastskema.TypeEffects:
		if d.Effect != EffectPipe {
			return nil, fmt.Errorf("%w: %s", ErrOpaque, d.Effect)
		}
		inner, err := build(reg, d.Inner)
		if err != nil {
			return nil, err
		}
		next, err := build(reg, d.Right)
		if err != nil {
			return nil, fmt.Errorf("pipe: %w", err)
		}
		return Pipe(inner, next), nil
	case fastskema.TypeLazy:
		if reg == nil {
			return nil, fmt.Errorf("dsl: lazy reference %q needs a registry", d.Ref)
		}
		return reg.Ref(d.Ref), nil
	}
	return nil, fmt.Errorf("dsl: unknown descriptor type %q", d.Type)
}

func buildObject(reg *Registry, d *fastskema.Descriptor) (fastskema.Schema, error) {
	o := Object()
	for _, p := range d.Shape {
		s, err := build(reg, p.Schema)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Name, err)
		}
		o.Field(p.Name, s)
	}
	o.unknown = fastskema.ParseUnknownPolicy(d.UnknownKeys)
	return o, nil
}

func buildAll(reg *Registry, ds []*fastskema.Descriptor) ([]fastskema.Schema, error) {
	out := make([]fastskema.Schema, len(ds))
	for i, d := range ds {
		s, err := build(reg, d)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = s
	}
	return out, nil
}
