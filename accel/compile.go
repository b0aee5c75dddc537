package accel

import (
	"context"
	"fmt"

	fastskema "github.com/reoring/fastskema"
	"github.com/reoring/fastskema/internal/checks"
)

// node is one compiled validator. Issue paths are relative to the node.
type node func(ctx context.Context, v any) (any, fastskema.Issues)

type compiler struct {
	patterns *checks.PatternCache
	nodes    int
}

func (c *compiler) unsupported(d *fastskema.Descriptor, why string) error {
	return fmt.Errorf("%w: %s: %s", ErrUnsupported, d.Type, why)
}

func (c *compiler) compile(d *fastskema.Descriptor) (node, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: nil descriptor", ErrUnsupported)
	}
	if d.Opaque {
		return nil, c.unsupported(d, "opaque node")
	}
	c.nodes++
	switch d.Type {
	case fastskema.TypeString:
		prog, err := checks.CompileString(d.Checks, c.patterns)
		if err != nil {
			return nil, c.unsupported(d, err.Error())
		}
		return func(_ context.Context, v any) (any, fastskema.Issues) {
			s, ok := v.(string)
			if !ok {
				return nil, typeIssue("string", v)
			}
			out, iss := prog.Run(s)
			if len(iss) > 0 {
				return nil, iss
			}
			return out, nil
		}, nil
	case fastskema.TypeNumber:
		prog, err := checks.CompileNumber(d.Checks)
		if err != nil {
			return nil, c.unsupported(d, err.Error())
		}
		return func(_ context.Context, v any) (any, fastskema.Issues) {
			f, ok := checks.ToFloat(v)
			if !ok {
				return nil, typeIssue("number", v)
			}
			if iss := prog.Run(f); len(iss) > 0 {
				return nil, iss
			}
			return f, nil
		}, nil
	case fastskema.TypeBoolean:
		return func(_ context.Context, v any) (any, fastskema.Issues) {
			if b, ok := v.(bool); ok {
				return b, nil
			}
			return nil, typeIssue("boolean", v)
		}, nil
	case fastskema.TypeNull:
		return func(_ context.Context, v any) (any, fastskema.Issues) {
			if v == nil {
				return nil, nil
			}
			return nil, typeIssue("null", v)
		}, nil
	case fastskema.TypeAny, fastskema.TypeUnknown:
		return func(_ context.Context, v any) (any, fastskema.Issues) { return v, nil }, nil
	case fastskema.TypeNever:
		return func(_ context.Context, v any) (any, fastskema.Issues) { return nil, typeIssue("never", v) }, nil
	case fastskema.TypeUndefined:
		return func(_ context.Context, v any) (any, fastskema.Issues) {
			if fastskema.IsUndefined(v) {
				return fastskema.Undefined, nil
			}
			return nil, typeIssue("undefined", v)
		}, nil
	case fastskema.TypeLiteral:
		var want any
		if d.Value != nil {
			want = *d.Value
		}
		return func(_ context.Context, v any) (any, fastskema.Issues) {
			if checks.Equal(want, v) {
				return want, nil
			}
			return nil, fastskema.Issues{checks.LiteralIssue(want, v)}
		}, nil
	case fastskema.TypeEnum:
		values := append([]any(nil), d.Values...)
		return func(_ context.Context, v any) (any, fastskema.Issues) {
			if m, ok := checks.Contains(values, v); ok {
				return m, nil
			}
			return nil, fastskema.Issues{checks.EnumIssue(append([]any(nil), values...), v)}
		}, nil
	case fastskema.TypeObject:
		return c.object(d)
	case fastskema.TypeArray:
		return c.array(d)
	case fastskema.TypeTuple:
		return c.tuple(d)
	case fastskema.TypeRecord:
		return c.record(d)
	case fastskema.TypeUnion:
		return c.union(d)
	case fastskema.TypeDiscriminatedUnion:
		return c.discriminated(d)
	case fastskema.TypeIntersection:
		return c.intersection(d)
	case fastskema.TypeOptional, fastskema.TypeNullable, fastskema.TypeNullish, fastskema.TypeDefault:
		return c.modifier(d)
	case fastskema.TypeEffects:
		if d.Right == nil {
			return nil, c.unsupported(d, "effect "+d.Effect)
		}
		inner, err := c.compile(d.Inner)
		if err != nil {
			return nil, err
		}
		next, err := c.compile(d.Right)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, v any) (any, fastskema.Issues) {
			out, iss := inner(ctx, v)
			if iss != nil {
				return nil, iss
			}
			return next(ctx, out)
		}, nil
	case fastskema.TypeLazy:
		return nil, c.unsupported(d, "lazy reference "+d.Ref)
	}
	return nil, c.unsupported(d, "unknown type")
}

func typeIssue(expected string, v any) fastskema.Issues {
	return fastskema.Issues{fastskema.TypeIssue(expected, checks.TypeName(v))}
}

type field struct {
	name     string
	desc     *fastskema.Descriptor
	optional bool
	run      node
}

func (c *compiler) object(d *fastskema.Descriptor) (node, error) {
	fields := make([]field, len(d.Shape))
	declared := make(map[string]struct{}, len(d.Shape))
	for i, p := range d.Shape {
		run, err := c.compile(p.Schema)
		if err != nil {
			return nil, err
		}
		fields[i] = field{name: p.Name, desc: p.Schema, optional: checks.AcceptsUndefined(p.Schema), run: run}
		declared[p.Name] = struct{}{}
	}
	policy := fastskema.ParseUnknownPolicy(d.UnknownKeys)
	isDeclared := func(k string) bool { _, ok := declared[k]; return ok }
	return func(ctx context.Context, v any) (any, fastskema.Issues) {
		m, ok := checks.AsMap(v)
		if !ok {
			return nil, typeIssue("object", v)
		}
		failFast := fastskema.IsFailFast(ctx)
		out := make(map[string]any, len(fields))
		var iss fastskema.Issues
		for _, f := range fields {
			val, present := m[f.name]
			if !present {
				if !f.optional {
					iss = append(iss, checks.RequiredAt(f.name, f.desc))
					if failFast {
						return nil, iss
					}
					continue
				}
				val = fastskema.Undefined
			}
			res, child := f.run(ctx, val)
			if child != nil {
				iss = append(iss, child.Prefix(f.name)...)
				if failFast {
					return nil, iss
				}
				continue
			}
			if !fastskema.IsUndefined(res) {
				out[f.name] = res
			}
		}
		if policy != fastskema.UnknownStrip {
			extra := checks.UnknownKeys(m, isDeclared)
			switch {
			case len(extra) == 0:
			case policy == fastskema.UnknownStrict:
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
	}, nil
}

func (c *compiler) array(d *fastskema.Descriptor) (node, error) {
	elem, err := c.compile(d.Element)
	if err != nil {
		return nil, err
	}
	bounds, err := checks.CompileArrayLength(d.Checks)
	if err != nil {
		return nil, c.unsupported(d, err.Error())
	}
	unique := d.Unique
	return func(ctx context.Context, v any) (any, fastskema.Issues) {
		arr, ok := checks.AsSlice(v)
		if !ok {
			return nil, typeIssue("array", v)
		}
		failFast := fastskema.IsFailFast(ctx)
		iss := bounds.Run(len(arr))
		if failFast && len(iss) > 0 {
			return nil, iss
		}
		out := make([]any, len(arr))
		for i, e := range arr {
			res, child := elem(ctx, e)
			if child != nil {
				iss = append(iss, child.Prefix(i)...)
				if failFast {
					return nil, iss
				}
				continue
			}
			out[i] = res
		}
		if unique {
			if it, dup := checks.UniqueIssue(arr); dup {
				iss = append(iss, it)
			}
		}
		if len(iss) > 0 {
			return nil, iss
		}
		return out, nil
	}, nil
}

func (c *compiler) tuple(d *fastskema.Descriptor) (node, error) {
	items := make([]node, len(d.Items))
	for i, it := range d.Items {
		n, err := c.compile(it)
		if err != nil {
			return nil, err
		}
		items[i] = n
	}
	var rest node
	if d.Rest != nil {
		n, err := c.compile(d.Rest)
		if err != nil {
			return nil, err
		}
		rest = n
	}
	return func(ctx context.Context, v any) (any, fastskema.Issues) {
		arr, ok := checks.AsSlice(v)
		if !ok {
			return nil, typeIssue("array", v)
		}
		iss := checks.TupleBounds(len(arr), len(items), rest != nil)
		failFast := fastskema.IsFailFast(ctx)
		if failFast && len(iss) > 0 {
			return nil, iss
		}
		n := len(arr)
		if rest == nil {
			n = min(n, len(items))
		}
		out := make([]any, n)
		for i := 0; i < n; i++ {
			run := rest
			if i < len(items) {
				run = items[i]
			}
			res, child := run(ctx, arr[i])
			if child != nil {
				iss = append(iss, child.Prefix(i)...)
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
	}, nil
}

func (c *compiler) record(d *fastskema.Descriptor) (node, error) {
	val, err := c.compile(d.ValueType)
	if err != nil {
		return nil, err
	}
	var key node
	if d.KeyType != nil {
		if key, err = c.compile(d.KeyType); err != nil {
			return nil, err
		}
	}
	return func(ctx context.Context, v any) (any, fastskema.Issues) {
		m, ok := checks.AsMap(v)
		if !ok {
			return nil, typeIssue("object", v)
		}
		failFast := fastskema.IsFailFast(ctx)
		out := make(map[string]any, len(m))
		var iss fastskema.Issues
		for _, k := range checks.SortedKeys(m) {
			outKey := k
			if key != nil {
				kv, child := key(ctx, k)
				if child != nil {
					iss = append(iss, child.Prefix(k)...)
					if failFast {
						return nil, iss
					}
					continue
				}
				if s, ok := kv.(string); ok {
					outKey = s
				}
			}
			res, child := val(ctx, m[k])
			if child != nil {
				iss = append(iss, child.Prefix(k)...)
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
	}, nil
}

func (c *compiler) union(d *fastskema.Descriptor) (node, error) {
	opts := make([]node, len(d.Options))
	for i, o := range d.Options {
		n, err := c.compile(o)
		if err != nil {
			return nil, err
		}
		opts[i] = n
	}
	diagnostics := d.Diagnostics
	return func(ctx context.Context, v any) (any, fastskema.Issues) {
		perOption := make([]fastskema.Issues, len(opts))
		for i, o := range opts {
			out, iss := o(ctx, v)
			if iss == nil {
				return out, nil
			}
			if diagnostics {
				perOption[i] = iss
			}
		}
		return nil, fastskema.Issues{checks.UnionIssue(perOption, diagnostics)}
	}, nil
}

func (c *compiler) discriminated(d *fastskema.Descriptor) (node, error) {
	byTag := map[string]node{}
	var tags []any
	for i, o := range d.Options {
		ts, ok := checks.DiscriminatorTags(o, d.Discriminator)
		if !ok {
			return nil, c.unsupported(d, fmt.Sprintf("option %d has no tag", i))
		}
		n, err := c.compile(o)
		if err != nil {
			return nil, err
		}
		for _, t := range ts {
			k := checks.UniqueKey(t)
			if _, dup := byTag[k]; dup {
				return nil, c.unsupported(d, fmt.Sprintf("duplicate tag %v", t))
			}
			byTag[k] = n
			tags = append(tags, t)
		}
	}
	field := d.Discriminator
	return func(ctx context.Context, v any) (any, fastskema.Issues) {
		m, ok := checks.AsMap(v)
		if !ok {
			return nil, typeIssue("object", v)
		}
		tag, present := m[field]
		if !present {
			return nil, fastskema.Issues{checks.DiscriminatorIssue(field, tags)}
		}
		branch, ok := byTag[checks.UniqueKey(tag)]
		if !ok {
			return nil, fastskema.Issues{checks.DiscriminatorIssue(field, tags)}
		}
		return branch(ctx, v)
	}, nil
}

func (c *compiler) intersection(d *fastskema.Descriptor) (node, error) {
	left, err := c.compile(d.Left)
	if err != nil {
		return nil, err
	}
	right, err := c.compile(d.Right)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, v any) (any, fastskema.Issues) {
		l, liss := left(ctx, v)
		if liss != nil && fastskema.IsFailFast(ctx) {
			return nil, liss
		}
		r, riss := right(ctx, v)
		if liss != nil || riss != nil {
			var iss fastskema.Issues
			iss = append(iss, liss...)
			return nil, append(iss, riss...)
		}
		merged, ok := checks.Merge(l, r)
		if !ok {
			return nil, fastskema.Issues{checks.IntersectionIssue()}
		}
		return merged, nil
	}, nil
}

func (c *compiler) modifier(d *fastskema.Descriptor) (node, error) {
	inner, err := c.compile(d.Inner)
	if err != nil {
		return nil, err
	}
	switch d.Type {
	case fastskema.TypeOptional:
		return func(ctx context.Context, v any) (any, fastskema.Issues) {
			if fastskema.IsUndefined(v) {
				return fastskema.Undefined, nil
			}
			return inner(ctx, v)
		}, nil
	case fastskema.TypeNullable:
		return func(ctx context.Context, v any) (any, fastskema.Issues) {
			if v == nil {
				return nil, nil
			}
			return inner(ctx, v)
		}, nil
	case fastskema.TypeNullish:
		return func(ctx context.Context, v any) (any, fastskema.Issues) {
			if v == nil || fastskema.IsUndefined(v) {
				return v, nil
			}
			return inner(ctx, v)
		}, nil
	}
	var def any
	if d.Default != nil {
		def = *d.Default
	}
	return func(ctx context.Context, v any) (any, fastskema.Issues) {
		if fastskema.IsUndefined(v) {
			v = checks.Clone(def)
		}
		return inner(ctx, v)
	}, nil
}
