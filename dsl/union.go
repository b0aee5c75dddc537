package dsl

import (
	"context"
	"fmt"

	fastskema "github.com/reoring/fastskema"
	"github.com/reoring/fastskema/internal/checks"
)

// UnionSchema tries its options in order; the first success wins.
type UnionSchema struct {
	base
	options     []fastskema.Schema
	diagnostics bool
}

// Union accepts a value matching any of options.
func Union(options ...fastskema.Schema) *UnionSchema {
	u := &UnionSchema{options: options}
	u.bind(u)
	return u
}

// Diagnostics attaches the issues of every failed option to the
// invalid_union issue (Issue.Details, under option_<i>).
func (u *UnionSchema) Diagnostics() *UnionSchema { u.diagnostics = true; return u }

// Options returns the options in declared order.
func (u *UnionSchema) Options() []fastskema.Schema { return append([]fastskema.Schema(nil), u.options...) }

func (u *UnionSchema) Describe(text string) *UnionSchema { u.description = text; return u }

func (u *UnionSchema) Parse(ctx context.Context, v any) (any, error) {
	var perOption []fastskema.Issues
	if u.diagnostics {
		perOption = make([]fastskema.Issues, 0, len(u.options))
	}
	for _, o := range u.options {
		out, err := o.Parse(ctx, v)
		if err == nil {
			return out, nil
		}
		if u.diagnostics {
			perOption = append(perOption, fastskema.ToIssues(nil, err))
		}
	}
	if !u.diagnostics {
		perOption = make([]fastskema.Issues, len(u.options))
	}
	return nil, fastskema.Issues{checks.UnionIssue(perOption, u.diagnostics)}
}

func (u *UnionSchema) Descriptor() *fastskema.Descriptor {
	d := &fastskema.Descriptor{
		Type:        fastskema.TypeUnion,
		Options:     make([]*fastskema.Descriptor, len(u.options)),
		Diagnostics: u.diagnostics,
	}
	for i, o := range u.options {
		d.Options[i] = o.Descriptor()
	}
	return u.describe(d)
}

// ---- discriminated union ----

// DiscriminatedUnionSchema dispatches on the value of one key. Tags are read
// from each branch's literal or enum field when the schema is built.
type DiscriminatedUnionSchema struct {
	base
	field    string
	branches []*ObjectSchema
	byTag    map[string]int
	tags     []any
}

// DiscriminatedUnion builds a union over object branches keyed by field.
// It panics when a branch lacks a literal/enum field or two branches claim
// the same tag; both are programming errors.
func DiscriminatedUnion(field string, branches ...*ObjectSchema) *DiscriminatedUnionSchema {
	du, err := newDiscriminatedUnion(field, branches)
	if err != nil {
		panic(err)
	}
	return du
}

func newDiscriminatedUnion(field string, branches []*ObjectSchema) (*DiscriminatedUnionSchema, error) {
	du := &DiscriminatedUnionSchema{field: field, branches: branches, byTag: map[string]int{}}
	for i, b := range branches {
		tags, ok := checks.DiscriminatorTags(b.Descriptor(), field)
		if !ok {
			return nil, fmt.Errorf("dsl: discriminated union option %d has no literal or enum %q field", i, field)
		}
		for _, t := range tags {
			k := checks.UniqueKey(t)
			if j, dup := du.byTag[k]; dup {
				return nil, fmt.Errorf("dsl: discriminator value %v used by options %d and %d", t, j, i)
			}
			du.byTag[k] = i
			du.tags = append(du.tags, t)
		}
	}
	du.bind(du)
	return du, nil
}

// Discriminator returns the key used for dispatch.
func (du *DiscriminatedUnionSchema) Discriminator() string { return du.field }

func (du *DiscriminatedUnionSchema) Describe(text string) *DiscriminatedUnionSchema {
	du.description = text
	return du
}

func (du *DiscriminatedUnionSchema) Parse(ctx context.Context, v any) (any, error) {
	m, ok := checks.AsMap(v)
	if !ok {
		return nil, typeIssue("object", v)
	}
	tag, present := m[du.field]
	if !present {
		return nil, fastskema.Issues{checks.DiscriminatorIssue(du.field, du.tags)}
	}
	i, ok := du.byTag[checks.UniqueKey(tag)]
	if !ok {
		return nil, fastskema.Issues{checks.DiscriminatorIssue(du.field, du.tags)}
	}
	return du.branches[i].Parse(ctx, v)
}

func (du *DiscriminatedUnionSchema) Descriptor() *fastskema.Descriptor {
	d := &fastskema.Descriptor{
		Type:          fastskema.TypeDiscriminatedUnion,
		Discriminator: du.field,
		Options:       make([]*fastskema.Descriptor, len(du.branches)),
	}
	for i, b := range du.branches {
		d.Options[i] = b.Descriptor()
	}
	return du.describe(d)
}

// ---- intersection ----

// IntersectionSchema requires both sides to accept the value and merges
// their outputs.
type IntersectionSchema struct {
	base
	left, right fastskema.Schema
}

// Intersection validates v against left and right.
func Intersection(left, right fastskema.Schema) *IntersectionSchema {
	is := &IntersectionSchema{left: left, right: right}
	is.bind(is)
	return is
}

func (is *IntersectionSchema) Describe(text string) *IntersectionSchema {
	is.description = text
	return is
}

func (is *IntersectionSchema) Parse(ctx context.Context, v any) (any, error) {
	l, lerr := is.left.Parse(ctx, v)
	if lerr != nil && fastskema.IsFailFast(ctx) {
		return nil, fastskema.ToIssues(nil, lerr)
	}
	r, rerr := is.right.Parse(ctx, v)
	if lerr != nil || rerr != nil {
		var iss fastskema.Issues
		if lerr != nil {
			iss = collect(iss, lerr)
		}
		if rerr != nil {
			iss = collect(iss, rerr)
		}
		return nil, iss
	}
	merged, ok := checks.Merge(l, r)
	if !ok {
		return nil, fastskema.Issues{checks.IntersectionIssue()}
	}
	return merged, nil
}

func (is *IntersectionSchema) Descriptor() *fastskema.Descriptor {
	return is.describe(&fastskema.Descriptor{
		Type:  fastskema.TypeIntersection,
		Left:  is.left.Descriptor(),
		Right: is.right.Descriptor(),
	})
}
