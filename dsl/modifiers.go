package dsl

import (
	"context"
	"errors"
	"fmt"

	fastskema "github.com/reoring/fastskema"
	"github.com/reoring/fastskema/internal/checks"
)

// Modified wraps a child with one of the Modifier tags. Composites inspect the
// tag through fastskema.ModifierOf rather than the concrete type.
type Modified struct {
	base
	kind  fastskema.Modifier
	inner fastskema.Schema
	def   any
}

func modified(kind fastskema.Modifier, inner fastskema.Schema, def any) *Modified {
	m := &Modified{kind: kind, inner: inner, def: def}
	m.bind(m)
	return m
}

// Optional wraps s so that an absent value passes through as Undefined.
func Optional(s fastskema.Schema) *Modified { return modified(fastskema.ModOptional, s, nil) }

// Nullable wraps s so that null passes through.
func Nullable(s fastskema.Schema) *Modified { return modified(fastskema.ModNullable, s, nil) }

// Nullish wraps s so that both absent and null pass through.
func Nullish(s fastskema.Schema) *Modified { return modified(fastskema.ModNullish, s, nil) }

// Default wraps s so that an absent value is replaced by v, which is then
// validated by s like any other input.
func Default(s fastskema.Schema, v any) *Modified { return modified(fastskema.ModDefault, s, v) }

// Modifier returns the tag. A nullable wrapper around a node that accepts an
// absent key reports ModNullish.
func (m *Modified) Modifier() fastskema.Modifier {
	if m.kind == fastskema.ModNullable && fastskema.ModifierOf(m.inner).AcceptsUndefined() {
		return fastskema.ModNullish
	}
	return m.kind
}

// Unwrap returns the wrapped schema.
func (m *Modified) Unwrap() fastskema.Schema { return m.inner }

func (m *Modified) Parse(ctx context.Context, v any) (any, error) {
	switch m.kind {
	case fastskema.ModOptional:
		if fastskema.IsUndefined(v) {
			return fastskema.Undefined, nil
		}
	case fastskema.ModNullable:
		if v == nil {
			return nil, nil
		}
	case fastskema.ModNullish:
		if v == nil || fastskema.IsUndefined(v) {
			return v, nil
		}
	case fastskema.ModDefault:
		if fastskema.IsUndefined(v) {
			v = checks.Clone(m.def)
		}
	}
	return m.inner.Parse(ctx, v)
}

func (m *Modified) Descriptor() *fastskema.Descriptor {
	d := &fastskema.Descriptor{Type: m.kind.String(), Inner: m.inner.Descriptor()}
	if m.kind == fastskema.ModDefault {
		d.Default = fastskema.ValuePtr(m.def)
	}
	return m.describe(d)
}

// ---- effects ----

// Effect kinds as they appear in descriptors.
const (
	EffectRefine      = "refine"
	EffectSuperRefine = "superRefine"
	EffectTransform   = "transform"
	EffectPipe        = "pipe"
)

// Effect post-processes the value produced by its inner schema. The effect
// only runs when the inner schema succeeded.
type Effect struct {
	base
	kind  string
	inner fastskema.Schema
	next  fastskema.Schema
	run   func(ctx context.Context, v any) (any, error)
}

func effect(kind string, inner fastskema.Schema, run func(context.Context, any) (any, error)) *Effect {
	e := &Effect{kind: kind, inner: inner, run: run}
	e.bind(e)
	return e
}

// Refine fails with a custom issue when pred returns false.
func Refine(s fastskema.Schema, pred func(any) bool, msg ...string) *Effect {
	return effect(EffectRefine, s, func(_ context.Context, v any) (any, error) {
		if pred(v) {
			return v, nil
		}
		return nil, fastskema.Issues{customIssue(msg)}
	})
}

// RefineCtx runs fn with the parse context, so it may block on I/O and observe
// cancellation. A returned Issues value is used as is; other errors become a
// custom issue carrying the error text.
func RefineCtx(s fastskema.Schema, fn func(context.Context, any) error) *Effect {
	return effect(EffectRefine, s, func(ctx context.Context, v any) (any, error) {
		err := fn(ctx, v)
		if err == nil {
			return v, nil
		}
		if iss, ok := fastskema.AsIssues(err); ok {
			return nil, iss
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fastskema.ToIssues(nil, err)
		}
		it := customIssue([]string{err.Error()})
		it.Cause = err
		return nil, fastskema.Issues{it}
	})
}

// SuperRefine hands the value and an issue collector to fn. Any issue added
// fails the node.
func SuperRefine(s fastskema.Schema, fn func(any, *RefineContext)) *Effect {
	return effect(EffectSuperRefine, s, func(ctx context.Context, v any) (any, error) {
		rc := &RefineContext{Context: ctx, root: fastskema.NewPathRef(nil)}
		fn(v, rc)
		if len(rc.issues) > 0 {
			return nil, rc.issues
		}
		return v, nil
	})
}

// Transform replaces the value with fn's result. An error from fn becomes a
// custom issue.
func Transform(s fastskema.Schema, fn func(any) (any, error)) *Effect {
	return effect(EffectTransform, s, func(_ context.Context, v any) (any, error) {
		out, err := fn(v)
		if err != nil {
			if iss, ok := fastskema.AsIssues(err); ok {
				return nil, iss
			}
			it := customIssue([]string{err.Error()})
			it.Cause = err
			return nil, fastskema.Issues{it}
		}
		return out, nil
	})
}

// Pipe validates the output of s with next.
func Pipe(s, next fastskema.Schema) *Effect {
	e := effect(EffectPipe, s, func(ctx context.Context, v any) (any, error) { return next.Parse(ctx, v) })
	e.next = next
	return e
}

func customIssue(msg []string) fastskema.Issue {
	it := fastskema.NewIssue(fastskema.CodeCustom, nil)
	if len(msg) > 0 && msg[0] != "" {
		it.Message = msg[0]
	}
	return it
}

// Modifier forwards the tag of the wrapped schema, so Optional().Refine(...)
// is still optional inside an object.
func (e *Effect) Modifier() fastskema.Modifier { return fastskema.ModifierOf(e.inner) }

// Kind reports the effect kind.
func (e *Effect) Kind() string { return e.kind }

// Unwrap returns the wrapped schema.
func (e *Effect) Unwrap() fastskema.Schema { return e.inner }

func (e *Effect) Parse(ctx context.Context, v any) (any, error) {
	out, err := e.inner.Parse(ctx, v)
	if err != nil {
		return nil, err
	}
	return e.run(ctx, out)
}

func (e *Effect) Descriptor() *fastskema.Descriptor {
	d := &fastskema.Descriptor{Type: fastskema.TypeEffects, Effect: e.kind, Inner: e.inner.Descriptor()}
	if e.kind == EffectPipe {
		d.Right = e.next.Descriptor()
	} else {
		d.Opaque = true
	}
	return e.describe(d)
}

// RefineContext collects issues raised by a SuperRefine callback. Paths are
// relative to the refined value.
type RefineContext struct {
	Context context.Context
	root    fastskema.PathRef
	issues  fastskema.Issues
}

// Path returns a builder anchored at the refined value:
// rc.Path().Field("confirm").Issue(fastskema.CodeCustom, "must match").
func (rc *RefineContext) Path() fastskema.PathRef { return rc.root }

// Report adds an issue. An empty code defaults to custom.
func (rc *RefineContext) Report(it fastskema.Issue) {
	if it.Code == "" {
		it.Code = fastskema.CodeCustom
	}
	if it.Message == "" {
		it.Message = fastskema.NewIssue(it.Code, it.Params).Message
	}
	rc.issues = append(rc.issues, it)
}

// Addf reports a custom issue at the refined value.
func (rc *RefineContext) Addf(format string, args ...any) {
	rc.Report(fastskema.Issue{Code: fastskema.CodeCustom, Message: fmt.Sprintf(format, args...)})
}

// Issues returns what has been reported so far.
func (rc *RefineContext) Issues() fastskema.Issues { return append(fastskema.Issues(nil), rc.issues...) }
